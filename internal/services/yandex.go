// Yandex Music [Searcher] implementation
//
// Tracks are opened on music.yandex.ru rather than streamed in-session.
package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
	"golang.org/x/oauth2"
)

// YandexEndpoint is the OAuth 2.0 endpoint of Yandex ID.
var YandexEndpoint = oauth2.Endpoint{
	AuthURL:   "https://oauth.yandex.ru/authorize",
	TokenURL:  "https://oauth.yandex.ru/token",
	AuthStyle: oauth2.AuthStyleInParams,
}

const (
	defaultYandexBaseURL = "https://api.music.yandex.net"
	yandexPageSize       = 20
	yandexTokenType      = "OAuth"
)

// YandexService searches Yandex Music and reads its chart.
//
// Authentication uses a static OAuth token sent as "Authorization: OAuth <token>".
type YandexService struct {
	api      *APIService
	hasToken bool
}

// NewYandexService creates a [YandexService]. base is the transport client used under the token source; nil means [http.DefaultClient].
func NewYandexService(cfg shared.YandexConfig, base *http.Client) *YandexService {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultYandexBaseURL
	}

	client := base
	token := strings.TrimSpace(cfg.Token)
	if token != "" {
		ctx := context.Background()
		if base != nil {
			ctx = context.WithValue(ctx, oauth2.HTTPClient, base)
		}
		src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: token, TokenType: yandexTokenType})
		client = oauth2.NewClient(ctx, src)
	}

	return &YandexService{api: NewAPIService(baseURL, client), hasToken: token != ""}
}

// YandexOAuthConfig builds the authorization code flow config for obtaining a Yandex Music token.
func YandexOAuthConfig(cfg shared.YandexConfig) (*oauth2.Config, error) {
	if !cfg.HasOAuthClient() {
		return nil, fmt.Errorf("%w: providers.yandex.client_id and client_secret are required", shared.ErrMissingCredentials)
	}
	return &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		RedirectURL:  cfg.RedirectURI,
		Endpoint:     YandexEndpoint,
	}, nil
}

// API exposes the underlying client so callers can apply a rate limit.
func (y *YandexService) API() *APIService { return y.api }

// Kind returns [models.ProviderCatalogHandoff].
func (y *YandexService) Kind() models.ProviderKind { return models.ProviderCatalogHandoff }

// Name returns the service name.
func (y *YandexService) Name() string { return "Yandex Music" }

type yandexSearchResponse struct {
	Result struct {
		Tracks struct {
			Results []models.RawItem `json:"results"`
		} `json:"tracks"`
	} `json:"result"`
}

type yandexChartResponse struct {
	Result struct {
		Chart struct {
			Tracks []struct {
				Track models.RawItem `json:"track"`
			} `json:"tracks"`
		} `json:"chart"`
	} `json:"result"`
}

// Search calls GET /search?type=track&text=<q>&page=0&pageSize=20.
func (y *YandexService) Search(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}
	if err := y.checkToken(); err != nil {
		return nil, err
	}

	params := url.Values{}
	params.Set("type", "track")
	params.Set("text", query)
	params.Set("page", "0")
	params.Set("pageSize", fmt.Sprint(yandexPageSize))

	var resp yandexSearchResponse
	if err := y.api.GetJSON(ctx, "/search", params, &resp); err != nil {
		return nil, fmt.Errorf("yandex search %q: %w", query, err)
	}

	return normalizeAll(y.Kind(), resp.Result.Tracks.Results)
}

// FetchDefault returns the first 20 chart positions from GET /landing3/chart.
func (y *YandexService) FetchDefault(ctx context.Context) ([]models.Track, error) {
	if err := y.checkToken(); err != nil {
		return nil, err
	}

	var resp yandexChartResponse
	if err := y.api.GetJSON(ctx, "/landing3/chart", nil, &resp); err != nil {
		return nil, fmt.Errorf("yandex chart: %w", err)
	}

	positions := resp.Result.Chart.Tracks
	if len(positions) > yandexPageSize {
		positions = positions[:yandexPageSize]
	}

	items := make([]models.RawItem, 0, len(positions))
	for _, p := range positions {
		items = append(items, p.Track)
	}
	return normalizeAll(y.Kind(), items)
}

func (y *YandexService) checkToken() error {
	if !y.hasToken {
		return fmt.Errorf("%w: %w: %s is not configured", shared.ErrNetworkFailure, shared.ErrMissingCredentials, shared.EnvYandexToken)
	}
	return nil
}
