// Catalog (iTunes Search compatible) [Searcher] implementation
package services

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/desertthunder/mixtape/internal/models"
	"github.com/desertthunder/mixtape/internal/shared"
)

const (
	defaultCatalogLimit = 25
	defaultCatalogTerm  = "top hits"
)

// CatalogService searches a song catalog whose tracks carry playable preview URLs.
//
// Requests take the form GET <endpoint>?term=<q>&entity=song&limit=<n> and answer {"results": [...]}.
type CatalogService struct {
	api         *APIService
	limit       int
	defaultTerm string
}

// NewCatalogService creates a [CatalogService] over api, whose base URL is the search endpoint.
func NewCatalogService(api *APIService, cfg shared.CatalogConfig) *CatalogService {
	limit := cfg.Limit
	if limit <= 0 {
		limit = defaultCatalogLimit
	}
	term := strings.TrimSpace(cfg.DefaultTerm)
	if term == "" {
		term = defaultCatalogTerm
	}
	return &CatalogService{api: api, limit: limit, defaultTerm: term}
}

// Kind returns [models.ProviderCatalogPreview].
func (c *CatalogService) Kind() models.ProviderKind { return models.ProviderCatalogPreview }

// Name returns the service name.
func (c *CatalogService) Name() string { return "Catalog" }

// DefaultTerm is the seed query used by [CatalogService.FetchDefault].
func (c *CatalogService) DefaultTerm() string { return c.defaultTerm }

// Search returns the songs matching query.
func (c *CatalogService) Search(ctx context.Context, query string) ([]models.Track, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, fmt.Errorf("%w: empty query", shared.ErrInvalidInput)
	}

	params := url.Values{}
	params.Set("term", query)
	params.Set("entity", "song")
	params.Set("limit", strconv.Itoa(c.limit))

	var resp struct {
		ResultCount int              `json:"resultCount"`
		Results     []models.RawItem `json:"results"`
	}
	if err := c.api.GetJSON(ctx, "", params, &resp); err != nil {
		return nil, fmt.Errorf("catalog search %q: %w", query, err)
	}

	return normalizeAll(c.Kind(), resp.Results)
}

// FetchDefault returns the popular list, seeded by the configured default term.
func (c *CatalogService) FetchDefault(ctx context.Context) ([]models.Track, error) {
	return c.Search(ctx, c.defaultTerm)
}
