package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"golang.org/x/oauth2"
)

// CallbackPath is the redirect path registered with the OAuth provider.
const CallbackPath = "/callback"

// Exchanger trades an authorization code for a token.
//
// Implemented by [oauth2.Config].
type Exchanger interface {
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// OAuthResult is the outcome of one authorization code callback.
type OAuthResult struct {
	Token *oauth2.Token
	Err   error
}

// OAuthHandler receives the provider's redirect and exchanges the code.
//
// Only the first callback is processed; later requests get 400.
type OAuthHandler struct {
	exchanger Exchanger
	state     string
	result    chan OAuthResult

	mu   sync.Mutex
	used bool
}

// NewOAuthHandler creates an [OAuthHandler] expecting state on the callback.
func NewOAuthHandler(exchanger Exchanger, state string) *OAuthHandler {
	return &OAuthHandler{exchanger: exchanger, state: state, result: make(chan OAuthResult, 1)}
}

// Routes returns the callback route.
func (h *OAuthHandler) Routes() []string {
	return []string{"GET " + CallbackPath}
}

// Result delivers exactly one [OAuthResult] and is then closed.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.result
}

func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mu.Lock()
	if h.used {
		h.mu.Unlock()
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}
	h.used = true
	h.mu.Unlock()

	q := r.URL.Query()
	if q.Get("state") != h.state {
		h.send(OAuthResult{Err: fmt.Errorf("invalid state parameter")})
		http.Error(w, "Invalid state parameter", http.StatusBadRequest)
		return
	}

	code := q.Get("code")
	if code == "" {
		h.send(OAuthResult{Err: fmt.Errorf("authorization failed: %s - %s", q.Get("error"), q.Get("error_description"))})
		http.Error(w, "Authorization failed", http.StatusBadRequest)
		return
	}

	token, err := h.exchanger.Exchange(r.Context(), code)
	if err != nil {
		h.send(OAuthResult{Err: fmt.Errorf("token exchange failed: %w", err)})
		http.Error(w, "Token exchange failed", http.StatusBadGateway)
		return
	}

	h.send(OAuthResult{Token: token})

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, `<!DOCTYPE html>
<html>
<head><title>mixtape</title></head>
<body>
    <h1>✓ Yandex Music connected</h1>
    <p>You can close this window and return to the terminal.</p>
</body>
</html>
`)
}

func (h *OAuthHandler) send(res OAuthResult) {
	h.result <- res
	close(h.result)
}
