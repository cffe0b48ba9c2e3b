package server

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
)

const defaultLandingPath = "/api/library"

// Authority logs users in.
//
// Implemented by [session.Manager].
type Authority interface {
	Login(username, email string) (*session.Session, error)
}

// LoginHandler serves the login form and sets the session cookie.
type LoginHandler struct {
	auth Authority
}

// NewLoginHandler creates a [LoginHandler].
func NewLoginHandler(auth Authority) *LoginHandler {
	return &LoginHandler{auth: auth}
}

// Register adds the public login and logout routes to r.
//
// Call it before installing [RequireSession].
func (h *LoginHandler) Register(r *BasicRouter) {
	r.HandleFunc(http.MethodGet, LoginPath, h.form)
	r.HandleFunc(http.MethodPost, LoginPath, h.login)
	r.HandleFunc(http.MethodPost, "/logout", h.logout)
}

func (h *LoginHandler) form(w http.ResponseWriter, r *http.Request) {
	next := html.EscapeString(safeNext(r.URL.Query().Get("next")))

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>mixtape login</title></head>
<body>
    <form method="post" action="%s">
        <input type="hidden" name="next" value="%s">
        <label>Username <input name="username" required></label>
        <label>Email <input name="email" type="email"></label>
        <button type="submit">Log in</button>
    </form>
</body>
</html>
`, LoginPath, next)
}

func (h *LoginHandler) login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeError(w, fmt.Errorf("%w: %v", shared.ErrInvalidInput, err))
		return
	}

	sess, err := h.auth.Login(r.PostForm.Get("username"), r.PostForm.Get("email"))
	if err != nil {
		if errors.Is(err, shared.ErrMissingArgument) {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "login failed"})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	if wantsJSON(r) {
		writeJSON(w, http.StatusOK, loginBody{
			Token:     sess.Token,
			UserID:    sess.User.ID(),
			Username:  sess.User.Username(),
			ExpiresAt: sess.ExpiresAt,
		})
		return
	}
	http.Redirect(w, r, safeNext(r.PostForm.Get("next")), http.StatusSeeOther)
}

func (h *LoginHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

// safeNext keeps redirects on this host.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return defaultLandingPath
	}
	return next
}
