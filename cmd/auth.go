package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/desertthunder/mixtape/internal/shared"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

const oauthTimeout = 2 * time.Minute

// AuthLogin logs in as a local user and saves the signed session to the config file.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	username := cmd.StringArg("username")
	if username == "" {
		return fmt.Errorf("%w: username", shared.ErrMissingArgument)
	}

	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := r.sessions(db)
	if err != nil {
		return err
	}

	sess, err := manager.Login(username, cmd.String("email"))
	if err != nil {
		return err
	}

	session.Store(r.config, sess)
	if err := r.saveConfig(); err != nil {
		return err
	}

	r.logger.Info("logged in", "user", sess.User.ID(), "username", sess.User.Username())
	r.writePlain("✓ Logged in as %s\n", sess.User.DisplayName())
	return r.writePlain("Session expires %s\n", sess.ExpiresAt.Format(time.RFC1123))
}

// AuthLogout clears the saved session.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	session.Logout(r.config)
	if err := r.saveConfig(); err != nil {
		return err
	}
	return r.writePlain("✓ Logged out\n")
}

// AuthStatus reports the saved session and which provider credentials are present.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	r.writePlainHeader("Authentication")

	sess, err := r.currentSession(db)
	switch {
	case errors.Is(err, shared.ErrTokenExpired):
		r.writePlain("Session: ✗ Expired\n")
	case err != nil:
		r.logger.Debug("no valid session", "error", err)
		r.writePlain("Session: ✗ Not logged in\n")
	default:
		r.writePlain("Session: ✓ %s (%s)\n", sess.User.DisplayName(), sess.User.ID())
		r.writePlain("Expires: %s\n", sess.ExpiresAt.Format(time.RFC1123))
	}

	if r.config.Providers.Yandex.Token != "" {
		r.writePlain("Yandex Music: ✓ Token configured\n")
	} else {
		r.writePlain("Yandex Music: ✗ No token (run 'mixtape auth yandex' or set %s)\n", shared.EnvYandexToken)
	}
	return nil
}

// AuthYandex runs the OAuth2 authorization code flow for Yandex Music and saves the token.
func (r *Runner) AuthYandex(ctx context.Context, cmd *cli.Command) error {
	oauthConfig, err := services.YandexOAuthConfig(r.config.Providers.Yandex)
	if err != nil {
		return err
	}

	token, err := r.doOAuth(ctx, oauthConfig)
	if err != nil {
		return err
	}

	if err := r.saveTokens(token); err != nil {
		return err
	}

	r.writePlainln("✓ Authorization successful")
	if r.configPath != "" {
		r.writePlain("✓ Token saved to %s\n\n", r.configPath)
	}
	return r.writePlain("You can now use: mixtape search --provider yandex \"your song\"\n")
}

// saveTokens stores the Yandex token in the config and writes it to disk.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if err := r.config.Providers.Yandex.Update(token); err != nil {
		return fmt.Errorf("failed to update yandex configuration: %w", err)
	}
	return r.saveConfig()
}

// callbackAddr is the listen address for the OAuth redirect.
func (r *Runner) callbackAddr() string {
	if u, err := url.Parse(r.config.Providers.Yandex.RedirectURI); err == nil && u.Host != "" {
		return u.Host
	}
	return r.config.ServerAddr()
}

// doOAuth executes the OAuth2 authorization flow with a local HTTP server
func (r *Runner) doOAuth(ctx context.Context, oauthConfig *oauth2.Config) (*oauth2.Token, error) {
	state, err := shared.GenerateState()
	if err != nil {
		return nil, fmt.Errorf("failed to generate state token: %w", err)
	}

	authURL := oauthConfig.AuthCodeURL(state)
	oauthHandler := server.NewOAuthHandler(oauthConfig, state)
	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	router.Handler(oauthHandler)

	serverAddr := r.callbackAddr()
	httpServer := &http.Server{
		Addr:              serverAddr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("starting OAuth callback server at %v", serverAddr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrors <- err
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			r.logger.Warn("error shutting down server", "error", err)
		}
	}()

	r.writePlain("→ Opening browser for Yandex Music authorization...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	r.writePlain("→ Waiting for authorization (2 minute timeout)...\n")

	timeout := time.NewTimer(oauthTimeout)
	defer timeout.Stop()

	var result server.OAuthResult
	select {
	case result = <-oauthHandler.Result():
	case err := <-serverErrors:
		return nil, fmt.Errorf("server error: %w", err)
	case <-timeout.C:
		return nil, fmt.Errorf("%w: authorization timed out after 2 minutes", shared.ErrTimeout)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	if result.Err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, result.Err)
	}
	if result.Token == nil {
		return nil, fmt.Errorf("%w: no token received", shared.ErrAuthFailed)
	}
	return result.Token, nil
}
