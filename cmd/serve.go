package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/server"
	"github.com/desertthunder/mixtape/internal/session"
	"github.com/urfave/cli/v3"
)

// Serve runs the JSON API until the command is interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	db, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer db.Close()

	manager, err := r.sessions(db)
	if err != nil {
		return err
	}

	api := server.NewAPI(func(sess session.Authenticator) (*controller.Music, error) {
		return r.newMusic(sess, db, false)
	}, r.logger)
	defer api.Close()

	router := server.NewBasicRouter()
	router.Use(server.RequestLogger(r.logger))
	server.NewLoginHandler(manager).Register(router)
	router.Use(server.RequireSession(manager))
	api.Register(router)

	addr := cmd.String("addr")
	if addr == "" {
		addr = r.config.ServerAddr()
	}
	httpServer := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		r.logger.Infof("serving API at http://%v", addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErrors <- err
		}
	}()

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	r.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
