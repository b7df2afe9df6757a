package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/lacak-emas/lacak-emas-api/internal/api"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the REST API",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		if servePort != 0 {
			cfg.Server.Port = servePort
		}

		env, err := initEnv(ctx, cfg, "serve")
		if err != nil {
			return err
		}
		defer env.Close()

		srv := &http.Server{
			Addr:              net.JoinHostPort(cfg.Server.Host, strconv.Itoa(cfg.Server.Port)),
			Handler:           newAPI(env).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		return listenAndServe(ctx, srv, time.Duration(cfg.Server.ShutdownTimeoutSecs)*time.Second)
	},
}

func newAPI(env *appEnv) *api.Server {
	return api.New(api.Deps{
		Prices:      env.Prices,
		Store:       env.Store,
		Syncer:      env.Syncer,
		Catalog:     env.Catalog,
		Metrics:     env.Metrics,
		BaseURL:     cfg.Feed.BaseURL,
		CORSOrigins: cfg.Server.CORSOrigins,
		Location:    cfg.Location(),
	})
}

// listenAndServe runs srv until ctx is cancelled, then drains in-flight
// requests for at most grace.
func listenAndServe(ctx context.Context, srv *http.Server, grace time.Duration) error {
	errc := make(chan error, 1)
	go func() {
		zap.L().Info("starting server", zap.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return eris.Wrap(err, "server listen")
		}
		return nil
	case <-ctx.Done():
	}

	zap.L().Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "server shutdown")
	}
	return nil
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
