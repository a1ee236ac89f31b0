package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/metalagman/openainodes/internal/host"
	"github.com/metalagman/openainodes/internal/httphost"
	"github.com/metalagman/openainodes/internal/metrics"
	"github.com/metalagman/openainodes/internal/reconcile"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"go.uber.org/fx"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:          "serve",
		Short:        "Serve the nodes over HTTP",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ws, closeFn, err := openWorkspace()
			if err != nil {
				return err
			}
			defer closeFn()
			if addr == "" {
				addr = ws.cfg.Addr()
			}

			app := fx.New(
				fx.NopLogger,
				fx.Supply(ws, listenAddr(addr)),
				fx.Provide(
					metrics.New,
					func(ws *workspace, recorder *metrics.Recorder) (host.Invoker, error) {
						return ws.invoker(recorder)
					},
					httphost.NewServer,
					newHTTPServer,
				),
				fx.Invoke(func(*http.Server) {}),
				fx.Invoke(reconcileOnStart),
			)
			if err := app.Err(); err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := app.Start(ctx); err != nil {
				return err
			}
			select {
			case <-ctx.Done():
			case <-app.Done():
			}
			stopCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return app.Stop(stopCtx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (defaults to http.addr from config)")
	return cmd
}

type listenAddr string

func newHTTPServer(lc fx.Lifecycle, addr listenAddr, s *httphost.Server) *http.Server {
	srv := &http.Server{
		Addr:              string(addr),
		Handler:           s.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	lc.Append(fx.Hook{
		OnStart: func(context.Context) error {
			ln, err := net.Listen("tcp", srv.Addr)
			if err != nil {
				return err
			}
			log.Info().Str("addr", ln.Addr().String()).Msg("serving nodes over http")
			go func() {
				if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Error().Err(err).Msg("http server stopped")
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return srv.Shutdown(ctx)
		},
	})
	return srv
}

// reconcileOnStart fails abandoned invocations and applies the configured retention.
func reconcileOnStart(lc fx.Lifecycle, ws *workspace) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			res, err := reconcile.Run(ctx, ws.db, reconcile.DefaultStaleAfter, ws.retention())
			if err != nil {
				return err
			}
			log.Debug().
				Int("interrupted", res.Interrupted).
				Int("pruned", res.Pruned.Deleted).
				Msg("reconciled invocation history")
			return nil
		},
	})
}
