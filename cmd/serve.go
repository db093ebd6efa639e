package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"biletmaster/handlers"
	"biletmaster/monitoring"
	"biletmaster/security"
)

func newServeCmd() *cobra.Command {
	var port string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the JSON API and websocket sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if port != "" {
				a.cfg.Port = port
			}
			return a.serve(ctx)
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides PORT)")
	return cmd
}

func (a *app) router() *echo.Echo {
	e := echo.New()
	e.Use(security.AntiBotMiddleware())

	limit := security.MemoryRateLimit(a.cfg.RateLimitPerMinute)
	if a.redis != nil {
		limit = security.NewRateLimiter(a.redis, a.cfg.RateLimitPerMinute, a.log).APIRateLimit()
	}

	eventsHandler := handlers.NewEventsHandler(a.source, a.cfg.GroupKeys, a.log)
	sessionHandler := handlers.NewSessionHandler(a.source, a.prober, a.cfg.GroupKeys, a.mirrors, a.log)
	healthHandler := handlers.NewHealthHandler(a.redis, a.breaker)

	api := e.Group("/api", limit)
	api.GET("/locations", eventsHandler.GetLocations)
	api.GET("/locations/raw", eventsHandler.GetRawLocations)
	api.GET("/events", eventsHandler.GetEvents)

	e.GET("/ws", sessionHandler.Connect)
	e.GET("/health", healthHandler.GetHealth)
	if a.cfg.EnableMetrics {
		e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	}
	return e
}

func (a *app) serve(ctx context.Context) error {
	if a.redis != nil && a.cfg.EnableMetrics {
		go monitoring.NewMonitor(a.redis, a.cfg.SnapshotPrefix, 30*time.Second, a.log).Run(ctx)
	}

	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           a.router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		a.log.Info("listening", "addr", srv.Addr, "environment", a.cfg.Environment)
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutdown signal received, cleaning up")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
