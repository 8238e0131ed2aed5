package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/ticket-tracker/internal/api/http"
	"github.com/spec-kit/ticket-tracker/internal/api/http/handlers"
	"github.com/spec-kit/ticket-tracker/internal/auth"
	"github.com/spec-kit/ticket-tracker/internal/mq"
	"github.com/spec-kit/ticket-tracker/internal/observability"
	"github.com/spec-kit/ticket-tracker/internal/service"
	"github.com/spec-kit/ticket-tracker/internal/worker"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rt, err := newRuntime(ctx, false)
	if err != nil {
		return err
	}
	defer rt.Close()
	cfg, logger := rt.cfg, rt.logger

	if cfg.App.SeedDefaultTemplate {
		if _, _, err := rt.templates.EnsureDefaultTemplate(ctx); err != nil {
			return err
		}
	}

	publisher, err := mq.NewPublisher(cfg.Events, logger)
	if err != nil {
		logger.Warn("event broker unavailable, events are only logged", zap.Error(err))
		publisher = nil
	}
	notifications := service.NewNotificationService(rt.dispatcher, publisher, logger)
	workerCtx, stopWorker := context.WithCancel(context.Background())
	workerDone := worker.StartNotificationWorker(workerCtx, notifications, publisher, logger)
	defer func() {
		stopWorker()
		<-workerDone
	}()

	authService := service.NewAuthService(*cfg)
	var authMiddleware *auth.AuthMiddleware
	if authService.Enabled() {
		authMiddleware = auth.NewAuthMiddleware(authService.TokenManager())
	} else {
		logger.Warn("AUTH_PASSWORD_HASH is empty, the API is unauthenticated")
	}

	dependencies := map[string]handlers.Pinger{"database": rt.db}
	if rt.redis != nil {
		dependencies["redis"] = rt.redis
	}

	metrics := observability.NewMetrics()
	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())
	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, dependencies),
		Metrics:        handlers.NewMetricsHandler(metrics),
		Auth:           handlers.NewAuthHandler(authService),
		Tickets:        handlers.NewTicketsHandler(rt.tickets),
		Templates:      handlers.NewTemplatesHandler(rt.templates),
		AuthMiddleware: authMiddleware,
		Owner:          cfg.Auth.Owner,
	})

	listenErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.App.Addr()))
		listenErr <- app.Listen(cfg.App.Addr())
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
	}
	return app.Shutdown()
}
