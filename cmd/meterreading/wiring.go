package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/clock"
	"github.com/mmeshcher/meter-reading-system/internal/config"
	"github.com/mmeshcher/meter-reading-system/internal/events"
	"github.com/mmeshcher/meter-reading-system/internal/handler"
	"github.com/mmeshcher/meter-reading-system/internal/logging"
	"github.com/mmeshcher/meter-reading-system/internal/middleware"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
	"github.com/mmeshcher/meter-reading-system/internal/service"
)

func provideConfig() (*config.Config, error) {
	return config.Parse()
}

func provideLogger(lc fx.Lifecycle, cfg *config.Config) (*zap.Logger, error) {
	logger, err := logging.NewLogger(cfg.ServiceName, cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		_ = logger.Sync()
	}))
	return logger, nil
}

func provideRepository(cfg *config.Config) (*repository.PostgresRepository, error) {
	if cfg.DatabaseURI == "" {
		return nil, errors.New("database URI is not configured")
	}
	return repository.NewPostgresRepository(cfg.DatabaseURI)
}

// providePublisher подключается к RabbitMQ, если он настроен; иначе события отбрасываются.
func providePublisher(cfg *config.Config, logger *zap.Logger) (events.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		logger.Info("rabbitmq is not configured, reading events are disabled")
		return events.NoopPublisher{}, nil
	}
	return events.NewAMQPPublisher(cfg.RabbitMQURL, cfg.RabbitMQExchange, logger)
}

func provideClock(cfg *config.Config) (clock.Clock, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	return clock.SystemClock{Location: loc}, nil
}

func provideService(
	lc fx.Lifecycle,
	repo *repository.PostgresRepository,
	publisher events.Publisher,
	clk clock.Clock,
	logger *zap.Logger,
	cfg *config.Config,
) *service.Service {
	svc := service.NewService(repo, publisher, clk, logger, service.Options{
		SerializeSubmissions: cfg.SerializeSubmissions,
	})
	lc.Append(fx.StopHook(svc.Close))
	return svc
}

func provideHandler(svc *service.Service, logger *zap.Logger, cfg *config.Config) *handler.Handler {
	if cfg.SessionSecret == "" {
		logger.Warn("session secret is not configured, sessions will not survive restart")
	}
	auth := middleware.NewAuthMiddleware(cfg.SessionSecret, svc)
	return handler.NewHandler(svc, logger, auth)
}

func startServer(lc fx.Lifecycle, h *handler.Handler, cfg *config.Config, logger *zap.Logger) {
	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           h.SetupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			ln, err := net.Listen("tcp", cfg.RunAddress)
			if err != nil {
				return fmt.Errorf("listen %s: %w", cfg.RunAddress, err)
			}

			logger.Info("starting meter reading server",
				zap.String("addr", cfg.RunAddress),
				zap.String("timezone", cfg.Timezone),
				zap.Bool("serialize_submissions", cfg.SerializeSubmissions),
			)

			go func() {
				if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
					logger.Error("server error", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			logger.Info("shutting down server...")
			if err := server.Shutdown(ctx); err != nil {
				return fmt.Errorf("server shutdown error: %w", err)
			}
			logger.Info("server stopped gracefully")
			return nil
		},
	})
}
