// Package main запускает HTTP-сервер системы учёта показаний счётчиков.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load .env:", err)
	}

	app := fx.New(
		fx.WithLogger(func(logger *zap.Logger) fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger.Named("fx")}
		}),
		fx.Provide(
			provideConfig,
			provideLogger,
			provideRepository,
			providePublisher,
			provideClock,
			provideService,
			provideHandler,
		),
		fx.Invoke(startServer),
	)

	app.Run()
}
