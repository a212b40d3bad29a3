// Package cli реализует административные команды meterctl.
package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/mmeshcher/meter-reading-system/internal/clock"
	"github.com/mmeshcher/meter-reading-system/internal/logging"
	"github.com/mmeshcher/meter-reading-system/internal/repository"
	"github.com/mmeshcher/meter-reading-system/internal/service"
)

type options struct {
	databaseURI string
	timezone    string
	verbose     bool
}

// NewRootCommand собирает дерево команд meterctl.
func NewRootCommand() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:           "meterctl",
		Short:         "Meter reading system administration",
		Long:          `Administrative commands for the meter reading system: schema migrations, initial admin seeding and meter analytics.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&opts.databaseURI, "database-uri", "d", os.Getenv("DATABASE_URI"), "database URI (env DATABASE_URI)")
	root.PersistentFlags().StringVar(&opts.timezone, "tz", envOr("TIMEZONE", "UTC"), "server time zone for report periods (env TIMEZONE)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(
		newMigrateCommand(opts),
		newSeedCommand(opts),
		newAnalyzeCommand(opts),
		newSummaryCommand(opts),
	)

	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func (o *options) logger() (*zap.Logger, error) {
	level := "warn"
	if o.verbose {
		level = "debug"
	}
	return logging.NewLogger("meterctl", level)
}

func (o *options) connect() (*repository.PostgresRepository, error) {
	if o.databaseURI == "" {
		return nil, errors.New("database URI is required (--database-uri or DATABASE_URI)")
	}
	return repository.Connect(o.databaseURI)
}

// newService подключается к БД и создаёт сервис без публикации событий.
func (o *options) newService() (*service.Service, error) {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", o.timezone, err)
	}

	logger, err := o.logger()
	if err != nil {
		return nil, err
	}

	repo, err := o.connect()
	if err != nil {
		return nil, err
	}

	return service.NewService(repo, nil, clock.SystemClock{Location: loc}, logger, service.Options{}), nil
}
