// Command carsctl runs one-off maintenance against the listings database.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"avto-sawda/pkg/config"
	"avto-sawda/pkg/database"
	"avto-sawda/pkg/logger"
	"avto-sawda/services/listing/internal/repo/persistent"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

// env is the shared state the subcommands work against.
type env struct {
	cfg      *config.Config
	log      *logger.Logger
	db       *gorm.DB
	listings persistent.ListingRepository
	users    persistent.UserRepository
}

func newEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := logger.NewWithLevel(cfg.LogLevel)
	db, err := database.NewPostgresDB(cfg)
	if err != nil {
		return nil, err
	}
	return &env{
		cfg:      cfg,
		log:      log,
		db:       db,
		listings: persistent.NewListingRepository(db),
		users:    persistent.NewUserRepository(db),
	}, nil
}

func (e *env) close() {
	if sqlDB, err := e.db.DB(); err == nil {
		sqlDB.Close()
	}
	_ = e.log.Sync()
}

// withEnv adapts a subcommand body to cobra, opening and closing env around it.
func withEnv(run func(ctx context.Context, e *env, cmd *cobra.Command) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, _ []string) error {
		e, err := newEnv()
		if err != nil {
			return err
		}
		defer e.close()
		return run(cmd.Context(), e, cmd)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "carsctl",
		Short:         "Maintenance commands for Avto Sawda listings",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(
		newSyndicateCmd(),
		newLatestCmd(),
		newDeleteLatestCmd(),
		newAddViewsCmd(),
		newSweepCmd(),
	)
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
