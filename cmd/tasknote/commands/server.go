package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/infrastructure/database"
	"github.com/taskmaster/tasknote/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the development sections/notes API server",
		Long:  "Start a local implementation of the remote API, backed by its own sqlite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd)
		},
	}
}

func runServer(cmd *cobra.Command) error {
	cfg, appLogger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer appLogger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(ctx, cfg.Server.DBPath, database.SchemaServer)
	if err != nil {
		return fmt.Errorf("failed to open server database: %w", err)
	}
	defer db.Close()

	srv, err := server.New(cfg, db, appLogger)
	if err != nil {
		return fmt.Errorf("failed to initialize server: %w", err)
	}

	appLogger.Infow("Starting tasknote development server",
		"address", cfg.Server.Address(),
		"environment", cfg.App.Environment,
		"db_path", cfg.Server.DBPath,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Address())
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

// NewMigrateCommand creates the migrate command with subcommands
func NewMigrateCommand() *cobra.Command {
	migrateCmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration commands",
		Long:  "Manage the store schema (up, down, version). --server targets the development server database.",
	}
	migrateCmd.PersistentFlags().Bool("server", false, "Operate on the development server database")

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Run all up migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "up")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Run all down migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "down")
		},
	})

	migrateCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print current migration version",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigration(cmd, "version")
		},
	})

	return migrateCmd
}

func runMigration(cmd *cobra.Command, direction string) error {
	cfg, appLogger, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer appLogger.Close()

	path, schema := cfg.Store.DBPath, database.SchemaStore
	if onServer, _ := cmd.Flags().GetBool("server"); onServer {
		path, schema = cfg.Server.DBPath, database.SchemaServer
	}

	// Open applies pending up migrations
	db, err := database.Open(cmd.Context(), path, schema)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	out := cmd.OutOrStdout()
	switch direction {
	case "down":
		if err := db.MigrateDown(); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
		fmt.Fprintln(out, "Migration down completed successfully")
		return nil
	case "up":
		fmt.Fprintln(out, "Migration up completed successfully")
	}

	version, dirty, err := db.Version()
	if err != nil {
		return fmt.Errorf("failed to get migration version: %w", err)
	}
	fmt.Fprintf(out, "Current migration version: %d\n", version)
	fmt.Fprintf(out, "Dirty: %t\n", dirty)
	return nil
}
