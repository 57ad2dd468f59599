package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/internal/adapters/actionlog"
	"github.com/taskmaster/tasknote/internal/adapters/remote"
	"github.com/taskmaster/tasknote/internal/adapters/repository"
	"github.com/taskmaster/tasknote/internal/adapters/tokenstore"
	"github.com/taskmaster/tasknote/internal/application/services"
	"github.com/taskmaster/tasknote/internal/application/session"
	"github.com/taskmaster/tasknote/internal/infrastructure/config"
	"github.com/taskmaster/tasknote/internal/infrastructure/database"
	"github.com/taskmaster/tasknote/internal/infrastructure/logger"
	"github.com/taskmaster/tasknote/internal/ports"
)

// App wires the client stack for one command invocation
type App struct {
	Config   *config.Config
	Logger   *logger.Logger
	DB       *database.DB
	Actions  *actionlog.FileLog
	Session  *session.Session
	Tasks    *services.TaskService
	Notes    *services.NoteService
	Flatten  *services.FlattenService
	Backup   *services.BackupService
	Sync     *services.SyncService
	Registry *prometheus.Registry
}

func loadConfig(cmd *cobra.Command) (*config.Config, *logger.Logger, error) {
	configFile, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(configFile)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		cfg.Logger.Level = "debug"
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	return cfg, appLogger, nil
}

func newApp(ctx context.Context, cmd *cobra.Command, out io.Writer) (*App, error) {
	cfg, appLogger, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	loc, err := cfg.App.Location()
	if err != nil {
		return nil, err
	}

	db, err := database.Open(ctx, cfg.Store.DBPath, database.SchemaStore)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	client := remote.NewClient(cfg.Remote, appLogger)

	sess, err := session.New(tokenstore.NewFileStore(cfg.Session.TokenPath), client, appLogger)
	if err != nil {
		db.Close()
		return nil, err
	}

	actions := actionlog.New(cfg.Store.ActionsPath, appLogger)
	var rejected ports.ActionLog
	if cfg.Store.RejectedPath != "" {
		rejected = actionlog.New(cfg.Store.RejectedPath, appLogger)
	}
	registry := prometheus.NewRegistry()

	// Initialize repositories
	taskRepo := repository.NewTaskRepository(db)
	subtaskRepo := repository.NewSubtaskRepository(db)
	noteRepo := repository.NewNoteRepository(db)

	// Initialize services
	flatten := services.NewFlattenService(taskRepo, subtaskRepo, loc, appLogger)
	backup, err := services.NewBackupService(taskRepo, subtaskRepo, flatten, &printSharer{out: out}, cfg.Store.ExportPath, appLogger)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &App{
		Config:   cfg,
		Logger:   appLogger,
		DB:       db,
		Actions:  actions,
		Session:  sess,
		Tasks:    services.NewTaskService(taskRepo, subtaskRepo, client, sess, actions, appLogger),
		Notes:    services.NewNoteService(noteRepo, client, sess, actions, appLogger),
		Flatten:  flatten,
		Backup:   backup,
		Sync:     services.NewSyncService(actions, rejected, client, services.NewSyncMetrics(registry), appLogger),
		Registry: registry,
	}, nil
}

// startupSync replays queued actions before the command runs. Failures are
// logged and never block local work.
func (a *App) startupSync(ctx context.Context) {
	if !a.Config.Sync.OnStart || !a.Session.Valid() {
		return
	}
	if _, err := a.Sync.Sync(ctx, a.Session.Token()); err != nil {
		a.Logger.Warnw("Startup sync failed, pending actions kept", "error", err)
	}
}

// Close releases the store and flushes the logger
func (a *App) Close() {
	if err := a.DB.Close(); err != nil {
		a.Logger.Warnw("Failed to close store", "error", err)
	}
	_ = a.Logger.Close()
}

type runFunc func(cmd *cobra.Command, args []string, app *App) error

// withApp builds the App and runs the startup sync unless --no-sync is set
func withApp(fn runFunc) func(*cobra.Command, []string) error {
	return buildApp(true, fn)
}

// withStore builds the App without the startup sync
func withStore(fn runFunc) func(*cobra.Command, []string) error {
	return buildApp(false, fn)
}

func buildApp(sync bool, fn runFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		app, err := newApp(ctx, cmd, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		defer app.Close()

		if noSync, _ := cmd.Flags().GetBool("no-sync"); sync && !noSync {
			app.startupSync(ctx)
		}

		return fn(cmd, args, app)
	}
}

// printSharer hands an exported file to the user by printing its location
type printSharer struct {
	out io.Writer
}

func (s *printSharer) Share(ctx context.Context, path string) error {
	_, err := fmt.Fprintf(s.out, "Export written to %s\n", path)
	return err
}
