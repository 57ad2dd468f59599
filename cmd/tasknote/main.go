package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmaster/tasknote/cmd/tasknote/commands"
)

// @title Tasknote Sections API
// @version 1.0
// @description Development server for the sections and notes that tasknote clients sync with

// @license.name MIT

// @host localhost:8000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:          "tasknote",
		Short:        "Offline-first tasks and notes",
		Long:         `tasknote keeps tasks, subtasks and notes in a local store and syncs sections and notes with a remote server whenever a session is available.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().String("config", "", "Path to a config file")
	rootCmd.PersistentFlags().Bool("no-sync", false, "Skip replaying queued changes before the command runs")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")

	// Add commands
	rootCmd.AddCommand(commands.NewTaskCommand())
	rootCmd.AddCommand(commands.NewSubtaskCommand())
	rootCmd.AddCommand(commands.NewNoteCommand())
	rootCmd.AddCommand(commands.NewListCommand())
	rootCmd.AddCommand(commands.NewDayCommand())
	rootCmd.AddCommand(commands.NewSyncCommand())
	rootCmd.AddCommand(commands.NewExportCommand())
	rootCmd.AddCommand(commands.NewImportCommand())
	rootCmd.AddCommand(commands.NewLoginCommand())
	rootCmd.AddCommand(commands.NewRegisterCommand())
	rootCmd.AddCommand(commands.NewLogoutCommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	// Execute root command
	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
