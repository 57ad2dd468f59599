package commands

import (
	"bufio"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

func addCredentialFlags(cmd *cobra.Command) {
	cmd.Flags().String("nickname", "", "Account nickname (required)")
	cmd.Flags().String("password", "", "Account password (read from stdin when omitted)")
	cmd.MarkFlagRequired("nickname")
}

func readCredentials(cmd *cobra.Command) (string, string, error) {
	nickname, _ := cmd.Flags().GetString("nickname")
	password, _ := cmd.Flags().GetString("password")
	if password == "" {
		password = os.Getenv("TASKNOTE_PASSWORD")
	}
	if password == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("read password: %w", err)
		}
		password = strings.TrimRight(line, "\r\n")
	}
	if password == "" {
		return "", "", fmt.Errorf("password is required")
	}
	return nickname, password, nil
}

// NewLoginCommand creates the login command
func NewLoginCommand() *cobra.Command {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the server and send queued changes",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			nickname, password, err := readCredentials(cmd)
			if err != nil {
				return err
			}
			if err := app.Session.Login(cmd.Context(), nickname, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", nickname)

			if noSync, _ := cmd.Flags().GetBool("no-sync"); noSync {
				return nil
			}
			result, err := app.Sync.Sync(cmd.Context(), app.Session.Token())
			if err != nil {
				app.Logger.Warnw("Sync after login failed, pending actions kept", "error", err)
				fmt.Fprintln(cmd.OutOrStdout(), "Queued changes were kept; run sync to retry")
				return nil
			}
			if result.Total > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Sent %d queued changes\n", result.Applied+result.AlreadyApplied)
			}
			return nil
		}),
	}
	addCredentialFlags(loginCmd)

	return loginCmd
}

// NewRegisterCommand creates the register command
func NewRegisterCommand() *cobra.Command {
	registerCmd := &cobra.Command{
		Use:   "register",
		Short: "Create an account on the server",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			nickname, password, err := readCredentials(cmd)
			if err != nil {
				return err
			}
			if err := app.Session.Register(cmd.Context(), nickname, password); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Registered %s; run login to start syncing\n", nickname)
			return nil
		}),
	}
	addCredentialFlags(registerCmd)

	return registerCmd
}

// NewLogoutCommand creates the logout command
func NewLogoutCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the session token; later changes are queued",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			if err := app.Session.Logout(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
			return nil
		}),
	}
}

// NewStatusCommand creates the status command
func NewStatusCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show session, pending changes and store details",
		Args:  cobra.NoArgs,
		RunE: withStore(func(cmd *cobra.Command, args []string, app *App) error {
			out := cmd.OutOrStdout()

			switch {
			case app.Session.Valid():
				if exp, ok := app.Session.ExpiresAt(); ok {
					fmt.Fprintf(out, "Session:  logged in, expires %s\n", exp.Local().Format(time.RFC1123))
				} else {
					fmt.Fprintln(out, "Session:  logged in")
				}
			case app.Session.Token() != "":
				fmt.Fprintln(out, "Session:  expired, run login")
			default:
				fmt.Fprintln(out, "Session:  offline")
			}

			pending, err := app.Actions.Len(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Pending:  %d changes\n", pending)

			version, dirty, err := app.DB.Version()
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "Store:    %s (schema %d", app.DB.Path(), version)
			if dirty {
				fmt.Fprint(out, ", dirty")
			}
			fmt.Fprintln(out, ")")
			fmt.Fprintf(out, "Server:   %s\n", app.Config.Remote.BaseURL)
			return nil
		}),
	}
}
