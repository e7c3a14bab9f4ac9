// accountctl is a command-line session manager for the account API. It plays
// the role the browser client plays in the web app: it signs up, logs in,
// caches the session token locally, and gates the profile view on a verified
// session.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/dmr/account-service/internal/client"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	serverURL string
	statePath string
}

func (a *app) client() *client.Client {
	return client.New(a.serverURL, client.NewSessionStore(a.statePath))
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:           "accountctl",
		Short:         "Manage your account session from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.PersistentFlags().StringVar(&a.serverURL, "server",
		envOr("ACCOUNT_SERVER", "http://localhost:3000"), "account API base URL")
	root.PersistentFlags().StringVar(&a.statePath, "state",
		envOr("ACCOUNT_STATE", client.DefaultSessionPath()), "session state file")

	root.AddCommand(newSignupCmd(a))
	root.AddCommand(newLoginCmd(a))
	root.AddCommand(newLogoutCmd(a))
	root.AddCommand(newWhoamiCmd(a))
	return root
}

func newSignupCmd(a *app) *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			user, err := a.client().Signup(context.Background(), name, email, pw)
			if err != nil {
				return printAPIError(cmd, err)
			}

			cmd.Printf("Signed up as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "your name")
	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if omitted)")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLoginCmd(a *app) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in and start a session",
		RunE: func(cmd *cobra.Command, _ []string) error {
			pw, err := resolvePassword(cmd, password)
			if err != nil {
				return err
			}

			user, err := a.client().Login(context.Background(), email, pw)
			if err != nil {
				return printAPIError(cmd, err)
			}

			cmd.Printf("Logged in as %s <%s>\n", user.Name, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "email address")
	cmd.Flags().StringVar(&password, "password", "", "password (prompted if omitted)")
	cmd.MarkFlagRequired("email")
	return cmd
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "End the session and clear the cached token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.client()
			if _, err := c.Load(context.Background()); err != nil {
				return err
			}

			if err := c.Logout(context.Background()); err != nil {
				return err
			}

			cmd.Println("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current session, re-verified against the server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := a.client()
			ok, err := c.Load(context.Background())
			if err != nil {
				return err
			}
			if !ok {
				return errors.New("not logged in")
			}

			user, _ := c.CurrentUser()
			cmd.Printf("%s <%s>\n", user.Name, user.Email)
			cmd.Printf("member since %s\n", user.SignupDate.Format("2006-01-02"))
			return nil
		},
	}
}

func resolvePassword(cmd *cobra.Command, flagValue string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}

	cmd.Print("Password: ")
	raw, err := term.ReadPassword(int(syscall.Stdin))
	cmd.Println()
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}

// printAPIError surfaces field-level validation errors inline, the way the
// web client renders them under each input.
func printAPIError(cmd *cobra.Command, err error) error {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		for _, fe := range apiErr.Errors {
			cmd.PrintErrf("  %s: %s\n", fe.Field, fe.Message)
		}
		return errors.New(apiErr.Message)
	}
	return err
}

func envOr(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}
