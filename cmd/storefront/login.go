package main

import (
	"bufio"
	"fmt"
	"strings"

	"storefront/internal/auth/credentials"

	"github.com/spf13/cobra"
)

func newLoginCmd(c *cli) *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the boutique",
		Long: `Log in with your email and password. When --password is omitted the
password is read from stdin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				line, err := readLine(cmd, "Password: ")
				if err != nil {
					return err
				}
				password = line
			}

			m, _ := c.session(cmd.Context())
			if err := m.Login(cmd.Context(), email, password); err != nil {
				return err
			}
			c.printer.Success("Logged in as %s", m.Identity().Email)
			return nil
		},
	}

	cmd.Flags().StringVarP(&email, "email", "e", "", "account email")
	cmd.Flags().StringVarP(&password, "password", "p", "", "account password (read from stdin when omitted)")
	return cmd
}

func newLogoutCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Log out and forget the saved login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := c.session(cmd.Context())
			m.Logout(cmd.Context())
			c.printer.Success("Logged out")
			return nil
		},
	}
}

func newWhoamiCmd(c *cli) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, _ := c.session(cmd.Context())
			if jsonOutput {
				return writeJSON(cmd, m.State())
			}
			if err := c.requireLogin(m); err != nil {
				return err
			}
			id := m.Identity()
			c.printer.Print("%s %s", id.Email, c.printer.Dim("(id "+id.ID+")"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "output as JSON")
	return cmd
}

func newSignupCmd(c *cli) *cobra.Command {
	var form credentials.SignupForm

	cmd := &cobra.Command{
		Use:   "signup",
		Short: "Create an account and log in",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if form.ConfirmPassword == "" {
				form.ConfirmPassword = form.Password
			}
			m, _ := c.session(cmd.Context())
			if err := m.Signup(cmd.Context(), form); err != nil {
				return err
			}
			c.printer.Success("Welcome, %s! You are logged in as %s", form.Name, form.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&form.Name, "name", "", "full name")
	cmd.Flags().StringVar(&form.Email, "email", "", "email")
	cmd.Flags().StringVar(&form.Password, "password", "", "password (at least 6 characters)")
	cmd.Flags().StringVar(&form.ConfirmPassword, "confirm", "", "repeat the password (defaults to --password)")
	return cmd
}

func readLine(cmd *cobra.Command, prompt string) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), prompt)
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", &usageError{msg: "no password given"}
	}
	return strings.TrimRight(line, "\r\n"), nil
}
