package main

import (
	"context"
	"strings"

	"storefront/internal/app"
	"storefront/internal/commerce"
	"storefront/internal/config"
	"storefront/internal/logger"
	"storefront/internal/output"
	"storefront/internal/session"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = "unknown"
	buildTime = "unknown"
)

// cli holds the state shared by every command of one invocation.
type cli struct {
	cfgFile   string
	verbose   bool
	quiet     bool
	colorMode string

	cfg     *config.Config
	printer *output.Printer
}

type usageError struct {
	msg string
}

func (e *usageError) Error() string { return e.msg }

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:   "storefront",
		Short: "Shop the boutique from your terminal",
		Long: `storefront is a terminal client and gateway for the boutique's commerce backend.

Your login is kept in a token file so later commands stay signed in.

Example usage:
  storefront login --email jane@example.com
  storefront products --category Dresses
  storefront cart add 4 --size M
  storefront checkout
  storefront serve                  # run the browser gateway`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.init(cmd)
		},
	}

	root.PersistentFlags().StringVar(&c.cfgFile, "config", "", "config file (default is .storefront.yaml)")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().BoolVarP(&c.quiet, "quiet", "q", false, "only print errors")
	root.PersistentFlags().StringVar(&c.colorMode, "color", "auto", "color output: auto, always, never")

	root.AddCommand(
		newLoginCmd(c),
		newLogoutCmd(c),
		newWhoamiCmd(c),
		newSignupCmd(c),
		newProductsCmd(c),
		newCartCmd(c),
		newCheckoutCmd(c),
		newServeCmd(c),
		newVersionCmd(),
	)
	return root
}

func (c *cli) init(cmd *cobra.Command) error {
	mode, err := output.ParseColorMode(c.colorMode)
	if err != nil {
		return &usageError{msg: err.Error()}
	}
	c.printer = output.NewPrinter(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.ResolveColors(mode), c.quiet)

	c.cfg, err = config.Load(c.cfgFile)
	if err != nil {
		return &output.CLIError{
			Summary:    "Could not load configuration",
			Detail:     err.Error(),
			Suggestion: "Check .storefront.yaml and STOREFRONT_* environment variables",
			ExitCode:   output.ExitConfigError,
		}
	}

	level := "warn"
	if c.verbose || strings.EqualFold(c.cfg.Logging.Level, "debug") {
		level = "debug"
	}
	logger.InitWithWriter(cmd.ErrOrStderr(), level)
	logger.Debug("configuration loaded", map[string]any{
		"backend":    c.cfg.Backend.BaseURL,
		"token_file": c.cfg.Token.File,
	})
	return nil
}

// session builds the backend client and a Manager restored from the token
// file.
func (c *cli) session(ctx context.Context) (*session.Manager, *commerce.Client) {
	backend := app.NewBackend(c.cfg)
	m := session.NewManager(backend, session.NewFileStore(c.cfg.Token.File))
	if err := m.Restore(ctx); err != nil {
		c.printer.Warning("could not read saved login: %v", err)
	}
	return m, backend
}

func (c *cli) requireLogin(m *session.Manager) error {
	if m.IsLoggedIn() {
		return nil
	}
	return &output.CLIError{
		Summary:    "You are not logged in",
		Suggestion: "Run 'storefront login' first",
		ExitCode:   output.ExitAuthError,
	}
}

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}
