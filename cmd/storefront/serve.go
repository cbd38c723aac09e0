package main

import (
	"context"
	"time"

	"storefront/internal/app"
	"storefront/internal/logger"

	"github.com/spf13/cobra"
)

func newServeCmd(c *cli) *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the browser gateway",
		Long:  `Run the HTTP gateway that keeps one session per browser, with tokens in Redis.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != "" {
				c.cfg.App.Port = port
			}
			logger.Init(c.cfg.Logging.Level)

			ctx := cmd.Context()
			application, err := app.New(ctx, c.cfg)
			if err != nil {
				return err
			}

			errCh := make(chan error, 1)
			go func() { errCh <- application.Run() }()

			c.printer.Success("Gateway listening on :%s", c.cfg.App.Port)

			select {
			case err := <-errCh:
				return err
			case <-ctx.Done():
			}

			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := application.Shutdown(shutdownCtx); err != nil {
				return err
			}
			c.printer.Info("Gateway stopped")
			return nil
		},
	}

	cmd.Flags().StringVar(&port, "port", "", "listen port (overrides app.port)")
	return cmd
}
