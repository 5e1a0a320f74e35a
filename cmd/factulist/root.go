package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"Factulist/internal/app"
	"Factulist/internal/config"
	"Factulist/internal/logging"
)

// cli carries state shared by subcommands.
type cli struct {
	configPath string
	logLevel   string

	cfg config.Config
	app *app.Application
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:   "factulist",
		Short: "Score news articles for bias and credibility",
		Long: `factulist extracts article text from a URL, pasted text or an uploaded
PDF/DOCX file, scores it for bias and credibility and keeps a history of reports.

Example usage:
  factulist serve                          # Run the HTTP API
  factulist check --url https://example.com/story
  factulist history --limit 5
  factulist export reports --out reports.csv`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			c.cfg = config.LoadFile(c.configPath)
			if c.logLevel != "" {
				c.cfg.Logging.Level = c.logLevel
			}
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if c.app == nil {
				return nil
			}
			err := c.app.Close()
			c.app = nil
			return err
		},
	}

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "config file (default is $"+config.PathEnv+")")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "log level: error, warn, info, debug")

	root.AddCommand(
		c.newServeCmd(),
		c.newCheckCmd(),
		c.newHistoryCmd(),
		c.newSourcesCmd(),
		c.newExportCmd(),
		c.newProbeCmd(),
	)
	return root
}

// application builds the wired app once per invocation. Logs go to stderr so
// command output stays clean.
func (c *cli) application(ctx context.Context, cmd *cobra.Command) (*app.Application, error) {
	if c.app != nil {
		return c.app, nil
	}
	logger := logging.NewTo(cmd.ErrOrStderr(), c.cfg.Logging)
	a, err := app.New(ctx, c.cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("start application: %w", err)
	}
	c.app = a
	return a, nil
}
