package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"Factulist/internal/domain"
	"Factulist/internal/infrastructure/probe"
	"Factulist/internal/logging"
)

var errNoData = errors.New("No data to export")

func (c *cli) newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			return a.Serve(cmd.Context())
		},
	}
}

func (c *cli) newCheckCmd() *cobra.Command {
	var (
		input  domain.ArticleInput
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score one article and store the report",
		Long: `Score one article. Exactly one of --url, --text or --file is used; when
several are given the URL wins over text and text over file.

Examples:
  factulist check --url https://example.com/story
  factulist check --text "A shocking scandal rocked the city."
  factulist check --file ./article.pdf --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			if input.FilePath != "" {
				input.Format = domain.FormatFromPath(input.FilePath)
			}
			rep, err := a.Pipeline.Check(cmd.Context(), input)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), rep)
			}
			printReport(cmd.OutOrStdout(), rep)
			return nil
		},
	}
	cmd.Flags().StringVar(&input.URL, "url", "", "article URL")
	cmd.Flags().StringVar(&input.RawText, "text", "", "article text")
	cmd.Flags().StringVar(&input.FilePath, "file", "", "PDF or DOCX file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) newHistoryCmd() *cobra.Command {
	var (
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List stored reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			reports, err := a.History.Reports(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), reports)
			}
			printHistory(cmd.OutOrStdout(), reports)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of most recent reports, 0 for all")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) newSourcesCmd() *cobra.Command {
	var (
		page   int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "List source domains by number of reports",
		RunE: func(cmd *cobra.Command, args []string) error {
			if page < 1 {
				return fmt.Errorf("page must be a positive integer")
			}
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			res, err := a.History.Sources(cmd.Context(), page)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), res)
			}
			printSources(cmd.OutOrStdout(), res)
			return nil
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "page number")
	cmd.Flags().BoolVar(&asJSON, "json", false, "output as JSON")
	return cmd
}

func (c *cli) newExportCmd() *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export reports or sources as CSV, or one report as PDF",
	}
	cmd.PersistentFlags().StringVarP(&out, "out", "o", "-", "output file, - for stdout")

	reports := &cobra.Command{
		Use:   "reports",
		Short: "Export every report as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			all, err := a.History.Reports(cmd.Context(), 0)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				return errNoData
			}
			return withOutput(cmd, out, func(w io.Writer) error {
				return a.CSV.WriteReports(w, all)
			})
		},
	}

	sources := &cobra.Command{
		Use:   "sources",
		Short: "Export source statistics as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			rows, err := a.History.AllSources(cmd.Context())
			if err != nil {
				return err
			}
			if len(rows) == 0 {
				return errNoData
			}
			stats := make([]domain.SourceStats, 0, len(rows))
			for _, r := range rows {
				stats = append(stats, r.SourceStats)
			}
			return withOutput(cmd, out, func(w io.Writer) error {
				return a.CSV.WriteSources(w, stats)
			})
		},
	}

	var id int64
	single := &cobra.Command{
		Use:   "report",
		Short: "Export one report as PDF",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := c.application(cmd.Context(), cmd)
			if err != nil {
				return err
			}
			rep, err := a.History.Report(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("report %d: %w", id, err)
			}
			target := out
			if target == "-" && !cmd.Flags().Changed("out") {
				target = "report_" + strconv.FormatInt(id, 10) + ".pdf"
			}
			return withOutput(cmd, target, func(w io.Writer) error {
				return a.PDF.WriteReport(w, rep)
			})
		},
	}
	single.Flags().Int64Var(&id, "id", 0, "report id")
	_ = single.MarkFlagRequired("id")

	cmd.AddCommand(reports, sources, single)
	return cmd
}

func (c *cli) newProbeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "probe <domain>",
		Short: "Check a domain's HTTP and HTTPS reachability and registration age",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := logging.NewTo(cmd.ErrOrStderr(), c.cfg.Logging)
			res := probe.New(nil, probe.DefaultTimeout, logger).Probe(cmd.Context(), args[0])
			if res.Domain == "" {
				return fmt.Errorf("invalid domain %q", args[0])
			}
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
}

func withOutput(cmd *cobra.Command, target string, write func(io.Writer) error) error {
	if target == "" || target == "-" {
		return write(cmd.OutOrStdout())
	}
	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("create %s: %w", target, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %s: %w", target, err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s\n", target)
	return nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
