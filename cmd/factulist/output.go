package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"

	"Factulist/internal/domain"
	"Factulist/internal/usecase"
)

func printReport(w io.Writer, rep domain.Report) {
	color.New(color.Bold).Fprintf(w, "Report #%d  %s\n", rep.ID, rep.Title)
	fmt.Fprintf(w, "Source:       %s\n", rep.SourceDomain)
	fmt.Fprintf(w, "Credibility:  %s (%.2f) %s  %s\n",
		colorLabel(rep.Credibility.Label), rep.Credibility.Rounded(),
		stars(rep.CredibilityStars), rep.Credibility.Recommendation)
	fmt.Fprintf(w, "Bias:         %s (%s)\n", rep.Bias.Label, rep.BiasStrategy)
	for _, e := range rep.Bias.Explanations {
		fmt.Fprintf(w, "  - %s\n", e)
	}
	if rep.Bias.Diagnostic != "" {
		color.New(color.Faint).Fprintf(w, "  diagnostic: %s\n", rep.Bias.Diagnostic)
	}
	if rep.Language != "" {
		fmt.Fprintf(w, "Language:     %s\n", rep.Language)
	}
	for _, s := range rep.CorroboratingSources {
		fmt.Fprintf(w, "Corroborate:  %s\n", s)
	}
}

func printHistory(w io.Writer, reports []domain.Report) {
	rows := make([][]string, 0, len(reports))
	for _, r := range reports {
		rows = append(rows, []string{
			strconv.FormatInt(r.ID, 10),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.SourceDomain,
			colorLabel(r.Credibility.Label),
			r.Bias.Label,
			r.Title,
		})
	}
	renderTable(w, []string{"ID", "Created", "Source", "Credibility", "Bias", "Title"}, rows)
}

func printSources(w io.Writer, page usecase.SourcePage) {
	rows := make([][]string, 0, len(page.Sources))
	for _, s := range page.Sources {
		row := []string{s.Domain, strconv.Itoa(s.Total)}
		for _, l := range domain.CredibilityLabels {
			row = append(row, strconv.Itoa(s.Counts[l]))
		}
		rows = append(rows, row)
	}
	renderTable(w, []string{"Domain", "Total", "Verified", "Mostly true", "Misleading", "False"}, rows)
	fmt.Fprintf(w, "page %d of %d\n", page.Page, max(page.TotalPages, 1))
}

func renderTable(w io.Writer, headers []string, rows [][]string) {
	table := tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Row: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoWrap: tw.WrapNone},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
			Header: tw.CellConfig{
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.BorderNone,
			Settings: tw.Settings{
				Separators: tw.Separators{ShowHeader: tw.Off},
			},
		}),
	)
	table.Header(headers)
	_ = table.Bulk(rows)
	_ = table.Render()
}

func colorLabel(label string) string {
	switch label {
	case domain.CredibilityVerified:
		return color.GreenString(label)
	case domain.CredibilityMostlyTrue:
		return color.YellowString(label)
	case domain.CredibilityMisleading:
		return color.New(color.FgHiYellow).Sprint(label)
	case domain.CredibilityFalse:
		return color.RedString(label)
	default:
		return label
	}
}

func stars(n int) string {
	n = min(max(n, 0), 5)
	return strings.Repeat("★", n) + strings.Repeat("☆", 5-n)
}
