package export

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

const pdfHeading = "Factulist Credibility Report"

// PDF renders a single report as an A4 document.
type PDF struct{}

var _ ports.ReportRenderer = PDF{}

// WriteReport lays out the report fields one per line. Core fonts only cover
// Latin-1, so other runes are dropped.
func (PDF) WriteReport(w io.Writer, report domain.Report) error {
	doc := fpdf.New("P", "mm", "A4", "")
	doc.SetTitle(fmt.Sprintf("Report %d", report.ID), true)
	doc.AddPage()

	doc.SetFont("Arial", "B", 14)
	doc.CellFormat(0, 10, pdfHeading, "", 1, "C", false, 0, "")
	doc.Ln(4)

	doc.SetFont("Arial", "", 11)
	tr := doc.UnicodeTranslatorFromDescriptor("")
	for _, f := range reportFields(report) {
		doc.MultiCell(0, 7, tr(latin1(f[0]+": "+f[1])), "", "L", false)
	}

	if err := doc.Output(w); err != nil {
		return fmt.Errorf("render pdf: %w", err)
	}
	return nil
}

func reportFields(r domain.Report) [][2]string {
	fields := [][2]string{
		{"Report", strconv.FormatInt(r.ID, 10)},
		{"Title", r.Title},
		{"Created", r.CreatedAt.UTC().Format(time.RFC1123)},
		{"Source", r.SourceDomain},
		{"Credibility", fmt.Sprintf("%s (%.2f, %d/5)", strings.TrimSpace(latin1(r.Credibility.Label)), r.Credibility.Rounded(), r.CredibilityStars)},
		{"Recommendation", r.Credibility.Recommendation},
		{"Domain score", formatFloat(r.Credibility.DomainScore)},
		{"References score", fmt.Sprintf("%s (%d found)", formatFloat(r.Credibility.RefsScore), r.Credibility.RefsFound)},
		{"Language score", fmt.Sprintf("%s (%d emotional words)", formatFloat(r.Credibility.LangScore), r.Credibility.EmotionalWordsFound)},
		{"Bias", fmt.Sprintf("%s (%s)", r.Bias.Label, r.BiasStrategy)},
	}
	for _, e := range r.Bias.Explanations {
		fields = append(fields, [2]string{"Why", e})
	}
	for _, s := range r.CorroboratingSources {
		fields = append(fields, [2]string{"Corroborate", s})
	}
	fields = append(fields, [2]string{"Text", r.Text})
	return fields
}

func latin1(s string) string {
	return strings.Map(func(r rune) rune {
		if r > 0xFF {
			return -1
		}
		return r
	}, s)
}
