package document

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fumiama/go-docx"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

const docxBody = "word/document.xml"

// DOCXParser joins the text of each body paragraph, including table cells.
type DOCXParser struct{}

var _ ports.DocumentParser = DOCXParser{}

// Format identifies the parser inside the registry.
func (DOCXParser) Format() domain.FileFormat {
	return domain.FormatDOCX
}

// Parse decodes the OOXML package and walks its body items in order.
func (DOCXParser) Parse(ctx context.Context, path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open docx: %w", err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", fmt.Errorf("stat docx: %w", err)
	}

	doc, err := docx.Parse(f, info.Size())
	if err != nil {
		return "", fmt.Errorf("parse docx: %w", err)
	}
	// Parse tolerates a package without a main part; the document name is
	// only set once word/document.xml has been decoded.
	if doc.Document.XMLName.Local != "document" {
		return "", fmt.Errorf("docx %s: missing %s", path, docxBody)
	}

	var out []string
	for _, item := range doc.Document.Body.Items {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		switch it := item.(type) {
		case *docx.Paragraph:
			out = appendParagraph(out, it)
		case *docx.Table:
			for _, row := range it.TableRows {
				for _, cell := range row.TableCells {
					for _, p := range cell.Paragraphs {
						out = appendParagraph(out, p)
					}
				}
			}
		}
	}
	return strings.Join(out, "\n"), nil
}

func appendParagraph(out []string, p *docx.Paragraph) []string {
	if p == nil {
		return out
	}
	if s := strings.TrimSpace(p.String()); s != "" {
		out = append(out, s)
	}
	return out
}
