// Package document extracts plain text from uploaded files.
package document

import (
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// PDFParser concatenates the plain text of every page.
type PDFParser struct{}

var _ ports.DocumentParser = PDFParser{}

// Format identifies the parser inside the registry.
func (PDFParser) Format() domain.FileFormat {
	return domain.FormatPDF
}

// Parse reads pages in order and stops early when ctx is done.
func (PDFParser) Parse(ctx context.Context, path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf %s: %v", path, r)
		}
	}()

	file, reader, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer file.Close()

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		content, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		if content = strings.TrimSpace(content); content != "" {
			pages = append(pages, content)
		}
	}

	return strings.Join(pages, "\n"), nil
}
