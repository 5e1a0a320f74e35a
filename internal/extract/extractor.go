// Package extract turns any supported article input into bounded plain text.
package extract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// DefaultTimeout bounds a single fetch or parse.
const DefaultTimeout = 5 * time.Second

// Options tune the extractor.
type Options struct {
	MaxChars int
	Timeout  time.Duration
}

// Extractor dispatches inputs to the fetcher or a registered document parser.
// It never returns an error: failures become marker text.
type Extractor struct {
	fetcher  ports.ArticleFetcher
	registry *Registry
	maxChars int
	timeout  time.Duration
	logger   *slog.Logger
}

var _ ports.TextExtractor = (*Extractor)(nil)

// New wires the fetcher and parser registry.
func New(fetcher ports.ArticleFetcher, registry *Registry, opts Options, logger *slog.Logger) *Extractor {
	if opts.MaxChars <= 0 {
		opts.MaxChars = domain.MaxTextLength
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Extractor{
		fetcher:  fetcher,
		registry: registry,
		maxChars: opts.MaxChars,
		timeout:  opts.Timeout,
		logger:   logger,
	}
}

// Extract returns text of at most MaxChars characters, or a marker.
func (e *Extractor) Extract(ctx context.Context, input domain.ArticleInput) string {
	switch input.Kind() {
	case domain.InputURL:
		return e.fromURL(ctx, strings.TrimSpace(input.URL))
	case domain.InputText:
		return domain.Truncate(input.RawText, e.maxChars)
	case domain.InputFile:
		format := input.Format
		if format == "" {
			format = domain.FormatFromPath(input.FilePath)
		}
		return e.fromFile(ctx, input.FilePath, format)
	default:
		return domain.MarkerNoInput
	}
}

func (e *Extractor) fromURL(ctx context.Context, rawURL string) string {
	if e.fetcher == nil {
		return domain.FetchFailure(fmt.Errorf("fetcher is not configured"))
	}

	text, err := withTimeout(ctx, e.timeout, func(ctx context.Context) (string, error) {
		return e.fetcher.FetchText(ctx, rawURL)
	})
	if err != nil {
		e.warn("fetch failed", "url", rawURL, "error", err)
		return domain.FetchFailure(err)
	}

	text = collapseWhitespace(text)
	if text == "" {
		return domain.FetchFailure(fmt.Errorf("no readable text at %s", rawURL))
	}
	return domain.Truncate(text, e.maxChars)
}

func (e *Extractor) fromFile(ctx context.Context, path string, format domain.FileFormat) string {
	parser, err := e.registry.Resolve(format)
	if err != nil {
		e.debug("unsupported file", "path", path, "format", format)
		return domain.MarkerUnsupportedFile
	}

	text, err := withTimeout(ctx, e.timeout, func(ctx context.Context) (string, error) {
		return parser.Parse(ctx, path)
	})
	if err != nil {
		e.warn("parse failed", "path", path, "format", format, "error", err)
		return domain.ExtractionFailure(parser.Format())
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return domain.ExtractionFailure(parser.Format())
	}
	return domain.Truncate(text, e.maxChars)
}

// withTimeout runs fn in its own goroutine so parsers that ignore ctx still cannot hang the caller.
func withTimeout(ctx context.Context, timeout time.Duration, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{err: fmt.Errorf("panic: %v", r)}
			}
		}()
		text, err := fn(ctx)
		done <- outcome{text: text, err: err}
	}()

	select {
	case out := <-done:
		return out.text, out.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (e *Extractor) debug(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func (e *Extractor) warn(msg string, args ...interface{}) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}
