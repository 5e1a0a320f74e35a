package web

import (
	"context"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"codeberg.org/readeck/go-readability/v2"
	"github.com/PuerkitoBio/goquery"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/microcosm-cc/bluemonday"

	"Factulist/internal/ports"
)

const (
	defaultUserAgent = "Factulist/1.0"
	maxBodyBytes     = 5 << 20
	// readability output shorter than this usually means it only caught the title.
	minReadableChars = 200
)

// Fetcher downloads article pages and reduces them to readable text.
type Fetcher struct {
	client    *http.Client
	userAgent string
	cache     *lru.Cache[string, string]
	strip     *bluemonday.Policy
	logger    *slog.Logger
}

var _ ports.ArticleFetcher = (*Fetcher)(nil)

// Options configures the fetcher; zero values get sensible defaults.
type Options struct {
	Timeout   time.Duration
	UserAgent string
	CacheSize int
}

// NewFetcher wires an HTTP client; a nil client gets one with opts.Timeout.
func NewFetcher(client *http.Client, opts Options, logger *slog.Logger) *Fetcher {
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if opts.UserAgent == "" {
		opts.UserAgent = defaultUserAgent
	}

	f := &Fetcher{
		client:    client,
		userAgent: opts.UserAgent,
		strip:     bluemonday.StrictPolicy(),
		logger:    logger,
	}
	if opts.CacheSize > 0 {
		if cache, err := lru.New[string, string](opts.CacheSize); err == nil {
			f.cache = cache
		}
	}
	return f
}

// FetchText returns the readable text of the page at rawURL.
func (f *Fetcher) FetchText(ctx context.Context, rawURL string) (string, error) {
	if f.cache != nil {
		if text, ok := f.cache.Get(rawURL); ok {
			f.debug("cache hit", "url", rawURL)
			return text, nil
		}
	}

	doc, err := f.fetchDocument(ctx, rawURL)
	if err != nil {
		return "", err
	}

	text := f.readableText(doc)
	if f.cache != nil && text != "" {
		f.cache.Add(rawURL, text)
	}
	f.debug("article fetched", "url", rawURL, "chars", len(text))
	return text, nil
}

func (f *Fetcher) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}

	return doc, nil
}

// readableText prefers readability's main-content pass and falls back to the
// stripped body text when that pass finds too little.
func (f *Fetcher) readableText(doc *goquery.Document) string {
	doc.Find("script, style, noscript, nav, header, footer, aside, form, iframe").Remove()

	cleaned, err := doc.Html()
	if err == nil && cleaned != "" {
		if article, rErr := readability.FromReader(strings.NewReader(cleaned), nil); rErr == nil {
			var buf strings.Builder
			if article.RenderText(&buf) == nil {
				text := normalize(buf.String())
				if len(text) >= minReadableChars {
					return text
				}
			}
		}
	}

	body := doc.Find("body")
	if body.Length() == 0 {
		body = doc.Selection
	}
	var parts []string
	body.Find("h1, h2, h3, p, li, blockquote").Each(func(_ int, s *goquery.Selection) {
		if t := normalize(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}

	raw, _ := body.Html()
	return normalize(html.UnescapeString(f.strip.Sanitize(raw)))
}

func normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func (f *Fetcher) debug(msg string, args ...interface{}) {
	if f.logger != nil {
		f.logger.Debug(msg, args...)
	}
}
