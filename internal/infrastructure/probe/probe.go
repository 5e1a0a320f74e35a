// Package probe checks whether a news domain answers over HTTP and HTTPS
// and how long it has been registered.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/likexian/whois"
	whoisparser "github.com/likexian/whois-parser"

	"Factulist/internal/domain"
)

// DefaultTimeout bounds each request.
const DefaultTimeout = 5 * time.Second

// Result describes one probe run. A probe never fails; unreachable domains
// simply report false and an unknown registration leaves DomainAgeYears nil.
type Result struct {
	Domain         string    `json:"domain"`
	Reachable      bool      `json:"reachable"`
	SSLValid       bool      `json:"ssl_valid"`
	HTTPStatus     int       `json:"http_status,omitempty"`
	TLSStatus      int       `json:"https_status,omitempty"`
	DomainAgeYears *int      `json:"domain_age_years"`
	CheckedAt      time.Time `json:"checked_at"`
}

// CreationLookup returns the registration date of host.
type CreationLookup func(ctx context.Context, host string) (time.Time, error)

var errNoCreationDate = errors.New("whois: no creation date")

// Prober issues plain and TLS requests against a domain root.
type Prober struct {
	client  *http.Client
	timeout time.Duration
	logger  *slog.Logger
	urlFor  func(scheme, host string) string
	now     func() time.Time
	created CreationLookup
}

// New uses a client with verified TLS; timeout <= 0 means DefaultTimeout.
func New(client *http.Client, timeout time.Duration, logger *slog.Logger) *Prober {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Prober{
		client:  client,
		timeout: timeout,
		logger:  logger,
		urlFor: func(scheme, host string) string {
			return fmt.Sprintf("%s://%s", scheme, host)
		},
		now:     time.Now,
		created: whoisCreation(timeout),
	}
}

// WithCreationLookup replaces the WHOIS lookup, mainly for tests.
func (p *Prober) WithCreationLookup(lookup CreationLookup) *Prober {
	p.created = lookup
	return p
}

// Probe normalises d and checks both schemes.
func (p *Prober) Probe(ctx context.Context, d string) Result {
	host := domain.NormalizeDomain(d)
	res := Result{Domain: host, CheckedAt: p.now().UTC()}
	if host == "" {
		return res
	}

	res.HTTPStatus = p.status(ctx, p.urlFor("http", host))
	res.Reachable = res.HTTPStatus == http.StatusOK

	res.TLSStatus = p.status(ctx, p.urlFor("https", host))
	res.SSLValid = res.TLSStatus == http.StatusOK

	res.DomainAgeYears = p.ageYears(ctx, host, res.CheckedAt)

	if p.logger != nil {
		p.logger.Debug("domain probed", "domain", host, "reachable", res.Reachable, "ssl_valid", res.SSLValid)
	}
	return res
}

// ageYears counts whole 365-day years since registration; nil when unknown.
func (p *Prober) ageYears(ctx context.Context, host string, now time.Time) *int {
	if p.created == nil {
		return nil
	}
	created, err := p.created(ctx, host)
	if err != nil || created.IsZero() || created.After(now) {
		if err != nil && p.logger != nil {
			p.logger.Debug("whois lookup failed", "domain", host, "error", err)
		}
		return nil
	}
	years := int(now.Sub(created).Hours()/24) / 365
	return &years
}

// whoisCreation queries the registry WHOIS server and parses the creation date.
func whoisCreation(timeout time.Duration) CreationLookup {
	client := whois.NewClient().SetTimeout(timeout)
	return func(ctx context.Context, host string) (time.Time, error) {
		type answer struct {
			raw string
			err error
		}
		ch := make(chan answer, 1)
		go func() {
			raw, err := client.Whois(host)
			ch <- answer{raw: raw, err: err}
		}()

		var a answer
		select {
		case <-ctx.Done():
			return time.Time{}, ctx.Err()
		case a = <-ch:
		}
		if a.err != nil {
			return time.Time{}, fmt.Errorf("whois %s: %w", host, a.err)
		}

		info, err := whoisparser.Parse(a.raw)
		if err != nil {
			return time.Time{}, fmt.Errorf("parse whois %s: %w", host, err)
		}
		if info.Domain == nil {
			return time.Time{}, errNoCreationDate
		}
		if info.Domain.CreatedDateInTime != nil {
			return *info.Domain.CreatedDateInTime, nil
		}
		return parseCreated(info.Domain.CreatedDate)
	}
}

var createdLayouts = []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05", "2006-01-02"}

func parseCreated(raw string) (time.Time, error) {
	for _, layout := range createdLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, errNoCreationDate
}

// status returns 0 when the request could not complete, including TLS
// verification failures.
func (p *Prober) status(ctx context.Context, target string) int {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return 0
	}
	req.Header.Set("User-Agent", "Factulist/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		if p.logger != nil {
			p.logger.Debug("probe request failed", "url", target, "error", err)
		}
		return 0
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
	return resp.StatusCode
}
