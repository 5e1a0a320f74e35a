package domain

import (
	"net/url"
	"strings"
)

// NormalizeDomain extracts the host of rawURL without a leading "www.".
// Returns "" when no host can be found.
func NormalizeDomain(rawURL string) string {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return ""
	}
	if !strings.Contains(rawURL, "://") {
		rawURL = "http://" + rawURL
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return NormalizeHost(parsed.Hostname())
}

// NormalizeHost lower-cases a host name and strips a leading "www.".
func NormalizeHost(host string) string {
	host = strings.ToLower(strings.TrimSpace(host))
	host = strings.TrimSuffix(host, ".")
	return strings.TrimPrefix(host, "www.")
}

// SourceDomainFor returns the report's source domain or NotApplicable.
func SourceDomainFor(sourceURL string) string {
	if d := NormalizeDomain(sourceURL); d != "" {
		return d
	}
	return NotApplicable
}
