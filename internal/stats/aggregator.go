// Package stats maintains the per-domain tally of credibility labels.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// ErrEmptyLabel rejects records without a credibility label.
var ErrEmptyLabel = errors.New("credibility label is required")

// Aggregator counts every report per source domain. Repeated calls are
// separate events; the repository makes each increment atomic.
type Aggregator struct {
	repo   ports.SourceStatsRepository
	logger *slog.Logger
}

// NewAggregator wires the stats repository.
func NewAggregator(repo ports.SourceStatsRepository, logger *slog.Logger) *Aggregator {
	return &Aggregator{repo: repo, logger: logger}
}

// Record increments label for the domain; absent domains and "N/A" are ignored.
func (a *Aggregator) Record(ctx context.Context, source, label string) error {
	source = strings.TrimSpace(source)
	if source == "" || source == domain.NotApplicable {
		return nil
	}
	d := domain.NormalizeDomain(source)
	if d == "" {
		return nil
	}
	if strings.TrimSpace(label) == "" {
		return ErrEmptyLabel
	}

	stats, err := a.repo.Increment(ctx, d, label)
	if err != nil {
		return fmt.Errorf("record %s: %w", d, err)
	}

	if a.logger != nil {
		a.logger.Debug("source stats updated", "domain", d, "label", label, "total", stats.Total())
	}
	return nil
}
