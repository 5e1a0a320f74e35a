package scoring

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// ReputationTable is the read-only domain reputation lookup, built once at startup.
type ReputationTable struct {
	scores map[string]float64
}

var _ ports.ReputationStore = (*ReputationTable)(nil)

// NewReputationTable normalises keys and clamps scores into [0,1].
// Non-finite scores are dropped.
func NewReputationTable(entries map[string]float64) *ReputationTable {
	table, _ := buildReputationTable(entries)
	return table
}

func buildReputationTable(entries map[string]float64) (*ReputationTable, []string) {
	scores := make(map[string]float64, len(entries))
	var rejected []string
	for d, s := range entries {
		key := domain.NormalizeHost(d)
		if key == "" {
			continue
		}
		if math.IsNaN(s) || math.IsInf(s, 0) {
			rejected = append(rejected, d)
			continue
		}
		scores[key] = clamp01(s)
	}
	return &ReputationTable{scores: scores}, rejected
}

// LoadReputationTable reads a YAML or JSON mapping of domain to score.
// A missing or corrupt file yields an empty table and a warning.
func LoadReputationTable(path string, logger *slog.Logger) *ReputationTable {
	if strings.TrimSpace(path) == "" {
		return NewReputationTable(nil)
	}

	entries, err := readReputationFile(path)
	if err != nil {
		if logger != nil {
			logger.Warn("reputation table unavailable, using empty table", "path", path, "error", err)
		}
		return NewReputationTable(nil)
	}

	table, rejected := buildReputationTable(entries)
	if len(rejected) > 0 && logger != nil {
		logger.Warn("reputation entries with non-finite scores ignored", "path", path, "domains", rejected)
	}
	if logger != nil {
		logger.Debug("reputation table loaded", "path", path, "domains", table.Len())
	}
	return table
}

func readReputationFile(path string) (map[string]float64, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reputation table: %w", err)
	}

	entries := map[string]float64{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		err = json.Unmarshal(raw, &entries)
	default:
		err = yaml.Unmarshal(raw, &entries)
	}
	if err != nil {
		return nil, fmt.Errorf("parse reputation table: %w", err)
	}
	return entries, nil
}

// Lookup normalises d before matching.
func (t *ReputationTable) Lookup(d string) (float64, bool) {
	if t == nil {
		return 0, false
	}
	s, ok := t.scores[domain.NormalizeHost(d)]
	return s, ok
}

// Len is the number of known domains.
func (t *ReputationTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.scores)
}

// Score is Lookup with the neutral default for unknown domains.
func (t *ReputationTable) Score(d string) float64 {
	if s, ok := t.Lookup(d); ok {
		return s
	}
	return domain.DefaultDomainScore
}
