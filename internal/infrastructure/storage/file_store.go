package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"Factulist/internal/domain"
	"Factulist/internal/ports"
)

// FileReportLog keeps the report log in memory and mirrors it to a JSON file.
// An empty path keeps it purely in memory.
type FileReportLog struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	reports  []domain.Report
}

var _ ports.ReportRepository = (*FileReportLog)(nil)

// NewFileReportLog binds the log to path, loaded lazily on first use.
func NewFileReportLog(path string) *FileReportLog {
	return &FileReportLog{path: path}
}

// Append assigns id = current log size under the write lock.
func (l *FileReportLog) Append(_ context.Context, report domain.Report) (domain.Report, error) {
	if err := l.ensureLoaded(); err != nil {
		return domain.Report{}, err
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	report.ID = int64(len(l.reports))
	l.reports = append(l.reports, report)
	if err := writeJSON(l.path, l.reports); err != nil {
		l.reports = l.reports[:len(l.reports)-1]
		return domain.Report{}, err
	}
	return report, nil
}

// All returns every report in insertion order.
func (l *FileReportLog) All(_ context.Context) ([]domain.Report, error) {
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]domain.Report, len(l.reports))
	copy(out, l.reports)
	return out, nil
}

// Last returns the newest n reports in insertion order.
func (l *FileReportLog) Last(ctx context.Context, n int) ([]domain.Report, error) {
	all, err := l.All(ctx)
	if err != nil {
		return nil, err
	}
	if n <= 0 || n >= len(all) {
		return all, nil
	}
	return all[len(all)-n:], nil
}

// Get returns the report with the given id.
func (l *FileReportLog) Get(_ context.Context, id int64) (domain.Report, error) {
	if err := l.ensureLoaded(); err != nil {
		return domain.Report{}, err
	}
	l.mu.RLock()
	defer l.mu.RUnlock()

	if id < 0 || id >= int64(len(l.reports)) {
		return domain.Report{}, domain.ErrReportNotFound
	}
	return l.reports[id], nil
}

func (l *FileReportLog) ensureLoaded() error {
	l.loadOnce.Do(func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		l.loadErr = readJSON(l.path, &l.reports)
		for i := range l.reports {
			l.reports[i].ID = int64(i)
		}
	})
	return l.loadErr
}

// FileStatsStore keeps per-domain label counts in memory and mirrors them to a JSON file.
type FileStatsStore struct {
	path string

	loadOnce sync.Once
	loadErr  error
	mu       sync.RWMutex
	byDomain map[string]domain.SourceStats
}

var _ ports.SourceStatsRepository = (*FileStatsStore)(nil)

// NewFileStatsStore binds the table to path, loaded lazily on first use.
func NewFileStatsStore(path string) *FileStatsStore {
	return &FileStatsStore{path: path, byDomain: map[string]domain.SourceStats{}}
}

// Increment performs read-or-create, increment and persist under one lock.
func (s *FileStatsStore) Increment(_ context.Context, d, label string) (domain.SourceStats, error) {
	if err := s.ensureLoaded(); err != nil {
		return domain.SourceStats{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	prev, existed := s.byDomain[d]
	counts := cloneCounts(prev.Counts)
	counts[label]++
	next := domain.SourceStats{Domain: d, Counts: counts}
	s.byDomain[d] = next

	if err := writeJSON(s.path, s.sortedLocked()); err != nil {
		if existed {
			s.byDomain[d] = prev
		} else {
			delete(s.byDomain, d)
		}
		return domain.SourceStats{}, err
	}
	return copyStats(next), nil
}

// Get returns the stats for a normalised domain.
func (s *FileStatsStore) Get(_ context.Context, d string) (domain.SourceStats, bool, error) {
	if err := s.ensureLoaded(); err != nil {
		return domain.SourceStats{}, false, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats, ok := s.byDomain[d]
	if !ok {
		return domain.SourceStats{}, false, nil
	}
	return copyStats(stats), true, nil
}

// All returns every record ordered by domain.
func (s *FileStatsStore) All(_ context.Context) ([]domain.SourceStats, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := s.sortedLocked()
	for i := range out {
		out[i] = copyStats(out[i])
	}
	return out, nil
}

func (s *FileStatsStore) sortedLocked() []domain.SourceStats {
	out := make([]domain.SourceStats, 0, len(s.byDomain))
	for _, stats := range s.byDomain {
		out = append(out, stats)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Domain < out[j].Domain })
	return out
}

func (s *FileStatsStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		var records []domain.SourceStats
		if err := readJSON(s.path, &records); err != nil {
			s.loadErr = err
			return
		}
		for _, rec := range records {
			if rec.Counts == nil {
				rec.Counts = map[string]int{}
			}
			s.byDomain[rec.Domain] = rec
		}
	})
	return s.loadErr
}

func cloneCounts(in map[string]int) map[string]int {
	out := make(map[string]int, len(in)+1)
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyStats(s domain.SourceStats) domain.SourceStats {
	return domain.SourceStats{Domain: s.Domain, Counts: cloneCounts(s.Counts)}
}

func readJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// writeJSON replaces path atomically via a temp file in the same directory.
func writeJSON(path string, v any) error {
	if path == "" {
		return nil
	}
	raw, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("close %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
