package archive

import (
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/observability"
	"github.com/couchcryptid/radar-archive-locator/internal/timestamp"
)

// Extractor reads the acquisition time of a candidate.
type Extractor func(c domain.CandidateFile) (time.Time, error)

// ByGroup extracts timestamps with the encoding of each candidate's group.
// A non-empty formatHint overrides it with a sliding search.
func ByGroup(formatHint string) Extractor {
	return func(c domain.CandidateFile) (time.Time, error) {
		return timestamp.Extract(c.Path, c.Group, formatHint)
	}
}

// TRTTimestamp extracts the stamp of a cell track file.
func TRTTimestamp(c domain.CandidateFile) (time.Time, error) {
	return timestamp.ExtractTRT(c.Path)
}

// Filter keeps the candidates whose timestamp falls inside a window.
type Filter struct {
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewFilter creates a Filter.
func NewFilter(logger *slog.Logger, metrics *observability.Metrics) *Filter {
	return &Filter{logger: logger, metrics: metrics}
}

// Apply timestamps every candidate, drops those that cannot be dated or lie
// outside w, and returns the rest sorted by path without duplicates.
func (f *Filter) Apply(candidates []domain.CandidateFile, w domain.Window, extract Extractor) []domain.CandidateFile {
	kept := make([]domain.CandidateFile, 0, len(candidates))
	for _, c := range candidates {
		ts, err := extract(c)
		if err != nil {
			f.logger.Warn("date extraction failed, skipping file",
				"path", c.Path,
				"group", c.Group,
				"error", err,
			)
			f.metrics.DateExtractionFailures.WithLabelValues(string(c.Group)).Inc()
			continue
		}
		if !w.Contains(ts) {
			continue
		}
		c.Timestamp = ts
		kept = append(kept, c)
	}

	slices.SortFunc(kept, func(a, b domain.CandidateFile) int {
		return strings.Compare(a.Path, b.Path)
	})
	kept = slices.CompactFunc(kept, func(a, b domain.CandidateFile) bool {
		return a.Path == b.Path
	})

	for _, c := range kept {
		f.metrics.FilesLocated.WithLabelValues(string(c.Group)).Inc()
	}
	return kept
}

// Paths returns the paths of files in order.
func Paths(files []domain.CandidateFile) []string {
	paths := make([]string, len(files))
	for i, c := range files {
		paths[i] = c.Path
	}
	return paths
}
