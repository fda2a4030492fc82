// Package forecast picks the most recent model run that produced a file for
// a requested valid time.
package forecast

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/observability"
)

// Request describes the forecast file wanted for one valid time.
type Request struct {
	Kind       convention.ModelKind
	ValidTime  time.Time
	DataType   string
	Scan       string
	ModelPath  string
	Res        string
	Name       string
	GridCode   string
	Convention domain.PathConvention
}

// Selection is the chosen file and the run that wrote it.
type Selection struct {
	Path      string
	Run       domain.ForecastRun
	Cancelled bool
}

// Selector probes model runs newest first.
type Selector struct {
	registry  *convention.Registry
	frequency int // hours between runs
	horizon   int // hours each run forecasts
	workers   int
	logger    *slog.Logger
	metrics   *observability.Metrics
}

// NewSelector creates a Selector for a model that runs every frequency hours
// and forecasts horizon hours ahead.
func NewSelector(registry *convention.Registry, frequency, horizon, workers int, logger *slog.Logger, metrics *observability.Metrics) *Selector {
	if workers < 1 {
		workers = 1
	}
	return &Selector{
		registry:  registry,
		frequency: frequency,
		horizon:   horizon,
		workers:   workers,
		logger:    logger,
		metrics:   metrics,
	}
}

// Runs lists the runs whose forecasts may cover valid, newest first. The
// newest is valid truncated down to a multiple of the run frequency.
func (s *Selector) Runs(valid time.Time) []domain.ForecastRun {
	if s.frequency <= 0 || s.horizon <= 0 {
		return nil
	}
	hour := valid.Hour() / s.frequency * s.frequency
	run0 := time.Date(valid.Year(), valid.Month(), valid.Day(), hour, 0, 0, 0, valid.Location())

	count := (s.horizon - 1) / s.frequency
	runs := make([]domain.ForecastRun, 0, count)
	for i := range count {
		run := run0.Add(-time.Duration(i*s.frequency) * time.Hour)
		runs = append(runs, domain.ForecastRun{
			RunTime:   run,
			LeadHours: int(valid.Sub(run) / time.Hour),
		})
	}
	return runs
}

// Select probes every candidate run in parallel and returns the file of the
// newest run that has one. No file from any run yields domain.ErrNotFound.
func (s *Selector) Select(ctx context.Context, req Request) (Selection, error) {
	rule, err := s.registry.Model(req.Kind)
	if err != nil {
		return Selection{}, err
	}
	if rule.NeedsScan && req.Scan == "" {
		return Selection{}, &domain.ConfigurationError{
			Field:  "scan",
			Reason: fmt.Sprintf("%s files are written per scan", req.Kind),
		}
	}

	runs := s.Runs(req.ValidTime)
	dirs := make([]string, len(runs))
	patterns := make([]string, len(runs))
	for i, run := range runs {
		vars := convention.ModelVars{
			ModelPath:  req.ModelPath,
			DataType:   req.DataType,
			Scan:       req.Scan,
			Res:        req.Res,
			Name:       req.Name,
			GridCode:   req.GridCode,
			Convention: req.Convention,
			Run:        run.RunTime,
			Valid:      req.ValidTime,
			LeadHours:  run.LeadHours,
		}
		pattern, err := rule.Glob(vars)
		if err != nil {
			return Selection{}, err
		}
		dirs[i], patterns[i] = rule.Dir(vars), pattern
	}

	hits := make([]string, len(runs))
	// done marks runs that were probed or made irrelevant by an earlier hit.
	done := make([]bool, len(runs))
	var best atomic.Int64
	best.Store(int64(len(runs)))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i := range runs {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if int64(i) > best.Load() {
				done[i] = true
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			s.metrics.ForecastProbes.WithLabelValues(string(req.Kind)).Inc()
			path, ok := probe(dirs[i], patterns[i])
			done[i] = true
			if !ok {
				return nil
			}
			hits[i] = path
			for {
				cur := best.Load()
				if int64(i) >= cur || best.CompareAndSwap(cur, int64(i)) {
					break
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	winner := slices.IndexFunc(hits, func(path string) bool { return path != "" })
	considered := done
	if winner >= 0 {
		considered = done[:winner]
	}
	cancelled := slices.Contains(considered, false)

	if winner >= 0 {
		s.metrics.ForecastOutcome.WithLabelValues(string(req.Kind), "hit").Inc()
		sel := Selection{Path: hits[winner], Run: runs[winner]}
		if cancelled {
			sel.Cancelled = true
			return sel, fmt.Errorf("%w: %w", domain.ErrCancelled, context.Cause(ctx))
		}
		s.logger.Debug("forecast file selected",
			"kind", req.Kind,
			"valid", req.ValidTime,
			"run", runs[winner].RunTime,
			"lead_hours", runs[winner].LeadHours,
		)
		return sel, nil
	}

	if cancelled {
		return Selection{Cancelled: true}, fmt.Errorf("%w: %w", domain.ErrCancelled, context.Cause(ctx))
	}
	s.metrics.ForecastOutcome.WithLabelValues(string(req.Kind), "miss").Inc()
	return Selection{}, fmt.Errorf("%s file for %s in %d runs: %w",
		req.Kind, req.ValidTime.Format(time.RFC3339), len(runs), domain.ErrNotFound)
}

// probe returns the first file in dir matching pattern.
func probe(dir, pattern string) (string, bool) {
	matches, err := doublestar.Glob(os.DirFS(dir), pattern)
	if err != nil || len(matches) == 0 {
		return "", false
	}
	return filepath.Join(dir, matches[0]), true
}
