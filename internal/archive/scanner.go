// Package archive lists the files a descriptor refers to over a window of
// days, following the directory layout of the descriptor's data group.
package archive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"iter"
	"log/slog"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"

	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/observability"
)

// Query is one archive lookup: a parsed descriptor, a window, and the site
// values its layout substitutes.
type Query struct {
	Descriptor   domain.Descriptor
	Window       domain.Window
	Scan         string
	Convention   domain.PathConvention
	BasePath     string
	LoadBasePath string
	LoadName     string
	Res          string
	Name         string

	// DirFormat and FileFormat are the date formats of generic exchange
	// archives, taken from the descriptor's D{...} and F{...} hints.
	DirFormat  string
	FileFormat string
}

// ScanResult holds the candidates of every scanned day in day order.
type ScanResult struct {
	Candidates []domain.CandidateFile
	Skipped    []domain.Skip
	Cancelled  bool
}

// Scanner lists archive directories day by day on a bounded worker pool.
type Scanner struct {
	registry *convention.Registry
	workers  int
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewScanner creates a Scanner. Fewer than one worker means one.
func NewScanner(registry *convention.Registry, workers int, logger *slog.Logger, metrics *observability.Metrics) *Scanner {
	if workers < 1 {
		workers = 1
	}
	return &Scanner{
		registry: registry,
		workers:  workers,
		logger:   logger,
		metrics:  metrics,
	}
}

// plan is a resolved layout with everything but the day substituted.
type plan struct {
	group      domain.DataGroup
	convention domain.PathConvention
	primary    convention.Variant
	fallback   *convention.Variant
	vars       convention.Vars
}

// dayResult is what one worker produced for one day.
type dayResult struct {
	files []domain.CandidateFile
	skip  *domain.Skip
	done  bool
}

// Scan lists the candidate files of every day touched by the query window.
// Configuration problems are reported before any directory is read. When ctx
// ends early the candidates collected so far are returned with Cancelled set
// and an error wrapping domain.ErrCancelled.
func (s *Scanner) Scan(ctx context.Context, q Query) (ScanResult, error) {
	p, err := s.plan(q)
	if err != nil {
		return ScanResult{}, err
	}
	return s.scanDays(ctx, p, q.Window.Days())
}

// Candidates returns a single-pass sequence of candidate files, listing one
// day at a time as the caller pulls. Skipped days are logged and counted only.
func (s *Scanner) Candidates(ctx context.Context, q Query) (iter.Seq[domain.CandidateFile], error) {
	p, err := s.plan(q)
	if err != nil {
		return nil, err
	}
	days := q.Window.Days()

	var consumed atomic.Bool
	return func(yield func(domain.CandidateFile) bool) {
		if consumed.Swap(true) {
			return
		}
		for i, day := range days {
			res := s.scanDay(ctx, p, i, day)
			if !res.done {
				return
			}
			for _, f := range res.files {
				if !yield(f) {
					return
				}
			}
		}
	}, nil
}

// TRTFiles lists the thunderstorm cell track files under base for every day
// of the window. Timestamps are read downstream with TRTTimestamp.
func (s *Scanner) TRTFiles(ctx context.Context, base string, w domain.Window) (ScanResult, error) {
	if base == "" {
		return ScanResult{}, &domain.ConfigurationError{Field: "trt_path", Reason: "no cell track archive configured"}
	}
	p := plan{
		group:      trtGroup,
		convention: domain.ConventionDefault,
		primary:    convention.TRT(),
		vars:       convention.Vars{BasePath: base},
	}
	return s.scanDays(ctx, p, w.Days())
}

// trtGroup labels cell track files, which belong to no descriptor group.
const trtGroup domain.DataGroup = "TRT"

func (s *Scanner) plan(q Query) (plan, error) {
	group := q.Descriptor.Group
	rule, err := s.registry.Resolve(group, q.Convention)
	if err != nil {
		return plan{}, err
	}
	if rule.NeedsScan && q.Scan == "" {
		return plan{}, &domain.ConfigurationError{
			Field:  "scan",
			Reason: fmt.Sprintf("%s archives under %s are organized per scan", group, q.Convention),
		}
	}
	if rule.NeedsDirFormat && q.DirFormat == "" {
		return plan{}, &domain.ConfigurationError{
			Field:  "dir_format",
			Reason: fmt.Sprintf("%s archives under %s need a D{...} directory format", group, q.Convention),
		}
	}

	dataType := q.Descriptor.DataType
	if dataType == "Nh" || dataType == "Nv" {
		// Noise power is stored inside the reflectivity volume.
		dataType = "dBZ"
	}

	return plan{
		group:      group,
		convention: rule.Convention,
		primary:    rule.Primary,
		fallback:   rule.Fallback,
		vars: convention.Vars{
			BasePath:     q.BasePath,
			LoadBasePath: q.LoadBasePath,
			LoadName:     q.LoadName,
			Res:          q.Res,
			Name:         q.Name,
			Scan:         q.Scan,
			DataType:     dataType,
			Dataset:      q.Descriptor.Dataset,
			Product:      q.Descriptor.Product,
			DirFormat:    q.DirFormat,
		},
	}, nil
}

func (s *Scanner) scanDays(ctx context.Context, p plan, days []time.Time) (ScanResult, error) {
	results := make([]dayResult, len(days))

	var g errgroup.Group
	g.SetLimit(s.workers)
	for i, day := range days {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			results[i] = s.scanDay(ctx, p, i, day)
			return nil
		})
	}
	_ = g.Wait()

	var res ScanResult
	for i, r := range results {
		if !r.done {
			res.Cancelled = true
			r.skip = &domain.Skip{Day: days[i], Reason: domain.SkipCancelled}
			s.metrics.DaysSkipped.WithLabelValues(string(p.group), string(domain.SkipCancelled)).Inc()
		}
		if r.skip != nil {
			res.Skipped = append(res.Skipped, *r.skip)
		}
		res.Candidates = append(res.Candidates, r.files...)
	}

	if res.Cancelled {
		s.logger.Warn("archive scan cancelled",
			"group", p.group,
			"days", len(days),
			"candidates", len(res.Candidates),
		)
		return res, fmt.Errorf("%w: %w", domain.ErrCancelled, context.Cause(ctx))
	}
	return res, nil
}

// scanDay lists one day. The fallback variant is consulted only when the
// primary one matches nothing, and its matches are never merged with the
// primary's.
func (s *Scanner) scanDay(ctx context.Context, p plan, index int, day time.Time) dayResult {
	if ctx.Err() != nil {
		return dayResult{}
	}

	vars := p.vars
	vars.Day = day

	primary := list(p.primary, vars)
	chosen, fallback := primary, false
	if len(primary.matches) == 0 && p.fallback != nil {
		if alt := list(*p.fallback, vars); alt.reason == "" && (len(alt.matches) > 0 || primary.reason != "") {
			chosen, fallback = alt, len(alt.matches) > 0
		}
	}

	if chosen.reason != "" {
		s.logger.Debug("archive day skipped",
			"group", p.group,
			"day", day.Format(time.DateOnly),
			"dir", chosen.dir,
			"reason", chosen.reason,
			"error", chosen.err,
		)
		s.metrics.DaysSkipped.WithLabelValues(string(p.group), string(chosen.reason)).Inc()
		return dayResult{
			skip: &domain.Skip{Day: day, Dir: chosen.dir, Reason: chosen.reason},
			done: true,
		}
	}

	s.metrics.DaysScanned.WithLabelValues(string(p.group)).Inc()
	s.metrics.Candidates.WithLabelValues(string(p.group)).Add(float64(len(chosen.matches)))
	if fallback {
		s.metrics.FallbackUsed.WithLabelValues(string(p.group)).Inc()
	}

	files := make([]domain.CandidateFile, 0, len(chosen.matches))
	for _, name := range chosen.matches {
		files = append(files, domain.CandidateFile{
			Path:       filepath.Join(chosen.dir, name),
			Group:      p.group,
			Convention: p.convention,
			DayIndex:   index,
			Fallback:   fallback,
		})
	}
	return dayResult{files: files, done: true}
}

type listing struct {
	dir     string
	matches []string
	reason  domain.SkipReason
	err     error
}

func list(v convention.Variant, vars convention.Vars) listing {
	dir := v.Dir(vars)
	info, err := os.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return listing{dir: dir, reason: domain.SkipMissingDirectory, err: err}
	case err != nil:
		return listing{dir: dir, reason: domain.SkipUnreadable, err: err}
	case !info.IsDir():
		return listing{dir: dir, reason: domain.SkipMissingDirectory}
	}

	matches, err := doublestar.Glob(os.DirFS(dir), v.Glob(vars), doublestar.WithFailOnIOErrors())
	if err != nil {
		return listing{dir: dir, reason: domain.SkipUnreadable, err: err}
	}
	return listing{dir: dir, matches: matches}
}
