// Package locator answers "which files" questions for a radar processing
// chain: archive files for a descriptor and window, the forecast file for a
// valid time, and thunderstorm cell track files.
//
// Every call takes the site configuration as an immutable Config value, so a
// single Locator serves any number of sites and concurrent callers.
package locator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/archive"
	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/forecast"
	"github.com/couchcryptid/radar-archive-locator/internal/observability"
)

// Radar holds the archive locations of one radar.
type Radar struct {
	DataPath     string
	LoadBasePath string
	LoadName     string
	Res          string
	Name         string
	ModelPath    string
}

// Config is the site configuration threaded through every call.
type Config struct {
	Radars       []Radar
	Convention   domain.PathConvention
	RunFrequency int // hours between model runs
	Horizon      int // hours each model run forecasts
	GridCode     string
	Workers      int
	TRTPath      string
}

// Radar returns the locations of the radar at index.
func (c Config) Radar(index int) (Radar, error) {
	if index < 0 || index >= len(c.Radars) {
		return Radar{}, &domain.ConfigurationError{
			Field:  "radar",
			Reason: fmt.Sprintf("radar index %d not configured (%d radars)", index, len(c.Radars)),
		}
	}
	return c.Radars[index], nil
}

// Files is the answer to an archive or cell track query.
type Files struct {
	Paths     []string
	Skipped   []domain.Skip
	Cancelled bool
}

// ForecastQuery selects a model file for one valid time.
type ForecastQuery struct {
	Kind       convention.ModelKind
	ValidTime  time.Time
	DataType   string
	Scan       string
	RadarIndex int
}

// Locator ties descriptor parsing, layout resolution, scanning, and time
// filtering together.
type Locator struct {
	registry *convention.Registry
	filter   *archive.Filter
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// New creates a Locator over the given layout registry.
func New(registry *convention.Registry, logger *slog.Logger, metrics *observability.Metrics) *Locator {
	return &Locator{
		registry: registry,
		filter:   archive.NewFilter(logger, metrics),
		logger:   logger,
		metrics:  metrics,
	}
}

// FileList returns the files a descriptor refers to inside w, ordered by
// path. A cancelled search returns what was found together with an error
// wrapping domain.ErrCancelled.
func (l *Locator) FileList(ctx context.Context, cfg Config, descriptor string, w domain.Window, scan string) (Files, error) {
	start := time.Now()
	defer func() { l.metrics.ScanDuration.WithLabelValues("files").Observe(time.Since(start).Seconds()) }()

	d := domain.ParseDescriptor(descriptor)
	if err := d.Validate(); err != nil {
		return Files{}, err
	}
	radar, err := cfg.Radar(d.RadarIndex)
	if err != nil {
		return Files{}, err
	}

	q := archive.Query{
		Descriptor:   d,
		Window:       w,
		Scan:         scan,
		Convention:   cfg.Convention,
		BasePath:     radar.DataPath,
		LoadBasePath: radar.LoadBasePath,
		LoadName:     radar.LoadName,
		Res:          radar.Res,
		Name:         radar.Name,
	}
	if d.Group == domain.GroupExchange {
		q.DirFormat, q.FileFormat = domain.ExchangeFormats(d.Dataset)
	}

	res, err := l.scanner(cfg).Scan(ctx, q)
	if err != nil && !errors.Is(err, domain.ErrCancelled) {
		return Files{}, err
	}

	located := l.filter.Apply(res.Candidates, w, archive.ByGroup(q.FileFormat))
	l.logger.Debug("archive files located",
		"descriptor", d.String(),
		"start", w.Start,
		"end", w.End,
		"candidates", len(res.Candidates),
		"files", len(located),
		"skipped_days", len(res.Skipped),
	)
	return Files{
		Paths:     archive.Paths(located),
		Skipped:   res.Skipped,
		Cancelled: res.Cancelled,
	}, err
}

// ForecastFile returns the newest model file covering q.ValidTime.
func (l *Locator) ForecastFile(ctx context.Context, cfg Config, q ForecastQuery) (forecast.Selection, error) {
	start := time.Now()
	defer func() { l.metrics.ScanDuration.WithLabelValues("forecast").Observe(time.Since(start).Seconds()) }()

	radar, err := cfg.Radar(q.RadarIndex)
	if err != nil {
		return forecast.Selection{}, err
	}

	sel := forecast.NewSelector(l.registry, cfg.RunFrequency, cfg.Horizon, cfg.Workers, l.logger, l.metrics)
	return sel.Select(ctx, forecast.Request{
		Kind:       q.Kind,
		ValidTime:  q.ValidTime,
		DataType:   q.DataType,
		Scan:       q.Scan,
		ModelPath:  radar.ModelPath,
		Res:        radar.Res,
		Name:       radar.Name,
		GridCode:   cfg.GridCode,
		Convention: cfg.Convention,
	})
}

// TRTFileList returns the thunderstorm cell track files inside w.
func (l *Locator) TRTFileList(ctx context.Context, cfg Config, w domain.Window) (Files, error) {
	start := time.Now()
	defer func() { l.metrics.ScanDuration.WithLabelValues("trt").Observe(time.Since(start).Seconds()) }()

	res, err := l.scanner(cfg).TRTFiles(ctx, cfg.TRTPath, w)
	if err != nil && !errors.Is(err, domain.ErrCancelled) {
		return Files{}, err
	}
	located := l.filter.Apply(res.Candidates, w, archive.TRTTimestamp)
	return Files{
		Paths:     archive.Paths(located),
		Skipped:   res.Skipped,
		Cancelled: res.Cancelled,
	}, err
}

func (l *Locator) scanner(cfg Config) *archive.Scanner {
	return archive.NewScanner(l.registry, cfg.Workers, l.logger, l.metrics)
}
