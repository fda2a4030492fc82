package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/locator"
)

// LocateResolver implements Resolver by running each request against the
// locator with a fixed site configuration.
type LocateResolver struct {
	locator *locator.Locator
	cfg     locator.Config
	logger  *slog.Logger
}

// NewResolver creates a LocateResolver.
func NewResolver(l *locator.Locator, cfg locator.Config, logger *slog.Logger) *LocateResolver {
	return &LocateResolver{
		locator: l,
		cfg:     cfg,
		logger:  logger,
	}
}

func (r *LocateResolver) Resolve(ctx context.Context, raw domain.RawMessage) (domain.LocateResult, error) {
	req, err := domain.ParseLocateRequest(raw)
	if err != nil {
		return domain.LocateResult{}, err
	}
	return r.Locate(ctx, req), nil
}

// Locate runs req. Failures, including missing data, are reported in the
// result's Error field so that every request gets an answer.
func (r *LocateResolver) Locate(ctx context.Context, req domain.LocateRequest) domain.LocateResult {
	res := domain.LocateResult{ID: req.ID, Kind: req.Kind}

	var err error
	switch req.Kind {
	case domain.KindFiles:
		var files locator.Files
		files, err = r.locator.FileList(ctx, r.cfg, req.Descriptor, domain.Window{Start: req.Start, End: req.End}, req.Scan)
		res.Files, res.Skipped, res.Cancelled = files.Paths, files.Skipped, files.Cancelled
	case domain.KindForecast:
		sel, ferr := r.locator.ForecastFile(ctx, r.cfg, locator.ForecastQuery{
			Kind:       convention.ModelKind(req.ModelKind),
			ValidTime:  req.ValidTime,
			DataType:   req.DataType,
			Scan:       req.Scan,
			RadarIndex: req.RadarIndex,
		})
		err = ferr
		res.Cancelled = sel.Cancelled
		if sel.Path != "" {
			run := sel.Run
			res.Path, res.Run = sel.Path, &run
		}
	case domain.KindTRT:
		var files locator.Files
		files, err = r.locator.TRTFileList(ctx, r.cfg, domain.Window{Start: req.Start, End: req.End})
		res.Files, res.Skipped, res.Cancelled = files.Paths, files.Skipped, files.Cancelled
	}

	if err != nil {
		res.Error = err.Error()
		r.logger.Warn("locate request failed",
			"id", req.ID,
			"kind", req.Kind,
			"caller_error", domain.IsCallerError(err),
			"error", err,
		)
	}
	res.ProcessedAt = domain.Now().UTC()
	return res
}
