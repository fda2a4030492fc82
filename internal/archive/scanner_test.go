package archive_test

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/archive"
	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/observability"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- fixtures ---

func newTestScanner(workers int) *archive.Scanner {
	return archive.NewScanner(convention.Default(), workers, slog.Default(), observability.NewMetricsForTesting())
}

func touch(t *testing.T, parts ...string) string {
	t.Helper()
	path := filepath.Join(parts...)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, nil, 0o644))
	return path
}

func day(d int) time.Time {
	return time.Date(2020, 1, d, 0, 0, 0, 0, time.UTC)
}

func paths(res archive.ScanResult) []string {
	return archive.Paths(res.Candidates)
}

// --- tests ---

func TestScan_RainbowInclusiveBounds(t *testing.T) {
	base := t.TempDir()
	file := touch(t, base, "400.vol", "2020-01-01", "20200101000000dBZ.dat")

	q := archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(1), End: day(1)},
		Scan:       "400.vol",
		BasePath:   base,
	}

	res, err := newTestScanner(2).Scan(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths(res))
	assert.Empty(t, res.Skipped)
	assert.False(t, res.Cancelled)

	c := res.Candidates[0]
	assert.Equal(t, domain.GroupRainbow, c.Group)
	assert.Equal(t, domain.ConventionDefault, c.Convention)
	assert.True(t, c.Timestamp.IsZero(), "timestamps are filled by the filter")

	located := archive.NewFilter(slog.Default(), observability.NewMetricsForTesting()).
		Apply(res.Candidates, q.Window, archive.ByGroup(""))
	assert.Equal(t, []string{file}, archive.Paths(located))
}

func TestScan_MissingMiddleDay(t *testing.T) {
	base := t.TempDir()
	first := touch(t, base, "400.vol", "2020-01-01", "20200101120000dBZ.vol")
	last := touch(t, base, "400.vol", "2020-01-03", "20200103120000dBZ.vol")

	q := archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(1), End: day(3).Add(23 * time.Hour)},
		Scan:       "400.vol",
		BasePath:   base,
	}

	res, err := newTestScanner(3).Scan(context.Background(), q)
	require.NoError(t, err)
	assert.Equal(t, []string{first, last}, paths(res))

	require.Len(t, res.Skipped, 1)
	assert.Equal(t, domain.Skip{
		Day:    day(2),
		Dir:    filepath.Join(base, "400.vol", "2020-01-02"),
		Reason: domain.SkipMissingDirectory,
	}, res.Skipped[0])
}

func TestScan_NoiseTypesReadReflectivityVolume(t *testing.T) {
	base := t.TempDir()
	file := touch(t, base, "400.vol", "2020-01-01", "20200101120000dBZ.vol")

	res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:Nh"),
		Window:     domain.Window{Start: day(1), End: day(1)},
		Scan:       "400.vol",
		BasePath:   base,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths(res))
}

func TestScan_FallbackPrefixUsedExclusively(t *testing.T) {
	t.Run("secondary prefix when primary matches nothing", func(t *testing.T) {
		base := t.TempDir()
		require.NoError(t, os.MkdirAll(filepath.Join(base, "MLA"), 0o755))
		a := touch(t, base, "PLA", "PLA2000112000U.003")
		b := touch(t, base, "PLA", "PLA2000112050U.003")

		res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
			Descriptor: domain.ParseDescriptor("NETWORK_BINARY:dBZ"),
			Window:     domain.Window{Start: day(1), End: day(1)},
			Scan:       "003",
			BasePath:   base,
			Res:        "L",
			Name:       "A",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{a, b}, paths(res))
		for _, c := range res.Candidates {
			assert.True(t, c.Fallback)
		}
	})

	t.Run("primary matches hide the secondary prefix", func(t *testing.T) {
		base := t.TempDir()
		m := touch(t, base, "MLA", "MLA2000112000U.003")
		touch(t, base, "PLA", "PLA2000112050U.003")

		res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
			Descriptor: domain.ParseDescriptor("NETWORK_BINARY:dBZ"),
			Window:     domain.Window{Start: day(1), End: day(1)},
			Scan:       "003",
			BasePath:   base,
			Res:        "L",
			Name:       "A",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{m}, paths(res))
		assert.False(t, res.Candidates[0].Fallback)
	})

	t.Run("secondary day directory under operational layout", func(t *testing.T) {
		base := t.TempDir()
		p := touch(t, base, "20001", "PLA20001", "PLA2000112000U.003.h5")

		res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
			Descriptor: domain.ParseDescriptor("EXCHANGE:dBZ"),
			Window:     domain.Window{Start: day(1), End: day(1)},
			Scan:       "003",
			Convention: domain.ConventionOperationalSite,
			BasePath:   base,
			Res:        "L",
			Name:       "A",
		})
		require.NoError(t, err)
		assert.Equal(t, []string{p}, paths(res))
		assert.Empty(t, res.Skipped)
	})
}

func TestScan_ExchangeGenericFormats(t *testing.T) {
	base := t.TempDir()
	file := touch(t, base, "2023-04-05", "T_PAGZ41_C_LSSX_20230405120000.h5")
	touch(t, base, "2023-04-05", "T_PAGZ41_C_LSSX_20230405130000.h5")

	desc := domain.ParseDescriptor("EXCHANGE:dBZ,D{%Y-%m-%d}-F{%Y%m%d%H%M%S}")
	dirFormat, fileFormat := domain.ExchangeFormats(desc.Dataset)
	window := domain.Window{
		Start: time.Date(2023, 4, 5, 11, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 4, 5, 12, 30, 0, 0, time.UTC),
	}

	res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
		Descriptor: desc,
		Window:     window,
		Scan:       "PAGZ41",
		Convention: domain.ConventionExchangeGeneric,
		BasePath:   base,
		DirFormat:  dirFormat,
		FileFormat: fileFormat,
	})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)

	located := archive.NewFilter(slog.Default(), observability.NewMetricsForTesting()).
		Apply(res.Candidates, window, archive.ByGroup(fileFormat))
	assert.Equal(t, []string{file}, archive.Paths(located))
}

func TestScan_LegacySiteLocalLayoutUsesEachDay(t *testing.T) {
	base := t.TempDir()
	a := touch(t, base, "2016", "09", "14", "MXPol-polar-20160914-231527-PPI-003.nc")
	b := touch(t, base, "2016", "09", "15", "MXPol-polar-20160915-001000-PPI-003.nc")

	res, err := newTestScanner(2).Scan(context.Background(), archive.Query{
		Descriptor: domain.ParseDescriptor("LEGACY_SITE:ZDR"),
		Window: domain.Window{
			Start: time.Date(2016, 9, 14, 0, 0, 0, 0, time.UTC),
			End:   time.Date(2016, 9, 15, 23, 0, 0, 0, time.UTC),
		},
		Scan:       "PPI",
		Convention: domain.ConventionSiteLocalTime,
		BasePath:   base,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{a, b}, paths(res))
}

func TestScan_ProcessedProduct(t *testing.T) {
	load := t.TempDir()
	file := touch(t, load, "rad4alp", "2020-01-01", "echoFilter", "SAVEVOL", "20200101120000_dBZc.nc")

	res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
		Descriptor:   domain.ParseDescriptor("PROCESSED_NETCDF:dBZc,echoFilter,SAVEVOL"),
		Window:       domain.Window{Start: day(1), End: day(1).Add(23 * time.Hour)},
		LoadBasePath: load,
		LoadName:     "rad4alp",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths(res))
}

func TestScan_ProcessedNoiseUsesReflectivityFiles(t *testing.T) {
	load := t.TempDir()
	file := touch(t, load, "rad4alp", "2020-01-01", "echoFilter", "SAVEVOL", "20200101120000_dBZ.nc")
	touch(t, load, "rad4alp", "2020-01-01", "echoFilter", "SAVEVOL", "20200101120000_Nh.nc")

	res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
		Descriptor:   domain.ParseDescriptor("PROCESSED_NETCDF:Nh,echoFilter,SAVEVOL"),
		Window:       domain.Window{Start: day(1), End: day(1).Add(23 * time.Hour)},
		LoadBasePath: load,
		LoadName:     "rad4alp",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{file}, paths(res))
}

func TestScan_ConfigurationErrorsBeforeIO(t *testing.T) {
	tests := []struct {
		name  string
		query archive.Query
		field string
	}{
		{
			name: "per-scan layout without scan",
			query: archive.Query{
				Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
				Window:     domain.Window{Start: day(1), End: day(2)},
				BasePath:   "/does/not/exist",
			},
			field: "scan",
		},
		{
			name: "generic exchange without directory format",
			query: archive.Query{
				Descriptor: domain.ParseDescriptor("EXCHANGE:dBZ"),
				Window:     domain.Window{Start: day(1), End: day(2)},
				Scan:       "003",
				Convention: domain.ConventionExchangeGeneric,
			},
			field: "dir_format",
		},
		{
			name: "model group has no archive layout",
			query: archive.Query{
				Descriptor: domain.ParseDescriptor("MODEL:TEMP"),
				Window:     domain.Window{Start: day(1), End: day(2)},
			},
			field: "group",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := newTestScanner(1).Scan(context.Background(), tt.query)
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tt.field, cfgErr.Field)
			assert.Empty(t, res.Skipped)
		})
	}
}

func TestScan_Idempotent(t *testing.T) {
	base := t.TempDir()
	for d := 1; d <= 5; d++ {
		dir := filepath.Join(base, "400.vol", day(d).Format("2006-01-02"))
		touch(t, dir, day(d).Format("20060102")+"120000dBZ.vol")
		touch(t, dir, day(d).Format("20060102")+"060000dBZ.vol")
	}

	q := archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(1), End: day(5)},
		Scan:       "400.vol",
		BasePath:   base,
	}

	scanner := newTestScanner(4)
	first, err := scanner.Scan(context.Background(), q)
	require.NoError(t, err)
	second, err := scanner.Scan(context.Background(), q)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated scan differs (-first +second):\n%s", diff)
	}
	assert.Len(t, first.Candidates, 10)
	for i := 1; i < len(first.Candidates); i++ {
		assert.LessOrEqual(t, first.Candidates[i-1].DayIndex, first.Candidates[i].DayIndex)
	}
}

func TestScan_CancelledReturnsPartialResult(t *testing.T) {
	base := t.TempDir()
	touch(t, base, "400.vol", "2020-01-01", "20200101120000dBZ.vol")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestScanner(2).Scan(ctx, archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(1), End: day(3)},
		Scan:       "400.vol",
		BasePath:   base,
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrCancelled)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, res.Cancelled)
	assert.Empty(t, res.Candidates)

	require.Len(t, res.Skipped, 3)
	for _, s := range res.Skipped {
		assert.Equal(t, domain.SkipCancelled, s.Reason)
	}
}

func TestScan_NothingLeftToScanIsNotCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := newTestScanner(2).Scan(ctx, archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(3), End: day(1)},
		Scan:       "400.vol",
		BasePath:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.False(t, res.Cancelled)
	assert.Empty(t, res.Skipped)
}

func TestScan_InvertedWindowIsEmpty(t *testing.T) {
	res, err := newTestScanner(1).Scan(context.Background(), archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(3), End: day(1)},
		Scan:       "400.vol",
		BasePath:   t.TempDir(),
	})
	require.NoError(t, err)
	assert.Empty(t, res.Candidates)
	assert.Empty(t, res.Skipped)
}

func TestCandidates_SinglePassInDayOrder(t *testing.T) {
	base := t.TempDir()
	a := touch(t, base, "400.vol", "2020-01-01", "20200101120000dBZ.vol")
	b := touch(t, base, "400.vol", "2020-01-03", "20200103120000dBZ.vol")

	seq, err := newTestScanner(1).Candidates(context.Background(), archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(1), End: day(3)},
		Scan:       "400.vol",
		BasePath:   base,
	})
	require.NoError(t, err)

	var got []string
	for c := range seq {
		got = append(got, c.Path)
	}
	assert.Equal(t, []string{a, b}, got)

	for range seq {
		t.Fatal("sequence yielded on a second pass")
	}
}

func TestCandidates_ConfigurationErrorIsEager(t *testing.T) {
	_, err := newTestScanner(1).Candidates(context.Background(), archive.Query{
		Descriptor: domain.ParseDescriptor("RAINBOW:dBZ"),
		Window:     domain.Window{Start: day(1), End: day(1)},
	})
	assert.True(t, domain.IsCallerError(err))
}

func TestTRTFiles(t *testing.T) {
	base := t.TempDir()
	in := touch(t, base, "20001", "TRTC20001", "CZC2000112050T.trt")
	touch(t, base, "20001", "TRTC20001", "CZC2000123550T.trt")
	touch(t, base, "20001", "TRTC20001", "CZC2000112050T.json")

	window := domain.Window{
		Start: time.Date(2020, 1, 1, 12, 0, 0, 0, time.UTC),
		End:   time.Date(2020, 1, 1, 13, 0, 0, 0, time.UTC),
	}

	res, err := newTestScanner(1).TRTFiles(context.Background(), base, window)
	require.NoError(t, err)
	require.Len(t, res.Candidates, 2)

	located := archive.NewFilter(slog.Default(), observability.NewMetricsForTesting()).
		Apply(res.Candidates, window, archive.TRTTimestamp)
	assert.Equal(t, []string{in}, archive.Paths(located))

	_, err = newTestScanner(1).TRTFiles(context.Background(), "", window)
	assert.True(t, domain.IsCallerError(err))
}
