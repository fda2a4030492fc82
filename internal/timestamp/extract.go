// Package timestamp recovers acquisition times from archive file names.
package timestamp

import (
	"fmt"
	"path/filepath"
	"regexp"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/datefmt"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
)

// fixedEncoding is a timestamp at known byte positions of the base name.
type fixedEncoding struct {
	from, to int
	layout   string
}

var (
	// fullPrefix is "YYYYMMDDhhmmss" at the start of the name.
	fullPrefix = fixedEncoding{from: 0, to: 14, layout: "20060102150405"}

	// networkSlice is "YYjjjhhmm" after the three-letter site stem, e.g.
	// "MLA201231205..." -> 2020 day 123 12:05.
	networkSlice = fixedEncoding{from: 3, to: 12, layout: "060021504"}

	// legacyRe matches the "YYYYMMDD-hhmmss" token of legacy site names.
	legacyRe = regexp.MustCompile(`[0-9]{8}-[0-9]{6}`)
)

var fixedByGroup = map[domain.DataGroup]fixedEncoding{
	domain.GroupRainbow:           fullPrefix,
	domain.GroupProcessedNetCDF:   fullPrefix,
	domain.GroupProcessedExchange: fullPrefix,
	domain.GroupNetworkBinary:     networkSlice,
	domain.GroupExchange:          networkSlice,
}

// Extract returns the timestamp encoded in the base name of path. A
// non-empty formatHint switches to a sliding search for that format, which
// is how generic exchange archives are dated.
//
// Fixed-position encodings that fail to parse return a
// *domain.DateExtractionError; heuristic encodings that find nothing return
// domain.ErrNotFound.
func Extract(path string, group domain.DataGroup, formatHint string) (time.Time, error) {
	name := filepath.Base(path)

	if formatHint != "" {
		ts, _, ok := FindInName(name, formatHint)
		if !ok {
			return time.Time{}, fmt.Errorf("no %q date in %q: %w", formatHint, name, domain.ErrNotFound)
		}
		return ts, nil
	}

	if group == domain.GroupLegacySite {
		return extractLegacy(name)
	}

	enc, ok := fixedByGroup[group]
	if !ok {
		return time.Time{}, fmt.Errorf("no timestamp encoding for group %s: %w", group, domain.ErrNotFound)
	}
	return extractFixed(name, enc)
}

// ExtractTRT reads the "YYjjjhhmm" stamp of a cell track file such as
// "CZC2012312050T.trt".
func ExtractTRT(path string) (time.Time, error) {
	return extractFixed(filepath.Base(path), networkSlice)
}

func extractFixed(name string, enc fixedEncoding) (time.Time, error) {
	if len(name) < enc.to {
		return time.Time{}, &domain.DateExtractionError{
			Name: name,
			Err:  fmt.Errorf("name shorter than %d characters", enc.to),
		}
	}
	ts, err := time.Parse(enc.layout, name[enc.from:enc.to])
	if err != nil {
		return time.Time{}, &domain.DateExtractionError{Name: name, Err: err}
	}
	return ts, nil
}

func extractLegacy(name string) (time.Time, error) {
	matches := legacyRe.FindAllString(name, -1)
	if len(matches) != 1 {
		return time.Time{}, fmt.Errorf("%d date tokens in %q: %w", len(matches), name, domain.ErrNotFound)
	}
	ts, err := time.Parse("20060102-150405", matches[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("date token in %q: %w", name, domain.ErrNotFound)
	}
	return ts, nil
}

// FindInName slides a window the width of format across name and returns
// the first substring that parses, with its offset. The width is that of the
// format rendered at the current time.
func FindInName(name, format string) (time.Time, int, bool) {
	width := datefmt.Width(domain.Now(), format)
	if width == 0 {
		return time.Time{}, 0, false
	}

	found := false
	var ts time.Time
	offset := 0
	for ; offset+width <= len(name); offset++ {
		t, err := datefmt.Parse(name[offset:offset+width], format)
		if err == nil {
			ts, found = t, true
			break
		}
	}
	if !found {
		return time.Time{}, 0, false
	}
	return ts, offset, true
}
