package domain

import (
	"regexp"
	"strings"
)

// ParseDatasetDescriptor splits "[level:]dataset" into its processing level
// and dataset name. The level defaults to "l00"; two-character levels such as
// "l1" are zero-padded to "l01".
func ParseDatasetDescriptor(s string) (level, dataset string) {
	level, dataset, found := strings.Cut(s, ":")
	if !found {
		return "l00", s
	}
	if len(level) == 2 {
		level = level[:1] + "0" + level[1:]
	}
	return level, dataset
}

// ScanList groups "RADARnnn:scan" descriptors by radar index. Descriptors
// without a radar prefix all belong to the single default radar.
func ScanList(descriptors []string) [][]string {
	if len(descriptors) == 0 {
		return nil
	}
	if !strings.Contains(descriptors[0], ":") {
		return [][]string{append([]string(nil), descriptors...)}
	}

	var lists [][]string
	for _, desc := range descriptors {
		radar, scan, _ := strings.Cut(desc, ":")
		idx := ParseDescriptor(radar + ":x").RadarIndex
		for len(lists) <= idx {
			lists = append(lists, nil)
		}
		lists[idx] = append(lists[idx], scan)
	}
	return lists
}

var (
	dirFormatRe  = regexp.MustCompile(`D\{([^}]*)\}`)
	fileFormatRe = regexp.MustCompile(`F\{([^}]*)\}`)
)

// ExchangeFormats extracts the directory and file date formats from an
// exchange dataset hint of the form "D{%Y-%m-%d}-F{%Y%m%d%H%M%S}". Either
// result is empty when the hint does not declare it.
func ExchangeFormats(dataset string) (dirFormat, fileFormat string) {
	if m := dirFormatRe.FindStringSubmatch(dataset); m != nil {
		dirFormat = m[1]
	}
	if m := fileFormatRe.FindStringSubmatch(dataset); m != nil {
		fileFormat = m[1]
	}
	return dirFormat, fileFormat
}
