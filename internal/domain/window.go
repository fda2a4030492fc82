package domain

import "time"

// PathConvention selects the directory layout used for a data group at a site.
type PathConvention string

const (
	ConventionDefault         PathConvention = "DEFAULT"
	ConventionSiteLocalTime   PathConvention = "SITE_LOCAL_TIME_ENCODED"
	ConventionOperationalSite PathConvention = "OPERATIONAL_SITE"
	ConventionExchangeGeneric PathConvention = "EXCHANGE_GENERIC"
	ConventionRealtime        PathConvention = "REALTIME"
)

var conventionTokens = map[string]PathConvention{
	"":                        ConventionDefault,
	"DEFAULT":                 ConventionDefault,
	"SITE_LOCAL_TIME_ENCODED": ConventionSiteLocalTime,
	"LTE":                     ConventionSiteLocalTime,
	"OPERATIONAL_SITE":        ConventionOperationalSite,
	"MCH":                     ConventionOperationalSite,
	"EXCHANGE_GENERIC":        ConventionExchangeGeneric,
	"ODIM":                    ConventionExchangeGeneric,
	"REALTIME":                ConventionRealtime,
	"RT":                      ConventionRealtime,
}

// LookupConvention resolves a convention token, canonical or alias.
func LookupConvention(token string) (PathConvention, bool) {
	c, ok := conventionTokens[token]
	return c, ok
}

// Window is an inclusive [Start, End] search interval.
type Window struct {
	Start time.Time
	End   time.Time
}

// Contains reports whether t lies within the window, bounds included.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Days returns the start-of-day of every calendar day touched by the window,
// in order. An inverted window has no days.
func (w Window) Days() []time.Time {
	if w.End.Before(w.Start) {
		return nil
	}
	first := DayFloor(w.Start)
	last := DayFloor(w.End)

	var days []time.Time
	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// DayFloor truncates t to midnight in its own location.
func DayFloor(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ForecastRun is one model cycle considered for a valid time.
type ForecastRun struct {
	RunTime   time.Time `json:"run_time"`
	LeadHours int       `json:"lead_hours"`
}

// CandidateFile is a path produced by a directory scan, before its timestamp
// has been verified against the window.
type CandidateFile struct {
	Path       string
	Timestamp  time.Time // zero until extracted
	Group      DataGroup
	Convention PathConvention
	DayIndex   int
	Fallback   bool // matched by the secondary prefix
}

// SkipReason explains why a day produced no candidates.
type SkipReason string

const (
	SkipMissingDirectory SkipReason = "missing_directory"
	SkipUnreadable       SkipReason = "unreadable"
	SkipCancelled        SkipReason = "cancelled"
)

// Skip records a day that was not scanned.
type Skip struct {
	Day    time.Time  `json:"day"`
	Dir    string     `json:"dir,omitempty"`
	Reason SkipReason `json:"reason"`
}
