// Package datefmt handles the date formats operators put in processing
// configs: strftime ("%Y%m%d%H%M%S") or token style ("YYYYMMDDHHMMSS").
package datefmt

import (
	"fmt"
	"strings"
	"time"

	"github.com/itchyny/timefmt-go"
)

// tokens are tried longest first at every position.
var tokens = []struct {
	token     string
	directive string
}{
	{"YYYY", "%Y"},
	{"jjj", "%j"},
	{"YY", "%y"},
	{"DD", "%d"},
	{"HH", "%H"},
	{"hh", "%H"},
	{"mm", "%M"},
	{"SS", "%S"},
	{"ss", "%S"},
}

// Normalize converts a token-style format to strftime. Formats that already
// contain a '%' directive are returned unchanged. "MM" is the month unless an
// hour token precedes it, in which case it is the minute.
func Normalize(format string) string {
	if strings.Contains(format, "%") {
		return format
	}

	var b strings.Builder
	seenHour := false
	for i := 0; i < len(format); {
		if strings.HasPrefix(format[i:], "MM") {
			if seenHour {
				b.WriteString("%M")
			} else {
				b.WriteString("%m")
			}
			i += 2
			continue
		}
		matched := false
		for _, tk := range tokens {
			if strings.HasPrefix(format[i:], tk.token) {
				b.WriteString(tk.directive)
				if tk.directive == "%H" {
					seenHour = true
				}
				i += len(tk.token)
				matched = true
				break
			}
		}
		if !matched {
			b.WriteByte(format[i])
			i++
		}
	}
	return b.String()
}

// Format renders t with a strftime or token-style format.
func Format(t time.Time, format string) string {
	return timefmt.Format(t, Normalize(format))
}

// Parse reads s as a UTC time in the given format. The whole of s must be
// consumed and must render back identically, which rejects lenient partial
// matches when the caller is probing substrings.
func Parse(s, format string) (time.Time, error) {
	f := Normalize(format)
	t, err := timefmt.ParseInLocation(s, f, time.UTC)
	if err != nil {
		return time.Time{}, err
	}
	if got := timefmt.Format(t, f); got != s {
		return time.Time{}, fmt.Errorf("parse %q with %q: renders as %q", s, f, got)
	}
	return t, nil
}

// Width is the length of the format rendered at t. Fixed-width formats
// render the same length for any t.
func Width(t time.Time, format string) int {
	return len(Format(t, format))
}
