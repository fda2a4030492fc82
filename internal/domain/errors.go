package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means no file matched. It is an expected outcome for archive
	// gaps and data that has not arrived yet.
	ErrNotFound = errors.New("not found")

	// ErrCancelled is returned alongside partial results when the caller's
	// context ends before every day or run has been examined.
	ErrCancelled = errors.New("search cancelled")
)

// ConfigurationError reports a parameter the selected convention requires but
// the caller did not supply, such as a scan name for a per-scan layout.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// AmbiguousDescriptorError reports a descriptor that parses but cannot be
// resolved without guessing, e.g. a processed product without its product name.
type AmbiguousDescriptorError struct {
	Descriptor string
	Reason     string
}

func (e *AmbiguousDescriptorError) Error() string {
	return fmt.Sprintf("ambiguous descriptor %q: %s", e.Descriptor, e.Reason)
}

// DateExtractionError means a file name that should carry a timestamp at a
// fixed position does not.
type DateExtractionError struct {
	Name string
	Err  error
}

func (e *DateExtractionError) Error() string {
	return fmt.Sprintf("extract date from %q: %v", e.Name, e.Err)
}

func (e *DateExtractionError) Unwrap() error { return e.Err }

// IsCallerError reports whether err is one the caller must fix: a
// configuration or descriptor problem rather than missing data.
func IsCallerError(err error) bool {
	var cfgErr *ConfigurationError
	var descErr *AmbiguousDescriptorError
	return errors.As(err, &cfgErr) || errors.As(err, &descErr)
}
