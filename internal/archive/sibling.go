package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/couchcryptid/radar-archive-locator/internal/timestamp"
)

// RainbowSibling returns the path of the file holding dataType for the same
// volume as master, e.g. ".../2020010112000000dBZ.vol" and "ZDR" give
// ".../2020010112000000ZDR.vol".
func RainbowSibling(master string, masterDescriptor domain.Descriptor, dataType string) (string, error) {
	ts, err := timestamp.Extract(master, masterDescriptor.Group, "")
	if err != nil {
		return "", fmt.Errorf("sibling of %q: %w", master, err)
	}

	parts := strings.Split(filepath.Base(master), ".")
	if len(parts) < 2 || parts[1] == "" {
		return "", fmt.Errorf("sibling of %q: no volume type: %w", master, domain.ErrNotFound)
	}

	name := ts.Format("20060102150405") + "00" + dataType + "." + parts[1]
	return filepath.Join(filepath.Dir(master), name), nil
}
