package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DataGroup identifies the producer convention a descriptor refers to.
type DataGroup string

const (
	GroupRainbow           DataGroup = "RAINBOW"
	GroupNetworkBinary     DataGroup = "NETWORK_BINARY"
	GroupExchange          DataGroup = "EXCHANGE"
	GroupProcessedNetCDF   DataGroup = "PROCESSED_NETCDF"
	GroupProcessedExchange DataGroup = "PROCESSED_EXCHANGE"
	GroupLegacySite        DataGroup = "LEGACY_SITE"
	GroupModel             DataGroup = "MODEL"
)

// groupTokens maps every accepted group token, canonical names and the
// producer names still found in older processing configs, to its group.
var groupTokens = map[string]DataGroup{
	"RAINBOW":            GroupRainbow,
	"NETWORK_BINARY":     GroupNetworkBinary,
	"RAD4ALP":            GroupNetworkBinary,
	"EXCHANGE":           GroupExchange,
	"ODIM":               GroupExchange,
	"PROCESSED_NETCDF":   GroupProcessedNetCDF,
	"CFRADIAL":           GroupProcessedNetCDF,
	"PROCESSED_EXCHANGE": GroupProcessedExchange,
	"ODIMPYRAD":          GroupProcessedExchange,
	"LEGACY_SITE":        GroupLegacySite,
	"MXPOL":              GroupLegacySite,
	"MODEL":              GroupModel,
	"COSMO":              GroupModel,
}

// LookupGroup resolves a group token, canonical or alias.
func LookupGroup(token string) (DataGroup, bool) {
	g, ok := groupTokens[token]
	return g, ok
}

// Processed reports whether the group holds products written by the
// processing chain, addressed by dataset and product directories.
func (g DataGroup) Processed() bool {
	return g == GroupProcessedNetCDF || g == GroupProcessedExchange
}

// radarIDRe matches the radar prefix segment, e.g. "RADAR002".
var radarIDRe = regexp.MustCompile(`^RADAR(\d{3})$`)

// Descriptor is the structured form of a data descriptor string.
// Dataset and Product are empty when absent.
type Descriptor struct {
	RadarIndex int       `json:"radar_index"`
	Group      DataGroup `json:"group"`
	DataType   string    `json:"data_type"`
	Dataset    string    `json:"dataset,omitempty"`
	Product    string    `json:"product,omitempty"`
}

// ParseDescriptor turns "[RADARnnn:]GROUP:type[,dataset[,product]]" or a bare
// "type" into a Descriptor. It never fails: anything it cannot interpret as a
// group is taken literally as a RAINBOW data type.
func ParseDescriptor(s string) Descriptor {
	d := Descriptor{Group: GroupRainbow}

	rest := s
	head, tail, hasTail := strings.Cut(rest, ":")
	if m := radarIDRe.FindStringSubmatch(head); m != nil && hasTail {
		n, _ := strconv.Atoi(m[1])
		d.RadarIndex = max(n-1, 0)
		rest = tail
	}

	head, tail, hasTail = strings.Cut(rest, ":")
	group, known := LookupGroup(head)
	if !known || !hasTail {
		d.DataType = rest
		return d
	}

	d.Group = group
	switch {
	case group.Processed():
		fields := strings.SplitN(tail, ",", 3)
		d.DataType = fields[0]
		if len(fields) > 1 {
			d.Dataset = fields[1]
		}
		if len(fields) > 2 {
			d.Product = fields[2]
		}
	case group == GroupExchange:
		d.DataType, d.Dataset, _ = strings.Cut(tail, ",")
	default:
		d.DataType = tail
	}
	return d
}

// RadarID returns the radar prefix token, e.g. "RADAR001" for index 0.
func (d Descriptor) RadarID() string {
	return fmt.Sprintf("RADAR%03d", d.RadarIndex+1)
}

// String renders the descriptor in its fully qualified form.
func (d Descriptor) String() string {
	var b strings.Builder
	b.WriteString(d.RadarID())
	b.WriteByte(':')
	b.WriteString(string(d.Group))
	b.WriteByte(':')
	b.WriteString(d.DataType)

	switch {
	case d.Group.Processed():
		if d.Dataset != "" || d.Product != "" {
			b.WriteString("," + d.Dataset)
		}
		if d.Product != "" {
			b.WriteString("," + d.Product)
		}
	case d.Group == GroupExchange:
		if d.Dataset != "" {
			b.WriteString("," + d.Dataset)
		}
	}
	return b.String()
}

// Validate reports grammar violations that cannot be defaulted.
func (d Descriptor) Validate() error {
	if d.DataType == "" {
		return &AmbiguousDescriptorError{Descriptor: d.String(), Reason: "empty data type"}
	}
	// Subfields past the third are kept in Product verbatim, so a comma there
	// means the type segment had more than three fields.
	if d.Group.Processed() && (d.Dataset == "" || d.Product == "" || strings.Contains(d.Product, ",")) {
		return &AmbiguousDescriptorError{
			Descriptor: d.String(),
			Reason:     "group " + string(d.Group) + " requires exactly type,dataset,product",
		}
	}
	return nil
}
