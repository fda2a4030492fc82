// Package convention maps each (data group, path convention) pair to the
// directory and file-name templates its producer writes.
package convention

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/datefmt"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
)

// Network products are written under a primary prefix and, when the primary
// chain is down, under a secondary one.
const (
	PrimaryPrefix   = "M"
	SecondaryPrefix = "P"
)

// legacyFilePrefix starts every file written by the legacy single-site radar.
const legacyFilePrefix = "MXPol-polar-"

// Vars holds everything a template may substitute for one day of one query.
type Vars struct {
	Day          time.Time
	BasePath     string
	LoadBasePath string
	LoadName     string
	Res          string // radar resolution code, e.g. "L"
	Name         string // radar short name, e.g. "A"
	Scan         string
	DataType     string
	Dataset      string
	Product      string
	DirFormat    string // exchange directory date format
}

// Variant is one directory template and the glob applied inside it.
type Variant struct {
	Dir  func(v Vars) string
	Glob func(v Vars) string
}

// Rule describes how one group is laid out under one convention.
type Rule struct {
	Group          domain.DataGroup
	Convention     domain.PathConvention
	Primary        Variant
	Fallback       *Variant // probed only when Primary matches nothing
	NeedsScan      bool
	NeedsDirFormat bool
}

type key struct {
	group      domain.DataGroup
	convention domain.PathConvention
}

// Registry is an immutable lookup table of layout rules.
type Registry struct {
	rules  map[key]Rule
	models map[ModelKind]ModelRule
}

// NewRegistry builds a registry from rules. Later rules replace earlier ones
// with the same group and convention.
func NewRegistry(rules []Rule, models []ModelRule) *Registry {
	r := &Registry{
		rules:  make(map[key]Rule, len(rules)),
		models: make(map[ModelKind]ModelRule, len(models)),
	}
	for _, rule := range rules {
		r.rules[key{rule.Group, rule.Convention}] = rule
	}
	for _, m := range models {
		r.models[m.Kind] = m
	}
	return r
}

// Default returns the registry of every layout this locator understands.
func Default() *Registry {
	return NewRegistry(archiveRules(), modelRules())
}

// Resolve returns the rule for group under convention, falling back to the
// group's DEFAULT layout when the convention does not change it.
func (r *Registry) Resolve(group domain.DataGroup, conv domain.PathConvention) (Rule, error) {
	if rule, ok := r.rules[key{group, conv}]; ok {
		return rule, nil
	}
	if rule, ok := r.rules[key{group, domain.ConventionDefault}]; ok {
		return rule, nil
	}
	return Rule{}, &domain.ConfigurationError{
		Field:  "group",
		Reason: fmt.Sprintf("no archive layout for %s under %s", group, conv),
	}
}

// HasFallback reports whether group declares a secondary file prefix under conv.
func (r *Registry) HasFallback(group domain.DataGroup, conv domain.PathConvention) bool {
	rule, err := r.Resolve(group, conv)
	return err == nil && rule.Fallback != nil
}

func ymdDash(t time.Time) string { return t.Format("2006-01-02") }
func ymd(t time.Time) string     { return t.Format("20060102") }
func yyjjj(t time.Time) string   { return t.Format("06002") }

// siteBase is the network file stem, e.g. "MLA20123".
func siteBase(prefix string, v Vars) string {
	return prefix + v.Res + v.Name + yyjjj(v.Day)
}

func archiveRules() []Rule {
	rainbow := Variant{
		Dir:  func(v Vars) string { return filepath.Join(v.BasePath, v.Scan, ymdDash(v.Day)) },
		Glob: func(v Vars) string { return ymd(v.Day) + "*00" + v.DataType + ".*" },
	}

	processed := func(ext string) Variant {
		return Variant{
			Dir: func(v Vars) string {
				return filepath.Join(v.LoadBasePath, v.LoadName, ymdDash(v.Day), v.Dataset, v.Product)
			},
			Glob: func(v Vars) string { return ymd(v.Day) + "*" + v.DataType + ext },
		}
	}

	// Network binary globs anchor the scan after a dot ("*.003*"), exchange
	// globs anywhere in the name.
	networkGlob := func(prefix string) func(Vars) string {
		return func(v Vars) string { return siteBase(prefix, v) + "*." + v.Scan + "*" }
	}
	exchangeGlob := func(prefix string) func(Vars) string {
		return func(v Vars) string { return siteBase(prefix, v) + "*" + v.Scan + "*" }
	}

	flatDir := func(prefix string) func(Vars) string {
		return func(v Vars) string { return filepath.Join(v.BasePath, prefix+v.Res+v.Name) }
	}
	dayDir := func(prefix string) func(Vars) string {
		return func(v Vars) string {
			return filepath.Join(v.BasePath, yyjjj(v.Day), siteBase(prefix, v))
		}
	}
	hdfDir := func(prefix string) func(Vars) string {
		return func(v Vars) string {
			yy, jjj := v.Day.Format("06"), v.Day.Format("002")
			return filepath.Join(v.BasePath, prefix+v.Res+v.Name+yy+"hdf"+jjj)
		}
	}

	pair := func(dir func(string) func(Vars) string, glob func(string) func(Vars) string) (Variant, *Variant) {
		return Variant{Dir: dir(PrimaryPrefix), Glob: glob(PrimaryPrefix)},
			&Variant{Dir: dir(SecondaryPrefix), Glob: glob(SecondaryPrefix)}
	}

	netDefault, netDefaultFB := pair(flatDir, networkGlob)
	netSite, netSiteFB := pair(dayDir, networkGlob)
	netLocal, netLocalFB := pair(hdfDir, networkGlob)
	exDefault, exDefaultFB := pair(flatDir, exchangeGlob)
	exSite, exSiteFB := pair(dayDir, exchangeGlob)

	legacyGlob := func(v Vars) string { return legacyFilePrefix + ymd(v.Day) + "-*-" + v.Scan + "*.nc" }

	return []Rule{
		{Group: domain.GroupRainbow, Convention: domain.ConventionDefault, Primary: rainbow, NeedsScan: true},

		{Group: domain.GroupNetworkBinary, Convention: domain.ConventionDefault, Primary: netDefault, Fallback: netDefaultFB, NeedsScan: true},
		{Group: domain.GroupNetworkBinary, Convention: domain.ConventionOperationalSite, Primary: netSite, Fallback: netSiteFB, NeedsScan: true},
		{Group: domain.GroupNetworkBinary, Convention: domain.ConventionSiteLocalTime, Primary: netLocal, Fallback: netLocalFB, NeedsScan: true},

		{Group: domain.GroupExchange, Convention: domain.ConventionDefault, Primary: exDefault, Fallback: exDefaultFB, NeedsScan: true},
		{Group: domain.GroupExchange, Convention: domain.ConventionOperationalSite, Primary: exSite, Fallback: exSiteFB, NeedsScan: true},
		{
			Group:      domain.GroupExchange,
			Convention: domain.ConventionExchangeGeneric,
			Primary: Variant{
				Dir:  func(v Vars) string { return filepath.Join(v.BasePath, datefmt.Format(v.Day, v.DirFormat)) },
				Glob: func(v Vars) string { return "*" + v.Scan + "*.h5" },
			},
			NeedsScan:      true,
			NeedsDirFormat: true,
		},

		{Group: domain.GroupProcessedNetCDF, Convention: domain.ConventionDefault, Primary: processed(".nc")},
		{Group: domain.GroupProcessedExchange, Convention: domain.ConventionDefault, Primary: processed(".h5")},

		{
			Group:      domain.GroupLegacySite,
			Convention: domain.ConventionDefault,
			Primary: Variant{
				Dir:  func(v Vars) string { return filepath.Join(v.BasePath, v.Scan, ymdDash(v.Day)) },
				Glob: legacyGlob,
			},
			NeedsScan: true,
		},
		{
			Group:      domain.GroupLegacySite,
			Convention: domain.ConventionSiteLocalTime,
			Primary: Variant{
				Dir: func(v Vars) string {
					return filepath.Join(v.BasePath, v.Day.Format("2006"), v.Day.Format("01"), v.Day.Format("02"))
				},
				Glob: legacyGlob,
			},
			NeedsScan: true,
		},
	}
}

// TRT returns the layout of thunderstorm cell track files:
// {base}/{YYjjj}/TRTC{YYjjj}/CZC*0T.trt.
func TRT() Variant {
	return Variant{
		Dir: func(v Vars) string {
			return filepath.Join(v.BasePath, yyjjj(v.Day), "TRTC"+yyjjj(v.Day))
		},
		Glob: func(Vars) string { return "CZC*0T.trt" },
	}
}
