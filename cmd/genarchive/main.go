// Command genarchive writes an empty-file radar archive tree laid out the way
// the locator expects, for demos and manual testing of the service. Each data
// group gets its own base directory named after the group, e.g.
// <out>/network_binary and <out>/trt.
//
// Usage:
//
//	go run ./cmd/genarchive \
//	  -out /tmp/archive \
//	  -start 2020-01-01 -days 3 -interval 30m \
//	  -convention MCH -fallback
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/convention"
	"github.com/couchcryptid/radar-archive-locator/internal/domain"
)

// fileName renders the name a producer gives a file acquired at ts.
type fileName func(ts time.Time, prefix string, o options) string

type options struct {
	out       string
	conv      domain.PathConvention
	scan      string
	dataType  string
	res       string
	name      string
	dataset   string
	product   string
	loadName  string
	dirFormat string
	fallback  bool
}

var groupNames = map[domain.DataGroup]fileName{
	domain.GroupRainbow: func(ts time.Time, _ string, o options) string {
		return ts.Format("20060102150405") + "00" + o.dataType + ".vol"
	},
	domain.GroupNetworkBinary: func(ts time.Time, prefix string, o options) string {
		return prefix + o.res + o.name + ts.Format("060021504") + "0U." + o.scan
	},
	domain.GroupExchange: func(ts time.Time, prefix string, o options) string {
		if o.conv == domain.ConventionExchangeGeneric {
			return "T_PAG" + o.scan + "_C_LSSX_" + ts.Format("20060102150405") + ".h5"
		}
		return prefix + o.res + o.name + ts.Format("060021504") + "0U." + o.scan + ".h5"
	},
	domain.GroupProcessedNetCDF: func(ts time.Time, _ string, o options) string {
		return ts.Format("20060102150405") + "_" + o.dataType + ".nc"
	},
	domain.GroupProcessedExchange: func(ts time.Time, _ string, o options) string {
		return ts.Format("20060102150405") + "_" + o.dataType + ".h5"
	},
	domain.GroupLegacySite: func(ts time.Time, _ string, o options) string {
		return "MXPol-polar-" + ts.Format("20060102-150405") + "-" + o.scan + "-001.nc"
	},
}

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	var o options
	var convToken, startStr string
	var days int
	var interval time.Duration

	flag.StringVar(&o.out, "out", "", "root directory of the generated archive")
	flag.StringVar(&convToken, "convention", "DEFAULT", "path convention (DEFAULT, LTE, MCH, ODIM, RT)")
	flag.StringVar(&startStr, "start", "2020-01-01", "first day, YYYY-MM-DD")
	flag.IntVar(&days, "days", 2, "number of days")
	flag.DurationVar(&interval, "interval", time.Hour, "time between volumes")
	flag.StringVar(&o.scan, "scan", "001", "scan name")
	flag.StringVar(&o.dataType, "type", "dBZ", "data type")
	flag.StringVar(&o.res, "res", "L", "radar resolution code")
	flag.StringVar(&o.name, "name", "A", "radar short name")
	flag.StringVar(&o.dataset, "dataset", "echoFilter", "processed dataset directory")
	flag.StringVar(&o.product, "product", "SAVEVOL", "processed product directory")
	flag.StringVar(&o.loadName, "load-name", "rad4alp", "processing chain name")
	flag.StringVar(&o.dirFormat, "dir-format", "%Y-%m-%d", "exchange directory date format")
	flag.BoolVar(&o.fallback, "fallback", false, "write network files under the secondary prefix")
	flag.Parse()

	if o.out == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}
	conv, ok := domain.LookupConvention(convToken)
	if !ok {
		return fmt.Errorf("unknown convention %q", convToken)
	}
	o.conv = conv
	start, err := time.Parse(time.DateOnly, startStr)
	if err != nil {
		return fmt.Errorf("parse -start: %w", err)
	}
	if interval <= 0 {
		return fmt.Errorf("-interval must be positive")
	}

	reg := convention.Default()
	total := 0
	for group, name := range groupNames {
		rule, err := reg.Resolve(group, conv)
		if err != nil {
			return err
		}
		variant, prefix := rule.Primary, convention.PrimaryPrefix
		if o.fallback && rule.Fallback != nil {
			variant, prefix = *rule.Fallback, convention.SecondaryPrefix
		}

		base := filepath.Join(o.out, strings.ToLower(string(group)))
		n, err := writeGroup(o, base, variant, func(ts time.Time) string {
			return name(ts, prefix, o)
		}, start, days, interval)
		if err != nil {
			return fmt.Errorf("%s: %w", group, err)
		}
		log.Printf("%s: %d files", group, n)
		total += n
	}

	n, err := writeGroup(o, filepath.Join(o.out, "trt"), convention.TRT(), func(ts time.Time) string {
		return "CZC" + ts.Format("060021504") + "0T.trt"
	}, start, days, interval)
	if err != nil {
		return fmt.Errorf("TRT: %w", err)
	}
	log.Printf("TRT: %d files", n)
	total += n

	log.Printf("total: %d files under %s", total, o.out)
	return nil
}

func writeGroup(o options, base string, v convention.Variant, name func(time.Time) string, start time.Time, days int, interval time.Duration) (int, error) {
	written := 0
	for d := range days {
		day := start.AddDate(0, 0, d)
		dir := v.Dir(convention.Vars{
			Day:          day,
			BasePath:     base,
			LoadBasePath: base,
			LoadName:     o.loadName,
			Res:          o.res,
			Name:         o.name,
			Scan:         o.scan,
			DataType:     o.dataType,
			Dataset:      o.dataset,
			Product:      o.product,
			DirFormat:    o.dirFormat,
		})
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return written, err
		}
		for ts := day; ts.Before(day.AddDate(0, 0, 1)); ts = ts.Add(interval) {
			if err := os.WriteFile(filepath.Join(dir, name(ts)), nil, 0o644); err != nil {
				return written, err
			}
			written++
		}
	}
	return written, nil
}
