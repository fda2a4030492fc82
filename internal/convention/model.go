package convention

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/domain"
)

// ModelKind selects one of the model archive sub-formats.
type ModelKind string

const (
	// ModelRainbow is model output interpolated onto a radar scan, one file
	// per run and valid hour.
	ModelRainbow ModelKind = "MODEL_RAINBOW"
	// ModelRaw is the native model grid, one file per run.
	ModelRaw ModelKind = "MODEL_RAW"
	// ModelFreezingLevel is the freezing-level height product, one file per
	// run and lead hour.
	ModelFreezingLevel ModelKind = "FREEZING_LEVEL"
	// ModelNetworkBinary is model output in the network binary format.
	ModelNetworkBinary ModelKind = "MODEL_NETWORK_BINARY"
)

// ModelVars holds what a model template may substitute for one run.
type ModelVars struct {
	ModelPath  string
	DataType   string
	Scan       string
	Res        string
	Name       string
	GridCode   string
	Convention domain.PathConvention
	Run        time.Time
	Valid      time.Time
	LeadHours  int
}

// ModelRule locates the file a given run wrote for a valid time.
type ModelRule struct {
	Kind      ModelKind
	NeedsScan bool
	Dir       func(v ModelVars) string
	Glob      func(v ModelVars) (string, error)
}

// Model returns the rule for a model sub-format.
func (r *Registry) Model(kind ModelKind) (ModelRule, error) {
	rule, ok := r.models[kind]
	if !ok {
		return ModelRule{}, &domain.ConfigurationError{
			Field:  "model_kind",
			Reason: fmt.Sprintf("unknown model kind %q", kind),
		}
	}
	return rule, nil
}

// rawModelFiles names the native-grid file per variable.
var rawModelFiles = map[string]string{
	"TEMP": "cosmo-1_MDR_3D_",
	"WIND": "cosmo-1_MDR_3DWIND_",
}

func hourStamp(t time.Time) string { return t.Format("2006010215") }
func yyjjjHH(t time.Time) string   { return t.Format("0600215") }

func modelRules() []ModelRule {
	return []ModelRule{
		{
			Kind:      ModelRainbow,
			NeedsScan: true,
			Dir: func(v ModelVars) string {
				return filepath.Join(v.ModelPath, v.DataType, v.Scan+ymdDash(v.Run))
			},
			Glob: func(v ModelVars) (string, error) {
				return v.DataType + "_RUN" + hourStamp(v.Run) + "000000_" + v.GridCode +
					hourStamp(v.Valid) + "000000.*", nil
			},
		},
		{
			Kind: ModelRaw,
			Dir: func(v ModelVars) string {
				return filepath.Join(v.ModelPath, v.DataType, "raw1", ymdDash(v.Run))
			},
			Glob: func(v ModelVars) (string, error) {
				prefix, ok := rawModelFiles[v.DataType]
				if !ok {
					return "", &domain.ConfigurationError{
						Field:  "data_type",
						Reason: fmt.Sprintf("no raw model file for %q", v.DataType),
					}
				}
				return prefix + hourStamp(v.Run) + ".nc", nil
			},
		},
		{
			Kind: ModelFreezingLevel,
			Dir: func(v ModelVars) string {
				if v.Convention == domain.ConventionRealtime {
					return filepath.Join(v.ModelPath, "HZT")
				}
				return filepath.Join(v.ModelPath, "HZT", yyjjj(v.Run))
			},
			Glob: func(v ModelVars) (string, error) {
				return fmt.Sprintf("HZT%s000L.8%02d", yyjjjHH(v.Run), v.LeadHours), nil
			},
		},
		{
			Kind:      ModelNetworkBinary,
			NeedsScan: true,
			Dir: func(v ModelVars) string {
				return filepath.Join(v.ModelPath, v.DataType, SecondaryPrefix+v.Res+v.Name, yyjjj(v.Run))
			},
			Glob: func(v ModelVars) (string, error) {
				site := SecondaryPrefix + v.Res + v.Name
				return v.DataType + "_RUN" + yyjjjHH(v.Run) + "00_" + site +
					yyjjjHH(v.Valid) + "00." + v.Scan + ".bin", nil
			},
		},
	}
}
