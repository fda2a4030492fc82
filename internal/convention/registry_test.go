package convention

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/radar-archive-locator/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testBase = "/data/radar"

// 2 May 2020 is day 123.
var testDay = time.Date(2020, 5, 2, 0, 0, 0, 0, time.UTC)

func testVars() Vars {
	return Vars{
		Day:          testDay,
		BasePath:     testBase,
		LoadBasePath: "/data/proc",
		LoadName:     "mals_emm",
		Res:          "L",
		Name:         "A",
		Scan:         "003",
		DataType:     "dBZ",
		Dataset:      "l01",
		Product:      "PPI",
	}
}

func TestResolve_Layouts(t *testing.T) {
	reg := Default()

	tests := []struct {
		name        string
		group       domain.DataGroup
		conv        domain.PathConvention
		vars        func(Vars) Vars
		dir         string
		glob        string
		hasFallback bool
	}{
		{
			name: "rainbow", group: domain.GroupRainbow, conv: domain.ConventionDefault,
			dir: filepath.Join(testBase, "003", "2020-05-02"), glob: "20200502*00dBZ.*",
		},
		{
			name: "rainbow ignores convention", group: domain.GroupRainbow, conv: domain.ConventionOperationalSite,
			dir: filepath.Join(testBase, "003", "2020-05-02"), glob: "20200502*00dBZ.*",
		},
		{
			name: "network binary default", group: domain.GroupNetworkBinary, conv: domain.ConventionDefault,
			dir: filepath.Join(testBase, "MLA"), glob: "MLA20123*.003*", hasFallback: true,
		},
		{
			name: "network binary operational site", group: domain.GroupNetworkBinary, conv: domain.ConventionOperationalSite,
			dir: filepath.Join(testBase, "20123", "MLA20123"), glob: "MLA20123*.003*", hasFallback: true,
		},
		{
			name: "network binary site local time", group: domain.GroupNetworkBinary, conv: domain.ConventionSiteLocalTime,
			dir: filepath.Join(testBase, "MLA20hdf123"), glob: "MLA20123*.003*", hasFallback: true,
		},
		{
			name: "exchange operational site", group: domain.GroupExchange, conv: domain.ConventionOperationalSite,
			dir: filepath.Join(testBase, "20123", "MLA20123"), glob: "MLA20123*003*", hasFallback: true,
		},
		{
			name: "exchange site local time uses default", group: domain.GroupExchange, conv: domain.ConventionSiteLocalTime,
			dir: filepath.Join(testBase, "MLA"), glob: "MLA20123*003*", hasFallback: true,
		},
		{
			name: "exchange generic", group: domain.GroupExchange, conv: domain.ConventionExchangeGeneric,
			vars: func(v Vars) Vars { v.DirFormat = "%Y/%m/%d"; return v },
			dir:  filepath.Join(testBase, "2020", "05", "02"), glob: "*003*.h5",
		},
		{
			name: "processed netcdf", group: domain.GroupProcessedNetCDF, conv: domain.ConventionDefault,
			dir: filepath.Join("/data/proc", "mals_emm", "2020-05-02", "l01", "PPI"), glob: "20200502*dBZ.nc",
		},
		{
			name: "processed exchange", group: domain.GroupProcessedExchange, conv: domain.ConventionDefault,
			dir: filepath.Join("/data/proc", "mals_emm", "2020-05-02", "l01", "PPI"), glob: "20200502*dBZ.h5",
		},
		{
			name: "legacy site default", group: domain.GroupLegacySite, conv: domain.ConventionDefault,
			dir: filepath.Join(testBase, "003", "2020-05-02"), glob: "MXPol-polar-20200502-*-003*.nc",
		},
		{
			name: "legacy site local time", group: domain.GroupLegacySite, conv: domain.ConventionSiteLocalTime,
			dir: filepath.Join(testBase, "2020", "05", "02"), glob: "MXPol-polar-20200502-*-003*.nc",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rule, err := reg.Resolve(tt.group, tt.conv)
			require.NoError(t, err)

			v := testVars()
			if tt.vars != nil {
				v = tt.vars(v)
			}
			assert.Equal(t, tt.dir, rule.Primary.Dir(v))
			assert.Equal(t, tt.glob, rule.Primary.Glob(v))
			assert.Equal(t, tt.hasFallback, rule.Fallback != nil)
			assert.Equal(t, tt.hasFallback, reg.HasFallback(tt.group, tt.conv))
		})
	}
}

func TestResolve_FallbackUsesSecondaryPrefix(t *testing.T) {
	rule, err := Default().Resolve(domain.GroupNetworkBinary, domain.ConventionOperationalSite)
	require.NoError(t, err)
	require.NotNil(t, rule.Fallback)

	v := testVars()
	assert.Equal(t, filepath.Join(testBase, "20123", "PLA20123"), rule.Fallback.Dir(v))
	assert.Equal(t, "PLA20123*.003*", rule.Fallback.Glob(v))
}

func TestResolve_ScanRequirements(t *testing.T) {
	reg := Default()

	for _, g := range []domain.DataGroup{domain.GroupRainbow, domain.GroupNetworkBinary, domain.GroupExchange, domain.GroupLegacySite} {
		rule, err := reg.Resolve(g, domain.ConventionDefault)
		require.NoError(t, err)
		assert.True(t, rule.NeedsScan, "group %s", g)
	}

	rule, err := reg.Resolve(domain.GroupProcessedNetCDF, domain.ConventionDefault)
	require.NoError(t, err)
	assert.False(t, rule.NeedsScan)

	rule, err = reg.Resolve(domain.GroupExchange, domain.ConventionExchangeGeneric)
	require.NoError(t, err)
	assert.True(t, rule.NeedsDirFormat)
}

func TestResolve_ModelHasNoArchiveLayout(t *testing.T) {
	_, err := Default().Resolve(domain.GroupModel, domain.ConventionDefault)
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
	assert.False(t, Default().HasFallback(domain.GroupModel, domain.ConventionDefault))
}

func TestModelRules(t *testing.T) {
	reg := Default()
	run := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	valid := time.Date(2021, 6, 1, 5, 0, 0, 0, time.UTC)
	v := ModelVars{
		ModelPath: "/data/model",
		DataType:  "TEMP",
		Scan:      "PPI1_",
		Res:       "L",
		Name:      "A",
		GridCode:  "DX50",
		Run:       run,
		Valid:     valid,
		LeadHours: 5,
	}

	tests := []struct {
		kind ModelKind
		dir  string
		glob string
	}{
		{ModelRainbow, "/data/model/TEMP/PPI1_2021-06-01", "TEMP_RUN2021060100000000_DX502021060105000000.*"},
		{ModelRaw, "/data/model/TEMP/raw1/2021-06-01", "cosmo-1_MDR_3D_2021060100.nc"},
		{ModelFreezingLevel, "/data/model/HZT/21152", "HZT2115200000L.805"},
		{ModelNetworkBinary, "/data/model/TEMP/PLA/21152", "TEMP_RUN211520000_PLA211520500.PPI1_.bin"},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			rule, err := reg.Model(tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.dir, rule.Dir(v))
			glob, err := rule.Glob(v)
			require.NoError(t, err)
			assert.Equal(t, tt.glob, glob)
		})
	}
}

func TestModelRules_RealtimeFreezingLevelHasNoDayDir(t *testing.T) {
	rule, err := Default().Model(ModelFreezingLevel)
	require.NoError(t, err)

	v := ModelVars{ModelPath: "/data/model", Convention: domain.ConventionRealtime, Run: testDay}
	assert.Equal(t, "/data/model/HZT", rule.Dir(v))
}

func TestModelRules_RawUnknownVariable(t *testing.T) {
	rule, err := Default().Model(ModelRaw)
	require.NoError(t, err)

	_, err = rule.Glob(ModelVars{DataType: "HUMIDITY"})
	var cfgErr *domain.ConfigurationError
	assert.True(t, errors.As(err, &cfgErr))
}

func TestModel_UnknownKind(t *testing.T) {
	_, err := Default().Model("GRIB")
	assert.Error(t, err)
}
