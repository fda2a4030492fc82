// Package domain models radar and weather-model archive descriptors.
//
// # Data Descriptors
//
// A descriptor names a radar, a producer convention, and a variable:
//
//	"<type>"                                  e.g. "dBZ" (radar 1, RAINBOW)
//	"RADARnnn:<GROUP>:<type>"                 e.g. "RADAR002:RAD4ALP:dBZ"
//	"RADARnnn:<GROUP>:<type>,<dataset>,<product>"
//	                                          e.g. "RADAR001:PROCESSED_NETCDF:dBZ,l01,PPI"
//	"RADARnnn:EXCHANGE:<type>,<date formats>" e.g. "RADAR001:ODIM:dBZ,D{%Y-%m-%d}-F{%Y%m%d%H%M%S}"
//
// Radar numbers are one-based in descriptors and zero-based in [Descriptor].
// Group tokens from older processing configs (RAD4ALP, ODIM, CFRADIAL,
// ODIMPYRAD, MXPOL, COSMO) are accepted as aliases of the canonical names.
// A segment that is not a known group is part of the data type, so parsing
// never fails; [Descriptor.Validate] catches what cannot be defaulted.
//
// # File Name Timestamps
//
//	RAINBOW, PROCESSED_*:  "YYYYMMDDhhmmss" at offset 0, e.g. "20200101000000dBZ.dat"
//	NETWORK_BINARY:        "YYjjjhhmm" at offset 3, e.g. "MLA2012312055U.003"
//	LEGACY_SITE:           "YYYYMMDD-hhmmss" anywhere in the name
//	EXCHANGE with hint:    configured format at an unknown offset
//
// # Search Windows
//
// Windows are inclusive on both ends. Archives are organised by day, so a
// window is expanded into the calendar days it touches; a day whose directory
// is missing is recorded as a [Skip], never as an error.
package domain
