// Package domain models the earthquake catalog and the pure view logic built
// on it: time buckets, filter predicates, radius scales and ring stacks.
//
// # Data Source
//
// Records follow the public "earthquake_data_tsunami" catalog (significant
// events, magnitude 6.5 and above, 2001 onwards). One row per event:
//
//	magnitude, cdi, mmi, sig, nst, dmin, gap, depth, latitude, longitude, Year, Month, tsunami
//
// Some exports also carry "place" and an ISO-8601 "time". Ingestion lives in
// package catalog; by the time records reach this package numeric fields are
// parsed and missing readings are nil.
//
// # Metrics
//
//	mag  primary     moment magnitude
//	cdi  felt        Community Decimal Intensity (0-12), from "Did You Feel It?" reports
//	mmi  structural  Modified Mercalli Intensity (0-12), instrumental shaking estimate
//	sig  composite   USGS significance (0-3000), blends magnitude, felt reports and impact
//
// dmin is the horizontal distance from the epicentre to the nearest station,
// in degrees (1 degree is about 111.2 km).
//
// # Null Handling
//
// A nil reading never fails a range predicate and never widens a scale
// domain. When a nil reading must be drawn it is sized as zero, which the
// clamped scale maps to the minimum radius.
//
// # ID Generation
//
// Event IDs are truncated SHA-256 hashes of the coordinates rounded to four
// decimals plus whichever time fields are present. Array position is never
// part of the key, so identities survive re-filtering and re-ordering. Exact
// duplicates receive an ordinal suffix in catalog order. See [NewCatalog].
package domain
