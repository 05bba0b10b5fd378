// Package domain models U.S. National Park Service (NPS) visitation data
// and the tour plans derived from it.
//
// # Data Source
//
// Visitation figures come from the NPS annual visitation reports
// (1904–2016), distributed as a single CSV with one row per park and year.
// Relevant columns:
//
//	Region    — NPS region code, e.g. "IM" (Intermountain), "PW" (Pacific West).
//	State     — two-letter USPS state code.
//	Unit.Name — full park unit name, e.g. "Yellowstone National Park".
//	YearRaw   — four-digit calendar year, or the sentinel string "Total".
//	Visitors  — recreation visitor count for that park-year.
//
// "Total" rows are synthetic per-park roll-ups injected by the upstream
// report generator. They duplicate the sum of the per-year rows and are
// separated out during ingestion so aggregates are never double-counted.
//
// # Coordinate Lookup
//
// Park coordinates live in a separate delimited file keyed by park name
// (columns: Park Name, Latitude, Longitude). The join key is an exact,
// case-sensitive string match on the park name; rows without a coordinate
// match are dropped from the geographic stages, with every miss counted
// and logged.
//
// # Geometry Conventions
//
// Coordinates are WGS-84 latitude/longitude. Distances between parks are
// great-circle (haversine) kilometers. Routing providers follow the OSRM
// convention of lon,lat ordering on the wire; the [Geo] type always stores
// Lat first to keep the two conventions from leaking into each other.
//
// # Plan IDs
//
// Tour plan IDs are deterministic SHA-256 hashes over the sorted park
// names and the cluster count. Re-running the pipeline on the same inputs
// produces the same ID, which lets downstream consumers deduplicate
// republished plans. See [PlanID].
package domain
