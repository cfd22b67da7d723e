// Package domain models the messages exchanged by the HSI service.
//
// # Requests
//
// A request names a species profile, a target date and a bounding box in
// degrees. The service computes the habitat suitability index for that box
// on a regular grid at the configured resolution:
//
//	{"species":"great_white","target_date":"2025-06-01",
//	 "bounds":{"south":30,"north":40,"west":-125,"east":-115},
//	 "threshold":0.5}
//
// target_date may be omitted, in which case the UTC day of the Kafka message
// timestamp is used. bounds may be omitted for a global grid. threshold is
// the minimum HSI for a cell to be reported as a hotspot and defaults to
// [DefaultThreshold].
//
// # Reports
//
// A report carries summary statistics of the HSI and of each component,
// the diagnostics of the computation (lag dates used, fallbacks and neutral
// substitutions, eddy census) and the hotspot cells. Full grids are not
// published.
//
// # ID Generation
//
// Report IDs are deterministic SHA-256 hashes of species|date|bounds|step, so
// replaying a request produces the same ID and downstream stores can upsert
// idempotently. See [generateID].
package domain
