// Package sources maps human-readable input source names to the numeric
// codes a projector understands.
//
// Every model carries two independent code spaces:
//   - Set codes, used when commanding a source change
//   - Query codes, reported by the projector when asked for the current source
//
// The Optoma RS232 reference numbers the same physical input differently in
// each direction (HDMI2 is set with 15 but reported as 8), so the two spaces
// are stored separately and never consulted interchangeably.
//
// # Catalog
//
// The table is loaded from a YAML catalog. The default catalog is embedded in
// the binary and parsed once on first use:
//
//	table := sources.Default()
//
//	code, ok := table.SetCode("Generic", "HDMI2")  // "15", true
//	name, ok := table.QueryName("Generic", "8")    // "HDMI2", true
//	names, ok := table.Sources("EH470")            // catalog order
//
// Query spaces are declared once under query_spaces and referenced by name
// from each model, so models sharing a firmware family share the same
// reporting table.
//
// # Thread Safety
//
// A Table is immutable after Load returns and is safe for concurrent reads.
package sources
