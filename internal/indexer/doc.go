// Package indexer implements per-column indexes over document positions.
//
// Two variants exist for every scalar field family (signed, unsigned,
// floating, string, blob):
//
//   - inverted bitmap: distinct value -> bitmap of positions, keys sorted so
//     equality is a lookup and ranges union a contiguous run of bitmaps.
//   - vector (positional): a dense slice of values indexed by position.
//     Filters are linear scans, values can be read back for projections.
//
// # Comparison
//
// Every constraint is first converted to an exact interval over the column's
// key type, so both variants and FilterRange share one set of rules. Integer
// columns compared with a double round the bound toward the inside of the
// accepted set (x < 2.5 is x < 3, x <= 2.5 is x <= 2); a double equals an
// integer only when it has no fractional part; NaN matches nothing. Floating
// columns compared with an integer that float64 cannot represent exactly
// compare against the nearest float with adjusted inclusiveness.
//
// # Manager
//
// Manager registers indexers per column, inserts documents with a
// validate-all then insert-all protocol and evaluates a conjunction of
// constraints with the first index of each column, pairing a lower and upper
// bound on one column into a single FilterRange.
package indexer
