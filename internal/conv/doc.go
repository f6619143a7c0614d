// Package conv provides checked integer conversions for values read from
// disk or sized by callers: payload lengths, locator offsets and document
// positions.
//
// Conversions that are safe by construction (loop indices, values already
// bounded by a file size) use plain casts instead.
package conv
