// Package testutil provides testing utilities for jonoondb.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded random source, generators for documents with
// numeric and string columns, and a brute-force evaluator used as ground
// truth for index queries.
//
// # Random Documents
//
//	rng := testutil.NewRNG(seed)
//	rows := rng.Rows(1000, 50)   // values in [0, 50)
//	data := rows[0].JSON()
//
// # Ground Truth
//
//	want := testutil.Matching(rows, func(r testutil.Row) bool { return r.Int < 10 })
package testutil
