// Package jonoondb provides an embedded document store for Go.
//
// A database is a folder with a manifest and the files of its collections.
// A collection stores JSON documents conforming to a typed schema, appends
// them to memory-mapped data files and indexes selected columns so that
// queries of the form `column OP value` resolve to compressed bitmaps of
// document positions.
//
// # Quick Start
//
//	ctx := context.Background()
//	db, _ := jonoondb.Open(ctx, "./data", "shop", jonoondb.WithCreateIfMissing(true))
//	defer db.Close()
//
//	schema, _ := document.NewSchema(map[string]document.FieldType{
//	    "name":  document.String,
//	    "price": document.Double,
//	    "stock": document.Int32,
//	})
//	items, _ := db.CreateCollection(ctx, "items", schema,
//	    jonoondb.IndexInfo{Name: "ix_price", Column: "price", Type: jonoondb.IndexTypeInvertedBitmap},
//	    jonoondb.IndexInfo{Name: "ix_stock", Column: "stock", Type: jonoondb.IndexTypeVector},
//	)
//
//	pos, _ := items.Insert(ctx, []byte(`{"name":"pen","price":1.5,"stock":10}`))
//
//	rs, _ := items.Find(ctx, jonoondb.Lt("price", jonoondb.Int(2)), jonoondb.Gt("stock", jonoondb.Int(0)))
//	for m, err := range rs.All(ctx) {
//	    ...
//	}
//
// # Positions
//
// Every document gets a position: its index in insertion order. Positions
// are assigned without gaps, a failed insert does not consume one, and a
// deleted document keeps its position hidden forever. Queries only ever
// return visible positions.
//
// # Queries
//
// Every constrained column must have an index; the first index created on a
// column answers its constraints. Operands of another numeric type than the
// column compare by value (an Int32 column matches `< 2.5` for values up to
// 2). A lower and an upper bound on the same column are evaluated together.
//
// # Durability
//
// Documents are durable once Insert returns when the database is
// synchronous (the default). Each collection persists the locators of its
// documents in an append-only log and rebuilds its in-memory indexes from
// the stored documents on Open. Deletions are persisted before Delete
// returns.
//
// # Storage
//
// Data files are pre-allocated to the configured maximum size; when a
// document does not fit, the collection rotates to a new file. Documents can
// be compressed with LZ4, Zstandard or Snappy. Read mappings of old data
// files are cached and unmapped least recently used first, either by
// UnmapLRUDataFiles or a background loop (WithUnmapInterval).
package jonoondb
