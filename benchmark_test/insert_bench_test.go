package benchmark_test

import (
	"context"
	"fmt"
	"testing"

	jonoondb "github.com/zarianw/jonoondb-sub000"
	"github.com/zarianw/jonoondb-sub000/blobstore"
	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/testutil"
)

func rowsSchema(b *testing.B) *document.Schema {
	b.Helper()
	s, err := document.NewSchema(map[string]document.FieldType{
		"i": document.Int64,
		"d": document.Double,
		"s": document.String,
	})
	if err != nil {
		b.Fatal(err)
	}
	return s
}

func openRows(b *testing.B, typ jonoondb.IndexType, optFns ...jonoondb.Option) *jonoondb.Collection {
	b.Helper()
	ctx := context.Background()
	optFns = append([]jonoondb.Option{jonoondb.WithCreateIfMissing(true)}, optFns...)
	db, err := jonoondb.Open(ctx, b.TempDir(), "bench", optFns...)
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { db.Close() })

	c, err := db.CreateCollection(ctx, "rows", rowsSchema(b),
		jonoondb.IndexInfo{Name: "ix_i", Column: "i", Type: typ},
		jonoondb.IndexInfo{Name: "ix_d", Column: "d", Type: typ},
	)
	if err != nil {
		b.Fatal(err)
	}
	return c
}

// BenchmarkInsert measures single and batched inserts per compression codec.
// Run with: go test -bench=BenchmarkInsert ./benchmark_test/... -benchmem
func BenchmarkInsert(b *testing.B) {
	ctx := context.Background()
	rows := testutil.NewRNG(42).Rows(1000, 100)
	docs := make([][]byte, len(rows))
	for i, r := range rows {
		docs[i] = r.JSON()
	}

	for _, comp := range []blobstore.Compression{blobstore.CompressionNone, blobstore.CompressionLZ4, blobstore.CompressionZSTD, blobstore.CompressionSnappy} {
		b.Run(fmt.Sprintf("Single/%v", comp), func(b *testing.B) {
			c := openRows(b, jonoondb.IndexTypeInvertedBitmap, jonoondb.WithCompression(comp), jonoondb.WithSynchronous(false))
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				if _, err := c.Insert(ctx, docs[i%len(docs)]); err != nil {
					b.Fatal(err)
				}
			}
		})
	}

	b.Run("Batch", func(b *testing.B) {
		c := openRows(b, jonoondb.IndexTypeInvertedBitmap, jonoondb.WithSynchronous(false))
		batchSize := 100
		b.ResetTimer()
		for i := 0; i < b.N; i += batchSize {
			count := batchSize
			if i+count > b.N {
				count = b.N - i
			}
			if _, err := c.MultiInsert(ctx, docs[:count]); err != nil {
				b.Fatal(err)
			}
		}
	})
}

// BenchmarkFind compares the two index types on point and range queries.
func BenchmarkFind(b *testing.B) {
	ctx := context.Background()
	rows := testutil.NewRNG(42).Rows(20000, 1000)
	docs := make([][]byte, len(rows))
	for i, r := range rows {
		docs[i] = r.JSON()
	}

	queries := map[string][]jonoondb.Constraint{
		"Eq":    {jonoondb.Eq("i", jonoondb.Int(500))},
		"Range": {jonoondb.Gte("i", jonoondb.Int(100)), jonoondb.Lt("i", jonoondb.Int(200))},
		"And":   {jonoondb.Lt("i", jonoondb.Int(500)), jonoondb.Gt("d", jonoondb.Double(250))},
	}

	for _, typ := range []jonoondb.IndexType{jonoondb.IndexTypeInvertedBitmap, jonoondb.IndexTypeVector} {
		c := openRows(b, typ, jonoondb.WithSynchronous(false))
		if _, err := c.MultiInsert(ctx, docs); err != nil {
			b.Fatal(err)
		}
		for name, cs := range queries {
			b.Run(fmt.Sprintf("%v/%s", typ, name), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					if _, err := c.Count(ctx, cs...); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

// BenchmarkGet measures reads through the mapped data files.
func BenchmarkGet(b *testing.B) {
	ctx := context.Background()
	rows := testutil.NewRNG(42).Rows(10000, 1000)
	docs := make([][]byte, len(rows))
	for i, r := range rows {
		docs[i] = r.JSON()
	}
	c := openRows(b, jonoondb.IndexTypeVector, jonoondb.WithMaxDataFileSize(64<<10))
	if _, err := c.MultiInsert(ctx, docs); err != nil {
		b.Fatal(err)
	}

	b.Run("Get", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := c.Get(ctx, uint64(i%len(docs))); err != nil {
				b.Fatal(err)
			}
		}
	})

	positions := make([]uint64, 256)
	for i := range positions {
		positions[i] = uint64(i * 37 % len(docs))
	}
	b.Run("GetMany", func(b *testing.B) {
		for i := 0; i < b.N; i++ {
			if _, err := c.GetMany(ctx, positions); err != nil {
				b.Fatal(err)
			}
		}
	})
}
