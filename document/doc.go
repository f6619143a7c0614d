// Package document provides typed, read-only access to the fields of a
// record.
//
// A collection declares a Schema mapping dot-separated field paths to
// FieldTypes. Incoming JSON is decoded with FromJSON, which rejects unknown
// fields, range-checks numbers against their declared width and fills
// absent fields with zero values, so every Map handed to an indexer is
// complete.
//
//	schema, _ := document.NewSchema(map[string]document.FieldType{
//		"name":         document.String,
//		"age":          document.Int32,
//		"address.city": document.String,
//	})
//	doc, _ := document.FromJSON(schema, []byte(`{"name":"ada","age":36}`))
//	age, _ := doc.GetInt64("age")
package document
