// Package codec encodes the manifest body and decodes incoming documents.
//
// The manifest header records the name of the codec that wrote it, so a
// database written with one codec opens with any other.
package codec

import (
	"slices"
	"strings"
)

// Codec encodes and decodes values. Implementations are safe for concurrent
// use.
type Codec interface {
	Name() string
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	// UnmarshalNumbers is Unmarshal with numbers kept as json.Number, so
	// integers wider than a float64 mantissa survive.
	UnmarshalNumbers(data []byte, v any) error
}

// Default writes new manifests and parses documents.
var Default Codec = GoJSON{}

var builtin = map[string]Codec{
	JSON{}.Name():   JSON{},
	GoJSON{}.Name(): GoJSON{},
}

// ByName returns a built-in codec by its stable name, case-insensitively.
func ByName(name string) (Codec, bool) {
	c, ok := builtin[strings.ToLower(strings.TrimSpace(name))]
	return c, ok
}

// Names lists the built-in codec names in sorted order.
func Names() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}
