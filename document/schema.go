package document

import (
	"fmt"
	"maps"
	"slices"
	"strings"
)

// Schema maps dot-separated field paths to field types. Parents of nested
// paths are implicitly Complex.
type Schema struct {
	fields map[string]FieldType
}

// NewSchema validates fields and builds a Schema.
func NewSchema(fields map[string]FieldType) (*Schema, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: schema has no fields", ErrInvalidArgument)
	}
	s := &Schema{fields: make(map[string]FieldType, len(fields))}
	for path, t := range fields {
		if err := validPath(path); err != nil {
			return nil, err
		}
		if t < Int8 || t > Complex {
			return nil, fmt.Errorf("%w: field %q has type %v", ErrInvalidArgument, path, t)
		}
		s.fields[path] = t
	}
	for path := range fields {
		for parent := range parents(path) {
			switch t, ok := s.fields[parent]; {
			case !ok:
				s.fields[parent] = Complex
			case t != Complex:
				return nil, fmt.Errorf("%w: field %q is %v but has children", ErrInvalidArgument, parent, t)
			}
		}
	}
	return s, nil
}

// ParseSchema builds a Schema from type names, the form stored on disk.
func ParseSchema(fields map[string]string) (*Schema, error) {
	typed := make(map[string]FieldType, len(fields))
	for path, name := range fields {
		t, err := ParseFieldType(name)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", path, err)
		}
		typed[path] = t
	}
	return NewSchema(typed)
}

// FieldType returns the type of path.
func (s *Schema) FieldType(path string) (FieldType, bool) {
	t, ok := s.fields[path]
	return t, ok
}

// Paths returns every field path in sorted order.
func (s *Schema) Paths() []string {
	return slices.Sorted(maps.Keys(s.fields))
}

// Names returns the schema as path -> type name.
func (s *Schema) Names() map[string]string {
	out := make(map[string]string, len(s.fields))
	for p, t := range s.fields {
		out[p] = t.String()
	}
	return out
}

func (s *Schema) children(prefix string) []string {
	var out []string
	for p := range s.fields {
		rest, ok := strings.CutPrefix(p, prefix)
		if ok && rest != "" && !strings.Contains(rest, ".") {
			out = append(out, rest)
		}
	}
	slices.Sort(out)
	return out
}

func validPath(path string) error {
	if path == "" {
		return fmt.Errorf("%w: empty field path", ErrInvalidArgument)
	}
	for seg := range strings.SplitSeq(path, ".") {
		if seg == "" {
			return fmt.Errorf("%w: field path %q has an empty segment", ErrInvalidArgument, path)
		}
	}
	return nil
}

// parents yields every proper prefix path of path, shortest first.
func parents(path string) func(func(string) bool) {
	return func(yield func(string) bool) {
		for i := 0; i < len(path); i++ {
			if path[i] == '.' && !yield(path[:i]) {
				return
			}
		}
	}
}
