package indexer

import (
	"fmt"
	"log/slog"

	"github.com/zarianw/jonoondb-sub000/document"
	"github.com/zarianw/jonoondb-sub000/internal/bitmap"
)

// Manager owns the indexers of one collection.
//
// Manager is not synchronized: IndexDocument and CreateIndex must not run
// concurrently with any other call. Concurrent Filter calls are safe.
type Manager struct {
	byColumn map[string][]Indexer
	byName   map[string]Indexer
	all      []Indexer
	logger   *slog.Logger
}

// NewManager creates a manager with no indexes.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{
		byColumn: make(map[string][]Indexer),
		byName:   make(map[string]Indexer),
		logger:   logger,
	}
}

// CreateIndex builds an indexer for info over a column of type ft and
// registers it. It must be called before the first IndexDocument.
func (m *Manager) CreateIndex(info IndexInfo, ft document.FieldType) (Indexer, error) {
	if _, ok := m.byName[info.Name]; ok {
		return nil, fmt.Errorf("%w: index %q already exists", ErrInvalidArgument, info.Name)
	}
	ix, err := New(info, ft)
	if err != nil {
		return nil, err
	}
	m.byColumn[info.Column] = append(m.byColumn[info.Column], ix)
	m.byName[info.Name] = ix
	m.all = append(m.all, ix)
	m.logger.Debug("index created", "index", info.Name, "column", info.Column, "type", info.Type, "field_type", ft)
	return ix, nil
}

// Indexes returns the description of every index in creation order.
func (m *Manager) Indexes() []IndexStat {
	out := make([]IndexStat, len(m.all))
	for i, ix := range m.all {
		out[i] = ix.Stat()
	}
	return out
}

// IndexDocument validates doc against every indexer and only then inserts
// it into each, so a rejected document leaves no indexer ahead of another.
func (m *Manager) IndexDocument(pos uint64, doc document.Document) error {
	for _, ix := range m.all {
		if err := ix.ValidateForInsert(doc); err != nil {
			return err
		}
	}
	for _, ix := range m.all {
		if err := ix.Insert(pos, doc); err != nil {
			return fmt.Errorf("index %q at position %d: %w", ix.Stat().Name, pos, err)
		}
	}
	return nil
}

// ValidateDocument runs only the validation phase of IndexDocument.
func (m *Manager) ValidateDocument(doc document.Document) error {
	for _, ix := range m.all {
		if err := ix.ValidateForInsert(doc); err != nil {
			return err
		}
	}
	return nil
}

// TryGetBestIndex returns the index that Filter would use for a constraint
// on column with op.
func (m *Manager) TryGetBestIndex(column string, op Operator) (IndexStat, bool) {
	ix, ok := m.first(column)
	if !ok || op > OpGreaterThanEqual {
		return IndexStat{}, false
	}
	return ix.Stat(), true
}

// TryGetValueReader returns the first indexer on column if it can read
// values back by position.
func (m *Manager) TryGetValueReader(column string) (ValueReader, bool) {
	ix, ok := m.first(column)
	if !ok {
		return nil, false
	}
	r, ok := ix.(ValueReader)
	return r, ok
}

func (m *Manager) first(column string) (Indexer, bool) {
	list := m.byColumn[column]
	if len(list) == 0 {
		return nil, false
	}
	return list[0], true
}

// term is one unit of evaluation: a single constraint or a lower/upper pair.
type term struct {
	ix    Indexer
	c     Constraint
	upper *Constraint
}

func (t term) eval() (*bitmap.Bitmap, error) {
	if t.upper != nil {
		return t.ix.FilterRange(t.c, *t.upper)
	}
	return t.ix.Filter(t.c)
}

// plan resolves constraints to indexers and pairs the first lower bound on
// a column with the first upper bound on the same column.
func (m *Manager) plan(cs []Constraint) ([]term, error) {
	terms := make([]term, 0, len(cs))
	lowerAt := make(map[string]int)
	upperAt := make(map[string]int)
	for _, c := range cs {
		ix, ok := m.first(c.Column)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrNoIndex, c.Column)
		}
		switch {
		case c.Op.IsLower():
			if i, ok := upperAt[c.Column]; ok {
				upper := terms[i].c
				terms[i] = term{ix: ix, c: c, upper: &upper}
				delete(upperAt, c.Column)
				continue
			}
			if _, ok := lowerAt[c.Column]; !ok {
				lowerAt[c.Column] = len(terms)
			}
		case c.Op.IsUpper():
			if i, ok := lowerAt[c.Column]; ok && terms[i].upper == nil {
				upper := c
				terms[i].upper = &upper
				delete(lowerAt, c.Column)
				continue
			}
			if _, ok := upperAt[c.Column]; !ok {
				upperAt[c.Column] = len(terms)
			}
		}
		terms = append(terms, term{ix: ix, c: c})
	}
	return terms, nil
}

// Filter intersects the matches of every constraint. Evaluation stops as
// soon as the running intersection is empty. An empty constraint list is an
// error: matching every position is the caller's decision.
func (m *Manager) Filter(cs []Constraint) (*bitmap.Bitmap, error) {
	if len(cs) == 0 {
		return nil, fmt.Errorf("%w: no constraints", ErrInvalidArgument)
	}
	terms, err := m.plan(cs)
	if err != nil {
		return nil, err
	}

	return bitmap.AndAll(func(yield func(*bitmap.Bitmap, error) bool) {
		for _, t := range terms {
			if !yield(t.eval()) {
				return
			}
		}
	})
}
