// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"io"
	"iter"
	"log/slog"
	"slices"
	"sort"
)

// MissingFunc computes the value of a code point not covered by any entry.
// It returns false when the code point has no value at all.
type MissingFunc[V comparable] func(code rune) (V, bool)

// Option configures a Table.
type Option[V comparable] func(*tableOptions[V])

type tableOptions[V comparable] struct {
	logger  *slog.Logger
	missing MissingFunc[V]
	grammar Grammar[V]
	strict  bool
}

// WithLogger sets a logger for debug output while loading and normalizing.
func WithLogger[V comparable](logger *slog.Logger) Option[V] {
	return func(opts *tableOptions[V]) {
		opts.logger = logger
	}
}

// WithMissing overrides the missing-value function.  When loading from lines,
// directives found in comments are ignored in favor of fn.
func WithMissing[V comparable](fn MissingFunc[V]) Option[V] {
	return func(opts *tableOptions[V]) {
		opts.missing = fn
	}
}

// WithGrammar sets how Load turns comments into missing-value directives.
// The default recognizes `@missing:` lines.
func WithGrammar[V comparable](g Grammar[V]) Option[V] {
	return func(opts *tableOptions[V]) {
		opts.grammar = g
	}
}

// WithStrict makes Load reject sources with overlapping ranges.
func WithStrict[V comparable]() Option[V] {
	return func(opts *tableOptions[V]) {
		opts.strict = true
	}
}

func newTableOptions[V comparable](opts []Option[V]) tableOptions[V] {
	var options tableOptions[V]
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return options
}

// Table is an ordered collection of code point ranges, each bound to a value.
//
// Entries are kept in the order they were supplied until Sort or
// FillMissingValues normalizes them.  When ranges overlap, the entry with the
// lowest Min wins, with ties going to the entry supplied first.
//
// A Table is not safe for concurrent mutation.
type Table[V comparable] struct {
	name    string
	entries []Entry[V]
	missing MissingFunc[V]
	logger  *slog.Logger

	// normalized is true when entries are sorted and distinct, which
	// allows binary search.
	normalized bool
	interned   bool
}

// New returns a table that owns entries.
func New[V comparable](name string, entries []Entry[V], opts ...Option[V]) *Table[V] {
	options := newTableOptions(opts)
	return newTable(name, entries, options)
}

func newTable[V comparable](name string, entries []Entry[V], options tableOptions[V]) *Table[V] {
	t := &Table[V]{
		name:    name,
		entries: entries,
		missing: options.missing,
		logger:  options.logger,
	}
	t.normalized = t.IsSorted() && t.IsDistinct()
	return t
}

func (t *Table[V]) Name() string {
	return t.name
}

// Len returns the number of entries.
func (t *Table[V]) Len() int {
	return len(t.entries)
}

// At returns the i'th entry.
func (t *Table[V]) At(i int) Entry[V] {
	return t.entries[i]
}

// All yields every entry in table order.
func (t *Table[V]) All() iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		for _, e := range t.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Entries returns a copy of the entries.
func (t *Table[V]) Entries() []Entry[V] {
	return slices.Clone(t.entries)
}

// MissingValue returns the value for a code point no entry covers.
func (t *Table[V]) MissingValue(code rune) (V, bool) {
	if t.missing == nil {
		var zero V
		return zero, false
	}
	return t.missing(code)
}

// Value returns the value of code, falling back to MissingValue.
func (t *Table[V]) Value(code rune) (V, bool) {
	if i, ok := t.find(code); ok {
		return t.entries[i].Value, true
	}
	return t.MissingValue(code)
}

func (t *Table[V]) find(code rune) (int, bool) {
	if t.normalized {
		i := sort.Search(len(t.entries), func(i int) bool {
			return t.entries[i].Max >= code
		})
		if i < len(t.entries) && t.entries[i].Min <= code {
			return i, true
		}
		return 0, false
	}

	// unnormalized: the covering entry with the lowest Min wins, ties going
	// to the one supplied first, matching ToMap and FillMissingValues
	found := -1
	for i, e := range t.entries {
		if e.Contains(code) && (found < 0 || e.Min < t.entries[found].Min) {
			found = i
		}
	}
	return found, found >= 0
}

// Unicodes yields every code point covered by an entry.
func (t *Table[V]) Unicodes() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for _, e := range t.entries {
			for code := range e.Codes() {
				if !yield(code) {
					return
				}
			}
		}
	}
}

// Values yields each code point from 0 through the highest covered code
// point along with its value, including computed missing values.  Code
// points without any value are skipped.
func (t *Table[V]) Values() iter.Seq2[rune, V] {
	return func(yield func(rune, V) bool) {
		for _, e := range t.normalizedEntries() {
			if !yield(e.Min, e.Value) {
				return
			}
			for code := e.Min + 1; code <= e.Max; code++ {
				if !yield(code, e.Value) {
					return
				}
			}
		}
	}
}

// Filter yields the entries whose value satisfies pred.
func (t *Table[V]) Filter(pred func(V) bool) iter.Seq[Entry[V]] {
	return func(yield func(Entry[V]) bool) {
		for _, e := range t.entries {
			if pred(e.Value) && !yield(e) {
				return
			}
		}
	}
}

// ToMap expands every covered code point into a map.  Missing values are
// not included.
func (t *Table[V]) ToMap() map[rune]V {
	m := make(map[rune]V)
	sorted := t.sortedEntries()
	// iterate backwards so the winning entry is written last
	for i := len(sorted) - 1; i >= 0; i-- {
		e := sorted[i]
		for code := range e.Codes() {
			m[code] = e.Value
		}
	}
	return m
}

// Sort orders entries by Min, keeping the relative order of entries that
// share a Min.
func (t *Table[V]) Sort() {
	slices.SortStableFunc(t.entries, compareMin[V])
	t.normalized = t.IsDistinct()
}

// FillMissingValues rewrites the table so that it is sorted, distinct,
// coalesced and, wherever MissingValue defines a value, contiguous from 0 to
// the highest covered code point.
func (t *Table[V]) FillMissingValues() {
	before := len(t.entries)
	t.entries = t.normalizedEntries()
	t.normalized = true
	t.logger.Debug("filled missing values", "table", t.name, "before", before, "after", len(t.entries))
}

// normalizedEntries computes the FillMissingValues result without modifying t.
func (t *Table[V]) normalizedEntries() []Entry[V] {
	var c coalescer[V]
	next := rune(0)
	for _, e := range t.sortedEntries() {
		if e.Max < next {
			continue
		}
		min := max(e.Min, next)
		for code := next; code < min; code++ {
			if v, ok := t.MissingValue(code); ok {
				c.add(code, code, v)
			}
		}
		c.add(min, e.Max, e.Value)
		next = e.Max + 1
	}
	return c.entries
}

// sortedEntries returns the entries in stable Min order, copying only when
// they aren't already sorted.
func (t *Table[V]) sortedEntries() []Entry[V] {
	if t.IsSorted() {
		return t.entries
	}
	sorted := slices.Clone(t.entries)
	slices.SortStableFunc(sorted, compareMin[V])
	return sorted
}

func compareMin[V comparable](a, b Entry[V]) int {
	return int(a.Min) - int(b.Min)
}

// InternValues replaces values with dense integer ids, assigned in the order
// values are first seen.  It may be called only once per table.
//
// The ids live in a separate Table[uint32] that is itself marked interned,
// so interning either table again fails with ErrAlreadyInterned.  Values are
// not rejected for having an integer type: an integer V such as EmojiType
// is an ordinary value to intern.
func (t *Table[V]) InternValues() (*Interned[V], error) {
	if t.interned {
		return nil, ErrAlreadyInterned
	}

	in := NewInterner[V]()
	ids := make([]Entry[uint32], len(t.entries))
	for i, e := range t.entries {
		id, err := in.Intern(e.Value)
		if err != nil {
			return nil, err
		}
		ids[i] = Entry[uint32]{Min: e.Min, Max: e.Max, Value: id}
	}
	t.interned = true

	idTable := &Table[uint32]{
		name:       t.name,
		entries:    ids,
		logger:     t.logger,
		normalized: t.normalized,
		// an id table can never be interned again
		interned: true,
	}
	return &Interned[V]{
		IDs:    idTable,
		Values: in.Finalize(),
	}, nil
}

// IsSorted reports whether entries are in ascending Min order.
func (t *Table[V]) IsSorted() bool {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i-1].Min > t.entries[i].Min {
			return false
		}
	}
	return true
}

// IsDistinct reports whether no two consecutive entries overlap.
func (t *Table[V]) IsDistinct() bool {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i-1].Max >= t.entries[i].Min {
			return false
		}
	}
	return true
}

// IsContiguous reports whether each entry starts right after the previous one.
func (t *Table[V]) IsContiguous() bool {
	for i := 1; i < len(t.entries); i++ {
		if t.entries[i-1].Max+1 != t.entries[i].Min {
			return false
		}
	}
	return true
}
