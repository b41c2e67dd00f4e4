// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"iter"
	"unicode"

	"golang.org/x/text/unicode/rangetable"

	"github.com/bpowers/uniprop/internal/bitset"
)

// Set is a set of code points.
type Set struct {
	bits *bitset.Bitset
}

func NewSet() *Set {
	return &Set{bits: bitset.New(MaxCodePoint + 1)}
}

// SetOf returns the code points of the entries in t whose value satisfies
// pred.  Missing values are not consulted.
func SetOf[V comparable](t *Table[V], pred func(V) bool) *Set {
	s := NewSet()
	AddToSet(t, pred, s)
	return s
}

// AddToSet adds the code points of the entries whose value satisfies pred.
func AddToSet[V comparable](t *Table[V], pred func(V) bool, s *Set) {
	for e := range t.Filter(pred) {
		s.bits.SetRange(int64(e.Min), int64(e.Max))
	}
}

// RemoveFromSet removes the code points of the entries whose value
// satisfies pred.
func RemoveFromSet[V comparable](t *Table[V], pred func(V) bool, s *Set) {
	for e := range t.Filter(pred) {
		for code := e.Min; code <= e.Max; code++ {
			s.bits.Clear(int64(code))
		}
	}
}

func (s *Set) Add(code rune) {
	s.bits.Set(int64(code))
}

func (s *Set) Remove(code rune) {
	s.bits.Clear(int64(code))
}

func (s *Set) Contains(code rune) bool {
	return s.bits.IsSet(int64(code))
}

func (s *Set) Len() int {
	return s.bits.Count()
}

// All yields the code points in ascending order.
func (s *Set) All() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for off, ok := s.bits.NextSet(0); ok; off, ok = s.bits.NextSet(off + 1) {
			if !yield(rune(off)) {
				return
			}
		}
	}
}

// Union adds every code point in other.
func (s *Set) Union(other *Set) {
	s.bits.Or(other.bits)
}

// Intersect removes every code point not in other.
func (s *Set) Intersect(other *Set) {
	s.bits.And(other.bits)
}

// Subtract removes every code point in other.
func (s *Set) Subtract(other *Set) {
	s.bits.AndNot(other.bits)
}

// RangeTable converts the set for use with the unicode package.
func (s *Set) RangeTable() *unicode.RangeTable {
	runes := make([]rune, 0, s.Len())
	for code := range s.All() {
		runes = append(runes, code)
	}
	return rangetable.New(runes...)
}
