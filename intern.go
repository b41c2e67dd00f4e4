// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"math/bits"
)

// Interner assigns dense ids to values in first-seen order.  Once finalized
// it rejects new values.
type Interner[V comparable] struct {
	ids       map[V]uint32
	values    []V
	finalized bool
}

func NewInterner[V comparable]() *Interner[V] {
	return &Interner[V]{ids: make(map[V]uint32)}
}

// Intern returns the id for v, assigning the next id if v is new.
func (in *Interner[V]) Intern(v V) (uint32, error) {
	if id, ok := in.ids[v]; ok {
		return id, nil
	}
	if in.finalized {
		return 0, ErrAlreadyInterned
	}
	id := uint32(len(in.values))
	in.ids[v] = id
	in.values = append(in.values, v)
	return id, nil
}

// Lookup returns the id previously assigned to v.
func (in *Interner[V]) Lookup(v V) (uint32, bool) {
	id, ok := in.ids[v]
	return id, ok
}

func (in *Interner[V]) Len() int {
	return len(in.values)
}

// Finalize stops id assignment and returns the inverse list: the value for
// id i is at index i.
func (in *Interner[V]) Finalize() []V {
	in.finalized = true
	return in.values
}

// Interned is a table whose values were replaced by ids.
type Interned[V comparable] struct {
	// IDs holds the entries with each value replaced by its id.
	IDs *Table[uint32]
	// Values maps an id back to the original value.
	Values []V
}

// Value returns the original value for code.  Code points that were not
// covered when the table was interned have no value.
func (in *Interned[V]) Value(code rune) (V, bool) {
	id, ok := in.IDs.Value(code)
	if !ok || int(id) >= len(in.Values) {
		var zero V
		return zero, false
	}
	return in.Values[id], true
}

// Bits returns the number of bits needed to store any id.
func (in *Interned[V]) Bits() int {
	return BitsFor(len(in.Values))
}

// BitsFor returns ceil(log2(valueCount)), the width needed to store ids in
// [0, valueCount).  It is 0 when there is at most one value.
func BitsFor(valueCount int) int {
	if valueCount <= 1 {
		return 0
	}
	return bits.Len(uint(valueCount - 1))
}
