// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"fmt"
	"iter"

	"github.com/bpowers/uniprop/internal/ucd"
)

// MaxCodePoint is the largest Unicode code point.
const MaxCodePoint = ucd.MaxCodePoint

// Entry maps every code point in [Min, Max] to Value.
type Entry[V comparable] struct {
	Min   rune
	Max   rune
	Value V
}

// Count returns the number of code points in the entry.
func (e Entry[V]) Count() int {
	return int(e.Max-e.Min) + 1
}

func (e Entry[V]) Contains(code rune) bool {
	return e.Min <= code && code <= e.Max
}

// Codes yields each code point in the entry.
func (e Entry[V]) Codes() iter.Seq[rune] {
	return func(yield func(rune) bool) {
		for code := e.Min; code <= e.Max; code++ {
			if !yield(code) {
				return
			}
		}
	}
}

// RangeString formats the range the way UCD files do: "0041" or "0041..005A".
func (e Entry[V]) RangeString() string {
	if e.Min == e.Max {
		return UHex(e.Min)
	}
	return UHex(e.Min) + ".." + UHex(e.Max)
}

func (e Entry[V]) String() string {
	return fmt.Sprintf("%s;%v", e.RangeString(), e.Value)
}

// UHex formats a code point as at least 4 upper-case hex digits.
func UHex(code rune) string {
	return fmt.Sprintf("%04X", code)
}

// Pair is a single code point and its value.
type Pair[V comparable] struct {
	Code  rune
	Value V
}

// FromPairs run-length encodes pairs into coalesced entries.  Codes must be
// strictly ascending; the input is never reordered.
func FromPairs[V comparable](pairs []Pair[V]) ([]Entry[V], error) {
	var c coalescer[V]
	last := rune(-1)
	for _, p := range pairs {
		if p.Code <= last {
			return nil, fmt.Errorf("U+%s after U+%s: %w", UHex(p.Code), UHex(last), ErrOrdering)
		}
		c.add(p.Code, p.Code, p.Value)
		last = p.Code
	}
	return c.entries, nil
}

// coalescer appends ranges in ascending order, merging a range into the
// previous entry when they touch and carry the same value.
type coalescer[V comparable] struct {
	entries []Entry[V]
}

func (c *coalescer[V]) add(min, max rune, value V) {
	if n := len(c.entries); n > 0 {
		last := &c.entries[n-1]
		if last.Max+1 == min && last.Value == value {
			last.Max = max
			return
		}
	}
	c.entries = append(c.entries, Entry[V]{Min: min, Max: max, Value: value})
}
