// Copyright 2021 The uniprop Authors and Caleb Spare. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package bitset

import (
	"math/bits"
)

// Bitset is an in-memory bitmap that is conceptually similar to []bool, but more memory efficient.
type Bitset struct {
	bits   []uint64
	length int64
}

func getOffsets(off int64) (sliceOff int64, bitOff uint64) {
	sliceOff = off / 64
	bitOff = uint64(off) % 64
	return
}

// New returns a new in-memory bitset where you can set, clear and test for individual bits.
func New(length int64) *Bitset {
	sliceLen := (length + 63) / 64
	return &Bitset{
		bits:   make([]uint64, sliceLen),
		length: length,
	}
}

// Len returns the number of addressable bits.
func (b *Bitset) Len() int64 {
	return b.length
}

// Set sets the bit at position `off` to 1.  Out of range offsets are ignored.
func (b *Bitset) Set(off int64) {
	if off < 0 || off >= b.length {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	b.bits[sliceOff] |= 1 << bitOff
}

// SetRange sets every bit in [lo, hi].
func (b *Bitset) SetRange(lo, hi int64) {
	for off := lo; off <= hi; off++ {
		b.Set(off)
	}
}

// Clear sets the bit at position `off` to 0.
func (b *Bitset) Clear(off int64) {
	if off < 0 || off >= b.length {
		return
	}
	sliceOff, bitOff := getOffsets(off)
	b.bits[sliceOff] &= ^(1 << bitOff)
}

// IsSet returns true if the bit at position `off` is 1.
func (b *Bitset) IsSet(off int64) bool {
	if off < 0 || off >= b.length {
		return false
	}
	sliceOff, bitOff := getOffsets(off)
	return b.bits[sliceOff]&(1<<bitOff) != 0
}

// Count returns the number of set bits.
func (b *Bitset) Count() int {
	n := 0
	for _, u64 := range b.bits {
		n += bits.OnesCount64(u64)
	}
	return n
}

// NextSet returns the offset of the first set bit at or after `off`, or
// false if there is none.
func (b *Bitset) NextSet(off int64) (int64, bool) {
	if off < 0 {
		off = 0
	}
	if off >= b.length {
		return 0, false
	}
	sliceOff, bitOff := getOffsets(off)
	word := b.bits[sliceOff] >> bitOff
	if word != 0 {
		return off + int64(bits.TrailingZeros64(word)), true
	}
	for i := sliceOff + 1; i < int64(len(b.bits)); i++ {
		if b.bits[i] != 0 {
			return i*64 + int64(bits.TrailingZeros64(b.bits[i])), true
		}
	}
	return 0, false
}

// Or sets every bit that is set in other.  Both bitsets must have the same length.
func (b *Bitset) Or(other *Bitset) {
	for i := range b.bits {
		b.bits[i] |= other.bits[i]
	}
}

// And clears every bit that isn't set in other.
func (b *Bitset) And(other *Bitset) {
	for i := range b.bits {
		b.bits[i] &= other.bits[i]
	}
}

// AndNot clears every bit that is set in other.
func (b *Bitset) AndNot(other *Bitset) {
	for i := range b.bits {
		b.bits[i] &^= other.bits[i]
	}
}
