// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package varint implements the big-endian base-128 integer encoding used
// by packed property tables.
//
// Values are split into 7-bit groups, most significant group first.  Every
// group except the last has its high bit set; the last group's high bit is
// clear, so a decoder finds the end of a value from the continuation bit
// alone.  This differs from encoding/binary's uvarint, which is
// little-endian (least significant group first).
package varint

import (
	"errors"
	"math/bits"
)

const (
	continuation = 0x80
	groupMask    = 0x7f

	// MaxLen is the longest encoding of a uint64.
	MaxLen = 10
)

var (
	ErrTruncated = errors.New("varint: input ends inside a continued value")
	ErrOverflow  = errors.New("varint: value overflows 64 bits")
)

// Len returns the number of bytes Append uses to encode v.
func Len(v uint64) int {
	n := bits.Len64(v)
	if n == 0 {
		return 1
	}
	return (n + 6) / 7
}

// Append appends the encoding of v to dst and returns the extended slice.
func Append(dst []byte, v uint64) []byte {
	n := Len(v)
	for i := n - 1; i > 0; i-- {
		dst = append(dst, byte(v>>(7*uint(i)))&groupMask|continuation)
	}
	return append(dst, byte(v)&groupMask)
}

// Read decodes one value from the start of src, returning it along with the
// number of bytes consumed.
func Read(src []byte) (v uint64, n int, err error) {
	for i, b := range src {
		// 9 full groups fill 63 bits; a tenth may only contribute the top bit
		if v>>57 != 0 {
			return 0, 0, ErrOverflow
		}
		v = v<<7 | uint64(b&groupMask)
		if b&continuation == 0 {
			return v, i + 1, nil
		}
	}
	return 0, 0, ErrTruncated
}

// Decoder reads consecutive values out of a byte slice.
type Decoder struct {
	buf []byte
	off int
	v   uint64
	err error
}

// NewDecoder returns a Decoder positioned at the start of buf.
func NewDecoder(buf []byte) *Decoder {
	return &Decoder{buf: buf}
}

// Next decodes the next value, returning false at the end of input or on error.
func (d *Decoder) Next() bool {
	if d.err != nil || d.off >= len(d.buf) {
		return false
	}
	v, n, err := Read(d.buf[d.off:])
	if err != nil {
		d.err = err
		return false
	}
	d.v = v
	d.off += n
	return true
}

// Value returns the most recent value decoded by Next.
func (d *Decoder) Value() uint64 {
	return d.v
}

// Offset returns the number of bytes consumed so far.
func (d *Decoder) Offset() int {
	return d.off
}

// Err returns the first error encountered by Next, if any.
func (d *Decoder) Err() error {
	return d.err
}
