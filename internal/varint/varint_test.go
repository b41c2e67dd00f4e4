// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package varint

import (
	"math"
	"math/bits"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_Known(t *testing.T) {
	for _, tc := range []struct {
		v        uint64
		expected []byte
	}{
		{0, []byte{0x00}},
		{1, []byte{0x01}},
		{0x7f, []byte{0x7f}},
		{0x80, []byte{0x81, 0x00}},
		{0x3fff, []byte{0xff, 0x7f}},
		{0x4000, []byte{0x81, 0x80, 0x00}},
		{0x10ffff, []byte{0xc3, 0xff, 0x7f}},
	} {
		actual := Append(nil, tc.v)
		assert.Equal(t, tc.expected, actual, "v=%#x", tc.v)
		assert.Equal(t, len(tc.expected), Len(tc.v))
	}
}

func TestRoundTrip(t *testing.T) {
	values := []uint64{0, 1, 2, 127, 128, 255, 256, 16383, 16384, 0x10ffff << 5, math.MaxUint32, math.MaxUint64 - 1, math.MaxUint64}
	for shift := 0; shift < 64; shift++ {
		values = append(values, uint64(1)<<shift, (uint64(1)<<shift)-1)
	}
	for _, v := range values {
		buf := Append(nil, v)
		require.Equal(t, Len(v), len(buf))
		// minimal: 7 payload bits per byte
		n := bits.Len64(v)
		if n == 0 {
			n = 1
		}
		require.Equal(t, (n+6)/7, len(buf))
		// only the last byte has a clear high bit
		for i, b := range buf {
			if i == len(buf)-1 {
				require.Zero(t, b&continuation)
			} else {
				require.NotZero(t, b&continuation)
			}
		}
		actual, consumed, err := Read(buf)
		require.NoError(t, err)
		require.Equal(t, v, actual)
		require.Equal(t, len(buf), consumed)
	}
	require.LessOrEqual(t, Len(math.MaxUint64), MaxLen)
}

func TestRead_Errors(t *testing.T) {
	_, _, err := Read(nil)
	assert.ErrorIs(t, err, ErrTruncated)

	_, _, err = Read([]byte{0x81, 0x80})
	assert.ErrorIs(t, err, ErrTruncated)

	overflow := []byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x7f}
	_, _, err = Read(overflow)
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestDecoder(t *testing.T) {
	var buf []byte
	inputs := []uint64{5, 300, 0, 1 << 40}
	for _, v := range inputs {
		buf = Append(buf, v)
	}

	d := NewDecoder(buf)
	var actual []uint64
	for d.Next() {
		actual = append(actual, d.Value())
	}
	require.NoError(t, d.Err())
	require.Equal(t, inputs, actual)
	require.Equal(t, len(buf), d.Offset())

	d = NewDecoder(append(buf, 0x80))
	count := 0
	for d.Next() {
		count++
	}
	require.Equal(t, len(inputs), count)
	require.ErrorIs(t, d.Err(), ErrTruncated)
}

func BenchmarkAppend(b *testing.B) {
	buf := make([]byte, 0, MaxLen)
	for i := 0; i < b.N; i++ {
		buf = Append(buf[:0], uint64(i)<<9|0x1f)
	}
}
