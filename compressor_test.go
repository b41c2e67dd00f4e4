// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"bytes"
	"context"
	"encoding/base64"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/uniprop/internal/varint"
)

func TestCompressor_RoundTrip(t *testing.T) {
	table := New("t", []Entry[string]{
		{0, 10, "A"},
		{11, 20, "B"},
	})
	in, err := table.InternValues()
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B"}, in.Values)

	c := NewCompressor(in)
	assert.Equal(t, 1, c.Bits())
	data, err := c.Compress()
	require.NoError(t, err)
	// (count-1)<<1 | id
	assert.Equal(t, []byte{10<<1 | 0, 9<<1 | 1}, data)

	decoded, err := Decode(data, c.Bits(), in.Values)
	require.NoError(t, err)
	assert.Equal(t, table.Entries(), decoded.Entries())
	assertValue(t, decoded, 15, "B")
}

func TestCompressor_LineBreak(t *testing.T) {
	lb, err := LineBreak(context.Background(), testdataReader(t, SourceLineBreak))
	require.NoError(t, err)
	lb.FillMissingValues()
	in, err := lb.InternValues()
	require.NoError(t, err)

	data, err := NewCompressor(in).Compress()
	require.NoError(t, err)

	decoded, err := Decode(data, in.Bits(), in.Values)
	require.NoError(t, err)
	assert.Equal(t, lb.Entries(), decoded.Entries())
}

func TestCompressor_Preconditions(t *testing.T) {
	for name, entries := range map[string][]Entry[string]{
		"not at zero": {{1, 3, "A"}},
		"gap":         {{0, 3, "A"}, {5, 6, "B"}},
		"overlap":     {{0, 3, "A"}, {2, 6, "B"}},
	} {
		t.Run(name, func(t *testing.T) {
			in, err := New("t", entries).InternValues()
			require.NoError(t, err)
			_, err = NewCompressor(in).Compress()
			assert.ErrorIs(t, err, ErrPrecondition)
		})
	}

	// an empty table compresses to nothing
	in, err := New[string]("t", nil).InternValues()
	require.NoError(t, err)
	data, err := NewCompressor(in).Compress()
	require.NoError(t, err)
	assert.Empty(t, data)
}

func TestCompressor_ValueOverflow(t *testing.T) {
	in := &Interned[string]{
		IDs:    New("t", []Entry[uint32]{{0, 3, 0}, {4, 5, 2}}),
		Values: []string{"A", "B"},
	}
	_, err := NewCompressor(in).Compress()
	assert.ErrorIs(t, err, ErrValueOverflow)
	var overflow *ValueOverflowError
	require.ErrorAs(t, err, &overflow)
	assert.Equal(t, uint64(2), overflow.Index)
	assert.Equal(t, 1, overflow.Bits)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode([]byte{0x00}, 33, []string{"A"})
	assert.Error(t, err)

	// id 1 with one value
	_, err = Decode([]byte{0x01}, 1, []string{"A"})
	assert.ErrorIs(t, err, ErrValueOverflow)

	// truncated varint
	_, err = Decode([]byte{0x80}, 0, []string{"A"})
	assert.ErrorIs(t, err, varint.ErrTruncated)

	// one entry covering every code point is fine; one more isn't
	full := varint.Append(nil, MaxCodePoint)
	decoded, err := Decode(full, 0, []string{"A"})
	require.NoError(t, err)
	assert.Equal(t, []Entry[string]{{0, MaxCodePoint, "A"}}, decoded.Entries())
	_, err = Decode(append(full, 0x00), 0, []string{"A"})
	assert.Error(t, err)

	// a run length of 2^64-1 must not wrap to an empty entry
	wrap := varint.Append(nil, ^uint64(0))
	_, err = Decode(wrap, 0, []string{"A"})
	assert.Error(t, err)
	_, err = Decode(append(wrap, 0x00), 0, []string{"A"})
	assert.Error(t, err)
	_, err = Decode(varint.Append(nil, ^uint64(0)), 1, []string{"A", "B"})
	assert.Error(t, err)
}

func TestPackedTable_ValueCorrupt(t *testing.T) {
	packed := &PackedTable{
		values:  []string{"A"},
		payload: varint.Append(nil, 4),
	}
	v, ok := packed.Value(4)
	assert.True(t, ok)
	assert.Equal(t, "A", v)
	_, ok = packed.Value(5)
	assert.False(t, ok)

	wrap := varint.Append(nil, ^uint64(0))
	packed.payload = append(wrap, 0x00)
	_, ok = packed.Value(0)
	assert.False(t, ok)
	_, ok = packed.Value(MaxCodePoint)
	assert.False(t, ok)
}

func TestArtifact(t *testing.T) {
	table := New("lineBreak", []Entry[string]{
		{0, 10, "A"},
		{11, 20, "B"},
		{21, 21, "C"},
	})
	in, err := table.InternValues()
	require.NoError(t, err)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	a, err := NewCompressor(in, WithCompressorLogger(logger)).Artifact("")
	require.NoError(t, err)

	assert.Equal(t, "lineBreak", a.Name)
	assert.Equal(t, 2, a.Bits)
	assert.Equal(t, uint64(3), a.Mask())
	assert.Equal(t, []string{"A", "B", "C"}, a.Values)
	assert.Contains(t, logs.String(), "msg=compressed")
	assert.Contains(t, logs.String(), "msg=entry")

	vars := a.Vars()
	assert.Equal(t, "lineBreak", vars["NAME"])
	assert.Equal(t, base64.StdEncoding.EncodeToString(a.Bytes), vars["BASE64BYTES"])
	assert.Equal(t, "2", vars["VALUE_BITS"])
	assert.Equal(t, "3", vars["VALUE_MASK"])
	assert.Equal(t, `"A","B","C"`, vars["VALUE_LIST"])

	js, err := a.Substitute(DefaultTemplate)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(js, "const lineBreak = "))
	assert.Contains(t, js, `const values = ["A","B","C"];`)
	assert.Contains(t, js, "current_value & 3;")
	assert.NotContains(t, js, "$")

	// an unnamed table needs an explicit name
	unnamed, err := New("", []Entry[string]{{0, 1, "A"}}).InternValues()
	require.NoError(t, err)
	_, err = NewCompressor(unnamed).Artifact("")
	assert.Error(t, err)
}

func TestSubstitute(t *testing.T) {
	vars := map[string]string{"NAME": "lb", "VALUE_BITS": "6"}

	text, err := Substitute("$NAME >> ${VALUE_BITS} costs $$5", vars)
	require.NoError(t, err)
	assert.Equal(t, "lb >> 6 costs $5", text)

	_, err = Substitute("$NAME $UNKNOWN", vars)
	assert.ErrorIs(t, err, ErrTemplateKey)
	assert.Contains(t, err.Error(), "UNKNOWN")
}
