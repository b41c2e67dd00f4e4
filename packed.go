// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"fmt"
	"slices"

	"github.com/bpowers/uniprop/internal/datafile"
	"github.com/bpowers/uniprop/internal/varint"
)

// PackedTable serves lookups from a file written by Builder.
//
// Lookups walk the packed entries from the start, the same way the
// generated JavaScript decoder does, so they cost O(entries).  Use Table
// for bulk access.
type PackedTable struct {
	r       *datafile.Reader
	values  []string
	payload []byte
	bits    int
	mask    uint64
}

// Open maps the packed table file at path.
func Open(path string) (*PackedTable, error) {
	r, err := datafile.Open(path)
	if err != nil {
		return nil, err
	}
	t, err := newPackedTable(r)
	if err != nil {
		_ = r.Close()
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// OpenBytes reads a packed table from memory, for example one embedded with
// go:embed.  data must not be modified while the table is in use.
func OpenBytes(data []byte) (*PackedTable, error) {
	r, err := datafile.NewBytesReader(data)
	if err != nil {
		return nil, err
	}
	return newPackedTable(r)
}

func newPackedTable(r *datafile.Reader) (*PackedTable, error) {
	meta := r.Meta()
	values := r.Values()
	if want := BitsFor(len(values)); meta.Bits != want {
		return nil, fmt.Errorf("%d values need %d bits, file says %d", len(values), want, meta.Bits)
	}
	return &PackedTable{
		r:       r,
		values:  values,
		payload: r.Payload(),
		bits:    meta.Bits,
		mask:    uint64(1)<<meta.Bits - 1,
	}, nil
}

func (t *PackedTable) Name() string {
	return t.r.Name()
}

// Bits returns the width of the id field.
func (t *PackedTable) Bits() int {
	return t.bits
}

// Values returns the distinct values in id order.
func (t *PackedTable) Values() []string {
	return slices.Clone(t.values)
}

// Len returns the number of packed entries.
func (t *PackedTable) Len() int {
	return int(t.r.Meta().EntryCount)
}

// CodeSpan returns the number of code points covered, starting at U+0000.
func (t *PackedTable) CodeSpan() int {
	return int(t.r.Meta().CodeSpan)
}

func (t *PackedTable) Compression() Compression {
	return t.r.Compression()
}

// Value returns the value of code, or false if code is past the end of the
// table.
func (t *PackedTable) Value(code rune) (string, bool) {
	if code < 0 {
		return "", false
	}
	target := uint64(code)
	next := uint64(0)
	buf := t.payload
	for len(buf) > 0 {
		combined, n, err := varint.Read(buf)
		if err != nil {
			return "", false
		}
		buf = buf[n:]
		if combined>>t.bits >= MaxCodePoint+1-next {
			return "", false
		}
		next += combined>>t.bits + 1
		if target < next {
			id := combined & t.mask
			if id >= uint64(len(t.values)) {
				return "", false
			}
			return t.values[id], true
		}
	}
	return "", false
}

// Table decodes every entry into a Table.
func (t *PackedTable) Table() (*Table[string], error) {
	table, err := Decode(t.payload, t.bits, t.values)
	if err != nil {
		return nil, err
	}
	table.name = t.Name()
	return table, nil
}

// Close releases the file mapping.  The table must not be used afterwards.
func (t *PackedTable) Close() error {
	t.payload = nil
	return t.r.Close()
}
