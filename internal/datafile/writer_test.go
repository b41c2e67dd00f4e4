// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"encoding/binary"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type safeBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (s *safeBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return string(s.buf)
}

func (s *safeBuffer) Bytes() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	return append([]byte(nil), s.buf...)
}

func (s *safeBuffer) Write(p []byte) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buf = append(s.buf, p...)
	return len(p), nil
}

func (s *safeBuffer) WriteAt(p []byte, off int64) (n int, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if int(off)+len(p) > len(s.buf) {
		return 0, errors.New("writeAt out of bounds")
	}

	return copy(s.buf[off:int(off)+len(p)], p), nil
}

var _ FileWriter = &safeBuffer{}

type testWriter struct {
	inner            FileWriter
	writeShouldError bool
}

func (c *testWriter) Write(p []byte) (n int, err error) {
	if c.writeShouldError {
		return 0, errors.New("write failed")
	}
	return c.inner.Write(p)
}

func (c *testWriter) WriteAt(p []byte, off int64) (n int, err error) {
	if c.writeShouldError {
		return 0, errors.New("write failed")
	}
	return c.inner.WriteAt(p, off)
}

var _ FileWriter = &testWriter{}

// payload for a table of 3 entries, ids fit in 2 bits
var testPayload = []byte{0x81, 0x00, 0x05, 0xc3, 0xff, 0x7a}

func writeTestFile(t *testing.T, w FileWriter, compression Compression) {
	t.Helper()

	dw, err := NewWriter(w, "LineBreak", compression)
	require.NoError(t, err)
	for _, v := range []string{"XX", "CM", "BA"} {
		require.NoError(t, dw.WriteValue(v))
	}
	require.NoError(t, dw.WritePayload(testPayload, Meta{Bits: 2, EntryCount: 3, CodeSpan: 0x110000}))
	require.NoError(t, dw.Finish())
}

func TestNewWriter_Errors(t *testing.T) {
	var fileBytes safeBuffer
	writer := &testWriter{
		inner:            &fileBytes,
		writeShouldError: true,
	}

	_, err := NewWriter(writer, "t", CompressionNone)
	assert.Error(t, err)

	_, err = NewWriter(&fileBytes, strings.Repeat("x", maxNameLen+1), CompressionNone)
	assert.Error(t, err)

	_, err = NewWriter(&fileBytes, "t", Compression(42))
	assert.Error(t, err)
}

func TestWriter_Stages(t *testing.T) {
	var fileBytes safeBuffer

	w, err := NewWriter(&fileBytes, "t", CompressionNone)
	require.NoError(t, err)

	// nothing to finish yet
	assert.Error(t, w.Finish())

	require.NoError(t, w.WriteValue("a"))
	assert.Error(t, w.WritePayload(nil, Meta{Bits: 33}))
	require.NoError(t, w.WritePayload([]byte{0x00}, Meta{EntryCount: 1, CodeSpan: 1}))

	assert.Error(t, w.WriteValue("b"))
	assert.Error(t, w.WritePayload([]byte{0x00}, Meta{}))

	require.NoError(t, w.Finish())
	// multiple finishes should be fine
	require.NoError(t, w.Finish())
}

func TestWriter_RoundTrip(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd, CompressionS2} {
		t.Run(compression.String(), func(t *testing.T) {
			var fileBytes safeBuffer
			writeTestFile(t, &fileBytes, compression)

			r, err := NewBytesReader(fileBytes.Bytes())
			require.NoError(t, err)
			defer func() { _ = r.Close() }()

			assert.Equal(t, "LineBreak", r.Name())
			assert.Equal(t, []string{"XX", "CM", "BA"}, r.Values())
			assert.Equal(t, testPayload, r.Payload())
			assert.Equal(t, compression, r.Compression())
			assert.Equal(t, Meta{Bits: 2, EntryCount: 3, CodeSpan: 0x110000}, r.Meta())
		})
	}
}

func TestReader_Corruption(t *testing.T) {
	var fileBytes safeBuffer
	writeTestFile(t, &fileBytes, CompressionNone)
	good := fileBytes.Bytes()

	// flip a payload bit
	data := append([]byte(nil), good...)
	data[len(data)-1] ^= 0x01
	_, err := NewBytesReader(data)
	assert.ErrorIs(t, err, ErrChecksum)

	// truncated
	_, err = NewBytesReader(good[:len(good)-1])
	assert.Error(t, err)

	// trailing garbage
	_, err = NewBytesReader(append(append([]byte(nil), good...), 0))
	assert.Error(t, err)

	// too short for a header
	_, err = NewBytesReader(good[:10])
	assert.Error(t, err)
}

func TestReader_HeaderLengths(t *testing.T) {
	for _, compression := range []Compression{CompressionNone, CompressionZstd, CompressionS2} {
		t.Run(compression.String(), func(t *testing.T) {
			var fileBytes safeBuffer
			writeTestFile(t, &fileBytes, compression)
			good := fileBytes.Bytes()

			patch := func(off int, v uint64) []byte {
				data := append([]byte(nil), good...)
				binary.LittleEndian.PutUint64(data[off:off+8], v)
				return data
			}

			// payloadLen
			for _, n := range []uint64{1 << 62, maxPayloadLen + 1, uint64(len(testPayload)) + 1} {
				r, err := NewBytesReader(patch(40, n))
				assert.Error(t, err, "payloadLen %d", n)
				assert.Nil(t, r)
			}

			// entryCount
			_, err := NewBytesReader(patch(16, maxEntryCount+1))
			assert.Error(t, err)

			// valueCount
			data := append([]byte(nil), good...)
			binary.LittleEndian.PutUint32(data[12:16], 1<<32-1)
			_, err = NewBytesReader(data)
			assert.Error(t, err)
		})
	}
}

func TestWriter_PayloadLimit(t *testing.T) {
	var fileBytes safeBuffer
	w, err := NewWriter(&fileBytes, "t", CompressionNone)
	require.NoError(t, err)
	assert.Error(t, w.WritePayload(nil, Meta{EntryCount: maxEntryCount + 1}))
}

func TestOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "table.data")
	f, err := os.Create(path)
	require.NoError(t, err)
	writeTestFile(t, f, CompressionNone)
	require.NoError(t, f.Close())

	r, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, "LineBreak", r.Name())
	assert.Equal(t, testPayload, r.Payload())
	require.NoError(t, r.Close())
	// closing twice is fine
	require.NoError(t, r.Close())

	_, err = Open(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)

	empty := filepath.Join(t.TempDir(), "empty")
	require.NoError(t, os.WriteFile(empty, nil, 0644))
	_, err = Open(empty)
	assert.Error(t, err)
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionZstd, CompressionS2} {
		parsed, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, parsed)
	}
	_, err := ParseCompression("lz77")
	assert.Error(t, err)
	assert.Equal(t, "Compression(9)", Compression(9).String())
}
