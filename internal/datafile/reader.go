// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"errors"
	"fmt"
	"os"
	"syscall"

	farm "github.com/dgryski/go-farm"
	"golang.org/x/sys/unix"

	"github.com/bpowers/uniprop/internal/varint"
)

var ErrChecksum = errors.New("datafile checksum mismatch")

// Reader is an opened datafile.  For uncompressed files opened with Open,
// Payload aliases the mapping and is valid only until Close.
type Reader struct {
	h       fileHeader
	name    string
	values  []string
	payload []byte
	mapping []byte
}

// Open maps the datafile at path into memory.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("os.Open(%s): %w", path, err)
	}
	defer func() {
		// the mapping outlives the descriptor
		_ = f.Close()
	}()

	fi, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("f.Stat: %w", err)
	}
	size := fi.Size()
	if size < fileHeaderSize {
		return nil, fmt.Errorf("%s: too short to be a datafile (%d bytes)", path, size)
	}
	if size != int64(int(size)) {
		return nil, fmt.Errorf("%s: file too large to map", path)
	}

	data, err := unix.Mmap(int(f.Fd()), 0, int(size), unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("mmap(%s): %w", path, err)
	}
	if err := unix.Madvise(data, syscall.MADV_RANDOM); err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("madvise: %s", err)
	}

	r, err := NewBytesReader(data)
	if err != nil {
		_ = unix.Munmap(data)
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	r.mapping = data
	return r, nil
}

// NewBytesReader reads a datafile already in memory, e.g. one embedded in
// the binary.  The payload may alias data.
func NewBytesReader(data []byte) (*Reader, error) {
	r := &Reader{}
	if err := r.h.UnmarshalBytes(data); err != nil {
		return nil, err
	}
	if !r.h.compression.valid() {
		return nil, fmt.Errorf("unknown compression %d", uint8(r.h.compression))
	}
	if r.h.bits > 32 {
		return nil, fmt.Errorf("bits out of range: %d", r.h.bits)
	}
	if r.h.valuesLen > uint64(len(data)) || r.h.storedLen > uint64(len(data)) {
		return nil, errors.New("section lengths overrun datafile")
	}
	if r.h.entryCount > maxEntryCount || r.h.payloadLen > maxPayloadLen {
		return nil, fmt.Errorf("payload of %d bytes (%d entries) exceeds %d bytes", r.h.payloadLen, r.h.entryCount, maxPayloadLen)
	}
	// every value takes at least its one byte length prefix
	if uint64(r.h.valueCount) > r.h.valuesLen {
		return nil, fmt.Errorf("%d values don't fit in %d bytes", r.h.valueCount, r.h.valuesLen)
	}
	if uint64(len(data)) != r.h.dataLen() {
		return nil, fmt.Errorf("datafile length %d, header says %d", len(data), r.h.dataLen())
	}

	rest := data[fileHeaderSize:]
	r.name = string(rest[:r.h.nameLen])
	rest = rest[r.h.nameLen:]

	values, err := readValues(rest[:r.h.valuesLen], r.h.valueCount)
	if err != nil {
		return nil, err
	}
	r.values = values
	rest = rest[r.h.valuesLen:]

	payload, err := r.h.compression.decode(rest[:r.h.storedLen], r.h.payloadLen)
	if err != nil {
		return nil, err
	}
	if uint64(len(payload)) != r.h.payloadLen {
		return nil, fmt.Errorf("payload length %d, header says %d", len(payload), r.h.payloadLen)
	}
	if farm.Hash64(payload) != r.h.checksum {
		return nil, ErrChecksum
	}
	r.payload = payload

	return r, nil
}

func readValues(buf []byte, count uint32) ([]string, error) {
	values := make([]string, 0, count)
	for i := uint32(0); i < count; i++ {
		n, size, err := varint.Read(buf)
		if err != nil {
			return nil, fmt.Errorf("value %d: %w", i, err)
		}
		buf = buf[size:]
		if n > uint64(len(buf)) {
			return nil, fmt.Errorf("value %d: length %d overruns value list", i, n)
		}
		values = append(values, string(buf[:n]))
		buf = buf[n:]
	}
	if len(buf) != 0 {
		return nil, fmt.Errorf("%d trailing bytes after value list", len(buf))
	}
	return values, nil
}

func (r *Reader) Name() string {
	return r.name
}

func (r *Reader) Values() []string {
	return r.values
}

func (r *Reader) Payload() []byte {
	return r.payload
}

func (r *Reader) Compression() Compression {
	return r.h.compression
}

func (r *Reader) Meta() Meta {
	return Meta{
		Bits:       int(r.h.bits),
		EntryCount: r.h.entryCount,
		CodeSpan:   r.h.codeSpan,
	}
}

// Close releases the mapping, if any.
func (r *Reader) Close() error {
	if r.mapping == nil {
		return nil
	}
	data := r.mapping
	r.mapping = nil
	r.payload = nil
	if err := unix.Munmap(data); err != nil {
		return fmt.Errorf("munmap: %w", err)
	}
	return nil
}
