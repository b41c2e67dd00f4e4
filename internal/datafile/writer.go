// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package datafile

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"sync/atomic"

	farm "github.com/dgryski/go-farm"

	"github.com/bpowers/uniprop/internal/varint"
)

type FileWriter interface {
	io.Writer
	io.WriterAt
}

type writerStage int

const (
	stageValues writerStage = iota
	stagePayload
	stageDone
)

// Writer writes a datafile: first the values with WriteValue, then the
// packed entries with WritePayload, then Finish to fill in the header.
type Writer struct {
	f           FileWriter
	h           *fileHeader
	w           *bufio.Writer
	compression Compression
	stage       writerStage
	finished    atomic.Bool
}

// Meta describes the packed entries passed to WritePayload.
type Meta struct {
	Bits       int
	EntryCount uint64
	// CodeSpan is the number of code points the entries cover.
	CodeSpan uint32
}

func NewWriter(f FileWriter, name string, compression Compression) (*Writer, error) {
	if len(name) > maxNameLen {
		return nil, fmt.Errorf("table name too long (%d > %d)", len(name), maxNameLen)
	}
	if !compression.valid() {
		return nil, fmt.Errorf("unknown compression %d", uint8(compression))
	}

	h := newFileHeader()
	h.nameLen = uint16(len(name))
	h.compression = compression

	w := bufio.NewWriterSize(f, 64*1024)
	// write a placeholder header; Finish overwrites it once the lengths are known
	if _, err := h.WriteTo(w); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if _, err := w.WriteString(name); err != nil {
		return nil, fmt.Errorf("writing name: %w", err)
	}
	if err := w.Flush(); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}

	return &Writer{
		f:           f,
		h:           h,
		w:           w,
		compression: compression,
	}, nil
}

// WriteValue appends the next value to the value list.
func (w *Writer) WriteValue(v string) error {
	if w.stage != stageValues {
		return errors.New("WriteValue after WritePayload")
	}
	if w.h.valueCount == math.MaxUint32 {
		return errors.New("too many values")
	}

	var lenBuf [varint.MaxLen]byte
	prefix := varint.Append(lenBuf[:0], uint64(len(v)))
	if _, err := w.w.Write(prefix); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	if _, err := w.w.WriteString(v); err != nil {
		return fmt.Errorf("writing value: %w", err)
	}
	w.h.valueCount++
	w.h.valuesLen += uint64(len(prefix) + len(v))
	return nil
}

// WritePayload compresses and writes the packed entries.  It may be called
// only once.
func (w *Writer) WritePayload(payload []byte, meta Meta) error {
	if w.stage != stageValues {
		return errors.New("WritePayload called twice")
	}
	if meta.Bits < 0 || meta.Bits > 32 {
		return fmt.Errorf("bits out of range: %d", meta.Bits)
	}
	if meta.EntryCount > maxEntryCount || len(payload) > maxPayloadLen {
		return fmt.Errorf("payload of %d bytes (%d entries) exceeds %d bytes", len(payload), meta.EntryCount, maxPayloadLen)
	}
	w.stage = stagePayload

	stored, err := w.compression.encode(payload)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(stored); err != nil {
		return fmt.Errorf("writing payload: %w", err)
	}

	w.h.bits = uint8(meta.Bits)
	w.h.entryCount = meta.EntryCount
	w.h.codeSpan = meta.CodeSpan
	w.h.payloadLen = uint64(len(payload))
	w.h.storedLen = uint64(len(stored))
	w.h.checksum = farm.Hash64(payload)
	return nil
}

// Finish flushes buffered data and writes the final header.  Calling it
// more than once is fine.
func (w *Writer) Finish() error {
	if w.finished.Load() {
		return nil
	}
	if w.stage != stagePayload {
		return errors.New("Finish before WritePayload")
	}

	if err := w.w.Flush(); err != nil {
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := w.h.Update(w.f); err != nil {
		return err
	}

	w.stage = stageDone
	w.finished.Store(true)
	return nil
}
