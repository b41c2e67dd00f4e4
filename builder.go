// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/bpowers/uniprop/internal/datafile"
)

// Compression selects the codec for a packed table file.
type Compression = datafile.Compression

const (
	CompressionNone = datafile.CompressionNone
	CompressionZstd = datafile.CompressionZstd
	CompressionS2   = datafile.CompressionS2
)

// ParseCompression parses "none", "zstd" or "s2".
func ParseCompression(s string) (Compression, error) {
	return datafile.ParseCompression(s)
}

var errBuilderFinalized = errors.New("builder already finalized")

// BuilderOption configures the Builder.
type BuilderOption func(*builderOptions)

type builderOptions struct {
	logger      *slog.Logger
	compression Compression
}

// WithBuilderLogger sets an optional logger for the builder to use for progress updates.
// If not provided, no logging output will be produced.
func WithBuilderLogger(logger *slog.Logger) BuilderOption {
	return func(opts *builderOptions) {
		opts.logger = logger
	}
}

// WithCompression compresses the packed entries on disk.  The default is
// CompressionNone, which lets Open serve lookups straight from the mapping.
func WithCompression(c Compression) BuilderOption {
	return func(opts *builderOptions) {
		opts.compression = c
	}
}

// Builder writes a packed table file from ranges supplied in order.
type Builder struct {
	resultPath  string
	dataFile    *os.File
	name        string
	compression Compression
	logger      *slog.Logger

	interner *Interner[string]
	entries  []Entry[uint32]
	next     rune
	done     bool
}

// NewBuilder creates a Builder for a table called name, to be written to
// dataFilePath by Finalize.
func NewBuilder(dataFilePath, name string, opts ...BuilderOption) (*Builder, error) {
	var options builderOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}
	// we want to write to a new file and do an atomic rename when we're done on disk
	dataFilePath, err := filepath.Abs(dataFilePath)
	if err != nil {
		return nil, fmt.Errorf("filepath.Abs: %w", err)
	}
	dir := filepath.Dir(dataFilePath)
	dataFile, err := os.CreateTemp(dir, "uniprop-builder.*.data")
	if err != nil {
		return nil, fmt.Errorf("CreateTemp failed (may need permissions for dir %q containing dataFile): %w", dir, err)
	}
	return &Builder{
		resultPath:  dataFilePath,
		dataFile:    dataFile,
		name:        name,
		compression: options.compression,
		logger:      options.logger,
		interner:    NewInterner[string](),
	}, nil
}

// Put adds the range min..max.  Ranges must be supplied in order, starting
// at U+0000 with no gaps.  Adjacent ranges with the same value are merged.
func (b *Builder) Put(min, max rune, value string) error {
	if b.done {
		return errBuilderFinalized
	}
	if min != b.next {
		return &PreconditionError{Reason: fmt.Sprintf("Put(%s..%s): next range must start at U+%s", UHex(min), UHex(max), UHex(b.next))}
	}
	if max < min || max > MaxCodePoint {
		return &PreconditionError{Reason: fmt.Sprintf("Put(%s..%s): invalid range", UHex(min), UHex(max))}
	}
	id, err := b.interner.Intern(value)
	if err != nil {
		return err
	}
	if n := len(b.entries); n > 0 && b.entries[n-1].Value == id {
		b.entries[n-1].Max = max
	} else {
		b.entries = append(b.entries, Entry[uint32]{Min: min, Max: max, Value: id})
	}
	b.next = max + 1
	return nil
}

// Finalize packs the ranges, writes the file and moves it into place
// read-only.  On error the partial file is removed.
func (b *Builder) Finalize() error {
	if b.done {
		return errBuilderFinalized
	}
	b.done = true
	if err := b.finalize(); err != nil {
		b.Abort()
		return err
	}
	return nil
}

// Abort discards the partially written file.  It is a no-op after a
// successful Finalize.
func (b *Builder) Abort() {
	b.done = true
	if b.dataFile == nil {
		return
	}
	_ = b.dataFile.Close()
	_ = os.Remove(b.dataFile.Name())
	b.dataFile = nil
}

func (b *Builder) finalize() error {
	in := &Interned[string]{
		IDs:    New(b.name, b.entries),
		Values: b.interner.Finalize(),
	}
	payload, err := NewCompressor(in, WithCompressorLogger(b.logger)).Compress()
	if err != nil {
		return fmt.Errorf("Compress: %w", err)
	}

	w, err := datafile.NewWriter(b.dataFile, b.name, b.compression)
	if err != nil {
		return fmt.Errorf("datafile.NewWriter: %w", err)
	}
	for _, v := range in.Values {
		if err := w.WriteValue(v); err != nil {
			return err
		}
	}
	meta := datafile.Meta{
		Bits:       in.Bits(),
		EntryCount: uint64(len(b.entries)),
		CodeSpan:   uint32(b.next),
	}
	if err := w.WritePayload(payload, meta); err != nil {
		return err
	}
	if err := w.Finish(); err != nil {
		return fmt.Errorf("datafile.Finish: %w", err)
	}

	b.logger.Info("built table",
		"name", b.name,
		"entries", meta.EntryCount,
		"values", len(in.Values),
		"bits", meta.Bits,
		"payload", len(payload),
		"compression", b.compression.String(),
	)

	if err := b.dataFile.Close(); err != nil {
		return fmt.Errorf("f.Close: %w", err)
	}
	// make the file read-only
	if err := os.Chmod(b.dataFile.Name(), 0444); err != nil {
		return fmt.Errorf("os.Chmod(0444): %w", err)
	}
	if err := os.Rename(b.dataFile.Name(), b.resultPath); err != nil {
		return fmt.Errorf("os.Rename: %w", err)
	}
	b.dataFile = nil

	return nil
}

// WriteTable builds a packed table file from t, formatting values with
// fmt.Sprint.  t must be contiguous from U+0000; call FillMissingValues
// first.
func WriteTable[V comparable](path string, t *Table[V], opts ...BuilderOption) error {
	b, err := NewBuilder(path, t.Name(), opts...)
	if err != nil {
		return err
	}
	for e := range t.All() {
		if err := b.Put(e.Min, e.Max, fmt.Sprint(e.Value)); err != nil {
			b.Abort()
			return err
		}
	}
	return b.Finalize()
}
