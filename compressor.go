// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	_ "embed"
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/bpowers/uniprop/internal/varint"
)

// DefaultTemplate is a JavaScript template that decodes the packed bytes
// and defines a lookup function named $NAME.
//
//go:embed templates/lookup.js
var DefaultTemplate string

// CompressorOption configures a Compressor.
type CompressorOption func(*compressorOptions)

type compressorOptions struct {
	logger *slog.Logger
}

// WithCompressorLogger sets a logger for per-entry debug output and a
// summary of each artifact.
func WithCompressorLogger(logger *slog.Logger) CompressorOption {
	return func(opts *compressorOptions) {
		opts.logger = logger
	}
}

// Compressor packs an interned table into a byte stream.
//
// Each entry becomes one varint (see package internal/varint) holding
// (count-1) << Bits | id.  The stream has no header: a decoder needs Bits and
// the value list from elsewhere.
type Compressor[V comparable] struct {
	in     *Interned[V]
	logger *slog.Logger
}

func NewCompressor[V comparable](in *Interned[V], opts ...CompressorOption) *Compressor[V] {
	var options compressorOptions
	options.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	for _, opt := range opts {
		opt(&options)
	}
	return &Compressor[V]{
		in:     in,
		logger: options.logger,
	}
}

// Bits returns the width of the id field.
func (c *Compressor[V]) Bits() int {
	return c.in.Bits()
}

// Compress encodes the table.  It must start at code point 0, be
// contiguous, and every id must fit in Bits.
func (c *Compressor[V]) Compress() ([]byte, error) {
	t := c.in.IDs
	if t.Len() > 0 && t.At(0).Min != 0 {
		return nil, &PreconditionError{Reason: fmt.Sprintf("table starts at U+%s, not U+0000", UHex(t.At(0).Min))}
	}
	if !t.IsContiguous() {
		return nil, &PreconditionError{Reason: "table is not contiguous; call FillMissingValues before interning"}
	}

	bits := c.Bits()
	var out []byte
	for _, e := range t.entries {
		id := uint64(e.Value)
		if id >= 1<<bits || id >= uint64(len(c.in.Values)) {
			return nil, &ValueOverflowError{Index: id, Bits: bits}
		}
		combined := uint64(e.Count()-1)<<bits | id
		c.logger.Debug("entry", "min", UHex(e.Min), "value", c.in.Values[id], "id", id, "count", e.Count(), "combined", fmt.Sprintf("%X", combined))
		out = varint.Append(out, combined)
	}
	return out, nil
}

// Decode reverses Compress, mapping each id back through values.
func Decode[V comparable](data []byte, bits int, values []V) (*Table[V], error) {
	if bits < 0 || bits > 32 {
		return nil, fmt.Errorf("bit width %d out of range", bits)
	}
	mask := uint64(1)<<bits - 1

	var entries []Entry[V]
	next := uint64(0)
	d := varint.NewDecoder(data)
	for d.Next() {
		combined := d.Value()
		id := combined & mask
		if id >= uint64(len(values)) {
			return nil, &ValueOverflowError{Index: id, Bits: bits}
		}
		// next never exceeds MaxCodePoint+1, so the subtraction can't wrap
		if combined>>bits >= MaxCodePoint+1-next {
			return nil, fmt.Errorf("entry at offset %d runs past U+10FFFF", d.Offset())
		}
		count := combined>>bits + 1
		entries = append(entries, Entry[V]{
			Min:   rune(next),
			Max:   rune(next + count - 1),
			Value: values[id],
		})
		next += count
	}
	if err := d.Err(); err != nil {
		return nil, fmt.Errorf("decode at offset %d: %w", d.Offset(), err)
	}
	return &Table[V]{
		entries:    entries,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		normalized: true,
	}, nil
}

// Artifact holds the template variables for one compressed table.
type Artifact struct {
	Name   string
	Bytes  []byte
	Bits   int
	Values []string
}

// Artifact compresses the table and collects what a template needs to
// embed it.  Values are formatted with fmt.Sprint.
func (c *Compressor[V]) Artifact(name string) (*Artifact, error) {
	if name == "" {
		name = c.in.IDs.Name()
	}
	if name == "" {
		return nil, fmt.Errorf("artifact needs a name")
	}
	data, err := c.Compress()
	if err != nil {
		return nil, err
	}
	values := make([]string, len(c.in.Values))
	for i, v := range c.in.Values {
		values[i] = fmt.Sprint(v)
	}
	a := &Artifact{
		Name:   name,
		Bytes:  data,
		Bits:   c.Bits(),
		Values: values,
	}
	c.logger.Info("compressed", "name", name, "bytes", len(data), "base64", base64.StdEncoding.EncodedLen(len(data)), "values", len(values), "bits", a.Bits)
	return a, nil
}

// Mask is the bitmask selecting the id from a combined value.
func (a *Artifact) Mask() uint64 {
	return uint64(1)<<a.Bits - 1
}

// Vars returns the template placeholders and their replacements.
func (a *Artifact) Vars() map[string]string {
	quoted := make([]string, len(a.Values))
	for i, v := range a.Values {
		quoted[i] = strconv.Quote(v)
	}
	return map[string]string{
		"NAME":        a.Name,
		"BASE64BYTES": base64.StdEncoding.EncodeToString(a.Bytes),
		"VALUE_BITS":  strconv.Itoa(a.Bits),
		"VALUE_MASK":  strconv.FormatUint(a.Mask(), 10),
		"VALUE_LIST":  strings.Join(quoted, ","),
	}
}

// Substitute fills in template with the artifact's variables.
func (a *Artifact) Substitute(template string) (string, error) {
	return Substitute(template, a.Vars())
}

// Substitute replaces $NAME and ${NAME} placeholders in template with
// values from vars.  "$$" produces a literal "$".  A placeholder with no
// value is an error.
func Substitute(template string, vars map[string]string) (string, error) {
	var missing []string
	text := os.Expand(template, func(name string) string {
		if name == "$" {
			return "$"
		}
		v, ok := vars[name]
		if !ok {
			missing = append(missing, name)
		}
		return v
	})
	if len(missing) > 0 {
		return "", fmt.Errorf("%w: %s", ErrTemplateKey, strings.Join(missing, ", "))
	}
	return text, nil
}
