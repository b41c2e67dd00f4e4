// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/bpowers/uniprop/internal/ucd"
)

const missingPrefix = "@missing:"

// Directives accumulates default-value rules found in a source's comments.
// Rules may overlap; Lookup returns the first one added that matches.
type Directives[V comparable] struct {
	entries []Entry[V]
	logger  *slog.Logger
}

func newDirectives[V comparable](logger *slog.Logger) *Directives[V] {
	return &Directives[V]{logger: logger}
}

// Add appends a rule.
func (d *Directives[V]) Add(e Entry[V]) {
	if d.logger != nil {
		d.logger.Debug("missing value directive", "range", e.RangeString(), "value", e.Value)
	}
	d.entries = append(d.entries, e)
}

func (d *Directives[V]) Len() int {
	return len(d.entries)
}

// Lookup is a MissingFunc.
func (d *Directives[V]) Lookup(code rune) (V, bool) {
	for _, e := range d.entries {
		if e.Contains(code) {
			return e.Value, true
		}
	}
	var zero V
	return zero, false
}

// Grammar turns source comments into missing-value directives.  col is the
// column the comment started at; whole-line comments have col 0.
type Grammar[V comparable] interface {
	ParseComment(d *Directives[V], comment string, col int) error
}

// MissingGrammar recognizes the standard `# @missing: 0000..10FFFF; Value`
// line, converting the value fields with Convert.
type MissingGrammar[V comparable] struct {
	Convert Converter[V]
}

func (g MissingGrammar[V]) ParseComment(d *Directives[V], comment string, col int) error {
	if col != 0 || !strings.HasPrefix(comment, missingPrefix) {
		return nil
	}
	text := strings.TrimSpace(comment[len(missingPrefix):])
	p := ucd.NewParser([]string{text})
	if !p.Next() {
		if err := p.Err(); err != nil {
			return fmt.Errorf("@missing: %w", err)
		}
		return errors.New("@missing: no range")
	}
	rec := p.Record()
	value, err := g.Convert(rec.Fields)
	if err != nil {
		return fmt.Errorf("@missing %s: %w", text, err)
	}
	d.Add(Entry[V]{Min: rec.Min, Max: rec.Max, Value: value})
	return nil
}

// IgnoreComments is a Grammar that never produces directives.
type IgnoreComments[V comparable] struct{}

func (IgnoreComments[V]) ParseComment(*Directives[V], string, int) error {
	return nil
}

var (
	lineBreakDefaultRE = regexp.MustCompile(`\sdefault to "([A-Z]{2})":`)
	lineBreakRangeRE   = regexp.MustCompile(`:\s+U\+([0-9A-F]+)\.\.U\+([0-9A-F]+)$`)
	verticalRangeRE    = regexp.MustCompile(`\sU\+([0-9A-F]+)(\.\.U\+([0-9A-F]+))?$`)
)

// LineBreakGrammar understands the prose in LineBreak.txt's header, where a
// line announcing a default value:
//
//	#  - The unassigned code points that default to "ID" include ranges in the
//	#    following blocks:
//
// is followed by lines listing the ranges it applies to:
//
//	#      CJK Unified Ideographs Extension A:  U+3400..U+4DBF
//
// Anything else falls back to `@missing:` handling.
type LineBreakGrammar struct {
	current string
}

func NewLineBreakGrammar() *LineBreakGrammar {
	return &LineBreakGrammar{}
}

func (g *LineBreakGrammar) ParseComment(d *Directives[string], comment string, col int) error {
	if col == 0 {
		if m := lineBreakDefaultRE.FindStringSubmatch(comment); m != nil {
			g.current = m[1]
			return nil
		}
		if m := lineBreakRangeRE.FindStringSubmatch(comment); m != nil {
			if g.current == "" {
				return fmt.Errorf("range %q before any default value", comment)
			}
			min, max, err := parseURange(m[1], m[2])
			if err != nil {
				return err
			}
			d.Add(Entry[string]{Min: min, Max: max, Value: g.current})
			return nil
		}
	}
	return MissingGrammar[string]{Convert: StringValue}.ParseComment(d, comment, col)
}

// VerticalOrientationGrammar maps the `U+XXXX` and `U+XXXX..U+YYYY` ranges
// listed in VerticalOrientation.txt's header to "U".
type VerticalOrientationGrammar struct{}

func (VerticalOrientationGrammar) ParseComment(d *Directives[string], comment string, col int) error {
	if col == 0 {
		if m := verticalRangeRE.FindStringSubmatch(comment); m != nil {
			hi := m[3]
			if hi == "" {
				hi = m[1]
			}
			min, max, err := parseURange(m[1], hi)
			if err != nil {
				return err
			}
			d.Add(Entry[string]{Min: min, Max: max, Value: "U"})
			return nil
		}
	}
	return MissingGrammar[string]{Convert: StringValue}.ParseComment(d, comment, col)
}

func parseURange(lo, hi string) (min, max rune, err error) {
	return ucd.ParseRange(lo + ".." + hi)
}
