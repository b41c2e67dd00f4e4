// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package uniprop

import (
	"fmt"
	"slices"
	"strings"

	"github.com/bpowers/uniprop/internal/ucd"
)

// Converter turns the value fields of a data line (every field after the
// code point column) into a value.
type Converter[V comparable] func(fields []string) (V, error)

// StringValue is the Converter for single-valued properties.  Multiple
// fields are joined with ";".
func StringValue(fields []string) (string, error) {
	if len(fields) == 1 {
		return fields[0], nil
	}
	return strings.Join(fields, ";"), nil
}

// Load parses UCD-formatted lines into a table.  Unless WithMissing is
// given, missing values come from directives found in comments, parsed with
// the grammar set by WithGrammar (`@missing:` lines by default).
//
// A malformed line aborts the whole load.
func Load[V comparable](name string, lines []string, convert Converter[V], opts ...Option[V]) (*Table[V], error) {
	options := newTableOptions(opts)
	grammar := options.grammar
	if grammar == nil {
		grammar = MissingGrammar[V]{Convert: convert}
	}

	directives := newDirectives[V](options.logger)
	p := ucd.NewParser(lines, ucd.WithCommentFunc(func(comment string, col int) error {
		return grammar.ParseComment(directives, comment, col)
	}))

	var entries []Entry[V]
	for p.Next() {
		rec := p.Record()
		value, err := convert(rec.Fields)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, &ucd.MalformedLineError{
				Line:   rec.Line,
				Text:   strings.Join(rec.Fields, ";"),
				Reason: err.Error(),
			})
		}
		entries = append(entries, Entry[V]{Min: rec.Min, Max: rec.Max, Value: value})
	}
	if err := p.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}

	if options.strict {
		if err := checkOverlap(entries); err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
	}

	if options.missing == nil {
		options.missing = directives.Lookup
	}
	options.logger.Debug("loaded table", "table", name, "entries", len(entries), "directives", directives.Len())
	return newTable(name, entries, options), nil
}

func checkOverlap[V comparable](entries []Entry[V]) error {
	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, compareMin[V])
	for i := 1; i < len(sorted); i++ {
		if a, b := sorted[i-1], sorted[i]; a.Max >= b.Min {
			return &OverlapError{First: a.String(), Second: b.String()}
		}
	}
	return nil
}
