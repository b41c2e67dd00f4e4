// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/scott-cotton/cli"

	"github.com/bpowers/uniprop"
	"github.com/bpowers/uniprop/source"
)

// loadFunc loads a table with its values formatted as strings.
type loadFunc func(ctx context.Context, r source.Reader, logger *slog.Logger) (*uniprop.Table[string], error)

var loaders = map[string]loadFunc{
	"BidiBrackets":        formatted(uniprop.BidiBrackets),
	"Blocks":              formatted(uniprop.Blocks),
	"EastAsianWidth":      formatted(uniprop.EastAsianWidth),
	"Emoji":               formatted(uniprop.Emoji),
	"GeneralCategory":     formatted(uniprop.GeneralCategory),
	"LineBreak":           formatted(uniprop.LineBreak),
	"Name":                formatted(uniprop.Name),
	"ScriptExtensions":    formatted(uniprop.ScriptExtensions),
	"Scripts":             formatted(uniprop.Scripts),
	"VerticalOrientation": formatted(uniprop.VerticalOrientation),
}

func tableNames() []string {
	return slices.Sorted(maps.Keys(loaders))
}

func formatted[V comparable](load func(context.Context, source.Reader, ...uniprop.Option[V]) (*uniprop.Table[V], error)) loadFunc {
	return func(ctx context.Context, r source.Reader, logger *slog.Logger) (*uniprop.Table[string], error) {
		t, err := load(ctx, r, uniprop.WithLogger[V](logger))
		if err != nil {
			return nil, err
		}
		return toStrings(t, ""), nil
	}
}

// toStrings formats the values of t with fmt.Sprint.  Code points with no
// value at all get def, unless def is empty.
func toStrings[V comparable](t *uniprop.Table[V], def string) *uniprop.Table[string] {
	entries := make([]uniprop.Entry[string], 0, t.Len())
	for e := range t.All() {
		entries = append(entries, uniprop.Entry[string]{Min: e.Min, Max: e.Max, Value: fmt.Sprint(e.Value)})
	}
	return uniprop.New(t.Name(), entries, uniprop.WithMissing[string](func(code rune) (string, bool) {
		if v, ok := t.MissingValue(code); ok {
			return fmt.Sprint(v), true
		}
		return def, def != ""
	}))
}

// loadTable loads the named table and normalizes it so that it can be
// compressed.
func loadTable(cfg *MainConfig, name, def string) (*uniprop.Table[string], error) {
	load, ok := loaders[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown table %q (known: %s)", cli.ErrUsage, name, strings.Join(tableNames(), ", "))
	}
	r, err := cfg.sourceReader()
	if err != nil {
		return nil, err
	}
	t, err := load(cfg.context(), r, cfg.logger())
	if err != nil {
		return nil, err
	}
	if def != "" {
		t = toStrings(t, def)
	}
	t.FillMissingValues()
	return t, nil
}

// jsName turns a table name into a JavaScript identifier: "LineBreak"
// becomes "lineBreak".
func jsName(table string) string {
	r, size := utf8.DecodeRuneInString(table)
	if r == utf8.RuneError {
		return table
	}
	return string(unicode.ToLower(r)) + table[size:]
}

type TablesConfig struct {
	root *MainConfig

	Tables *cli.Command
}

func TablesCommand(root *MainConfig) *cli.Command {
	cfg := &TablesConfig{root: root}
	return cli.NewCommandAt(&cfg.Tables, "tables").
		WithSynopsis("tables - list the tables uniprop knows how to load").
		WithRun(func(cc *cli.Context, args []string) error {
			if _, err := cfg.Tables.Parse(cc, args); err != nil {
				return err
			}
			for _, name := range tableNames() {
				fmt.Fprintln(cc.Out, name)
			}
			return nil
		})
}
