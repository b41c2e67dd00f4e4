// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/scott-cotton/cli"

	"github.com/bpowers/uniprop"
	"github.com/bpowers/uniprop/internal/ucd"
)

type LookupConfig struct {
	root *MainConfig

	Lookup *cli.Command
}

func LookupCommand(root *MainConfig) *cli.Command {
	cfg := &LookupConfig{root: root}
	return cli.NewCommandAt(&cfg.Lookup, "lookup").
		WithAliases("l").
		WithSynopsis("lookup file code...").
		WithDescription("Print the values of code points (U+0041, 0041 or a single character) in a packed table file.").
		WithRun(func(cc *cli.Context, args []string) error {
			return lookup(cfg, cc, args)
		})
}

func lookup(cfg *LookupConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Lookup.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) < 2 {
		return fmt.Errorf("%w: lookup requires a file and at least one code point", cli.ErrUsage)
	}

	codes := make([]rune, 0, len(args)-1)
	for _, arg := range args[1:] {
		code, err := parseCodeArg(arg)
		if err != nil {
			return fmt.Errorf("%w: %w", cli.ErrUsage, err)
		}
		codes = append(codes, code)
	}

	t, err := uniprop.Open(args[0])
	if err != nil {
		return err
	}
	defer func() {
		_ = t.Close()
	}()
	cfg.root.logger().Debug("opened", "table", t.Name(), "entries", t.Len(), "values", len(t.Values()), "compression", t.Compression().String())

	for _, code := range codes {
		v, ok := t.Value(code)
		if !ok {
			v = "-"
		}
		fmt.Fprintf(cc.Out, "U+%s\t%s\n", uniprop.UHex(code), v)
	}
	return nil
}

// parseCodeArg accepts "U+1F600", "1F600" or a single character.
func parseCodeArg(arg string) (rune, error) {
	hex := arg
	if len(hex) > 2 && (hex[:2] == "U+" || hex[:2] == "u+") {
		hex = hex[2:]
	} else if utf8.RuneCountInString(arg) == 1 && !isHexDigit(arg[0]) {
		r, _ := utf8.DecodeRuneInString(arg)
		return r, nil
	}
	return ucd.ParseCode(hex)
}

func isHexDigit(c byte) bool {
	return strings.IndexByte("0123456789abcdefABCDEF", c) >= 0
}
