// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
)

type BuildConfig struct {
	root *MainConfig

	Out         string `cli:"name=o desc='output file'"`
	Compression string `cli:"name=z aliases=compression desc='payload compression: none, zstd or s2'"`
	Default     string `cli:"name=d aliases=default desc='value for code points with no value'"`

	Build *cli.Command
}

func BuildCommand(root *MainConfig) *cli.Command {
	cfg := &BuildConfig{root: root}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Build, "build").
		WithAliases("b").
		WithSynopsis("build -o file [-z compression] [-d default] table").
		WithDescription("Write a table as a packed file for uniprop.Open.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return build(cfg, cc, args)
		})
}

func build(cfg *BuildConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Build.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: build requires one table name", cli.ErrUsage)
	}
	if err := runJob(cfg.root, Job{
		Table:       args[0],
		Output:      cfg.Out,
		Format:      formatPacked,
		Default:     cfg.Default,
		Compression: cfg.Compression,
	}, cc.Out); err != nil {
		return err
	}
	fmt.Fprintf(cc.Out, "wrote %s\n", cfg.Out)
	return nil
}
