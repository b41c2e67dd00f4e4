// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/scott-cotton/cli"
)

type CompressConfig struct {
	root *MainConfig

	Out      string `cli:"name=o desc='output file (default stdout)'"`
	Template string `cli:"name=t aliases=template desc='template file (default: built-in JavaScript decoder)'"`
	Name     string `cli:"name=name desc='value of $NAME (default: table name starting lower-case)'"`
	Default  string `cli:"name=d aliases=default desc='value for code points with no value'"`

	Compress *cli.Command
}

func CompressCommand(root *MainConfig) *cli.Command {
	cfg := &CompressConfig{root: root}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}
	return cli.NewCommandAt(&cfg.Compress, "compress").
		WithAliases("c").
		WithSynopsis("compress [-o file] [-t template] [-name name] [-d default] table").
		WithDescription("Compress a table and substitute it into a template.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return compress(cfg, cc, args)
		})
}

func compress(cfg *CompressConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Compress.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) != 1 {
		return fmt.Errorf("%w: compress requires one table name", cli.ErrUsage)
	}
	return runJob(cfg.root, Job{
		Table:    args[0],
		Output:   cfg.Out,
		Format:   formatTemplate,
		Name:     cfg.Name,
		Template: cfg.Template,
		Default:  cfg.Default,
	}, cc.Out)
}
