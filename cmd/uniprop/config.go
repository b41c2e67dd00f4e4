// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/scott-cotton/cli"

	"github.com/bpowers/uniprop/source"
)

type MainConfig struct {
	Verbose  bool   `cli:"name=v aliases=verbose desc='log debug output to stderr'"`
	URL      string `cli:"name=url desc='UCD URL template; {name} is replaced with the file name'"`
	CacheDir string `cli:"name=cache desc='directory for downloaded UCD files'"`
	NoCache  bool   `cli:"name=no-cache desc='download every file, ignoring the cache'"`

	Main *cli.Command

	ctx    context.Context
	log    *slog.Logger
	reader source.Reader
}

func MainCommand(ctx context.Context) *cli.Command {
	cfg := &MainConfig{ctx: ctx}
	opts, err := cli.StructOpts(cfg)
	if err != nil {
		panic(err)
	}

	return cli.NewCommandAt(&cfg.Main, "uniprop").
		WithSynopsis("uniprop [opts] command [opts]").
		WithDescription("uniprop compresses Unicode Character Database properties into lookup tables.").
		WithOpts(opts...).
		WithRun(func(cc *cli.Context, args []string) error {
			return mainRun(cfg, cc, args)
		}).
		WithSubs(
			CompressCommand(cfg),
			BuildCommand(cfg),
			LookupCommand(cfg),
			ManifestCommand(cfg),
			TablesCommand(cfg))
}

func mainRun(cfg *MainConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Main.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return cli.ErrNoCommandProvided
	}
	sub := cfg.Main.FindSub(cc, args[0])
	if sub == nil {
		return fmt.Errorf("%w: %q not found", cli.ErrNoSuchCommand, args[0])
	}
	err = sub.Run(cc, args[1:])
	if errors.Is(err, cli.ErrUsage) {
		sub.Usage(cc, err)
		os.Exit(sub.Exit(cc, err))
	}
	return err
}

func (cfg *MainConfig) context() context.Context {
	if cfg.ctx == nil {
		return context.Background()
	}
	return cfg.ctx
}

func (cfg *MainConfig) logger() *slog.Logger {
	if cfg.log == nil {
		cfg.log = newLogger(os.Stderr, cfg.Verbose)
	}
	return cfg.log
}

// sourceReader returns the reader for UCD files: the -url template, cached
// in -cache unless -no-cache is given.
func (cfg *MainConfig) sourceReader() (source.Reader, error) {
	if cfg.reader != nil {
		return cfg.reader, nil
	}
	logger := cfg.logger()
	r := source.NewHTTPReader(cfg.URL, source.WithLogger(logger))
	if cfg.NoCache {
		cfg.reader = r
		return r, nil
	}
	cached, err := source.NewCachedReader(r, cfg.CacheDir, source.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	cfg.reader = cached
	return cached, nil
}
