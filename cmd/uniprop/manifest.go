// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
	"github.com/scott-cotton/cli"
)

// Manifest lists the tables to generate in one run:
//
//	urlTemplate: https://www.unicode.org/Public/15.1.0/ucd/{name}.txt
//	outDir: gen
//	tables:
//	  - table: LineBreak
//	    output: lineBreak.js
//	  - table: EastAsianWidth
//	    output: eaw.data
//	    format: packed
//	    compression: zstd
type Manifest struct {
	URLTemplate string `yaml:"urlTemplate,omitempty"`
	CacheDir    string `yaml:"cacheDir,omitempty"`
	// OutDir is prepended to relative outputs and templates.  Relative
	// OutDirs are relative to the manifest.
	OutDir string `yaml:"outDir,omitempty"`
	Tables []Job  `yaml:"tables"`
}

func parseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.UnmarshalWithOptions(data, &m, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("manifest: %w", err)
	}
	if len(m.Tables) == 0 {
		return nil, errors.New("manifest: no tables")
	}
	for i := range m.Tables {
		if err := m.Tables[i].validate(); err != nil {
			return nil, fmt.Errorf("manifest: tables[%d]: %w", i, err)
		}
	}
	return &m, nil
}

func readManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", path, err)
	}
	m, err := parseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	if !filepath.IsAbs(m.OutDir) {
		m.OutDir = filepath.Join(filepath.Dir(path), m.OutDir)
	}
	return m, nil
}

func (m *Manifest) resolve(path string) string {
	if path == "" || path == "-" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(m.OutDir, path)
}

// run generates every table, stopping at the first failure.
func (m *Manifest) run(cfg *MainConfig, stdout io.Writer) error {
	if cfg.URL == "" {
		cfg.URL = m.URLTemplate
	}
	if cfg.CacheDir == "" {
		cfg.CacheDir = m.CacheDir
	}
	logger := cfg.logger()
	for _, j := range m.Tables {
		j.Output = m.resolve(j.Output)
		j.Template = m.resolve(j.Template)
		logger.Info("generating", "table", j.Table, "output", j.Output)
		if err := runJob(cfg, j, stdout); err != nil {
			return fmt.Errorf("%s: %w", j.Table, err)
		}
	}
	return nil
}

type ManifestConfig struct {
	root *MainConfig

	Manifest *cli.Command
}

func ManifestCommand(root *MainConfig) *cli.Command {
	cfg := &ManifestConfig{root: root}
	return cli.NewCommandAt(&cfg.Manifest, "manifest").
		WithAliases("m").
		WithSynopsis("manifest file.yaml...").
		WithDescription("Generate every table listed in YAML manifests.").
		WithRun(func(cc *cli.Context, args []string) error {
			return manifest(cfg, cc, args)
		})
}

func manifest(cfg *ManifestConfig, cc *cli.Context, args []string) error {
	args, err := cfg.Manifest.Parse(cc, args)
	if err != nil {
		return err
	}
	if len(args) == 0 {
		return fmt.Errorf("%w: manifest requires at least one file", cli.ErrUsage)
	}
	for _, path := range args {
		m, err := readManifest(path)
		if err != nil {
			return err
		}
		if err := m.run(cfg.root, cc.Out); err != nil {
			return err
		}
	}
	return nil
}
