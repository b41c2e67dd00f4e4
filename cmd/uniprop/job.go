// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/scott-cotton/cli"

	"github.com/bpowers/uniprop"
)

const (
	formatTemplate = "template"
	formatPacked   = "packed"
)

// Job is one table to write.
type Job struct {
	Table string `yaml:"table"`
	// Output is a file path; empty or "-" means standard output.
	Output string `yaml:"output,omitempty"`
	// Format is "template" (the default) or "packed".
	Format string `yaml:"format,omitempty"`
	// Name replaces $NAME in the template.  It defaults to the table name
	// with a lower-case first letter.
	Name string `yaml:"name,omitempty"`
	// Template is a template file; empty means uniprop.DefaultTemplate.
	Template string `yaml:"template,omitempty"`
	// Default is the value for code points the source gives no value.
	Default string `yaml:"default,omitempty"`
	// Compression applies to packed output: "none", "zstd" or "s2".
	Compression string `yaml:"compression,omitempty"`
}

func (j *Job) validate() error {
	if j.Table == "" {
		return fmt.Errorf("%w: missing table name", cli.ErrUsage)
	}
	switch j.Format {
	case "", formatTemplate:
	case formatPacked:
		if j.Output == "" || j.Output == "-" {
			return fmt.Errorf("%w: %s: packed output needs a file", cli.ErrUsage, j.Table)
		}
	default:
		return fmt.Errorf("%w: %s: unknown format %q", cli.ErrUsage, j.Table, j.Format)
	}
	if _, err := uniprop.ParseCompression(j.Compression); err != nil {
		return fmt.Errorf("%w: %s: %w", cli.ErrUsage, j.Table, err)
	}
	return nil
}

func runJob(cfg *MainConfig, j Job, stdout io.Writer) error {
	if err := j.validate(); err != nil {
		return err
	}
	t, err := loadTable(cfg, j.Table, j.Default)
	if err != nil {
		return err
	}

	if j.Format == formatPacked {
		compression, _ := uniprop.ParseCompression(j.Compression)
		return uniprop.WriteTable(j.Output, t,
			uniprop.WithCompression(compression),
			uniprop.WithBuilderLogger(cfg.logger()))
	}

	tmpl := uniprop.DefaultTemplate
	if j.Template != "" {
		body, err := os.ReadFile(j.Template)
		if err != nil {
			return fmt.Errorf("reading template: %w", err)
		}
		tmpl = string(body)
	}
	name := j.Name
	if name == "" {
		name = jsName(j.Table)
	}

	in, err := t.InternValues()
	if err != nil {
		return err
	}
	a, err := uniprop.NewCompressor(in, uniprop.WithCompressorLogger(cfg.logger())).Artifact(name)
	if err != nil {
		return fmt.Errorf("%s: %w", j.Table, err)
	}
	text, err := a.Substitute(tmpl)
	if err != nil {
		return fmt.Errorf("%s: %w", j.Table, err)
	}
	return writeOutput(j.Output, stdout, text)
}

func writeOutput(path string, stdout io.Writer, text string) error {
	if path == "" || path == "-" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0644); err != nil {
		return fmt.Errorf("os.WriteFile: %w", err)
	}
	return nil
}
