// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package main

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/scott-cotton/cli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bpowers/uniprop"
	"github.com/bpowers/uniprop/source"
)

var testSources = source.MemReader{
	uniprop.SourceEastAsianWidth: `# @missing: 0000..10FFFF; N
0020..007E;Na
FF01..FF60;F
`,
	uniprop.SourceName: `0041;LATIN CAPITAL LETTER A
0043;LATIN CAPITAL LETTER C
`,
}

func newTestConfig(t *testing.T) (*MainConfig, *bytes.Buffer) {
	t.Helper()
	var logs bytes.Buffer
	return &MainConfig{
		ctx:    context.Background(),
		log:    newLogger(&logs, true),
		reader: testSources,
	}, &logs
}

func TestParseManifest(t *testing.T) {
	m, err := parseManifest([]byte(`
urlTemplate: https://www.unicode.org/Public/15.1.0/ucd/{name}.txt
outDir: gen
tables:
  - table: EastAsianWidth
    output: eaw.js
  - table: Name
    output: name.data
    format: packed
    compression: s2
    default: ""
`))
	require.NoError(t, err)
	assert.Equal(t, "https://www.unicode.org/Public/15.1.0/ucd/{name}.txt", m.URLTemplate)
	assert.Equal(t, "gen", m.OutDir)
	assert.Equal(t, []Job{
		{Table: "EastAsianWidth", Output: "eaw.js"},
		{Table: "Name", Output: "name.data", Format: formatPacked, Compression: "s2"},
	}, m.Tables)

	for name, body := range map[string]string{
		"empty":           "outDir: gen\n",
		"unknown field":   "tables:\n  - table: Name\n    colour: red\n",
		"no table":        "tables:\n  - output: x.js\n",
		"bad format":      "tables:\n  - table: Name\n    format: xml\n",
		"packed stdout":   "tables:\n  - table: Name\n    format: packed\n",
		"bad codec":       "tables:\n  - table: Name\n    output: n.data\n    format: packed\n    compression: lz77\n",
		"not yaml at all": "tables: [",
	} {
		_, err := parseManifest([]byte(body))
		assert.Error(t, err, name)
	}
}

func TestManifest_Run(t *testing.T) {
	dir := t.TempDir()
	manifestPath := filepath.Join(dir, "uniprop.yaml")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "names.tmpl"), []byte("$NAME=$VALUE_LIST\n"), 0644))
	require.NoError(t, os.WriteFile(manifestPath, []byte(`
outDir: gen
tables:
  - table: EastAsianWidth
    output: eaw.js
  - table: EastAsianWidth
    output: eaw.data
    format: packed
    compression: zstd
  - table: Name
    name: names
    output: names.txt
    template: ../names.tmpl
    default: "?"
`), 0644))

	m, err := readManifest(manifestPath)
	require.NoError(t, err)

	cfg, logs := newTestConfig(t)
	var stdout bytes.Buffer
	require.NoError(t, m.run(cfg, &stdout))
	assert.Empty(t, stdout.String())
	assert.Contains(t, logs.String(), "msg=generating table=EastAsianWidth")

	js, err := os.ReadFile(filepath.Join(dir, "gen", "eaw.js"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(js), "const eastAsianWidth = "))

	packed, err := uniprop.Open(filepath.Join(dir, "gen", "eaw.data"))
	require.NoError(t, err)
	defer func() { _ = packed.Close() }()
	assert.Equal(t, uniprop.CompressionZstd, packed.Compression())
	v, ok := packed.Value(0xFF10)
	assert.True(t, ok)
	assert.Equal(t, "F", v)
	v, ok = packed.Value(0x10)
	assert.True(t, ok)
	assert.Equal(t, "N", v)

	names, err := os.ReadFile(filepath.Join(dir, "gen", "names.txt"))
	require.NoError(t, err)
	assert.Equal(t, "names=\"?\",\"LATIN CAPITAL LETTER A\",\"LATIN CAPITAL LETTER C\"\n", string(names))
}

func TestRunJob_Errors(t *testing.T) {
	cfg, _ := newTestConfig(t)

	err := runJob(cfg, Job{Table: "Nope"}, io.Discard)
	assert.ErrorIs(t, err, cli.ErrUsage)

	// Name has gaps and no default
	err = runJob(cfg, Job{Table: "Name"}, io.Discard)
	assert.ErrorIs(t, err, uniprop.ErrPrecondition)

	err = runJob(cfg, Job{Table: "EastAsianWidth", Template: filepath.Join(t.TempDir(), "missing")}, io.Discard)
	assert.Error(t, err)

	// unknown placeholders are reported
	tmpl := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("$NAME $WHAT"), 0644))
	err = runJob(cfg, Job{Table: "EastAsianWidth", Template: tmpl}, io.Discard)
	assert.ErrorIs(t, err, uniprop.ErrTemplateKey)

	var stdout bytes.Buffer
	require.NoError(t, runJob(cfg, Job{Table: "EastAsianWidth", Output: "-"}, &stdout))
	assert.Contains(t, stdout.String(), "const eastAsianWidth = ")
}

func TestParseCodeArg(t *testing.T) {
	for arg, expected := range map[string]rune{
		"U+0041":  0x41,
		"u+1F600": 0x1F600,
		"0041":    0x41,
		"10FFFF":  0x10FFFF,
		"é":       0xE9,
		"😀":       0x1F600,
		"-":       '-',
	} {
		code, err := parseCodeArg(arg)
		require.NoError(t, err, arg)
		assert.Equal(t, expected, code, arg)
	}
	for _, arg := range []string{"U+", "110000", "xyz", "U+zz"} {
		_, err := parseCodeArg(arg)
		assert.Error(t, err, arg)
	}
}

func TestJSName(t *testing.T) {
	assert.Equal(t, "lineBreak", jsName("LineBreak"))
	assert.Equal(t, "x", jsName("X"))
	assert.Equal(t, "", jsName(""))
}
