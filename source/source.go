// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

// Package source fetches Unicode Character Database files as lines of text.
//
// There is no process-wide default reader: construct the Reader you need
// and pass it to the table loaders.
package source

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// DefaultURLTemplate is where the latest UCD files are published.  "{name}"
// is replaced with the table name, e.g. "LineBreak" or "emoji/emoji-data".
const DefaultURLTemplate = "https://www.unicode.org/Public/UNIDATA/{name}.txt"

var ErrNotFound = errors.New("table not found")

// Reader returns the raw lines of a named UCD file.  Lines keep their
// trailing newline.
type Reader interface {
	ReadLines(ctx context.Context, name string) ([]string, error)
}

// Option configures the readers in this package.
type Option func(*options)

type options struct {
	logger *slog.Logger
	client *http.Client
}

// WithLogger sets a logger for download and cache activity.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *options) {
		opts.logger = logger
	}
}

// WithHTTPClient replaces http.DefaultClient.
func WithHTTPClient(client *http.Client) Option {
	return func(opts *options) {
		opts.client = client
	}
}

func newOptions(opts []Option) options {
	var o options
	o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	o.client = http.DefaultClient
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// HTTPReader downloads files from a URL template.
type HTTPReader struct {
	urlTemplate string
	client      *http.Client
	logger      *slog.Logger
}

// NewHTTPReader returns a reader for urlTemplate, or DefaultURLTemplate if
// it is empty.
func NewHTTPReader(urlTemplate string, opts ...Option) *HTTPReader {
	o := newOptions(opts)
	if urlTemplate == "" {
		urlTemplate = DefaultURLTemplate
	}
	return &HTTPReader{
		urlTemplate: urlTemplate,
		client:      o.client,
		logger:      o.logger,
	}
}

// URL returns the location of the named file.
func (r *HTTPReader) URL(name string) string {
	return strings.ReplaceAll(r.urlTemplate, "{name}", name)
}

func (r *HTTPReader) ReadLines(ctx context.Context, name string) ([]string, error) {
	url := r.URL(name)
	r.logger.Debug("downloading", "url", url)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http.NewRequest(%s): %w", url, err)
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", url, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("GET %s: %w", url, ErrNotFound)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("GET %s: unexpected status %s", url, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	return SplitLines(body), nil
}

// CachedReader serves files from a directory, filling it from another
// Reader on a miss.  The cache is written once per name and isn't guarded
// against concurrent processes.
type CachedReader struct {
	reader Reader
	dir    string
	logger *slog.Logger
}

// NewCachedReader caches reader's files in dir.  An empty dir means
// DefaultCacheDir.
func NewCachedReader(reader Reader, dir string, opts ...Option) (*CachedReader, error) {
	o := newOptions(opts)
	if dir == "" {
		var err error
		if dir, err = DefaultCacheDir(); err != nil {
			return nil, err
		}
	}
	o.logger.Debug("cache dir", "dir", dir)
	return &CachedReader{
		reader: reader,
		dir:    dir,
		logger: o.logger,
	}, nil
}

// DefaultCacheDir returns the per-user cache directory for UCD files.
func DefaultCacheDir() (string, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("os.UserCacheDir: %w", err)
	}
	return filepath.Join(dir, "UNIDATA"), nil
}

// Dir returns the cache directory.
func (r *CachedReader) Dir() string {
	return r.dir
}

func (r *CachedReader) path(name string) string {
	return filepath.Join(r.dir, filepath.FromSlash(name))
}

func (r *CachedReader) ReadLines(ctx context.Context, name string) ([]string, error) {
	cache := r.path(name)
	if body, err := os.ReadFile(cache); err == nil {
		r.logger.Debug("reading cache", "path", cache)
		return SplitLines(body), nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("os.ReadFile(%s): %w", cache, err)
	}

	lines, err := r.reader.ReadLines(ctx, name)
	if err != nil {
		return nil, err
	}

	if err := writeFile(cache, lines); err != nil {
		return nil, err
	}
	r.logger.Debug("writing cache", "path", cache)

	return lines, nil
}

// writeFile writes lines to a temp file next to path and renames it into
// place, so a failure never leaves a partial cache entry.
func writeFile(path string, lines []string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("os.MkdirAll: %w", err)
	}
	f, err := os.CreateTemp(filepath.Dir(path), "uniprop-cache.*.txt")
	if err != nil {
		return fmt.Errorf("os.CreateTemp: %w", err)
	}
	w := bufio.NewWriter(f)
	for _, line := range lines {
		_, _ = w.WriteString(line)
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		_ = os.Remove(f.Name())
		return fmt.Errorf("bufio.Flush: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("f.Close: %w", err)
	}
	if err := os.Rename(f.Name(), path); err != nil {
		_ = os.Remove(f.Name())
		return fmt.Errorf("os.Rename: %w", err)
	}
	return nil
}

// Clear deletes the cache directory.
func (r *CachedReader) Clear() error {
	r.logger.Debug("deleting cache", "dir", r.dir)
	if err := os.RemoveAll(r.dir); err != nil {
		return fmt.Errorf("os.RemoveAll(%s): %w", r.dir, err)
	}
	return nil
}

// MemReader serves files from memory; useful for tests and embedded data.
type MemReader map[string]string

func (m MemReader) ReadLines(_ context.Context, name string) ([]string, error) {
	body, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	return SplitLines([]byte(body)), nil
}

// SplitLines splits body after each newline, keeping the newlines.
func SplitLines(body []byte) []string {
	var lines []string
	for len(body) > 0 {
		i := bytes.IndexByte(body, '\n')
		if i < 0 {
			lines = append(lines, string(body))
			break
		}
		lines = append(lines, string(body[:i+1]))
		body = body[i+1:]
	}
	return lines
}
