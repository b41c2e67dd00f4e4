// Copyright 2024 The uniprop Authors. All rights reserved.
// Use of this source code is governed by the MIT License
// that can be found in the LICENSE file.

package source

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const lineBreakSnippet = "# LineBreak.txt\n0000..0008;CM\n0009;BA"

func TestSplitLines(t *testing.T) {
	assert.Nil(t, SplitLines(nil))
	assert.Equal(t, []string{"a\n", "b"}, SplitLines([]byte("a\nb")))
	assert.Equal(t, []string{"a\n", "\n"}, SplitLines([]byte("a\n\n")))
}

func TestMemReader(t *testing.T) {
	r := MemReader{"LineBreak": lineBreakSnippet}
	lines, err := r.ReadLines(context.Background(), "LineBreak")
	require.NoError(t, err)
	assert.Equal(t, []string{"# LineBreak.txt\n", "0000..0008;CM\n", "0009;BA"}, lines)

	_, err = r.ReadLines(context.Background(), "Scripts")
	assert.ErrorIs(t, err, ErrNotFound)
}

func newTestServer(t *testing.T, hits *atomic.Int32) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/ucd/LineBreak.txt":
			_, _ = w.Write([]byte(lineBreakSnippet))
		case "/ucd/emoji/emoji-data.txt":
			_, _ = w.Write([]byte("231A..231B;Emoji\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestHTTPReader(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)

	r := NewHTTPReader(srv.URL+"/ucd/{name}.txt", WithHTTPClient(srv.Client()))
	assert.Equal(t, srv.URL+"/ucd/LineBreak.txt", r.URL("LineBreak"))

	lines, err := r.ReadLines(context.Background(), "LineBreak")
	require.NoError(t, err)
	assert.Len(t, lines, 3)

	lines, err = r.ReadLines(context.Background(), "emoji/emoji-data")
	require.NoError(t, err)
	assert.Equal(t, []string{"231A..231B;Emoji\n"}, lines)

	_, err = r.ReadLines(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrNotFound)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = r.ReadLines(ctx, "LineBreak")
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestHTTPReader_DefaultTemplate(t *testing.T) {
	r := NewHTTPReader("")
	assert.Equal(t, "https://www.unicode.org/Public/UNIDATA/Scripts.txt", r.URL("Scripts"))
}

func TestCachedReader(t *testing.T) {
	var hits atomic.Int32
	srv := newTestServer(t, &hits)
	dir := t.TempDir()

	r, err := NewCachedReader(NewHTTPReader(srv.URL+"/ucd/{name}.txt", WithHTTPClient(srv.Client())), dir)
	require.NoError(t, err)
	assert.Equal(t, dir, r.Dir())

	for i := 0; i < 3; i++ {
		lines, err := r.ReadLines(context.Background(), "emoji/emoji-data")
		require.NoError(t, err)
		assert.Equal(t, []string{"231A..231B;Emoji\n"}, lines)
	}
	// only the first read goes to the network
	assert.Equal(t, int32(1), hits.Load())

	body, err := os.ReadFile(filepath.Join(dir, "emoji", "emoji-data"))
	require.NoError(t, err)
	assert.Equal(t, "231A..231B;Emoji\n", string(body))

	// failures aren't cached
	_, err = r.ReadLines(context.Background(), "Missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = os.Stat(filepath.Join(dir, "Missing"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, r.Clear())
	_, err = os.Stat(dir)
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "LineBreak")
	require.NoError(t, writeFile(path, []string{"a\n", "b"}))
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\nb", string(body))

	// renaming onto a non-empty directory fails; the temp file goes too
	blocked := filepath.Join(dir, "blocked")
	require.NoError(t, os.MkdirAll(filepath.Join(blocked, "child"), 0755))
	assert.Error(t, writeFile(blocked, []string{"x"}))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"sub", "blocked"}, names)
}
