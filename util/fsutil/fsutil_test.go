package fsutil

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGlob(t *testing.T) {
	root := t.TempDir()
	for _, p := range []string{"a.json", "b.json", "c.out", "sub/d.json"} {
		full := filepath.Join(root, p)
		require.NoError(t, EnsurePath(full))
		require.NoError(t, os.WriteFile(full, []byte("{}"), 0644))
	}

	files, err := Glob(root, "*.json")
	require.NoError(t, err)
	var rels []string
	for _, f := range files {
		rels = append(rels, f.Rel)
	}
	assert.Equal(t, []string{"a.json", "b.json"}, rels)

	files, err = Glob(root, "**/*.json")
	require.NoError(t, err)
	assert.Len(t, files, 3)

	_, err = Glob(root, "[")
	assert.Error(t, err)
}

func TestGlobMissingRoot(t *testing.T) {
	files, err := Glob(filepath.Join(t.TempDir(), "nope"), "*.json")
	assert.NoError(t, err)
	assert.Empty(t, files)
}

func TestCopyCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	var sb strings.Builder
	_, err := Copy(ctx, &sb, strings.NewReader("hello"))
	assert.Equal(t, context.Canceled, err)
	assert.Empty(t, sb.String())
}

func TestCopy(t *testing.T) {
	var sb strings.Builder
	n, err := Copy(context.Background(), &sb, strings.NewReader("hello"))
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
	assert.Equal(t, "hello", sb.String())
}
