package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalUploadAndMirror(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	gw := NewLocal(filepath.Join(tmp, "cluster"))

	src := filepath.Join(tmp, "demo.py")
	require.NoError(t, os.WriteFile(src, []byte("print(1)\n"), 0644))

	dest, err := gw.Upload(ctx, src, "/users/alice/data/alice/demo")
	require.NoError(t, err)
	assert.Equal(t, "/users/alice/data/alice/demo/demo.py", dest)

	b, err := os.ReadFile(gw.Path(dest))
	require.NoError(t, err)
	assert.Equal(t, "print(1)\n", string(b))

	// upload overwrites
	require.NoError(t, os.WriteFile(src, []byte("x"), 0644))
	_, err = gw.Upload(ctx, src, "/users/alice/data/alice/demo")
	require.NoError(t, err)
	b, err = os.ReadFile(gw.Path(dest))
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))

	mirror := filepath.Join(tmp, "mirror")
	require.NoError(t, gw.Mirror(ctx, "/users/alice/data/alice/demo", mirror))
	b, err = os.ReadFile(filepath.Join(mirror, "demo.py"))
	require.NoError(t, err)
	assert.Equal(t, "x", string(b))
}

func TestLocalMirrorSkipsUnchanged(t *testing.T) {
	ctx := context.Background()
	tmp := t.TempDir()
	gw := NewLocal(tmp)

	remote := gw.Path("/out")
	require.NoError(t, os.MkdirAll(remote, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(remote, "0.json"), []byte("{}"), 0644))

	mirror := filepath.Join(tmp, "mirror")
	require.NoError(t, gw.Mirror(ctx, "/out", mirror))

	// a local edit with the same size and mtime is kept as is
	local := filepath.Join(mirror, "0.json")
	st, err := os.Stat(local)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(local, []byte("[]"), 0644))
	require.NoError(t, os.Chtimes(local, st.ModTime(), st.ModTime()))

	require.NoError(t, gw.Mirror(ctx, "/out", mirror))
	b, err := os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))

	// a newer remote file is copied again
	later := st.ModTime().Add(time.Minute)
	require.NoError(t, os.Chtimes(filepath.Join(remote, "0.json"), later, later))
	require.NoError(t, gw.Mirror(ctx, "/out", mirror))
	b, err = os.ReadFile(local)
	require.NoError(t, err)
	assert.Equal(t, "{}", string(b))
}

func TestLocalMirrorMissingRemote(t *testing.T) {
	gw := NewLocal(t.TempDir())
	err := gw.Mirror(context.Background(), "/nope", filepath.Join(t.TempDir(), "mirror"))
	assert.Error(t, err)
}
