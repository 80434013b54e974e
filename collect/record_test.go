package collect

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadResultFiles(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for i := 0; i < 4; i++ {
		p := filepath.Join(dir, fmt.Sprintf("%d.json", i))
		require.NoError(t, EncodeFile(p, Record{In: Tuple{i}, Out: i * i}))
		files = append(files, p)
	}

	l, err := Load(files)
	require.NoError(t, err)
	assert.Equal(t, 4, l.Len())

	v, ok := l.Get(3)
	assert.True(t, ok)
	assert.Equal(t, float64(9), v)

	_, ok = l.Get(5)
	assert.False(t, ok)
}

func TestMsgpackRecord(t *testing.T) {
	p := filepath.Join(t.TempDir(), "0.msgpack")
	rec := Record{
		In:  Tuple{2, "x"},
		Out: map[string]interface{}{"mean": 1.5, "n": 4},
	}
	require.NoError(t, EncodeFile(p, rec))

	got, err := DecodeFile(p)
	require.NoError(t, err)
	assert.Equal(t, Tuple{2, "x"}.Key(), got.In.Key())

	out, ok := got.Out.(map[string]interface{})
	require.True(t, ok, "got %T", got.Out)
	assert.Equal(t, 1.5, out["mean"])
	assert.Contains(t, out, "n")
}

func TestDecodeFileErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := DecodeFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	txt := filepath.Join(dir, "0.txt")
	require.NoError(t, os.WriteFile(txt, []byte("{}"), 0644))
	_, err = DecodeFile(txt)
	assert.Error(t, err)

	noIn := filepath.Join(dir, "1.json")
	require.NoError(t, os.WriteFile(noIn, []byte(`{"out": 1}`), 0644))
	_, err = DecodeFile(noIn)
	assert.Error(t, err)

	bad := filepath.Join(dir, "2.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"in": [`), 0644))
	_, err = DecodeFile(bad)
	assert.Error(t, err)
}

func TestWriteResults(t *testing.T) {
	l := NewLookup()
	l.Add(Tuple{0}, "a")
	l.Add(Tuple{1}, "b")

	p := filepath.Join(t.TempDir(), "results.json")
	require.NoError(t, WriteResults(p, l))

	b, err := os.ReadFile(p)
	require.NoError(t, err)
	var recs []Record
	require.NoError(t, json.Unmarshal(b, &recs))
	require.Len(t, recs, 2)
	assert.Equal(t, "b", recs[1].Out)
}
