package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/config"
	"github.com/zizibee/zizibee/database"
	"github.com/zizibee/zizibee/database/storetest"
)

func TestSQLite(t *testing.T) {
	storetest.Run(t, func(t *testing.T) database.JobStore {
		db, err := NewSQLite(config.SQLite{Path: filepath.Join(t.TempDir(), "zizibee.sqlite")})
		require.NoError(t, err)
		t.Cleanup(func() { db.Close() })
		return db
	})
}

func TestSQLiteReopen(t *testing.T) {
	conf := config.SQLite{Path: filepath.Join(t.TempDir(), "zizibee.sqlite")}
	db, err := NewSQLite(conf)
	require.NoError(t, err)
	job := storetest.NewJob("demo")
	require.NoError(t, db.PutJob(context.Background(), job))
	require.NoError(t, db.Close())

	db, err = NewSQLite(conf)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.GetJob(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, "demo", got.JobName)
}
