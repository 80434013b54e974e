package util

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zizibee/zizibee/config/testconfig"
	"github.com/zizibee/zizibee/database"
)

func TestOpenStore(t *testing.T) {
	for _, name := range []string{"boltdb", "sqlite"} {
		conf := testconfig.DefaultConfig()
		conf.Database = name
		s, err := OpenStore(conf)
		require.NoError(t, err, name)

		_, err = s.GetJob(context.Background(), "missing")
		assert.Equal(t, database.ErrNotFound, err, name)
		assert.NoError(t, s.Close())
	}

	conf := testconfig.DefaultConfig()
	conf.Database = "mongodb"
	_, err := OpenStore(conf)
	assert.Error(t, err)
}
