package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	bolt "go.etcd.io/bbolt"
)

func TestGetPut(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := NewFromEnv(ctx, &Config{FilePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	defer db.Close(ctx)

	type doc struct {
		Name string `json:"name"`
	}

	require.NoError(t, db.DB.View(func(tx *bolt.Tx) error {
		var d doc
		ok, err := Get(tx, []byte("docs"), []byte("a"), &d)
		assert.False(t, ok)
		return err
	}))

	require.NoError(t, db.DB.Update(func(tx *bolt.Tx) error {
		return Put(tx, []byte("docs"), []byte("a"), doc{Name: "alpha"})
	}))

	require.NoError(t, db.DB.View(func(tx *bolt.Tx) error {
		var d doc
		ok, err := Get(tx, []byte("docs"), []byte("a"), &d)
		assert.True(t, ok)
		assert.Equal(t, "alpha", d.Name)
		return err
	}))
}
