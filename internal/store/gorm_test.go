package store

import (
	"context"
	"testing"

	"menuops/internal/database"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormKV(t *testing.T) {
	db, err := database.Open(database.Options{Driver: "sqlite3", DSN: ":memory:"})
	require.NoError(t, err)
	defer db.Close()

	ctx := context.Background()
	kv := NewGormKV(db)

	_, err = kv.Get(ctx, "menu_data_p1")
	assert.ErrorIs(t, err, ErrNotFound)

	require.NoError(t, kv.Set(ctx, "menu_data_p1", []byte(`{"items":[]}`)))
	require.NoError(t, kv.Set(ctx, "menu_data_p1", []byte(`{"items":[{"id":"i1"}]}`)))
	require.NoError(t, kv.Set(ctx, "menu_dataXp2", []byte(`{}`)))

	v, err := kv.Get(ctx, "menu_data_p1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[{"id":"i1"}]}`, string(v))

	keys, err := kv.Keys(ctx, "menu_data_")
	require.NoError(t, err)
	assert.Equal(t, []string{"menu_data_p1"}, keys)

	require.NoError(t, kv.Delete(ctx, "menu_data_p1"))
	_, err = kv.Get(ctx, "menu_data_p1")
	assert.ErrorIs(t, err, ErrNotFound)
}
