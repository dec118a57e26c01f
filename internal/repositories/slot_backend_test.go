package repositories

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"alfredoptarigan/cv-analyzer-web/internal/models"
)

func TestMemorySlotBackend(t *testing.T) {
	ctx := context.Background()
	backend := NewMemorySlotBackend()

	_, ok, err := backend.Get(ctx, "s1", "k")
	require.NoError(t, err)
	assert.False(t, ok)

	payload := []byte(`{"a":1}`)
	require.NoError(t, backend.Put(ctx, "s1", "k", payload))
	payload[0] = 'x'

	got, ok, err := backend.Get(ctx, "s1", "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"a":1}`, string(got), "stored payload is copied")

	_, ok, _ = backend.Get(ctx, "s2", "k")
	assert.False(t, ok, "slots are scoped per session")

	require.NoError(t, backend.Delete(ctx, "s1", "k"))
	_, ok, _ = backend.Get(ctx, "s1", "k")
	assert.False(t, ok)
}

func TestUpsertSlot_SQL(t *testing.T) {
	db, err := gorm.Open(postgres.Open("host=localhost user=test dbname=test sslmode=disable"), &gorm.Config{
		DryRun:               true,
		DisableAutomaticPing: true,
		Logger:               logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	stmt := upsertSlot(db, &models.ResultSlot{SessionID: "s1", SlotKey: ResultSlotKey, Payload: "{}"}).Statement
	sql := stmt.SQL.String()

	assert.Contains(t, sql, `INSERT INTO "result_slots"`)
	assert.Contains(t, sql, `ON CONFLICT ("session_id","slot_key") DO UPDATE SET`)
	assert.Contains(t, sql, `"payload"="excluded"."payload"`)
	assert.Contains(t, sql, `"updated_at"="excluded"."updated_at"`)
}

func TestFileSlotBackend(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "slots")
	backend, err := NewFileSlotBackend(dir)
	require.NoError(t, err)

	_, ok, err := backend.Get(ctx, "s1", ResultSlotKey)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, backend.Put(ctx, "s1", ResultSlotKey, []byte(`{"v":1}`)))
	require.NoError(t, backend.Put(ctx, "s1", ResultSlotKey, []byte(`{"v":2}`)))

	got, ok, err := backend.Get(ctx, "s1", ResultSlotKey)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, `{"v":2}`, string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temporary files are cleaned up")

	// Hostile session IDs stay inside the slot directory.
	require.NoError(t, backend.Put(ctx, "../../escape", ResultSlotKey, []byte(`{}`)))
	entries, err = os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	require.NoError(t, backend.Delete(ctx, "s1", ResultSlotKey))
	require.NoError(t, backend.Delete(ctx, "s1", ResultSlotKey))
	_, ok, err = backend.Get(ctx, "s1", ResultSlotKey)
	require.NoError(t, err)
	assert.False(t, ok)
}
