package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GuilhermeLVL/Onfly-RPA/internal/service"
)

func setupCheckpoints(t *testing.T) (*SQLiteStorage, *CheckpointManager) {
	t.Helper()
	store, cleanup := createTestStorage(t)
	t.Cleanup(cleanup)

	ctx := context.Background()
	require.NoError(t, store.Index(ctx, []service.Document{
		{Source: "csv", Content: "Nome: Pikachu, Tipos: electric, Experiencia: 112, Categoria: Medium"},
		{Source: "csv", Content: "Nome: Mewtwo, Tipos: psychic, Experiencia: 340, Categoria: Strong"},
	}))
	require.NoError(t, store.Append(ctx, "Qual o mais forte?", "Mewtwo"))

	cm, err := NewCheckpointManager(store)
	require.NoError(t, err)
	return store, cm
}

func TestCheckpointManager_CreateAndRestore(t *testing.T) {
	store, cm := setupCheckpoints(t)
	ctx := context.Background()

	info, err := cm.Create(ctx, "before-clear", "manual")
	require.NoError(t, err)
	assert.Equal(t, "before-clear", info.ID)
	assert.Equal(t, 2, info.Documents)
	assert.Equal(t, 1, info.HistoryItems)
	assert.Equal(t, ExpectedSchemaVersion, info.SchemaVersion)
	assert.Positive(t, info.FileSize)
	assert.False(t, info.IsAuto)

	require.NoError(t, store.Clear(ctx))
	require.NoError(t, store.Index(ctx, []service.Document{{Source: "report", Content: "Relatório novo"}}))

	require.NoError(t, cm.Restore(ctx, "before-clear"))

	entries, err := store.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "Mewtwo", entries[0].Answer)

	n, err := store.CountDocuments(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	docs, err := store.Retrieve(ctx, "pikachu electric", 1)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Contains(t, docs[0].Content, "Pikachu")

	// the store keeps working after a restore
	require.NoError(t, store.Append(ctx, "E o mais fraco?", "Caterpie"))
}

func TestCheckpointManager_CreateErrors(t *testing.T) {
	_, cm := setupCheckpoints(t)
	ctx := context.Background()

	_, err := cm.Create(ctx, "dup", "")
	require.NoError(t, err)

	_, err = cm.Create(ctx, "dup", "")
	assert.ErrorIs(t, err, ErrCheckpointExists)

	for _, tag := range []string{"../escape", "a/b", `a\b`} {
		_, err = cm.Create(ctx, tag, "")
		assert.Error(t, err, tag)
	}
}

func TestCheckpointManager_DefaultTag(t *testing.T) {
	_, cm := setupCheckpoints(t)
	cm.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	info, err := cm.Create(context.Background(), "", "")
	require.NoError(t, err)
	assert.Equal(t, "checkpoint-2024-05-01-103000", info.ID)
}

func TestCheckpointManager_ListGetDelete(t *testing.T) {
	_, cm := setupCheckpoints(t)
	ctx := context.Background()

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i, tag := range []string{"first", "second"} {
		cm.now = func() time.Time { return base.Add(time.Duration(i) * time.Hour) }
		_, err := cm.Create(ctx, tag, "")
		require.NoError(t, err)
	}

	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(cm.dir, "broken.meta.json"), []byte("{"), 0600))

	list, err := cm.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "second", list[0].ID)
	assert.Equal(t, "first", list[1].ID)

	info, err := cm.Get(ctx, "first")
	require.NoError(t, err)
	assert.Equal(t, 2, info.Documents)

	require.NoError(t, cm.Delete(ctx, "first"))
	_, err = cm.Get(ctx, "first")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
	assert.ErrorIs(t, cm.Delete(ctx, "first"), ErrCheckpointNotFound)
	assert.ErrorIs(t, cm.Restore(ctx, "first"), ErrCheckpointNotFound)
}

func TestCheckpointManager_AutoCheckpointPrunes(t *testing.T) {
	_, cm := setupCheckpoints(t)
	ctx := context.Background()

	_, err := cm.Create(ctx, "manual", "")
	require.NoError(t, err)

	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	for i := 0; i < maxAutoCheckpoints+2; i++ {
		cm.now = func() time.Time { return base.Add(time.Duration(i) * time.Minute) }
		info, err := cm.AutoCheckpoint(ctx, "clear")
		require.NoError(t, err)
		assert.True(t, info.IsAuto)
		assert.Equal(t, fmt.Sprintf("auto-clear-2024-05-01-10%02d00", i), info.ID)
	}

	list, err := cm.List(ctx)
	require.NoError(t, err)

	auto := 0
	for _, cp := range list {
		if cp.IsAuto {
			auto++
		}
	}
	assert.Equal(t, maxAutoCheckpoints, auto)
	assert.Len(t, list, maxAutoCheckpoints+1)

	_, err = cm.Get(ctx, "auto-clear-2024-05-01-100000")
	assert.ErrorIs(t, err, ErrCheckpointNotFound)
}

func TestCheckpointManager_RestoreCorrupted(t *testing.T) {
	_, cm := setupCheckpoints(t)
	ctx := context.Background()

	_, err := cm.Create(ctx, "bad", "")
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(cm.dbFile("bad"), []byte("not a database at all, just text padding"), 0600))

	err = cm.Restore(ctx, "bad")
	assert.ErrorIs(t, err, ErrCheckpointCorrupted)
}

func TestNewCheckpointManager_InMemory(t *testing.T) {
	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	_, err = NewCheckpointManager(store)
	assert.ErrorIs(t, err, ErrInMemoryDatabase)
}
