package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxAutoCheckpoints is how many automatic checkpoints are kept.
const maxAutoCheckpoints = 5

// Checkpoint errors.
var (
	ErrCheckpointNotFound  = errors.New("checkpoint not found")
	ErrCheckpointCorrupted = errors.New("checkpoint integrity check failed")
	ErrCheckpointExists    = errors.New("checkpoint already exists")
	ErrCheckpointSchema    = errors.New("checkpoint schema version does not match")
	ErrInMemoryDatabase    = errors.New("checkpoints need a database file")
)

// CheckpointInfo describes a saved copy of the index and chat history.
type CheckpointInfo struct {
	CreatedAt     time.Time `json:"created_at"`
	ID            string    `json:"id"`
	Description   string    `json:"description"`
	FileSize      int64     `json:"file_size"`
	Documents     int       `json:"documents"`
	HistoryItems  int       `json:"history_items"`
	SchemaVersion int       `json:"schema_version"`
	IsAuto        bool      `json:"is_auto"`
}

// CheckpointManager saves and restores copies of the database next to it,
// under a checkpoints directory.
type CheckpointManager struct {
	store *SQLiteStorage
	now   func() time.Time
	dir   string
}

// NewCheckpointManager creates a manager for store.
func NewCheckpointManager(store *SQLiteStorage) (*CheckpointManager, error) {
	if store.dbPath == ":memory:" {
		return nil, ErrInMemoryDatabase
	}

	dir := filepath.Join(filepath.Dir(store.dbPath), "checkpoints")
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create checkpoints directory: %w", err)
	}

	return &CheckpointManager{store: store, dir: dir, now: time.Now}, nil
}

// Create copies the database into a new checkpoint. An empty tag gets a
// timestamped name.
func (cm *CheckpointManager) Create(ctx context.Context, tag, description string) (*CheckpointInfo, error) {
	return cm.create(ctx, tag, description, false)
}

// AutoCheckpoint creates a checkpoint named after the operation about to run
// and prunes the oldest automatic ones.
func (cm *CheckpointManager) AutoCheckpoint(ctx context.Context, operation string) (*CheckpointInfo, error) {
	tag := fmt.Sprintf("auto-%s-%s", operation, cm.now().Format("2006-01-02-150405"))
	info, err := cm.create(ctx, tag, "Automatic checkpoint before "+operation, true)
	if err != nil {
		return nil, fmt.Errorf("failed to create auto-checkpoint: %w", err)
	}

	if err := cm.pruneAuto(ctx); err != nil {
		slog.Warn("Failed to prune old auto-checkpoints", "error", err)
	}
	return info, nil
}

func (cm *CheckpointManager) create(ctx context.Context, tag, description string, auto bool) (*CheckpointInfo, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if tag == "" {
		tag = "checkpoint-" + cm.now().Format("2006-01-02-150405")
	}
	if err := validateTag(tag); err != nil {
		return nil, err
	}

	dbFile := cm.dbFile(tag)
	if _, err := os.Stat(dbFile); err == nil {
		return nil, ErrCheckpointExists
	}

	var version int
	if err := cm.store.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to get schema version: %w", err)
	}

	info := &CheckpointInfo{
		ID:            tag,
		CreatedAt:     cm.now(),
		Description:   description,
		SchemaVersion: version,
		IsAuto:        auto,
	}
	if err := cm.countRows(ctx, info); err != nil {
		return nil, err
	}

	if _, err := cm.store.db.ExecContext(ctx, "VACUUM INTO ?", dbFile); err != nil {
		return nil, fmt.Errorf("failed to copy database: %w", err)
	}

	stat, err := os.Stat(dbFile)
	if err != nil {
		return nil, fmt.Errorf("failed to stat checkpoint: %w", err)
	}
	info.FileSize = stat.Size()

	if err := cm.saveInfo(*info); err != nil {
		if rmErr := os.Remove(dbFile); rmErr != nil {
			slog.Error("Failed to remove checkpoint after metadata failure", "error", rmErr)
		}
		return nil, fmt.Errorf("failed to save checkpoint metadata: %w", err)
	}

	slog.Info("Checkpoint created", "id", tag, "documents", info.Documents, "history", info.HistoryItems)
	return info, nil
}

// List returns every checkpoint, newest first. Unreadable metadata is skipped.
func (cm *CheckpointManager) List(_ context.Context) ([]CheckpointInfo, error) {
	entries, err := os.ReadDir(cm.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read checkpoints directory: %w", err)
	}

	checkpoints := make([]CheckpointInfo, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".meta.json") {
			continue
		}
		info, err := cm.loadInfo(filepath.Join(cm.dir, entry.Name()))
		if err != nil {
			slog.Debug("Skipping unreadable checkpoint metadata", "file", entry.Name(), "error", err)
			continue
		}
		checkpoints = append(checkpoints, *info)
	}

	sort.SliceStable(checkpoints, func(i, j int) bool {
		return checkpoints[i].CreatedAt.After(checkpoints[j].CreatedAt)
	})
	return checkpoints, nil
}

// Get returns one checkpoint's metadata.
func (cm *CheckpointManager) Get(_ context.Context, id string) (*CheckpointInfo, error) {
	if err := validateTag(id); err != nil {
		return nil, err
	}
	info, err := cm.loadInfo(cm.metaFile(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrCheckpointNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load checkpoint metadata: %w", err)
	}
	return info, nil
}

// Restore replaces the documents and the chat history with the checkpoint's
// rows. The store stays open.
func (cm *CheckpointManager) Restore(ctx context.Context, id string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	info, err := cm.Get(ctx, id)
	if err != nil {
		return err
	}
	if info.SchemaVersion != ExpectedSchemaVersion {
		return fmt.Errorf("%w: checkpoint %d, database %d", ErrCheckpointSchema, info.SchemaVersion, ExpectedSchemaVersion)
	}

	dbFile := cm.dbFile(id)
	if _, err := os.Stat(dbFile); err != nil {
		return ErrCheckpointNotFound
	}
	if err := verifyIntegrity(dbFile); err != nil {
		slog.Error("Checkpoint integrity check failed", "id", id, "error", err)
		return ErrCheckpointCorrupted
	}

	conn, err := cm.store.db.Conn(ctx)
	if err != nil {
		return fmt.Errorf("failed to get connection: %w", err)
	}
	defer func() { _ = conn.Close() }()

	if _, err := conn.ExecContext(ctx, "ATTACH DATABASE ? AS snapshot", dbFile); err != nil {
		return fmt.Errorf("failed to attach checkpoint: %w", err)
	}
	defer func() {
		if _, err := conn.ExecContext(context.Background(), "DETACH DATABASE snapshot"); err != nil {
			slog.Error("Failed to detach checkpoint", "error", err)
		}
	}()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	queries := []string{
		`DELETE FROM main.document_terms`,
		`DELETE FROM main.documents`,
		`DELETE FROM main.chat_history`,
		`INSERT INTO main.documents (id, source, content, created_at)
			SELECT id, source, content, created_at FROM snapshot.documents`,
		`INSERT INTO main.document_terms (document_id, term, frequency)
			SELECT document_id, term, frequency FROM snapshot.document_terms`,
		`INSERT INTO main.chat_history (id, question, answer, asked_at)
			SELECT id, question, answer, asked_at FROM snapshot.chat_history`,
	}
	for _, query := range queries {
		if _, err := tx.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to restore checkpoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit restore: %w", err)
	}

	slog.Info("Checkpoint restored", "id", id, "documents", info.Documents, "history", info.HistoryItems)
	return nil
}

// Delete removes a checkpoint and its metadata.
func (cm *CheckpointManager) Delete(_ context.Context, id string) error {
	if err := validateTag(id); err != nil {
		return err
	}

	if err := os.Remove(cm.dbFile(id)); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return ErrCheckpointNotFound
		}
		return fmt.Errorf("failed to remove checkpoint file: %w", err)
	}
	if err := os.Remove(cm.metaFile(id)); err != nil {
		slog.Debug("Failed to remove checkpoint metadata", "id", id, "error", err)
	}
	return nil
}

func (cm *CheckpointManager) pruneAuto(ctx context.Context) error {
	checkpoints, err := cm.List(ctx)
	if err != nil {
		return err
	}

	kept := 0
	for _, cp := range checkpoints {
		if !cp.IsAuto {
			continue
		}
		kept++
		if kept <= maxAutoCheckpoints {
			continue
		}
		if err := cm.Delete(ctx, cp.ID); err != nil {
			slog.Debug("Failed to delete old auto-checkpoint", "id", cp.ID, "error", err)
		}
	}
	return nil
}

func (cm *CheckpointManager) countRows(ctx context.Context, info *CheckpointInfo) error {
	db := cm.store.db
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM documents").Scan(&info.Documents); err != nil {
		return fmt.Errorf("failed to count documents: %w", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chat_history").Scan(&info.HistoryItems); err != nil {
		return fmt.Errorf("failed to count chat history: %w", err)
	}
	return nil
}

func (cm *CheckpointManager) dbFile(id string) string {
	return filepath.Join(cm.dir, id+".db")
}

func (cm *CheckpointManager) metaFile(id string) string {
	return filepath.Join(cm.dir, id+".meta.json")
}

func (cm *CheckpointManager) saveInfo(info CheckpointInfo) error {
	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return err
	}

	path := cm.metaFile(info.ID)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func (cm *CheckpointManager) loadInfo(path string) (*CheckpointInfo, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path is built from a validated tag
	if err != nil {
		return nil, err
	}

	var info CheckpointInfo
	if err := json.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func validateTag(tag string) error {
	if err := validateString(tag, "tag"); err != nil {
		return err
	}
	if strings.ContainsAny(tag, `/\`) || strings.Contains(tag, "..") {
		return errors.New("invalid checkpoint tag: cannot contain path separators")
	}
	return nil
}

func verifyIntegrity(path string) error {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return err
	}
	if result != "ok" {
		return fmt.Errorf("integrity check failed: %s", result)
	}
	return nil
}
