package catalog

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"hindsight/internal/config"
)

//go:embed schema.sql
var schemaSQL string

// schemaVersion is the current schema version. Bump this when the schema
// changes; existing databases then need to be cleared.
const schemaVersion = 1

// ErrSchemaMismatch indicates the database schema version doesn't match the
// expected version.
var ErrSchemaMismatch = errors.New("schema version mismatch")

// ErrNotFound indicates the requested clip does not exist.
var ErrNotFound = errors.New("clip not found")

// Store persists the clip catalog in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the catalog database.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := filepath.Join(cfg.Paths.LogDir, "catalog.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) initSchema(ctx context.Context) error {
	var tableExists int
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(1) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	).Scan(&tableExists)
	if err != nil {
		return fmt.Errorf("check schema_version table: %w", err)
	}

	if tableExists == 0 {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin schema tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
			return fmt.Errorf("create schema: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "INSERT INTO schema_version (version) VALUES (?)", schemaVersion); err != nil {
			return fmt.Errorf("record schema version: %w", err)
		}
		return tx.Commit()
	}

	var version int
	if err := s.db.QueryRowContext(ctx, "SELECT version FROM schema_version LIMIT 1").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}
	if version != schemaVersion {
		return fmt.Errorf("%w: database has version %d, expected %d (delete %s to reset)",
			ErrSchemaMismatch, version, schemaVersion, s.path)
	}
	return nil
}

// NewClip inserts a pending catalog entry for a triggered extraction and
// returns it with a freshly assigned ID.
func (s *Store) NewClip(ctx context.Context, title string, beforeSeconds, afterSeconds, fps, width, height int) (*Clip, error) {
	now := time.Now().UTC()
	clip := &Clip{
		ID:            uuid.NewString(),
		Title:         title,
		Status:        StatusPending,
		BeforeSeconds: beforeSeconds,
		AfterSeconds:  afterSeconds,
		FPS:           fps,
		FrameWidth:    width,
		FrameHeight:   height,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clips (
            id, title, status, before_seconds, after_seconds, fps,
            frame_width, frame_height, frame_count, artifact_bytes,
            created_at, updated_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, 0, 0, ?, ?)`,
		clip.ID, clip.Title, clip.Status,
		clip.BeforeSeconds, clip.AfterSeconds, clip.FPS,
		clip.FrameWidth, clip.FrameHeight,
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("insert clip: %w", err)
	}
	return clip, nil
}

// SetStatus advances the clip lifecycle.
func (s *Store) SetStatus(ctx context.Context, id string, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("invalid status %q", status)
	}
	return s.update(ctx, id, "UPDATE clips SET status = ?, updated_at = ? WHERE id = ?",
		status, time.Now().UTC().Format(time.RFC3339Nano), id)
}

// Complete marks the clip completed and records the artifact.
func (s *Store) Complete(ctx context.Context, id, artifactPath string, artifactBytes int64, frameCount int) error {
	return s.update(ctx, id,
		`UPDATE clips SET status = ?, artifact_path = ?, artifact_bytes = ?, frame_count = ?, updated_at = ? WHERE id = ?`,
		StatusCompleted, nullableString(artifactPath), artifactBytes, frameCount,
		time.Now().UTC().Format(time.RFC3339Nano), id)
}

// Fail marks the clip failed with an error detail.
func (s *Store) Fail(ctx context.Context, id, detail string) error {
	return s.update(ctx, id,
		"UPDATE clips SET status = ?, error_detail = ?, updated_at = ? WHERE id = ?",
		StatusFailed, nullableString(detail), time.Now().UTC().Format(time.RFC3339Nano), id)
}

func (s *Store) update(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update clip %s: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// GetByID fetches one clip.
func (s *Store) GetByID(ctx context.Context, id string) (*Clip, error) {
	row := s.db.QueryRowContext(ctx, selectClause+" WHERE id = ?", id)
	clip, err := scanClip(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return clip, err
}

// List returns clips newest-first, up to limit (<= 0 means all).
func (s *Store) List(ctx context.Context, limit int) ([]*Clip, error) {
	query := selectClause + " ORDER BY created_at DESC"
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list clips: %w", err)
	}
	defer rows.Close()

	var clips []*Clip
	for rows.Next() {
		clip, err := scanClip(rows)
		if err != nil {
			return nil, err
		}
		clips = append(clips, clip)
	}
	return clips, rows.Err()
}

const selectClause = `SELECT id, title, status, before_seconds, after_seconds, fps,
    frame_width, frame_height, frame_count, artifact_path, artifact_bytes,
    error_detail, created_at, updated_at FROM clips`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanClip(row rowScanner) (*Clip, error) {
	var clip Clip
	var status string
	var artifactPath, errorDetail sql.NullString
	var createdAt, updatedAt string

	err := row.Scan(&clip.ID, &clip.Title, &status,
		&clip.BeforeSeconds, &clip.AfterSeconds, &clip.FPS,
		&clip.FrameWidth, &clip.FrameHeight, &clip.FrameCount,
		&artifactPath, &clip.ArtifactBytes, &errorDetail,
		&createdAt, &updatedAt)
	if err != nil {
		return nil, err
	}

	clip.Status = Status(status)
	clip.ArtifactPath = artifactPath.String
	clip.ErrorDetail = errorDetail.String
	if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
		clip.CreatedAt = ts
	}
	if ts, err := time.Parse(time.RFC3339Nano, updatedAt); err == nil {
		clip.UpdatedAt = ts
	}
	return &clip, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
