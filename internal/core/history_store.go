package core

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/gowebpki/jcs"

	"github.com/gg7/gentoostats/internal/types"

	_ "modernc.org/sqlite"
)

const historySchema = `
CREATE TABLE IF NOT EXISTS submissions (
	id           TEXT PRIMARY KEY,
	submitted_at INTEGER NOT NULL,
	server       TEXT NOT NULL,
	status       TEXT NOT NULL,
	digest       TEXT NOT NULL,
	packages     INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_submissions_time ON submissions(submitted_at);`

// HistoryStore keeps a local record of submission attempts in SQLite.
type HistoryStore struct {
	db  *sql.DB
	now func() time.Time
}

// OpenHistoryStore opens (creating if needed) the history database at path.
func OpenHistoryStore(ctx context.Context, path string) (*HistoryStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create history directory: %w", err)
	}
	dsn := "file:" + path + "?_pragma=busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open history database %s: %w", path, err)
	}
	if _, err := db.ExecContext(ctx, historySchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}
	return &HistoryStore{db: db, now: time.Now}, nil
}

// Close releases the database handle.
func (h *HistoryStore) Close() error {
	return h.db.Close()
}

// Record stores one submission attempt and returns the stored row.
func (h *HistoryStore) Record(ctx context.Context, server, status string, report *types.Report) (types.SubmissionRecord, error) {
	digest, err := ReportDigest(report)
	if err != nil {
		return types.SubmissionRecord{}, err
	}
	rec := types.SubmissionRecord{
		ID:          uuid.NewString(),
		SubmittedAt: h.now().UTC().Truncate(time.Second),
		Server:      server,
		Status:      status,
		Digest:      digest,
		Packages:    PackageCount(report),
	}

	_, err = h.db.ExecContext(ctx,
		`INSERT INTO submissions(id, submitted_at, server, status, digest, packages) VALUES (?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.SubmittedAt.Unix(), rec.Server, rec.Status, rec.Digest, rec.Packages)
	if err != nil {
		return types.SubmissionRecord{}, fmt.Errorf("record submission: %w", err)
	}
	return rec, nil
}

// List returns up to limit records, newest first. limit <= 0 means all.
func (h *HistoryStore) List(ctx context.Context, limit int) ([]types.SubmissionRecord, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, submitted_at, server, status, digest, packages FROM submissions ORDER BY submitted_at DESC, rowid DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.SubmissionRecord
	for rows.Next() {
		var (
			rec types.SubmissionRecord
			ts  int64
		)
		if err := rows.Scan(&rec.ID, &ts, &rec.Server, &rec.Status, &rec.Digest, &rec.Packages); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		rec.SubmittedAt = time.Unix(ts, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

// ReportDigest returns the hex SHA-256 of the RFC 8785 canonical JSON of v,
// so equal reports hash equally regardless of encoder settings.
func ReportDigest(v any) (string, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode report: %w", err)
	}
	return DigestJSON(raw)
}

// DigestJSON canonicalizes raw JSON and returns its hex SHA-256.
func DigestJSON(raw []byte) (string, error) {
	canonical, err := jcs.Transform(raw)
	if err != nil {
		return "", fmt.Errorf("canonicalize report: %w", err)
	}
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:]), nil
}
