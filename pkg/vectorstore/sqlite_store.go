// Package vectorstore: SQL-backed adapter using sqlite-vec's vec0 virtual
// table for native ANN (ncruces/go-sqlite3 driver, asg017/sqlite-vec-go-
// bindings extension). A mutex-guarded *sql.DB, a schema constant, CREATE
// TABLE IF NOT EXISTS, and positional binds throughout.
package vectorstore

import (
	"context"
	"database/sql"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sync"
	"time"

	_ "github.com/asg017/sqlite-vec-go-bindings/ncruces"
	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// SQLiteStore is the durable vector store adapter. A row in `memories`
// carries everything but the embedding; the embedding lives in the
// companion vec0 virtual table `vec_memories`, joined by `vec_rowid`.
type SQLiteStore struct {
	mu  sync.RWMutex
	db  *sql.DB
	dim int
}

const baseSchema = `
CREATE TABLE IF NOT EXISTS memories (
    id TEXT PRIMARY KEY,
    user_id TEXT NOT NULL,
    content TEXT NOT NULL,
    metadata TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL,
    updated_at INTEGER NOT NULL,
    vec_rowid INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_memories_user_id ON memories(user_id);
CREATE INDEX IF NOT EXISTS idx_memories_vec_rowid ON memories(vec_rowid);
`

// NewSQLiteStore opens (or creates) a durable vector store at dsn
// (":memory:" for an ephemeral one) accepting embeddings of dimension dim.
func NewSQLiteStore(dsn string, dim int) (*SQLiteStore, error) {
	if dim <= 0 {
		return nil, fmt.Errorf("vectorstore: dimension must be positive, got %d", dim)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("vectorstore: open database: %w", err)
	}
	db.SetMaxOpenConns(1) // ncruces/go-sqlite3 connections aren't shared across goroutines

	if _, err := db.Exec(baseSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: create schema: %w", err)
	}

	vecDDL := fmt.Sprintf(
		`CREATE VIRTUAL TABLE IF NOT EXISTS vec_memories USING vec0(
			tenant TEXT PARTITION KEY,
			embedding FLOAT[%d] DISTANCE_METRIC=cosine
		)`, dim)
	if _, err := db.Exec(vecDDL); err != nil {
		db.Close()
		return nil, fmt.Errorf("vectorstore: create vec0 table: %w", err)
	}

	return &SQLiteStore{db: db, dim: dim}, nil
}

func (s *SQLiteStore) Dimensions() int { return s.dim }

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

func serializeEmbedding(v []float32) []byte {
	buf := make([]byte, 4*len(v))
	for i, f := range v {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

func (s *SQLiteStore) Insert(ctx context.Context, tenant, content string, embedding []float32, metadata map[string]string) (*Memory, error) {
	if len(embedding) != s.dim {
		return nil, storageErr("insert", errDimMismatch(s.dim, len(embedding)))
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("insert", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO vec_memories(tenant, embedding) VALUES (?, ?)`,
		tenant, serializeEmbedding(embedding))
	if err != nil {
		return nil, storageErr("insert vector", err)
	}
	vecRowID, err := res.LastInsertId()
	if err != nil {
		return nil, storageErr("insert vector", err)
	}

	metaJSON, err := json.Marshal(cloneMeta(metadata))
	if err != nil {
		return nil, storageErr("insert", err)
	}

	now := time.Now().UnixMilli()
	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO memories (id, user_id, content, metadata, created_at, updated_at, vec_rowid)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, tenant, content, string(metaJSON), now, now, vecRowID); err != nil {
		return nil, storageErr("insert", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("insert", err)
	}

	return &Memory{
		ID: id, Tenant: tenant, Content: content,
		Embedding: append([]float32(nil), embedding...),
		Metadata:  cloneMeta(metadata),
		CreatedAt: now, UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) Update(ctx context.Context, id string, upd Update) (*Memory, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.getLocked(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, ErrMemoryNotFound
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, storageErr("update", err)
	}
	defer tx.Rollback()

	content := existing.Content
	if upd.Content != nil {
		content = *upd.Content
	}
	metadata := existing.Metadata
	if upd.Metadata != nil {
		metadata = cloneMeta(upd.Metadata)
	}
	embedding := existing.Embedding
	if upd.Embedding != nil {
		if len(upd.Embedding) != s.dim {
			return nil, storageErr("update", errDimMismatch(s.dim, len(upd.Embedding)))
		}
		embedding = upd.Embedding
		// vec0 doesn't support in-place vector updates; re-insert under the
		// same rowid so every other column stays joined correctly.
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE rowid = (SELECT vec_rowid FROM memories WHERE id = ?)`, id); err != nil {
			return nil, storageErr("update vector", err)
		}
		var vecRowID int64
		if err := tx.QueryRowContext(ctx, `SELECT vec_rowid FROM memories WHERE id = ?`, id).Scan(&vecRowID); err != nil {
			return nil, storageErr("update vector", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO vec_memories(rowid, tenant, embedding) VALUES (?, ?, ?)`,
			vecRowID, existing.Tenant, serializeEmbedding(embedding)); err != nil {
			return nil, storageErr("update vector", err)
		}
	}

	metaJSON, err := json.Marshal(metadata)
	if err != nil {
		return nil, storageErr("update", err)
	}
	now := time.Now().UnixMilli()
	if _, err := tx.ExecContext(ctx,
		`UPDATE memories SET content = ?, metadata = ?, updated_at = ? WHERE id = ?`,
		content, string(metaJSON), now, id); err != nil {
		return nil, storageErr("update", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, storageErr("update", err)
	}

	return &Memory{
		ID: id, Tenant: existing.Tenant, Content: content,
		Embedding: append([]float32(nil), embedding...),
		Metadata:  metadata, CreatedAt: existing.CreatedAt, UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("delete", err)
	}
	defer tx.Rollback()

	var vecRowID sql.NullInt64
	err = tx.QueryRowContext(ctx, `SELECT vec_rowid FROM memories WHERE id = ?`, id).Scan(&vecRowID)
	if err == sql.ErrNoRows {
		return nil // idempotent
	}
	if err != nil {
		return storageErr("delete", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE id = ?`, id); err != nil {
		return storageErr("delete", err)
	}
	if vecRowID.Valid {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE rowid = ?`, vecRowID.Int64); err != nil {
			return storageErr("delete", err)
		}
	}
	return storageErr("delete", tx.Commit())
}

func (s *SQLiteStore) Get(ctx context.Context, id string) (*Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getLocked(ctx, id)
}

// getLocked assumes the caller already holds s.mu.
func (s *SQLiteStore) getLocked(ctx context.Context, id string) (*Memory, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT m.id, m.user_id, m.content, m.metadata, m.created_at, m.updated_at, v.embedding
		FROM memories m JOIN vec_memories v ON v.rowid = m.vec_rowid
		WHERE m.id = ?`, id)
	m, err := s.scan(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, storageErr("get", err)
	}
	return m, nil
}

func (s *SQLiteStore) List(ctx context.Context, tenant string, opts ListOptions) ([]*Memory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	query := `
		SELECT m.id, m.user_id, m.content, m.metadata, m.created_at, m.updated_at, v.embedding
		FROM memories m JOIN vec_memories v ON v.rowid = m.vec_rowid
		WHERE m.user_id = ?
		ORDER BY m.created_at DESC, m.rowid ASC`
	args := []any{tenant}
	if opts.Limit > 0 {
		query += ` LIMIT ?`
		args = append(args, opts.Limit)
		if opts.Offset > 0 {
			query += ` OFFSET ?`
			args = append(args, opts.Offset)
		}
	} else if opts.Offset > 0 {
		query += ` LIMIT -1 OFFSET ?`
		args = append(args, opts.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storageErr("list", err)
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		m, err := s.scan(rows)
		if err != nil {
			return nil, storageErr("list", err)
		}
		out = append(out, m)
	}
	return out, storageErr("list", rows.Err())
}

func (s *SQLiteStore) Count(ctx context.Context, tenant string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM memories WHERE user_id = ?`, tenant).Scan(&n)
	if err != nil {
		return 0, storageErr("count", err)
	}
	return n, nil
}

func (s *SQLiteStore) Clear(ctx context.Context, tenant string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storageErr("clear", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT vec_rowid FROM memories WHERE user_id = ?`, tenant)
	if err != nil {
		return storageErr("clear", err)
	}
	var vecIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return storageErr("clear", err)
		}
		vecIDs = append(vecIDs, id)
	}
	rows.Close()

	if _, err := tx.ExecContext(ctx, `DELETE FROM memories WHERE user_id = ?`, tenant); err != nil {
		return storageErr("clear", err)
	}
	for _, id := range vecIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vec_memories WHERE rowid = ?`, id); err != nil {
			return storageErr("clear", err)
		}
	}
	return storageErr("clear", tx.Commit())
}

func (s *SQLiteStore) QueryByEmbedding(ctx context.Context, query []float32, tenant string, k int) ([]*Memory, error) {
	if len(query) != s.dim {
		return nil, storageErr("query", errDimMismatch(s.dim, len(query)))
	}
	if k <= 0 {
		k = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT m.id, m.user_id, m.content, m.metadata, m.created_at, m.updated_at, v.embedding
		FROM vec_memories v
		JOIN memories m ON m.vec_rowid = v.rowid
		WHERE v.tenant = ? AND v.embedding MATCH ? AND k = ?
		ORDER BY v.distance ASC`,
		tenant, serializeEmbedding(query), k)
	if err != nil {
		return nil, storageErr("query", err)
	}
	defer rows.Close()

	var out []*Memory
	for rows.Next() {
		m, err := s.scan(rows)
		if err != nil {
			return nil, storageErr("query", err)
		}
		out = append(out, m)
	}
	return out, storageErr("query", rows.Err())
}

// scanner abstracts the Scan method shared by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func (s *SQLiteStore) scan(sc scanner) (*Memory, error) {
	var (
		m           Memory
		metaJSON    string
		embeddingBz []byte
	)
	if err := sc.Scan(&m.ID, &m.Tenant, &m.Content, &metaJSON, &m.CreatedAt, &m.UpdatedAt, &embeddingBz); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(metaJSON), &m.Metadata); err != nil {
		return nil, fmt.Errorf("corrupt metadata for memory %s: %w", m.ID, err)
	}
	m.Embedding = deserializeEmbedding(embeddingBz)
	return &m, nil
}

func deserializeEmbedding(b []byte) []float32 {
	out := make([]float32, len(b)/4)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[i*4:]))
	}
	return out
}
