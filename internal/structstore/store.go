package structstore

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
	"github.com/recallmem/recall/pkg/recallerrs"
)

// Record is one structured row: the typed payload plus its envelope
// columns (§3). Data never carries user_id — that is stripped on read,
// per the structured-record invariant that tenant never appears in a
// returned payload.
type Record struct {
	ID        string
	Data      map[string]any
	CreatedAt string
	UpdatedAt string
}

// Store owns the dynamic per-schema tables. Safe for concurrent use;
// a mutex-guarded *sql.DB adapter.
type Store struct {
	mu      sync.RWMutex
	db      *sql.DB
	schemas map[string]SchemaDef // keyed by sanitised table name
}

// Open creates or attaches to a SQLite database at dsn and returns a
// Store with no schemas registered yet.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("structstore: open: %w", err)
	}
	db.SetMaxOpenConns(1)
	return &Store{db: db, schemas: make(map[string]SchemaDef)}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// RegisterSchema materialises schema's table (CREATE TABLE IF NOT
// EXISTS, idempotent per §4.E) and makes it available to Insert/Query/
// etc under its sanitised name.
func (s *Store) RegisterSchema(ctx context.Context, schema SchemaDef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, schema.ddl()); err != nil {
		return fmt.Errorf("structstore: create table %s: %w", schema.TableName(), err)
	}
	if _, err := s.db.ExecContext(ctx, schema.indexDDL()); err != nil {
		return fmt.Errorf("structstore: create index for %s: %w", schema.TableName(), err)
	}
	s.schemas[schema.TableName()] = schema
	return nil
}

// Schema returns the registered schema by name, if any.
func (s *Store) Schema(name string) (SchemaDef, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	schema, ok := s.schemas[sanitizeIdent(name)]
	return schema, ok
}

// Schemas returns every registered schema, for listSchemas.
func (s *Store) Schemas() []SchemaDef {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]SchemaDef, 0, len(s.schemas))
	for _, sc := range s.schemas {
		out = append(out, sc)
	}
	return out
}

// Validate checks data against schema's field declarations. partial
// allows omitting required fields (used for UPDATE payloads, which only
// carry the fields being changed).
func Validate(schema SchemaDef, data map[string]any, partial bool) error {
	var fieldErrs []recallerrs.FieldError
	for _, f := range schema.Fields {
		v, present := data[f.Name]
		if !present {
			if f.Required && !partial {
				fieldErrs = append(fieldErrs, recallerrs.FieldError{Field: f.Name, Message: "required field missing"})
			}
			continue
		}
		if f.Type == FieldEnum && len(f.EnumValues) > 0 {
			s, ok := v.(string)
			if !ok || !containsStr(f.EnumValues, s) {
				fieldErrs = append(fieldErrs, recallerrs.FieldError{Field: f.Name, Message: "value not in declared enum"})
				continue
			}
		}
		if _, err := toColumnValue(f, v); err != nil {
			fieldErrs = append(fieldErrs, recallerrs.FieldError{Field: f.Name, Message: err.Error()})
		}
	}
	for k := range data {
		if _, ok := schema.FindField(k); !ok {
			fieldErrs = append(fieldErrs, recallerrs.FieldError{Field: k, Message: "unknown field for schema"})
		}
	}
	if len(fieldErrs) > 0 {
		return &recallerrs.SchemaValidationError{Schema: schema.Name, Fields: fieldErrs}
	}
	return nil
}

func containsStr(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// Insert validates data against schema and writes a new row for tenant.
func (s *Store) Insert(ctx context.Context, schema SchemaDef, tenant string, data map[string]any) (*Record, error) {
	if err := Validate(schema, data, false); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cols := []string{"id", "user_id"}
	placeholders := []string{"?", "?"}
	now := time.Now().UTC().Format(time.RFC3339)
	id := uuid.NewString()
	args := []any{id, tenant}

	for _, f := range schema.Fields {
		v, ok := data[f.Name]
		if !ok {
			continue
		}
		colVal, err := toColumnValue(f, v)
		if err != nil {
			return nil, &recallerrs.SchemaValidationError{Schema: schema.Name, Fields: []recallerrs.FieldError{{Field: f.Name, Message: err.Error()}}}
		}
		cols = append(cols, f.ColumnName())
		placeholders = append(placeholders, "?")
		args = append(args, colVal)
	}
	cols = append(cols, "created_at", "updated_at")
	placeholders = append(placeholders, "?", "?")
	args = append(args, now, now)

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		schema.TableName(), strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return nil, fmt.Errorf("structstore: insert into %s: %w", schema.TableName(), err)
	}

	return &Record{ID: id, Data: cloneData(data), CreatedAt: now, UpdatedAt: now}, nil
}

// Get returns one record by id, scoped to tenant, or (nil, nil) if
// absent.
func (s *Store) Get(ctx context.Context, schema SchemaDef, tenant, id string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND user_id = ?", selectColumns(schema), schema.TableName()),
		id, tenant)
	rec, err := s.scanRecord(schema, row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("structstore: get: %w", err)
	}
	return rec, nil
}

// List returns up to limit records for tenant, most recent first.
func (s *Store) List(ctx context.Context, schema SchemaDef, tenant string, limit int) ([]*Record, error) {
	if limit <= 0 {
		limit = 10
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?", selectColumns(schema), schema.TableName()),
		tenant, limit)
	if err != nil {
		return nil, fmt.Errorf("structstore: list: %w", err)
	}
	defer rows.Close()
	return s.scanRecords(schema, rows)
}

// FindByField returns every record where field equals value, most recent
// first, scoped to tenant. Lets the orchestrator resolve match-criteria
// without round-tripping SQL through the LLM (§4.E).
func (s *Store) FindByField(ctx context.Context, schema SchemaDef, tenant, field string, value any) ([]*Record, error) {
	f, ok := schema.FindField(field)
	if !ok {
		return nil, fmt.Errorf("structstore: unknown field %q for schema %s", field, schema.Name)
	}
	colVal, err := toColumnValue(f, value)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE user_id = ? AND %s = ? ORDER BY created_at DESC, rowid DESC",
			selectColumns(schema), schema.TableName(), f.ColumnName()),
		tenant, colVal)
	if err != nil {
		return nil, fmt.Errorf("structstore: find by field: %w", err)
	}
	defer rows.Close()
	return s.scanRecords(schema, rows)
}

// searchScanWidth bounds how many recent rows SearchField inspects, per
// §4.I ("scans up to the most recent 100 rows for the tenant").
const searchScanWidth = 100

// SearchField returns records whose field value, cast to string,
// contains value as a case-insensitive substring, scanning only the most
// recent searchScanWidth rows for tenant (§4.I).
func (s *Store) SearchField(ctx context.Context, schema SchemaDef, tenant, field, value string) ([]*Record, error) {
	if _, ok := schema.FindField(field); !ok {
		return nil, fmt.Errorf("structstore: unknown field %q for schema %s", field, schema.Name)
	}

	recent, err := s.List(ctx, schema, tenant, searchScanWidth)
	if err != nil {
		return nil, err
	}

	needle := strings.ToLower(value)
	var out []*Record
	for _, rec := range recent {
		v, ok := rec.Data[field]
		if !ok {
			continue
		}
		if strings.Contains(strings.ToLower(fmt.Sprint(v)), needle) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// GetMostRecent returns the single newest record for tenant, or nil if
// none exist.
func (s *Store) GetMostRecent(ctx context.Context, schema SchemaDef, tenant string) (*Record, error) {
	recs, err := s.List(ctx, schema, tenant, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, nil
	}
	return recs[0], nil
}

// Update applies a partial payload to an existing record, scoped to
// tenant. Returns recallerrs.RecordNotFound if the id doesn't exist.
func (s *Store) Update(ctx context.Context, schema SchemaDef, tenant, id string, data map[string]any) (*Record, error) {
	if err := Validate(schema, data, true); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var sets []string
	var args []any
	for _, f := range schema.Fields {
		v, ok := data[f.Name]
		if !ok {
			continue
		}
		colVal, err := toColumnValue(f, v)
		if err != nil {
			return nil, &recallerrs.SchemaValidationError{Schema: schema.Name, Fields: []recallerrs.FieldError{{Field: f.Name, Message: err.Error()}}}
		}
		sets = append(sets, f.ColumnName()+" = ?")
		args = append(args, colVal)
	}
	now := time.Now().UTC().Format(time.RFC3339)
	sets = append(sets, "updated_at = ?")
	args = append(args, now)
	args = append(args, id, tenant)

	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = ? AND user_id = ?", schema.TableName(), strings.Join(sets, ", "))
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("structstore: update: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return nil, &recallerrs.RecordNotFound{Schema: schema.Name, ID: id}
	}

	row := s.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND user_id = ?", selectColumns(schema), schema.TableName()),
		id, tenant)
	return s.scanRecord(schema, row)
}

// Delete removes a record by id, scoped to tenant. Returns
// recallerrs.RecordNotFound if it didn't exist.
func (s *Store) Delete(ctx context.Context, schema SchemaDef, tenant, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.ExecContext(ctx,
		fmt.Sprintf("DELETE FROM %s WHERE id = ? AND user_id = ?", schema.TableName()),
		id, tenant)
	if err != nil {
		return fmt.Errorf("structstore: delete: %w", err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return &recallerrs.RecordNotFound{Schema: schema.Name, ID: id}
	}
	return nil
}

var selectTokenRe = regexp.MustCompile(`(?i)^\s*select\b`)

// Query executes raw SQL and returns its rows as generic maps. It is the
// single safety gate for LLM-generated SQL (§4.E / §9): anything whose
// first statement token isn't "select" (case-insensitive) is refused
// without ever being sent to the driver.
func (s *Store) Query(ctx context.Context, sqlText string) ([]map[string]any, error) {
	if !selectTokenRe.MatchString(sqlText) {
		return nil, fmt.Errorf("structstore: refusing non-SELECT statement")
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, fmt.Errorf("structstore: query: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("structstore: query: %w", err)
	}

	var out []map[string]any
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("structstore: query: scan: %w", err)
		}
		row := make(map[string]any, len(cols))
		for i, c := range cols {
			row[c] = normalizeScanned(vals[i])
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

func normalizeScanned(v any) any {
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

func selectColumns(schema SchemaDef) string {
	cols := []string{"id"}
	for _, f := range schema.Fields {
		cols = append(cols, f.ColumnName())
	}
	cols = append(cols, "created_at", "updated_at")
	return strings.Join(cols, ", ")
}

// scanner abstracts *sql.Row and *sql.Rows so one scan routine serves
// both Get (single row) and List/FindByField (many rows).
type scanner interface {
	Scan(dest ...any) error
}

func (s *Store) scanRecord(schema SchemaDef, sc scanner) (*Record, error) {
	// Column order matches selectColumns: id, <fields...>, created_at, updated_at.
	var id, createdAt, updatedAt string
	raw := make([]any, len(schema.Fields))
	dest := make([]any, 0, 3+len(schema.Fields))
	dest = append(dest, &id)
	for i := range schema.Fields {
		dest = append(dest, &raw[i])
	}
	dest = append(dest, &createdAt, &updatedAt)

	if err := sc.Scan(dest...); err != nil {
		return nil, err
	}

	data := make(map[string]any, len(schema.Fields))
	for i, f := range schema.Fields {
		v, err := fromColumnValue(f, normalizeScanned(raw[i]))
		if err != nil {
			return nil, fmt.Errorf("corrupt column %s: %w", f.ColumnName(), err)
		}
		if v != nil {
			data[f.Name] = v
		}
	}

	return &Record{ID: id, Data: data, CreatedAt: createdAt, UpdatedAt: updatedAt}, nil
}

func (s *Store) scanRecords(schema SchemaDef, rows *sql.Rows) ([]*Record, error) {
	var out []*Record
	for rows.Next() {
		rec, err := s.scanRecord(schema, rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func cloneData(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
