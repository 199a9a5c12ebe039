package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"github.com/Aman-CERP/geoprefix/pkg/query"
)

// sqliteChunkSize bounds the parameters of one IN list.
const sqliteChunkSize = 500

// SQLiteIndex is a SpatialIndex stored in SQLite. Tokens and numbers live in
// indexed tables; expressions are evaluated by set algebra over lookups.
// WAL mode allows readers in other processes while one process writes.
type SQLiteIndex struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ SpatialIndex = (*SQLiteIndex)(nil)

// validateSQLiteIntegrity checks if a SQLite index is valid before opening.
// Returns nil if valid, error describing corruption if not.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil // Database doesn't exist, will be created
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name IN ('docs', 'tokens', 'numbers')`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count != 3 {
		return fmt.Errorf("spatial tables missing (found %d of 3)", count)
	}

	return nil
}

// NewSQLiteIndex opens or creates a SQLite index at path.
// If path is empty, creates an in-memory index.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_spatial_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("spatial index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("sqlite_spatial_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, please reindex"))
		}

		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single connection: an in-memory database is per connection, and one
	// writer avoids lock contention on disk.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	// DSN params may be ignored by modernc.org/sqlite
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -65536",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &SQLiteIndex{db: db, path: path}
	if err := idx.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return idx, nil
}

// initSchema creates the posting tables.
func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	CREATE TABLE IF NOT EXISTS docs (
		doc_id TEXT PRIMARY KEY
	);

	-- token postings; the primary key serves equality and prefix range scans
	CREATE TABLE IF NOT EXISTS tokens (
		field  TEXT NOT NULL,
		token  TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		PRIMARY KEY (field, token, doc_id)
	) WITHOUT ROWID;
	CREATE INDEX IF NOT EXISTS idx_tokens_doc ON tokens(doc_id);

	CREATE TABLE IF NOT EXISTS numbers (
		field  TEXT NOT NULL,
		value  REAL NOT NULL,
		doc_id TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_numbers_field_value ON numbers(field, value);
	CREATE INDEX IF NOT EXISTS idx_numbers_doc ON numbers(doc_id);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Index adds or replaces documents in one transaction.
func (s *SQLiteIndex) Index(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	docs = dedupeDocs(docs)
	ids := make([]string, len(docs))
	for i, d := range docs {
		ids[i] = d.ID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteIDs(ctx, tx, ids, "tokens", "numbers"); err != nil {
		return err
	}

	docStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO docs (doc_id) VALUES (?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer docStmt.Close()

	tokenStmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO tokens (field, token, doc_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer tokenStmt.Close()

	numStmt, err := tx.PrepareContext(ctx, `INSERT INTO numbers (field, value, doc_id) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer numStmt.Close()

	for _, doc := range docs {
		if _, err := docStmt.ExecContext(ctx, doc.ID); err != nil {
			return fmt.Errorf("failed to insert document %s: %w", doc.ID, err)
		}
		for _, f := range doc.Fields {
			if f.Numeric {
				_, err = numStmt.ExecContext(ctx, f.Name, f.Value, doc.ID)
			} else {
				_, err = tokenStmt.ExecContext(ctx, f.Name, f.Token, doc.ID)
			}
			if err != nil {
				return fmt.Errorf("failed to insert field %s of %s: %w", f.Name, doc.ID, err)
			}
		}
	}

	return tx.Commit()
}

// deleteIDs removes rows for ids from each table, in chunks.
func deleteIDs(ctx context.Context, tx *sql.Tx, ids []string, tables ...string) error {
	for start := 0; start < len(ids); start += sqliteChunkSize {
		chunk := ids[start:min(start+sqliteChunkSize, len(ids))]
		inClause, args := inList(chunk)
		for _, table := range tables {
			q := fmt.Sprintf("DELETE FROM %s WHERE doc_id IN (%s)", table, inClause)
			if _, err := tx.ExecContext(ctx, q, args...); err != nil {
				return fmt.Errorf("failed to delete from %s: %w", table, err)
			}
		}
	}
	return nil
}

// inList returns a placeholder list and its arguments.
func inList(values []string) (string, []any) {
	placeholders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		placeholders[i] = "?"
		args[i] = v
	}
	return strings.Join(placeholders, ","), args
}

// Delete removes documents from the index.
func (s *SQLiteIndex) Delete(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return fmt.Errorf("index is closed")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if err := deleteIDs(ctx, tx, ids, "tokens", "numbers", "docs"); err != nil {
		return err
	}
	return tx.Commit()
}

// Search evaluates expr and loads requested numeric fields.
func (s *SQLiteIndex) Search(ctx context.Context, expr query.Expression, opts SearchOptions) ([]*Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}

	ids, err := evaluate(ctx, s, expr)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]*Hit, 0, len(ids))
	for id := range ids {
		hits = append(hits, &Hit{ID: id})
	}
	hits = finishHits(hits, opts.Limit)
	if len(opts.Fields) > 0 && len(hits) > 0 {
		if err := s.loadValues(ctx, hits, opts.Fields); err != nil {
			return nil, err
		}
	}
	return hits, nil
}

// loadValues fills hit values for the wanted numeric fields.
func (s *SQLiteIndex) loadValues(ctx context.Context, hits []*Hit, fields []string) error {
	byID := make(map[string]*Hit, len(hits))
	ids := make([]string, len(hits))
	for i, h := range hits {
		h.Values = make(map[string][]float64, len(fields))
		byID[h.ID] = h
		ids[i] = h.ID
	}
	fieldClause, fieldArgs := inList(fields)

	for start := 0; start < len(ids); start += sqliteChunkSize {
		chunk := ids[start:min(start+sqliteChunkSize, len(ids))]
		idClause, idArgs := inList(chunk)
		q := fmt.Sprintf(`SELECT doc_id, field, value FROM numbers
			WHERE doc_id IN (%s) AND field IN (%s) ORDER BY rowid`, idClause, fieldClause)
		rows, err := s.db.QueryContext(ctx, q, append(idArgs, fieldArgs...)...)
		if err != nil {
			return fmt.Errorf("failed to load values: %w", err)
		}
		for rows.Next() {
			var (
				id, field string
				value     float64
			)
			if err := rows.Scan(&id, &field, &value); err != nil {
				rows.Close()
				return fmt.Errorf("failed to scan value: %w", err)
			}
			if h := byID[id]; h != nil {
				h.Values[field] = append(h.Values[field], value)
			}
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// collect runs a query returning doc IDs.
func (s *SQLiteIndex) collect(ctx context.Context, out idSet, q string, args ...any) error {
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("failed to query postings: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("failed to scan ID: %w", err)
		}
		out[id] = struct{}{}
	}
	return rows.Err()
}

func (s *SQLiteIndex) universe(ctx context.Context) (idSet, error) {
	out := idSet{}
	return out, s.collect(ctx, out, `SELECT doc_id FROM docs`)
}

func (s *SQLiteIndex) termEquals(ctx context.Context, field, token string) (idSet, error) {
	out := idSet{}
	return out, s.collect(ctx, out, `SELECT doc_id FROM tokens WHERE field = ? AND token = ?`, field, token)
}

var _ termBatcher = (*SQLiteIndex)(nil)

// termsIn looks up many exact tokens of one field with chunked IN lists.
func (s *SQLiteIndex) termsIn(ctx context.Context, field string, tokens []string) (idSet, error) {
	out := idSet{}
	for start := 0; start < len(tokens); start += sqliteChunkSize {
		chunk := tokens[start:min(start+sqliteChunkSize, len(tokens))]
		inClause, args := inList(chunk)
		q := fmt.Sprintf(`SELECT DISTINCT doc_id FROM tokens WHERE field = ? AND token IN (%s)`, inClause)
		if err := s.collect(ctx, out, q, append([]any{field}, args...)...); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *SQLiteIndex) termPrefix(ctx context.Context, field, prefix string) (idSet, error) {
	out := idSet{}
	if prefix == "" {
		return out, s.collect(ctx, out, `SELECT DISTINCT doc_id FROM tokens WHERE field = ?`, field)
	}
	if upper, ok := prefixUpperBound(prefix); ok {
		return out, s.collect(ctx, out,
			`SELECT DISTINCT doc_id FROM tokens WHERE field = ? AND token >= ? AND token < ?`, field, prefix, upper)
	}
	return out, s.collect(ctx, out,
		`SELECT DISTINCT doc_id FROM tokens WHERE field = ? AND token >= ?`, field, prefix)
}

// prefixUpperBound returns the smallest string greater than every string
// with the given prefix, or false when no such bound exists.
func prefixUpperBound(prefix string) (string, bool) {
	b := []byte(prefix)
	for i := len(b) - 1; i >= 0; i-- {
		if b[i] < 0xff {
			b[i]++
			return string(b[:i+1]), true
		}
	}
	return "", false
}

func (s *SQLiteIndex) numericRange(ctx context.Context, field string, lo, hi float64) (idSet, error) {
	out := idSet{}
	return out, s.collect(ctx, out,
		`SELECT DISTINCT doc_id FROM numbers WHERE field = ? AND value BETWEEN ? AND ?`, field, lo, hi)
}

// AllIDs returns all document IDs in the index, sorted.
func (s *SQLiteIndex) AllIDs() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, fmt.Errorf("index is closed")
	}

	rows, err := s.db.Query(`SELECT doc_id FROM docs ORDER BY doc_id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query IDs: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Stats returns index statistics.
func (s *SQLiteIndex) Stats() *IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &IndexStats{Backend: string(BackendSQLite)}
	if s.closed {
		return stats
	}

	err := s.db.QueryRow(`SELECT
		(SELECT COUNT(*) FROM docs),
		(SELECT COUNT(*) FROM tokens),
		(SELECT COUNT(*) FROM numbers)`).Scan(&stats.DocumentCount, &stats.TokenCount, &stats.NumericCount)
	if err != nil {
		return &IndexStats{Backend: string(BackendSQLite)}
	}
	return stats
}

// Close closes the index.
// Forces a WAL checkpoint before closing.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.db != nil {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		return s.db.Close()
	}
	return nil
}
