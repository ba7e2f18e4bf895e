package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"errors"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/custodia-labs/docia/internal/adapters/driven/storage/similarity"
	"github.com/custodia-labs/docia/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/custodia-labs/docia/internal/core/domain"
	"github.com/custodia-labs/docia/internal/core/ports/driven"
	"github.com/custodia-labs/docia/internal/logger"
)

// DatabaseFile is the file name of the database inside the data directory.
const DatabaseFile = "docia.db"

// Store owns the SQLite database that holds every collection.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite store at the specified data directory.
// If dataDir is empty, defaults to ~/.docia/data/docia.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".docia", "data")
	}

	// Ensure directory exists
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, DatabaseFile)

	// Open database with WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable foreign keys
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	// Run migrations
	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Collection returns the vector store bound to the named collection,
// creating the collection on first use. dimensions is the embedding length
// the caller will write; zero adopts the stored value, or the length of the
// first batch written to a new collection. A collection created with a
// different non-zero length fails with domain.ErrDimensionMismatch.
//
// Closing the returned VectorStore closes this Store.
func (s *Store) Collection(ctx context.Context, name string, dimensions int) (*VectorStore, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: collection name is required", domain.ErrInvalidInput)
	}

	if _, err := s.db.ExecContext(ctx, `
		INSERT INTO collections (name, dimensions) VALUES (?, ?)
		ON CONFLICT(name) DO NOTHING
	`, name, dimensions); err != nil {
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	var stored int
	if err := s.db.QueryRowContext(ctx,
		"SELECT dimensions FROM collections WHERE name = ?", name).Scan(&stored); err != nil {
		return nil, fmt.Errorf("reading collection: %w", err)
	}

	switch {
	case stored == 0 && dimensions > 0:
		if _, err := s.db.ExecContext(ctx,
			"UPDATE collections SET dimensions = ? WHERE name = ?", dimensions, name); err != nil {
			return nil, fmt.Errorf("updating collection: %w", err)
		}
		stored = dimensions
	case dimensions > 0 && stored != dimensions:
		return nil, fmt.Errorf("%w: collection %q holds %d-dimensional vectors, embedder produces %d",
			domain.ErrDimensionMismatch, name, stored, dimensions)
	}

	logger.Debug("sqlite: collection %q ready (%d dims)", name, stored)
	return &VectorStore{store: s, collection: name, dimensions: stored}, nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	// Ensure schema_migrations table exists
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	// Get current version
	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	// Find all up migrations
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	// Sort and run migrations
	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// Extract version number (e.g., "001_init.up.sql" -> 1)
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue // Skip files that don't match pattern
		}

		if version <= currentVersion {
			continue // Already applied
		}

		// Read and execute migration
		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}

		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
	}

	return nil
}

// ==================== Vector Store ====================

// Ensure VectorStore implements the interface.
var _ driven.VectorStore = (*VectorStore)(nil)

// VectorStore implements driven.VectorStore over one collection.
type VectorStore struct {
	store      *Store
	collection string

	mu         sync.Mutex
	dimensions int
}

// Name returns the collection name.
func (v *VectorStore) Name() string {
	return v.collection
}

// Dimensions returns the embedding length of the collection, zero while
// the collection is empty and unsized.
func (v *VectorStore) Dimensions() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.dimensions
}

// UpsertBatch writes records in one transaction, replacing any with the
// same ID.
func (v *VectorStore) UpsertBatch(ctx context.Context, records []domain.Record) error {
	if len(records) == 0 {
		return nil
	}
	if err := v.checkDimensions(ctx, len(records[0].Embedding)); err != nil {
		return err
	}
	dims := v.Dimensions()
	for _, r := range records {
		if len(r.Embedding) != dims {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				domain.ErrDimensionMismatch, r.ID, len(r.Embedding), dims)
		}
	}

	tx, err := v.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO records (collection, id, text, embedding, doc_id, title, type, specialty,
			year, page, section, token_count, upload_date, uploaded_by)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(collection, id) DO UPDATE SET
			text = excluded.text,
			embedding = excluded.embedding,
			doc_id = excluded.doc_id,
			title = excluded.title,
			type = excluded.type,
			specialty = excluded.specialty,
			year = excluded.year,
			page = excluded.page,
			section = excluded.section,
			token_count = excluded.token_count,
			upload_date = excluded.upload_date,
			uploaded_by = excluded.uploaded_by
	`)
	if err != nil {
		return fmt.Errorf("preparing statement: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		m := r.Metadata
		if _, err := stmt.ExecContext(ctx, v.collection, r.ID, r.Text, float32SliceToBytes(r.Embedding),
			m.DocID, m.Title, m.Type, m.Specialty, m.Year, m.Page, m.Section, m.TokenCount,
			domain.FormatUploadDate(m.UploadDate), m.UploadedBy); err != nil {
			return fmt.Errorf("saving record %s: %w", r.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// Query returns up to k records matching the filter, nearest first.
func (v *VectorStore) Query(
	ctx context.Context,
	embedding []float32,
	k int,
	filter domain.Filter,
) ([]domain.ScoredRecord, error) {
	if k <= 0 {
		return []domain.ScoredRecord{}, nil
	}
	if dims := v.Dimensions(); dims > 0 && len(embedding) != dims {
		return nil, fmt.Errorf("%w: query has %d dimensions, collection has %d",
			domain.ErrDimensionMismatch, len(embedding), dims)
	}

	where, args, err := v.whereClause(filter)
	if err != nil {
		return nil, err
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT id, text, embedding, "+metadataColumns+" FROM records WHERE "+where, args...)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	ranker := similarity.NewRanker(k)
	for rows.Next() {
		var (
			rec  domain.ScoredRecord
			blob []byte
		)
		meta, err := scanMetadata(rows, &rec.ID, &rec.Text, &blob)
		if err != nil {
			return nil, err
		}
		rec.Metadata = meta
		rec.Distance = similarity.CosineDistance(embedding, bytesToFloat32Slice(blob))
		ranker.Push(rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}

	return ranker.Results(), nil
}

// GetAllMetadata returns the metadata of every record matching the filter,
// in record ID order.
func (v *VectorStore) GetAllMetadata(ctx context.Context, filter domain.Filter) ([]domain.RecordMetadata, error) {
	where, args, err := v.whereClause(filter)
	if err != nil {
		return nil, err
	}

	rows, err := v.store.db.QueryContext(ctx,
		"SELECT "+metadataColumns+" FROM records WHERE "+where+" ORDER BY id", args...)
	if err != nil {
		return nil, fmt.Errorf("querying metadata: %w", err)
	}
	defer rows.Close()

	out := []domain.RecordMetadata{}
	for rows.Next() {
		meta, err := scanMetadata(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, meta)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating metadata: %w", err)
	}
	return out, nil
}

// DeleteBy removes every record matching the filter.
func (v *VectorStore) DeleteBy(ctx context.Context, filter domain.Filter) (int, error) {
	where, args, err := v.whereClause(filter)
	if err != nil {
		return 0, err
	}

	res, err := v.store.db.ExecContext(ctx, "DELETE FROM records WHERE "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("deleting records: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted records: %w", err)
	}
	return int(n), nil
}

// Count returns the number of records in the collection.
func (v *VectorStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := v.store.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM records WHERE collection = ?", v.collection).Scan(&n); err != nil {
		return 0, fmt.Errorf("counting records: %w", err)
	}
	return n, nil
}

// Close closes the underlying store.
func (v *VectorStore) Close() error {
	return v.store.Close()
}

// checkDimensions sizes an unsized collection from the first write.
func (v *VectorStore) checkDimensions(ctx context.Context, dims int) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.dimensions != 0 {
		return nil
	}
	if dims == 0 {
		return fmt.Errorf("%w: empty embedding", domain.ErrInvalidInput)
	}
	if _, err := v.store.db.ExecContext(ctx,
		"UPDATE collections SET dimensions = ? WHERE name = ? AND dimensions = 0", dims, v.collection); err != nil {
		return fmt.Errorf("updating collection: %w", err)
	}
	v.dimensions = dims
	return nil
}

// metadataColumns lists the metadata columns in scanMetadata order.
var metadataColumns = strings.Join(domain.MetadataFields, ", ")

// whereClause renders the collection scope and filter as SQL. Column names
// come from the fixed metadata field list, never from user input.
func (v *VectorStore) whereClause(filter domain.Filter) (string, []any, error) {
	if err := filter.Validate(); err != nil {
		return "", nil, err
	}

	clauses := []string{"collection = ?"}
	args := []any{v.collection}
	for _, key := range filter.Keys() {
		value := filter[key]
		clauses = append(clauses, key+" = ?")
		if domain.IsNumericField(key) {
			n, _ := strconv.Atoi(value) // validated above
			args = append(args, n)
			continue
		}
		args = append(args, value)
	}
	return strings.Join(clauses, " AND "), args, nil
}

// ==================== Helper Functions ====================

type scanner interface {
	Scan(dest ...any) error
}

// scanMetadata scans the leading columns into lead, then the metadata
// columns in MetadataFields order.
func scanMetadata(row scanner, lead ...any) (domain.RecordMetadata, error) {
	var (
		m          domain.RecordMetadata
		uploadDate string
	)
	dest := append(lead, &m.DocID, &m.Title, &m.Type, &m.Specialty, &m.Year,
		&m.Page, &m.Section, &m.TokenCount, &uploadDate, &m.UploadedBy)
	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return m, domain.ErrNotFound
		}
		return m, fmt.Errorf("scanning record: %w", err)
	}

	t, err := domain.ParseUploadDate(uploadDate)
	if err != nil {
		logger.Warn("sqlite: record %s has unparseable upload_date %q", m.DocID, uploadDate)
	}
	m.UploadDate = t
	return m, nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
}
