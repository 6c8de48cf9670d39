package corpus

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "github.com/mattn/go-sqlite3"
)

const (
	documentsTable = "documents"
	termsTable     = "terms"
	postingsTable  = "postings"

	createDocumentsTable = `CREATE TABLE IF NOT EXISTS ` + documentsTable + ` (
		"doc_nb" INTEGER PRIMARY KEY,
		"external_id" INTEGER NOT NULL,
		"label" INTEGER NOT NULL,
		"length" INTEGER NOT NULL)`
	createTermsTable = `CREATE TABLE IF NOT EXISTS ` + termsTable + ` (
		"id" INTEGER PRIMARY KEY ASC,
		"text" TEXT NOT NULL,
		UNIQUE("text"))`
	createPostingsTable = `CREATE TABLE IF NOT EXISTS ` + postingsTable + ` (
		"doc_nb" INTEGER NOT NULL,
		"term_id" INTEGER NOT NULL,
		"freq" INTEGER NOT NULL,
		FOREIGN KEY("doc_nb") REFERENCES ` + documentsTable + `("doc_nb"),
		FOREIGN KEY("term_id") REFERENCES ` + termsTable + `("id"),
		PRIMARY KEY("doc_nb", "term_id"))`

	countDocumentsQuery = `SELECT COUNT(*) FROM ` + documentsTable
	countTermsQuery     = `SELECT COUNT(*) FROM ` + termsTable
	documentQuery       = `SELECT "external_id", "label", "length" FROM ` + documentsTable + ` WHERE "doc_nb" = ?`
	postingsQuery       = `SELECT t."text", p."freq" FROM ` + postingsTable + ` p JOIN ` + termsTable + ` t ON t."id" = p."term_id" WHERE p."doc_nb" = ?`
	insertDocumentQuery = `INSERT INTO ` + documentsTable + ` ("doc_nb", "external_id", "label", "length") VALUES (?, ?, ?, ?)`
	insertTermQuery     = `INSERT OR IGNORE INTO ` + termsTable + ` ("text") VALUES (?)`
	termIDQuery         = `SELECT "id" FROM ` + termsTable + ` WHERE "text" = ?`
	insertPostingQuery  = `INSERT INTO ` + postingsTable + ` ("doc_nb", "term_id", "freq") VALUES (?, ?, ?)`
)

// SQLiteIndex stores the corpus index in a SQLite database file
type SQLiteIndex struct {
	mu            sync.Mutex
	db            *sql.DB
	documentQuery *sql.Stmt
	postingsQuery *sql.Stmt
	nextDoc       int
	termIDs       map[string]int64
}

// OpenSQLiteIndex opens an existing index
func OpenSQLiteIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%w at %s", ErrIndexNotFound, path)
	}
	return openSQLiteIndex(ctx, path)
}

// CreateSQLiteIndex creates an empty index, replacing any index at path
func CreateSQLiteIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create index directory: %w", err)
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to remove previous index: %w", err)
	}
	return openSQLiteIndex(ctx, path)
}

func openSQLiteIndex(ctx context.Context, path string) (*SQLiteIndex, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open index: %w", err)
	}
	// Single writer; sqlite serializes anyway.
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{createDocumentsTable, createTermsTable, createPostingsTable} {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create index tables: %w", err)
		}
	}

	s := &SQLiteIndex{
		db:      db,
		termIDs: make(map[string]int64),
	}
	if err := db.QueryRowContext(ctx, countDocumentsQuery).Scan(&s.nextDoc); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	s.documentQuery, err = db.PrepareContext(ctx, documentQuery)
	if err != nil {
		db.Close()
		return nil, err
	}
	s.postingsQuery, err = db.PrepareContext(ctx, postingsQuery)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteIndex) NumDocuments(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countDocumentsQuery).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteIndex) NumDistinctTerms(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, countTermsQuery).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (s *SQLiteIndex) Document(ctx context.Context, docNb int) (*Document, error) {
	doc := &Document{Number: docNb}
	err := s.documentQuery.QueryRowContext(ctx, docNb).Scan(&doc.ExternalID, &doc.Label, &doc.Length)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, docNb)
	} else if err != nil {
		return nil, err
	}

	rows, err := s.postingsQuery.QueryContext(ctx, docNb)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	doc.Terms = make(map[string]int)
	for rows.Next() {
		var term string
		var freq int
		if err := rows.Scan(&term, &freq); err != nil {
			return nil, err
		}
		doc.Terms[term] = freq
	}
	return doc, rows.Err()
}

func (s *SQLiteIndex) AddDocument(ctx context.Context, externalID, label int, terms map[string]int) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	docNb := s.nextDoc
	vector := make(map[string]int, len(terms))
	for term, freq := range terms {
		if freq > 0 {
			vector[term] = freq
		}
	}
	if _, err := tx.ExecContext(ctx, insertDocumentQuery, docNb, externalID, label, documentLength(vector)); err != nil {
		tx.Rollback()
		return 0, fmt.Errorf("failed to insert document: %w", err)
	}

	added := make(map[string]int64)
	for term, freq := range vector {
		id, ok := s.termIDs[term]
		if !ok {
			if _, err := tx.ExecContext(ctx, insertTermQuery, term); err != nil {
				tx.Rollback()
				return 0, fmt.Errorf("failed to insert term: %w", err)
			}
			if err := tx.QueryRowContext(ctx, termIDQuery, term).Scan(&id); err != nil {
				tx.Rollback()
				return 0, fmt.Errorf("failed to look up term: %w", err)
			}
			added[term] = id
		}
		if _, err := tx.ExecContext(ctx, insertPostingQuery, docNb, id, freq); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("failed to insert posting: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}

	// Only cache ids once they are committed.
	for term, id := range added {
		s.termIDs[term] = id
	}
	s.nextDoc++
	return docNb, nil
}

func (s *SQLiteIndex) Close() error {
	s.documentQuery.Close()
	s.postingsQuery.Close()
	return s.db.Close()
}

var _ Index = (*SQLiteIndex)(nil)
