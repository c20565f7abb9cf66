package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ganot/quickssh/internal/repository"
)

// DocumentRepository implements repository.DocumentRepository for SQLite
type DocumentRepository struct {
	db *DB
}

// NewDocumentRepository creates a new DocumentRepository
func NewDocumentRepository(db *DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Get retrieves a document by name
func (r *DocumentRepository) Get(ctx context.Context, name string) (*repository.Document, error) {
	query := `
		SELECT name, content, format, revision, updated_at
		FROM documents
		WHERE name = ?
	`

	var doc repository.Document
	err := r.db.QueryRowContext(ctx, query, name).Scan(
		&doc.Name,
		&doc.Content,
		&doc.Format,
		&doc.Revision,
		&doc.UpdatedAt,
	)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document: %w", err)
	}

	return &doc, nil
}

// Put stores a document. A negative expectedRevision overwrites
// unconditionally; zero requires that the document does not exist yet;
// any other value must match the stored revision. On success doc.Revision
// and doc.UpdatedAt are updated.
func (r *DocumentRepository) Put(ctx context.Context, doc *repository.Document, expectedRevision int64) error {
	if doc == nil || doc.Name == "" {
		return repository.ErrInvalidInput
	}

	now := time.Now()

	switch {
	case expectedRevision < 0:
		query := `
			INSERT INTO documents (name, content, format, revision, updated_at)
			VALUES (?, ?, ?, 1, ?)
			ON CONFLICT(name) DO UPDATE SET
				content = excluded.content,
				format = excluded.format,
				revision = documents.revision + 1,
				updated_at = excluded.updated_at
			RETURNING revision
		`
		if err := r.db.QueryRowContext(ctx, query, doc.Name, doc.Content, doc.Format, now).Scan(&doc.Revision); err != nil {
			return fmt.Errorf("failed to put document: %w", err)
		}

	case expectedRevision == 0:
		query := `
			INSERT INTO documents (name, content, format, revision, updated_at)
			VALUES (?, ?, ?, 1, ?)
		`
		if _, err := r.db.ExecContext(ctx, query, doc.Name, doc.Content, doc.Format, now); err != nil {
			if isUniqueViolation(err) {
				return repository.ErrConflict
			}
			return fmt.Errorf("failed to create document: %w", err)
		}
		doc.Revision = 1

	default:
		query := `
			UPDATE documents
			SET content = ?, format = ?, revision = revision + 1, updated_at = ?
			WHERE name = ? AND revision = ?
		`
		result, err := r.db.ExecContext(ctx, query, doc.Content, doc.Format, now, doc.Name, expectedRevision)
		if err != nil {
			return fmt.Errorf("failed to update document: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rows == 0 {
			return repository.ErrConflict
		}
		doc.Revision = expectedRevision + 1
	}

	doc.UpdatedAt = now
	return nil
}

// Delete removes a document
func (r *DocumentRepository) Delete(ctx context.Context, name string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE name = ?", name)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// DocumentBackend stores the sessions document and the rendered menu as
// rows of the documents table. Writes of the sessions document are
// rejected with repository.ErrConflict when the row changed since the
// last Read.
type DocumentBackend struct {
	repo     repository.DocumentRepository
	name     string
	menuName string
	format   string

	mu       sync.Mutex
	revision int64
}

// NewDocumentBackend creates a backend for the named sessions document.
func NewDocumentBackend(repo repository.DocumentRepository, name, format string) *DocumentBackend {
	return &DocumentBackend{repo: repo, name: name, menuName: name + ".menu", format: format}
}

// Read returns the sessions document.
func (b *DocumentBackend) Read(ctx context.Context) ([]byte, error) {
	doc, err := b.repo.Get(ctx, b.name)
	b.mu.Lock()
	defer b.mu.Unlock()
	if errors.Is(err, repository.ErrNotFound) {
		b.revision = 0
		return nil, err
	}
	if err != nil {
		return nil, err
	}
	b.revision = doc.Revision
	return doc.Content, nil
}

// Write replaces the sessions document.
func (b *DocumentBackend) Write(ctx context.Context, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	doc := &repository.Document{Name: b.name, Content: data, Format: b.format}
	if err := b.repo.Put(ctx, doc, b.revision); err != nil {
		return err
	}
	b.revision = doc.Revision
	return nil
}

// WriteMenu replaces the rendered menu document.
func (b *DocumentBackend) WriteMenu(ctx context.Context, data []byte) error {
	return b.repo.Put(ctx, &repository.Document{Name: b.menuName, Content: data, Format: "json"}, -1)
}

// ReadMenu returns the last rendered menu.
func (b *DocumentBackend) ReadMenu(ctx context.Context) ([]byte, error) {
	doc, err := b.repo.Get(ctx, b.menuName)
	if err != nil {
		return nil, err
	}
	return doc.Content, nil
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
