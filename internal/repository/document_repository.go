package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/aims-edu/portal-api/internal/models"
)

const documentColumns = `id, original_name, class_level, subject, size_bytes, mime_type, blob_ref, uploaded_by, uploaded_at`

// DocumentRepository provides database access for study material metadata.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository creates a new instance of DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// Create inserts document metadata.
func (r *DocumentRepository) Create(ctx context.Context, doc *models.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.UploadedAt.IsZero() {
		doc.UploadedAt = time.Now().UTC()
	}
	const query = `INSERT INTO documents (id, original_name, class_level, subject, size_bytes, mime_type, blob_ref, uploaded_by, uploaded_at)
		VALUES (:id, :original_name, :class_level, :subject, :size_bytes, :mime_type, :blob_ref, :uploaded_by, :uploaded_at)`
	if _, err := r.db.NamedExecContext(ctx, query, doc); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// FindByID returns a document by identifier, or sql.ErrNoRows.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE id = $1 LIMIT 1`, documentColumns)
	var doc models.Document
	if err := r.db.GetContext(ctx, &doc, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find document by id: %w", err)
	}
	return &doc, nil
}

// Delete removes document metadata. Returns false when the id was absent.
func (r *DocumentRepository) Delete(ctx context.Context, id string) (bool, error) {
	const query = `DELETE FROM documents WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return affected == 1, nil
}

// ListByScope returns documents for a class/subject pair, newest first.
func (r *DocumentRepository) ListByScope(ctx context.Context, classLevel, subject string) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents WHERE class_level = $1 AND subject = $2 ORDER BY uploaded_at DESC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query, classLevel, subject); err != nil {
		return nil, fmt.Errorf("list documents by scope: %w", err)
	}
	return docs, nil
}

// ListAll returns every document, newest first.
func (r *DocumentRepository) ListAll(ctx context.Context) ([]models.Document, error) {
	query := fmt.Sprintf(`SELECT %s FROM documents ORDER BY uploaded_at DESC`, documentColumns)
	var docs []models.Document
	if err := r.db.SelectContext(ctx, &docs, query); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}
