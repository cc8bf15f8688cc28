package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/internal/dto"
	"github.com/aims-edu/portal-api/internal/models"
	"github.com/aims-edu/portal-api/pkg/config"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
	"github.com/aims-edu/portal-api/pkg/storage"
)

type documentRepository interface {
	Create(ctx context.Context, doc *models.Document) error
	FindByID(ctx context.Context, id string) (*models.Document, error)
	Delete(ctx context.Context, id string) (bool, error)
	ListByScope(ctx context.Context, classLevel, subject string) ([]models.Document, error)
	ListAll(ctx context.Context) ([]models.Document, error)
}

type documentCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// UploadInput carries one incoming study material.
type UploadInput struct {
	Filename   string
	Size       int64
	Body       io.Reader
	ClassLevel string
	Subject    string
}

// DocumentService owns study material uploads, listings and downloads.
// An upload writes the blob first and the metadata row second; a
// metadata failure removes the blob again so the store never holds
// files the catalog does not know about.
type DocumentService struct {
	documents documentRepository
	cache     documentCache
	blobs     storage.BlobStore
	audit     auditWriter
	metrics   *MetricsService
	logger    *zap.Logger
	uploads   config.UploadsConfig
	access    config.AccessConfig
	listTTL   time.Duration
	basePath  string
}

// NewDocumentService constructs a DocumentService. basePath prefixes
// the download links in listings, e.g. "/api/v1".
func NewDocumentService(
	documents documentRepository,
	cache documentCache,
	blobs storage.BlobStore,
	audit auditWriter,
	metrics *MetricsService,
	logger *zap.Logger,
	uploads config.UploadsConfig,
	access config.AccessConfig,
	cacheCfg config.CacheConfig,
	basePath string,
) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DocumentService{
		documents: documents,
		cache:     cache,
		blobs:     blobs,
		audit:     audit,
		metrics:   metrics,
		logger:    logger,
		uploads:   uploads,
		access:    access,
		listTTL:   cacheCfg.DocumentListTTL,
		basePath:  basePath,
	}
}

// Upload validates, stores and catalogs a new study material.
func (s *DocumentService) Upload(ctx context.Context, input UploadInput, actor *models.UserAccount) (*dto.DocumentItem, error) {
	if input.Filename == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "filename is required")
	}
	if input.Size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}
	if input.Size > s.uploads.MaxFileSizeBytes {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("file exceeds the %d byte limit", s.uploads.MaxFileSizeBytes))
	}
	if !contains(s.access.ClassLevels, input.ClassLevel) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown class level")
	}
	if !contains(s.access.Subjects, input.Subject) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown subject")
	}

	// Sniff the real content type from the leading bytes; the declared
	// filename and header are not trusted.
	head := make([]byte, 512)
	n, err := io.ReadFull(input.Body, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	mimeType := http.DetectContentType(head[:n])
	if !contains(s.uploads.AllowedMIMEs, mimeType) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported file type %s", mimeType))
	}
	body := io.MultiReader(bytes.NewReader(head[:n]), input.Body)

	id := uuid.NewString()
	blobRef := path.Join("documents", id)
	if err := s.blobs.Put(ctx, blobRef, body, input.Size, mimeType); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store file")
	}

	doc := &models.Document{
		ID:           id,
		OriginalName: input.Filename,
		ClassLevel:   input.ClassLevel,
		Subject:      input.Subject,
		SizeBytes:    input.Size,
		MimeType:     mimeType,
		BlobRef:      blobRef,
	}
	if actor != nil {
		doc.UploadedBy = actor.Email
	}
	if err := s.documents.Create(ctx, doc); err != nil {
		if cleanupErr := s.blobs.Delete(ctx, blobRef); cleanupErr != nil {
			s.logger.Error("failed to remove blob after metadata failure",
				zap.String("blob_ref", blobRef), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to catalog file")
	}

	s.invalidateListings(ctx, input.ClassLevel, input.Subject)
	s.metrics.RecordUpload()
	s.recordAudit(ctx, actor, models.AuditActionDocumentUpload, doc.ID,
		fmt.Sprintf(`{"filename":%q,"class_level":%q,"subject":%q}`, doc.OriginalName, doc.ClassLevel, doc.Subject))

	item := s.toItem(doc)
	return &item, nil
}

// Delete removes a document from the catalog and the blob store. The
// metadata row goes first; a stranded blob is only a storage leak,
// never a phantom listing.
func (s *DocumentService) Delete(ctx context.Context, id string, actor *models.UserAccount) error {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	removed, err := s.documents.Delete(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	if !removed {
		return appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}

	if err := s.blobs.Delete(ctx, doc.BlobRef); err != nil {
		s.logger.Error("failed to delete blob for removed document",
			zap.String("blob_ref", doc.BlobRef), zap.Error(err))
	}

	s.invalidateListings(ctx, doc.ClassLevel, doc.Subject)
	s.recordAudit(ctx, actor, models.AuditActionDocumentDelete, id, `{"status":"deleted"}`)
	return nil
}

// ListForStudent returns the materials for the student's assigned
// class and subject, served from cache when fresh.
func (s *DocumentService) ListForStudent(ctx context.Context, account *models.UserAccount) ([]dto.DocumentItem, error) {
	if account == nil || account.ClassLevel == nil || account.Subject == nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "no study materials assigned")
	}
	classLevel := *account.ClassLevel
	subject := *account.Subject

	key := listingCacheKey(classLevel, subject)
	var cached []dto.DocumentItem
	if err := s.cache.Get(ctx, key, &cached); err == nil {
		s.metrics.RecordCacheOperation(true)
		return cached, nil
	} else if !errors.Is(err, appErrors.ErrCacheMiss) {
		s.logger.Warn("document listing cache read failed", zap.Error(err))
	}
	s.metrics.RecordCacheOperation(false)

	docs, err := s.documents.ListByScope(ctx, classLevel, subject)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}

	items := make([]dto.DocumentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, s.toItem(&doc))
	}

	if err := s.cache.Set(ctx, key, items, s.listTTL); err != nil {
		s.logger.Warn("document listing cache write failed", zap.Error(err))
	}
	return items, nil
}

// ListAll returns every document for the admin console.
func (s *DocumentService) ListAll(ctx context.Context) ([]dto.DocumentItem, error) {
	docs, err := s.documents.ListAll(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	items := make([]dto.DocumentItem, 0, len(docs))
	for _, doc := range docs {
		items = append(items, s.toItem(&doc))
	}
	return items, nil
}

// Fetch opens a document's content for download. The caller owns the
// returned reader.
func (s *DocumentService) Fetch(ctx context.Context, id string) (*models.Document, io.ReadCloser, error) {
	doc, err := s.documents.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}

	body, err := s.blobs.Open(ctx, doc.BlobRef)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			s.logger.Error("document blob missing", zap.String("id", doc.ID), zap.String("blob_ref", doc.BlobRef))
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document content unavailable")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return doc, body, nil
}

func (s *DocumentService) toItem(doc *models.Document) dto.DocumentItem {
	return dto.DocumentItem{
		ID:           doc.ID,
		Filename:     doc.OriginalName,
		ClassLevel:   doc.ClassLevel,
		Subject:      doc.Subject,
		SizeBytes:    doc.SizeBytes,
		UploadedAt:   doc.UploadedAt,
		UploadedBy:   doc.UploadedBy,
		DownloadPath: fmt.Sprintf("%s/documents/%s/file", s.basePath, doc.ID),
	}
}

func (s *DocumentService) invalidateListings(ctx context.Context, classLevel, subject string) {
	if err := s.cache.DeleteByPattern(ctx, listingCacheKey(classLevel, subject)); err != nil {
		s.logger.Warn("failed to invalidate document listing cache", zap.Error(err))
	}
}

func (s *DocumentService) recordAudit(ctx context.Context, actor *models.UserAccount, action, resourceID, newValues string) {
	log := &models.AuditLog{
		Action:     action,
		Resource:   "document",
		ResourceID: &resourceID,
		NewValues:  []byte(newValues),
	}
	if actor != nil {
		log.UserID = &actor.ID
	}
	if err := s.audit.Create(ctx, log); err != nil {
		s.logger.Warn("failed to record document audit log", zap.String("action", action), zap.Error(err))
	}
}

func listingCacheKey(classLevel, subject string) string {
	return fmt.Sprintf("documents:%s:%s", classLevel, subject)
}
