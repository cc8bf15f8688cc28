package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aims-edu/portal-api/internal/models"
	"github.com/aims-edu/portal-api/pkg/config"
	appErrors "github.com/aims-edu/portal-api/pkg/errors"
)

type mockDocumentRepo struct {
	docs      map[string]*models.Document
	createErr error
	listed    []models.Document
}

func newMockDocumentRepo() *mockDocumentRepo {
	return &mockDocumentRepo{docs: make(map[string]*models.Document)}
}

func (m *mockDocumentRepo) Create(ctx context.Context, doc *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.docs[doc.ID] = doc
	return nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	doc, ok := m.docs[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return doc, nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) (bool, error) {
	if _, ok := m.docs[id]; !ok {
		return false, nil
	}
	delete(m.docs, id)
	return true, nil
}

func (m *mockDocumentRepo) ListByScope(ctx context.Context, classLevel, subject string) ([]models.Document, error) {
	return m.listed, nil
}

func (m *mockDocumentRepo) ListAll(ctx context.Context) ([]models.Document, error) {
	return m.listed, nil
}

type mockCache struct {
	sets        int
	invalidated []string
}

func (m *mockCache) Get(ctx context.Context, key string, dest interface{}) error {
	return appErrors.ErrCacheMiss
}

func (m *mockCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.sets++
	return nil
}

func (m *mockCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.invalidated = append(m.invalidated, pattern)
	return nil
}

type mockBlobStore struct {
	blobs   map[string][]byte
	putErr  error
	deleted []string
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{blobs: make(map[string][]byte)}
}

func (m *mockBlobStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	if m.putErr != nil {
		return m.putErr
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	m.blobs[key] = data
	return nil
}

func (m *mockBlobStore) Open(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := m.blobs[key]
	if !ok {
		return nil, errors.New("blob missing")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *mockBlobStore) Delete(ctx context.Context, key string) error {
	m.deleted = append(m.deleted, key)
	delete(m.blobs, key)
	return nil
}

func pdfBytes() []byte {
	return append([]byte("%PDF-1.4\n"), bytes.Repeat([]byte("a"), 256)...)
}

func newDocumentService(repo *mockDocumentRepo, cache *mockCache, blobs *mockBlobStore) *DocumentService {
	if cache == nil {
		cache = &mockCache{}
	}
	return NewDocumentService(repo, cache, blobs, &mockAudit{}, nil, zap.NewNop(),
		config.UploadsConfig{MaxFileSizeBytes: 10 << 20, AllowedMIMEs: []string{"application/pdf"}},
		testAccessConfig(),
		config.CacheConfig{DocumentListTTL: time.Minute},
		"/api/v1",
	)
}

func TestDocumentServiceUploadStoresBlobAndMetadata(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	cache := &mockCache{}
	svc := newDocumentService(repo, cache, blobs)

	content := pdfBytes()
	item, err := svc.Upload(context.Background(), UploadInput{
		Filename:   "algebra-notes.pdf",
		Size:       int64(len(content)),
		Body:       bytes.NewReader(content),
		ClassLevel: "Class 10",
		Subject:    "Math",
	}, &models.UserAccount{ID: "admin-1", Email: "admin@example.com", Role: models.RoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, "algebra-notes.pdf", item.Filename)
	assert.Equal(t, "application/pdf", repo.docs[item.ID].MimeType)
	assert.Len(t, blobs.blobs, 1)
	assert.NotEmpty(t, cache.invalidated)

	stored := blobs.blobs[repo.docs[item.ID].BlobRef]
	assert.Equal(t, content, stored)
}

func TestDocumentServiceUploadRejectsNonPDF(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	svc := newDocumentService(repo, nil, blobs)

	content := []byte("<html><body>not a pdf</body></html>")
	_, err := svc.Upload(context.Background(), UploadInput{
		Filename:   "page.pdf",
		Size:       int64(len(content)),
		Body:       bytes.NewReader(content),
		ClassLevel: "Class 10",
		Subject:    "Math",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, blobs.blobs)
	assert.Empty(t, repo.docs)
}

func TestDocumentServiceUploadRejectsOversize(t *testing.T) {
	svc := newDocumentService(newMockDocumentRepo(), nil, newMockBlobStore())

	_, err := svc.Upload(context.Background(), UploadInput{
		Filename:   "huge.pdf",
		Size:       11 << 20,
		Body:       bytes.NewReader(pdfBytes()),
		ClassLevel: "Class 10",
		Subject:    "Math",
	}, nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceUploadRemovesBlobWhenCatalogFails(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.createErr = errors.New("insert failed")
	blobs := newMockBlobStore()
	svc := newDocumentService(repo, nil, blobs)

	content := pdfBytes()
	_, err := svc.Upload(context.Background(), UploadInput{
		Filename:   "algebra-notes.pdf",
		Size:       int64(len(content)),
		Body:       bytes.NewReader(content),
		ClassLevel: "Class 10",
		Subject:    "Math",
	}, nil)
	require.Error(t, err)
	assert.Len(t, blobs.deleted, 1)
	assert.Empty(t, blobs.blobs)
}

func TestDocumentServiceDeleteRemovesMetadataFirst(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	cache := &mockCache{}
	svc := newDocumentService(repo, cache, blobs)

	repo.docs["doc-1"] = &models.Document{ID: "doc-1", ClassLevel: "Class 10", Subject: "Math", BlobRef: "documents/doc-1"}
	blobs.blobs["documents/doc-1"] = pdfBytes()

	err := svc.Delete(context.Background(), "doc-1", nil)
	require.NoError(t, err)
	assert.Empty(t, repo.docs)
	assert.Contains(t, blobs.deleted, "documents/doc-1")
	assert.NotEmpty(t, cache.invalidated)
}

func TestDocumentServiceDeleteUnknownID(t *testing.T) {
	svc := newDocumentService(newMockDocumentRepo(), nil, newMockBlobStore())

	err := svc.Delete(context.Background(), "missing", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceListForStudentUsesAssignedScope(t *testing.T) {
	repo := newMockDocumentRepo()
	repo.listed = []models.Document{{
		ID: "doc-1", OriginalName: "algebra-notes.pdf", ClassLevel: "Class 10", Subject: "Math",
	}}
	cache := &mockCache{}
	svc := newDocumentService(repo, cache, newMockBlobStore())

	class := "Class 10"
	subject := "Math"
	items, err := svc.ListForStudent(context.Background(), &models.UserAccount{
		Role: models.RoleStudent, ClassLevel: &class, Subject: &subject,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "/api/v1/documents/doc-1/file", items[0].DownloadPath)
	assert.Equal(t, 1, cache.sets)
}

func TestDocumentServiceListForStudentWithoutScope(t *testing.T) {
	svc := newDocumentService(newMockDocumentRepo(), nil, newMockBlobStore())

	_, err := svc.ListForStudent(context.Background(), &models.UserAccount{Role: models.RoleStudent})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestDocumentServiceFetchOpensBlob(t *testing.T) {
	repo := newMockDocumentRepo()
	blobs := newMockBlobStore()
	svc := newDocumentService(repo, nil, blobs)

	content := pdfBytes()
	repo.docs["doc-1"] = &models.Document{ID: "doc-1", OriginalName: "algebra-notes.pdf", MimeType: "application/pdf", BlobRef: "documents/doc-1"}
	blobs.blobs["documents/doc-1"] = content

	doc, body, err := svc.Fetch(context.Background(), "doc-1")
	require.NoError(t, err)
	defer body.Close()

	data, err := io.ReadAll(body)
	require.NoError(t, err)
	assert.Equal(t, content, data)
	assert.Equal(t, "algebra-notes.pdf", doc.OriginalName)
}
