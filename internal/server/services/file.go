package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"devfolio/internal/common"
	"devfolio/internal/logging"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/repomanager"
)

// BlobStore is the object-storage surface FileService needs. Satisfied by
// blob.Store; tests provide fakes.
type BlobStore interface {
	PresignPut(ctx context.Context) (key string, url string, err error)
	PresignGet(ctx context.Context, key string) (string, error)
}

// BlobDeleteEnqueuer schedules a best-effort background deletion of a stored
// object. Satisfied by tasks.Enqueuer.
type BlobDeleteEnqueuer interface {
	EnqueueBlobDelete(ctx context.Context, storageKey string) error
}

// FileService manages file metadata rows and presigned access to the blobs
// behind them. Content flows client <-> store directly; the server only sees
// keys and URLs.
type FileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	store       BlobStore
	enqueuer    BlobDeleteEnqueuer
	logger      logging.Logger
}

func NewFileService(db *sql.DB, m repomanager.RepositoryManager, store BlobStore, enqueuer BlobDeleteEnqueuer, logger logging.Logger) *FileService {
	return &FileService{db: db, repomanager: m, store: store, enqueuer: enqueuer, logger: logger}
}

// Upload is the pair a client needs to push a blob: the storage key to
// confirm later and the presigned PUT URL to upload to.
type Upload struct {
	StorageKey string
	URL        string
}

// RequestUpload issues a presigned PUT URL with a fresh storage key. No row
// is written yet; the client confirms after the upload succeeds.
func (s *FileService) RequestUpload(ctx context.Context) (*Upload, error) {
	key, url, err := s.store.PresignPut(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: presign upload: %v", common.ErrUnavailable, err)
	}
	return &Upload{StorageKey: key, URL: url}, nil
}

// ConfirmUpload records metadata for a blob the client finished uploading.
func (s *FileService) ConfirmUpload(ctx context.Context, ownerID int64, storageKey, fileName, contentType string, size int64) (*models.FileObject, error) {
	if strings.TrimSpace(storageKey) == "" {
		return nil, fmt.Errorf("%w: storage key is required", common.ErrValidation)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size", common.ErrValidation)
	}
	return s.repomanager.Files(s.db).Create(ctx, &models.FileObject{
		OwnerID:     ownerID,
		StorageKey:  storageKey,
		FileName:    fileName,
		ContentType: contentType,
		Size:        size,
	})
}

// GetDownloadURL returns a presigned GET URL for a stored file.
func (s *FileService) GetDownloadURL(ctx context.Context, fileID int64) (string, error) {
	f, err := s.repomanager.Files(s.db).GetByID(ctx, fileID)
	if err != nil {
		return "", err
	}
	url, err := s.store.PresignGet(ctx, f.StorageKey)
	if err != nil {
		return "", fmt.Errorf("%w: presign download: %v", common.ErrUnavailable, err)
	}
	return url, nil
}

// ListFiles returns metadata for the caller's uploads.
func (s *FileService) ListFiles(ctx context.Context, ownerID int64) ([]*models.FileObject, error) {
	return s.repomanager.Files(s.db).ListByOwner(ctx, ownerID)
}

// DeleteFile removes the metadata row and schedules blob removal in the
// background. The blob deletion is fire-and-forget: an enqueue failure is
// logged but never fails the delete.
func (s *FileService) DeleteFile(ctx context.Context, callerID, fileID int64) error {
	repo := s.repomanager.Files(s.db)

	f, err := repo.GetByID(ctx, fileID)
	if err != nil {
		return err
	}
	if f.OwnerID != callerID {
		return common.ErrForbidden
	}
	if err := repo.Delete(ctx, fileID); err != nil {
		return err
	}

	if s.enqueuer != nil {
		if err := s.enqueuer.EnqueueBlobDelete(ctx, f.StorageKey); err != nil {
			s.logger.Warn(ctx, "failed to enqueue blob deletion", "storage_key", f.StorageKey, "error", err)
		}
	}
	return nil
}
