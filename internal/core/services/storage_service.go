package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/anetioficial/comunidade/internal/adapters/persistence/models"
	"github.com/anetioficial/comunidade/internal/adapters/persistence/repositories"
	"github.com/anetioficial/comunidade/internal/config"

	"github.com/google/uuid"
)

// Storage errors
var (
	ErrDocumentNotFound    = errors.New("document not found")
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrFileTooLarge        = errors.New("file too large")
)

// MaxDocumentSize caps uploads at 10MB, matching the registration form
const MaxDocumentSize = 10 * 1024 * 1024

// allowedMimeTypes lists the accepted document formats
var allowedMimeTypes = map[string]bool{
	"application/pdf": true,
	"image/jpeg":      true,
	"image/jpg":       true,
	"image/png":       true,
	"application/msword": true,
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
}

// StorageService persists uploaded files to the content store and records
// metadata rows linked to a pending registration
type StorageService struct {
	uploadDir string
	docRepo   repositories.DocumentRepository
}

// NewStorageService creates a new storage service and ensures the upload
// directory exists
func NewStorageService(cfg config.StorageConfig, docRepo repositories.DocumentRepository) (*StorageService, error) {
	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return &StorageService{
		uploadDir: cfg.UploadDir,
		docRepo:   docRepo,
	}, nil
}

// SaveRegistrationDocument stores an uploaded file under a generated name
// and records its metadata against the registration
func (s *StorageService) SaveRegistrationDocument(ctx context.Context, registrationID uint, documentType string, fh *multipart.FileHeader) (*models.Document, error) {
	if fh.Size > MaxDocumentSize {
		return nil, ErrFileTooLarge
	}

	mimeType := fh.Header.Get("Content-Type")
	if !allowedMimeTypes[mimeType] {
		return nil, ErrUnsupportedFileType
	}

	storedName := uuid.NewString() + filepath.Ext(fh.Filename)
	if err := s.writeFile(fh, storedName); err != nil {
		return nil, err
	}

	doc := &models.Document{
		RegistrationID: &registrationID,
		DocumentType:   documentType,
		FileName:       fh.Filename,
		FilePath:       storedName,
		MimeType:       mimeType,
		FileSize:       fh.Size,
	}

	if err := s.docRepo.Create(ctx, doc); err != nil {
		// keep the content store consistent with the metadata
		os.Remove(filepath.Join(s.uploadDir, storedName))
		return nil, err
	}

	return doc, nil
}

// ReadDocument returns the stored bytes of a document
func (s *StorageService) ReadDocument(doc *models.Document) ([]byte, error) {
	content, err := os.ReadFile(filepath.Join(s.uploadDir, doc.FilePath))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrDocumentNotFound
		}
		return nil, err
	}
	return content, nil
}

// writeFile copies the uploaded content into the store
func (s *StorageService) writeFile(fh *multipart.FileHeader, storedName string) error {
	src, err := fh.Open()
	if err != nil {
		return fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(filepath.Join(s.uploadDir, storedName))
	if err != nil {
		return fmt.Errorf("failed to create stored file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return fmt.Errorf("failed to write stored file: %w", err)
	}
	return nil
}
