// internal/services/storage_service.go
package services

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tradebridge/ptt-backend/internal/apperrors"
	"github.com/tradebridge/ptt-backend/internal/config"
)

// StorageService holds the trade documents (commercial invoice, bill of
// lading, packing list, ...) an exporter attaches to a transferred PTT.
// Backed by S3; falls back to local disk when AWS credentials are absent.
type StorageService struct {
	s3Client *s3.S3
	config   *config.Config
}

type UploadResult struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Key  string `json:"key"`
	Size int64  `json:"size"`
}

const (
	documentFolder  = "ptt-documents"
	maxDocumentSize = 20 << 20 // 20 MB
)

var allowedDocumentTypes = []string{".pdf", ".png", ".jpg", ".jpeg", ".tiff"}

func NewStorageService(cfg *config.Config) *StorageService {
	if cfg.AWS.AccessKeyID == "" {
		// Local development without S3
		return &StorageService{config: cfg}
	}

	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(cfg.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			cfg.AWS.AccessKeyID,
			cfg.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		logrus.WithError(err).Warn("Failed to create AWS session, falling back to local document storage")
		return &StorageService{config: cfg}
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   cfg,
	}
}

// UploadDocument stores one trade document and returns the name/URL pair the
// exporter then submits with the upload-documents transition.
func (s *StorageService) UploadDocument(file multipart.File, header *multipart.FileHeader) (*UploadResult, error) {
	if header.Size > maxDocumentSize {
		return nil, apperrors.InvalidInput("document exceeds the %d MB size limit", maxDocumentSize>>20)
	}

	ext := strings.ToLower(filepath.Ext(header.Filename))
	allowed := false
	for _, allowedType := range allowedDocumentTypes {
		if ext == allowedType {
			allowed = true
			break
		}
	}
	if !allowed {
		return nil, apperrors.InvalidInput("document type %s is not allowed", ext)
	}

	key := s.generateKey(header.Filename)

	fileBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.Internal("failed to read document", err)
	}

	if s.s3Client != nil {
		return s.uploadToS3(fileBytes, key, header)
	}
	return s.uploadToLocal(fileBytes, key, header)
}

func (s *StorageService) uploadToS3(fileBytes []byte, key string, header *multipart.FileHeader) (*UploadResult, error) {
	params := &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(fileBytes),
		ContentType:   aws.String(header.Header.Get("Content-Type")),
		ContentLength: aws.Int64(int64(len(fileBytes))),
	}

	if _, err := s.s3Client.PutObject(params); err != nil {
		return nil, apperrors.Internal("failed to upload document to S3", err)
	}

	url := fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.config.AWS.S3Bucket, s.config.AWS.Region, key)
	if s.config.AWS.CloudFrontURL != "" {
		url = fmt.Sprintf("%s/%s", strings.TrimRight(s.config.AWS.CloudFrontURL, "/"), key)
	}

	return &UploadResult{
		Name: header.Filename,
		URL:  url,
		Key:  key,
		Size: int64(len(fileBytes)),
	}, nil
}

func (s *StorageService) uploadToLocal(fileBytes []byte, key string, header *multipart.FileHeader) (*UploadResult, error) {
	localPath := filepath.Join("uploads", key)
	if err := os.MkdirAll(filepath.Dir(localPath), 0o755); err != nil {
		return nil, apperrors.Internal("failed to create upload directory", err)
	}
	if err := os.WriteFile(localPath, fileBytes, 0o644); err != nil {
		return nil, apperrors.Internal("failed to write document", err)
	}

	return &UploadResult{
		Name: header.Filename,
		URL:  "/" + filepath.ToSlash(localPath),
		Key:  key,
		Size: int64(len(fileBytes)),
	}, nil
}

func (s *StorageService) generateKey(filename string) string {
	ext := filepath.Ext(filename)
	return fmt.Sprintf("%s/%s/%s%s", documentFolder, time.Now().UTC().Format("2006/01"), uuid.New().String(), ext)
}
