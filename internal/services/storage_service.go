// internal/services/storage_service.go
package services

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/google/uuid"

	"github.com/javajoker/ideamarket-backend/internal/apperrors"
	"github.com/javajoker/ideamarket-backend/internal/config"
	"github.com/javajoker/ideamarket-backend/internal/i18n"
	"github.com/javajoker/ideamarket-backend/internal/utils"
)

// ImageStore turns an image reference supplied by a client into the public
// URL stored on an idea.
type ImageStore interface {
	UploadImage(ctx context.Context, ownerID uuid.UUID, image string) (string, error)
}

const maxImageSize = 10 * 1024 * 1024 // 10MB

type StorageService struct {
	s3Client s3iface.S3API
	config   *config.Config
}

func NewStorageService(config *config.Config) (*StorageService, error) {
	if config.AWS.AccessKeyID == "" {
		// Return service without S3 for local development
		return &StorageService{config: config}, nil
	}

	// Create AWS session
	sess, err := session.NewSession(&aws.Config{
		Region: aws.String(config.AWS.Region),
		Credentials: credentials.NewStaticCredentials(
			config.AWS.AccessKeyID,
			config.AWS.SecretAccessKey,
			"",
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS session: %w", err)
	}

	return &StorageService{
		s3Client: s3.New(sess),
		config:   config,
	}, nil
}

// NewStorageServiceWithClient is used when the S3 client is built elsewhere.
func NewStorageServiceWithClient(config *config.Config, client s3iface.S3API) *StorageService {
	return &StorageService{s3Client: client, config: config}
}

// UploadImage accepts either an http(s) URL, stored as is, or a
// data:image/<ext>;base64 URI, which is decoded, checked and uploaded.
func (s *StorageService) UploadImage(ctx context.Context, ownerID uuid.UUID, image string) (string, error) {
	if strings.HasPrefix(image, "https://") || strings.HasPrefix(image, "http://") {
		return image, nil
	}

	ext, data, err := decodeDataURI(image)
	if err != nil {
		return "", apperrors.Wrap(apperrors.KindValidation, i18n.KeyValidationImage, "decode image", err)
	}

	if len(data) > maxImageSize {
		return "", apperrors.Validation(i18n.KeyValidationImage,
			fmt.Sprintf("image size %d bytes exceeds maximum allowed size %d bytes", len(data), maxImageSize))
	}

	if !isValidImageType(data) {
		return "", apperrors.Validation(i18n.KeyValidationImage, "invalid image file")
	}

	key, err := s.generateKey(ownerID, ext)
	if err != nil {
		return "", apperrors.Transient(i18n.KeyTransientError, "generate image key", err)
	}
	contentType := http.DetectContentType(data)

	// Upload to S3 or local storage
	if s.s3Client != nil {
		return s.uploadToS3(ctx, data, key, contentType)
	}
	return s.uploadToLocal(data, key)
}

func (s *StorageService) uploadToS3(ctx context.Context, data []byte, key, contentType string) (string, error) {
	_, err := s.s3Client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.config.AWS.S3Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
		ACL:           aws.String("public-read"),
	})
	if err != nil {
		return "", apperrors.Transient(i18n.KeyTransientError, "upload image to S3", err)
	}

	return s.getS3URL(key), nil
}

func (s *StorageService) uploadToLocal(data []byte, key string) (string, error) {
	path := filepath.Join(s.config.Server.UploadsDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", apperrors.Transient(i18n.KeyTransientError, "create upload directory", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", apperrors.Transient(i18n.KeyTransientError, "write image", err)
	}

	return fmt.Sprintf("http://%s:%s/uploads/%s", s.config.Server.Host, s.config.Server.Port, key), nil
}

// generateKey builds "<owner>/<unix millis>_<random>.<ext>".
func (s *StorageService) generateKey(ownerID uuid.UUID, ext string) (string, error) {
	suffix, err := utils.GenerateRandomString(6)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s/%d_%s.%s", ownerID, time.Now().UnixMilli(), suffix, ext), nil
}

func (s *StorageService) getS3URL(key string) string {
	if s.config.AWS.CloudFrontURL != "" {
		return fmt.Sprintf("%s/%s", s.config.AWS.CloudFrontURL, key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s",
		s.config.AWS.S3Bucket, s.config.AWS.Region, key)
}

var allowedImageExts = map[string]string{
	"jpeg": "jpg",
	"jpg":  "jpg",
	"png":  "png",
	"gif":  "gif",
	"webp": "webp",
}

func decodeDataURI(uri string) (string, []byte, error) {
	const prefix = "data:image/"
	if !strings.HasPrefix(uri, prefix) {
		return "", nil, fmt.Errorf("not an image data URI")
	}

	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, prefix), ",")
	if !ok {
		return "", nil, fmt.Errorf("data URI has no payload")
	}

	mediaType, encoding, ok := strings.Cut(header, ";")
	if !ok || encoding != "base64" {
		return "", nil, fmt.Errorf("data URI must be base64 encoded")
	}

	ext, ok := allowedImageExts[strings.ToLower(mediaType)]
	if !ok {
		return "", nil, fmt.Errorf("image type %s is not allowed", mediaType)
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
	}
	return ext, data, nil
}

func isValidImageType(buffer []byte) bool {
	// JPEG
	if len(buffer) >= 3 && buffer[0] == 0xFF && buffer[1] == 0xD8 && buffer[2] == 0xFF {
		return true
	}

	// PNG
	if len(buffer) >= 8 && bytes.Equal(buffer[:8], []byte{0x89, 'P', 'N', 'G', 0x0D, 0x0A, 0x1A, 0x0A}) {
		return true
	}

	// GIF
	if len(buffer) >= 6 && (string(buffer[:6]) == "GIF87a" || string(buffer[:6]) == "GIF89a") {
		return true
	}

	// WEBP
	if len(buffer) >= 12 && string(buffer[:4]) == "RIFF" && string(buffer[8:12]) == "WEBP" {
		return true
	}

	return false
}
