// Package storage archives raw lead import files in MinIO so a bad import
// can always be traced back to the file that caused it.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"mime"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"terratip_backend/platform/config"
)

// ImportArchiver stores uploaded import files.
type ImportArchiver struct {
	client *minio.Client
	bucket string
}

// NewImportArchiver creates the archiver from storage configuration.
func NewImportArchiver(cfg config.StorageConfig) (*ImportArchiver, error) {
	if !cfg.IsMinIOEnabled() {
		return nil, fmt.Errorf("MinIO is not configured")
	}

	client, err := minio.New(cfg.GetMinIOEndpoint(), &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.GetMinIOAccessKey(), cfg.GetMinIOSecretKey(), ""),
		Secure: cfg.GetMinIOUseSSL(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return &ImportArchiver{
		client: client,
		bucket: cfg.GetMinioBucketImportArchive(),
	}, nil
}

// EnsureBucketExists creates the archive bucket if it doesn't exist.
func (a *ImportArchiver) EnsureBucketExists(ctx context.Context) error {
	exists, err := a.client.BucketExists(ctx, a.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := a.client.MakeBucket(ctx, a.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", a.bucket, err)
		}
	}

	return nil
}

// Archive stores the file under a date-prefixed unique key and returns it.
func (a *ImportArchiver) Archive(ctx context.Context, filename string, data []byte) (string, error) {
	ext := path.Ext(filename)
	baseName := strings.TrimSuffix(filepath.Base(filename), ext)
	key := fmt.Sprintf("%s/%s_%s%s",
		time.Now().Format("2006-01-02"), baseName, uuid.New().String()[:8], ext)

	contentType := mime.TypeByExtension(ext)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err := a.client.PutObject(ctx, a.bucket, key, bytes.NewReader(data), int64(len(data)),
		minio.PutObjectOptions{ContentType: contentType})
	if err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", filename, err)
	}

	return key, nil
}
