// Package storage stores uploaded images and returns their public URL.
package storage

import (
	"context"
	"mime/multipart"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
)

type MinioStorage struct {
	client    *minio.Client
	bucket    string
	publicURL string
}

// NewMinioStorage serves objects from publicURL/bucket/key. publicURL
// defaults to the client endpoint.
func NewMinioStorage(client *minio.Client, bucket, publicURL string) *MinioStorage {
	if publicURL == "" {
		publicURL = client.EndpointURL().String()
	}
	return &MinioStorage{client: client, bucket: bucket, publicURL: strings.TrimRight(publicURL, "/")}
}

func objectKey(filename string) string {
	return uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

func (s *MinioStorage) Upload(ctx context.Context, file *multipart.FileHeader) (string, error) {
	f, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer f.Close()

	key := objectKey(file.Filename)
	_, err = s.client.PutObject(ctx, s.bucket, key, f, file.Size,
		minio.PutObjectOptions{ContentType: file.Header.Get("Content-Type")})
	if err != nil {
		return "", errors.Wrapf(err, "put object %s", key)
	}
	return s.publicURL + "/" + s.bucket + "/" + key, nil
}

func (s *MinioStorage) Delete(ctx context.Context, url string) error {
	key := KeyFromURL(url)
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return errors.Wrapf(err, "remove object %s", key)
	}
	return nil
}

// KeyFromURL returns the last path segment of an object URL.
func KeyFromURL(url string) string {
	if i := strings.IndexAny(url, "?#"); i >= 0 {
		url = url[:i]
	}
	key := path.Base(url)
	if key == "." || key == "/" {
		return ""
	}
	return key
}
