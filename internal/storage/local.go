package storage

import (
	"context"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-faster/errors"
)

// LocalStorage writes uploads to a directory served by the API under
// /images. Used when no object store is configured.
type LocalStorage struct {
	dir     string
	baseURL string
}

func NewLocalStorage(dir, serverURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create %s", dir)
	}
	return &LocalStorage{dir: dir, baseURL: strings.TrimRight(serverURL, "/") + "/images"}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

func (s *LocalStorage) Upload(_ context.Context, file *multipart.FileHeader) (string, error) {
	src, err := file.Open()
	if err != nil {
		return "", errors.Wrap(err, "open upload")
	}
	defer src.Close()

	key := objectKey(file.Filename)
	dst, err := os.Create(filepath.Join(s.dir, key))
	if err != nil {
		return "", errors.Wrap(err, "create file")
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", errors.Wrap(err, "write file")
	}
	return s.baseURL + "/" + key, nil
}

func (s *LocalStorage) Delete(_ context.Context, url string) error {
	key := KeyFromURL(url)
	if key == "" || !strings.HasPrefix(url, s.baseURL+"/") {
		return nil
	}
	err := os.Remove(filepath.Join(s.dir, key))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return errors.Wrap(err, "remove file")
	}
	return nil
}
