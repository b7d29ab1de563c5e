package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type LocalConfig struct {
	BasePath string
	BaseURL  string
}

// LocalStorage keeps files under BasePath and serves them from BaseURL,
// the way an uploads directory behind a web server does.
type LocalStorage struct {
	config LocalConfig
	client *http.Client
}

func NewLocalStorage(config LocalConfig) (*LocalStorage, error) {
	if config.BasePath == "" {
		return nil, fmt.Errorf("base path is required")
	}

	if err := os.MkdirAll(config.BasePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create base path: %w", err)
	}

	config.BaseURL = strings.TrimSuffix(config.BaseURL, "/")

	return &LocalStorage{
		config: config,
		client: &http.Client{Timeout: 30 * time.Second},
	}, nil
}

func (s *LocalStorage) fullPath(path string) string {
	return filepath.Join(s.config.BasePath, filepath.FromSlash(strings.TrimPrefix(path, "/")))
}

func (s *LocalStorage) Save(ctx context.Context, path string, contents io.Reader, options ...Option) error {
	fullPath := s.fullPath(path)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(fullPath)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	if _, err := io.Copy(file, contents); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}

	return nil
}

func (s *LocalStorage) SaveFromURL(ctx context.Context, path string, urlStr string, options ...Option) error {
	if _, err := url.Parse(urlStr); err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, urlStr, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download file: status code %d", resp.StatusCode)
	}

	return s.Save(ctx, path, resp.Body, options...)
}

func (s *LocalStorage) Get(ctx context.Context, path string) (io.ReadCloser, error) {
	file, err := os.Open(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	return file, nil
}

func (s *LocalStorage) Exists(ctx context.Context, path string) (bool, error) {
	_, err := os.Stat(s.fullPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check file: %w", err)
	}

	return true, nil
}

// Delete is a no-op for files that are already gone.
func (s *LocalStorage) Delete(ctx context.Context, path string) error {
	err := os.Remove(s.fullPath(path))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete file: %w", err)
	}

	return nil
}

func (s *LocalStorage) URL(path string) string {
	path = strings.TrimPrefix(filepath.ToSlash(path), "/")
	if path == "" {
		return s.config.BaseURL
	}

	return s.config.BaseURL + "/" + path
}

func (s *LocalStorage) TemporaryURL(ctx context.Context, path string, expiry int64) (string, error) {
	return s.URL(path), nil
}
