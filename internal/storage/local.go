package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// LocalStorage keeps attachments in a directory on disk. Download URLs point
// at baseURL, which the HTTP API serves through Open.
type LocalStorage struct {
	logger   *slog.Logger
	basePath string
	baseURL  string
}

func NewLocalStorage(logger *slog.Logger, basePath, baseURL string) (*LocalStorage, error) {
	if err := os.MkdirAll(basePath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	return &LocalStorage{
		logger:   logger,
		basePath: basePath,
		baseURL:  strings.TrimRight(baseURL, "/"),
	}, nil
}

func (ls *LocalStorage) Upload(ctx context.Context, file File) (UploadResult, error) {
	key := objectKey(file.Name)

	fullPath, err := ls.resolve(key)
	if err != nil {
		return UploadResult{}, err
	}

	f, err := os.Create(fullPath)
	if err != nil {
		ls.logger.Error("failed to create local file", "path", fullPath, "error", err)
		return UploadResult{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, file.Body); err != nil {
		os.Remove(fullPath)
		ls.logger.Error("failed to write local file", "path", fullPath, "error", err)
		return UploadResult{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}

	return UploadResult{
		FileID:      key,
		FileName:    file.Name,
		DownloadURL: ls.baseURL + "/" + url.PathEscape(key),
	}, nil
}

// Open returns the stored file for key.
func (ls *LocalStorage) Open(key string) (*os.File, error) {
	fullPath, err := ls.resolve(key)
	if err != nil {
		return nil, err
	}

	f, err := os.Open(fullPath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrFileNotFound
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return f, nil
}

// resolve maps key to a path inside basePath, rejecting anything that escapes it.
func (ls *LocalStorage) resolve(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) {
		return "", ErrInvalidKey
	}

	absBasePath, err := filepath.Abs(ls.basePath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve base path: %w", err)
	}

	absFullPath := filepath.Join(absBasePath, key)
	rel, err := filepath.Rel(absBasePath, absFullPath)
	if err != nil || rel == "." || strings.HasPrefix(rel, "..") {
		return "", ErrInvalidKey
	}
	return absFullPath, nil
}

func sanitizeFilename(filename string) string {
	replacer := strings.NewReplacer(
		"/", "_", "\\", "_", "..", "_", ":", "_", "*", "_",
		"?", "_", "\"", "_", "<", "_", ">", "_", "|", "_",
	)
	return replacer.Replace(filename)
}
