// Package storage uploads attachment blobs to object storage and reports where
// they can be downloaded from.
package storage

import (
	"context"
	"errors"
	"io"
)

var (
	ErrAuthorizationFailed = errors.New("storage: authorization failed")
	ErrUploadSlotFailed    = errors.New("storage: failed to get upload url")
	ErrUploadFailed        = errors.New("storage: upload failed")
	ErrFileNotFound        = errors.New("storage: file not found")
	ErrInvalidKey          = errors.New("storage: invalid key")
)

// File is a blob to upload. Size is what the caller reports; Body is read once.
type File struct {
	Name string
	Type string
	Size int64
	Body io.Reader
}

type UploadResult struct {
	FileID      string `json:"fileId"`
	FileName    string `json:"fileName"`
	DownloadURL string `json:"downloadUrl"`
}

// Uploader stores a file and returns its identifiers and a download URL.
type Uploader interface {
	Upload(ctx context.Context, file File) (UploadResult, error)
}

type StorageType string

const (
	StorageTypeB2    StorageType = "b2"
	StorageTypeS3    StorageType = "s3"
	StorageTypeLocal StorageType = "local"
)
