package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	b2GetUploadURLPath = "/b2api/v2/b2_get_upload_url"
	// b2 computes no checksum when the client asks it not to verify.
	b2SkipChecksum = "do_not_verify"
	// b2 infers the content type from the file name.
	b2AutoContentType = "b2/x-auto"
)

type B2Config struct {
	AuthorizeURL   string
	KeyID          string
	ApplicationKey string
	BucketID       string
	BucketName     string
	Timeout        time.Duration
}

// B2Authorization is the result of b2_authorize_account.
type B2Authorization struct {
	AuthorizationToken string `json:"authorizationToken"`
	APIURL             string `json:"apiUrl"`
	DownloadURL        string `json:"downloadUrl"`
}

// B2UploadSlot is the result of b2_get_upload_url.
type B2UploadSlot struct {
	UploadURL          string `json:"uploadUrl"`
	AuthorizationToken string `json:"authorizationToken"`
}

type B2UploadedFile struct {
	FileID   string `json:"fileId"`
	FileName string `json:"fileName"`
}

// B2Client performs the three-call Backblaze B2 upload. Nothing is retried.
type B2Client struct {
	logger *slog.Logger
	http   *resty.Client
	config B2Config
}

func NewB2Client(logger *slog.Logger, cfg B2Config) *B2Client {
	client := resty.New().
		SetRetryCount(0).
		SetHeader("Accept", "application/json")
	if cfg.Timeout > 0 {
		client.SetTimeout(cfg.Timeout)
	}

	return &B2Client{
		logger: logger,
		http:   client,
		config: cfg,
	}
}

// Authorize exchanges the application key for an account authorization token.
func (c *B2Client) Authorize(ctx context.Context) (B2Authorization, error) {
	var auth B2Authorization
	resp, err := c.http.R().
		SetContext(ctx).
		SetBasicAuth(c.config.KeyID, c.config.ApplicationKey).
		ForceContentType("application/json").
		SetResult(&auth).
		Get(c.config.AuthorizeURL)
	if err != nil {
		c.logger.Error("B2 authorization request failed", "error", err)
		return B2Authorization{}, fmt.Errorf("%w: %w", ErrAuthorizationFailed, err)
	}
	if resp.IsError() {
		c.logger.Error("B2 authorization rejected", "status", resp.StatusCode(), "body", resp.String())
		return B2Authorization{}, fmt.Errorf("%w: status %d", ErrAuthorizationFailed, resp.StatusCode())
	}

	return auth, nil
}

// GetUploadSlot asks for an upload URL and token for the configured bucket.
func (c *B2Client) GetUploadSlot(ctx context.Context, auth B2Authorization) (B2UploadSlot, error) {
	var slot B2UploadSlot
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", auth.AuthorizationToken).
		SetHeader("Content-Type", "application/json").
		SetBody(map[string]string{"bucketId": c.config.BucketID}).
		ForceContentType("application/json").
		SetResult(&slot).
		Post(strings.TrimRight(auth.APIURL, "/") + b2GetUploadURLPath)
	if err != nil {
		c.logger.Error("B2 get upload url request failed", "error", err)
		return B2UploadSlot{}, fmt.Errorf("%w: %w", ErrUploadSlotFailed, err)
	}
	if resp.IsError() {
		c.logger.Error("B2 get upload url rejected", "status", resp.StatusCode(), "body", resp.String())
		return B2UploadSlot{}, fmt.Errorf("%w: status %d", ErrUploadSlotFailed, resp.StatusCode())
	}

	return slot, nil
}

// UploadFile sends the file body to the upload slot. The file name header is
// URL-escaped and checksum verification is skipped.
func (c *B2Client) UploadFile(ctx context.Context, slot B2UploadSlot, file File) (B2UploadedFile, error) {
	contentType := file.Type
	if contentType == "" {
		contentType = b2AutoContentType
	}

	var uploaded B2UploadedFile
	resp, err := c.http.R().
		SetContext(ctx).
		SetHeader("Authorization", slot.AuthorizationToken).
		SetHeader("Content-Type", contentType).
		SetHeader("X-Bz-File-Name", encodeFileName(file.Name)).
		SetHeader("X-Bz-Content-Sha1", b2SkipChecksum).
		SetContentLength(true).
		SetBody(file.Body).
		ForceContentType("application/json").
		SetResult(&uploaded).
		Post(slot.UploadURL)
	if err != nil {
		c.logger.Error("B2 upload request failed", "file_name", file.Name, "error", err)
		return B2UploadedFile{}, fmt.Errorf("%w: %w", ErrUploadFailed, err)
	}
	if resp.IsError() {
		c.logger.Error("B2 upload rejected", "file_name", file.Name, "status", resp.StatusCode(), "body", resp.String())
		return B2UploadedFile{}, fmt.Errorf("%w: status %d", ErrUploadFailed, resp.StatusCode())
	}

	return uploaded, nil
}

// Upload runs authorize, get-upload-url and upload in sequence.
func (c *B2Client) Upload(ctx context.Context, file File) (UploadResult, error) {
	auth, err := c.Authorize(ctx)
	if err != nil {
		return UploadResult{}, err
	}

	slot, err := c.GetUploadSlot(ctx, auth)
	if err != nil {
		return UploadResult{}, err
	}

	uploaded, err := c.UploadFile(ctx, slot, file)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		FileID:      uploaded.FileID,
		FileName:    uploaded.FileName,
		DownloadURL: auth.DownloadURL + "/file/" + c.config.BucketName + "/" + uploaded.FileName,
	}, nil
}

// encodeFileName percent-encodes name the way B2 expects X-Bz-File-Name:
// everything but letters, digits and -_.!~*'() is escaped, spaces as %20.
func encodeFileName(name string) string {
	return fileNameUnescaper.Replace(url.QueryEscape(name))
}

var fileNameUnescaper = strings.NewReplacer(
	"+", "%20",
	"%21", "!",
	"%27", "'",
	"%28", "(",
	"%29", ")",
	"%2A", "*",
)
