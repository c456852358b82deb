package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/freekieb7/casetrack/internal/storage"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileHandler_Serve(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	local, err := storage.NewLocalStorage(logger, t.TempDir(), "/files")
	require.NoError(t, err)

	result, err := local.Upload(context.Background(), storage.File{Name: "my notes.txt", Body: strings.NewReader("hello")})
	require.NoError(t, err)

	app := fiber.New()
	app.Get("/files/:key", NewFileHandler(logger, local).Serve)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, result.DownloadURL, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/files/missing.txt", nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest(http.MethodGet, "/files/"+url.PathEscape("../etc"), nil), -1)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
