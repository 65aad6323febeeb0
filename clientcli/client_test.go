package clientcli_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sagarc03/duplo"
	"github.com/sagarc03/duplo/clientcli"
	"github.com/sagarc03/duplo/filesystem"
	duplohttp "github.com/sagarc03/duplo/http"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newServer serves a real transient pool with the given ceilings.
func newServer(t *testing.T, maxFiles, maxBytes uint64) (*httptest.Server, *duplo.Pool, string) {
	t.Helper()

	dir := t.TempDir()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { _ = root.Close() })

	pool, err := duplo.NewPool("transient", filesystem.NewFileStorage(root), duplo.NewQuotaSet(maxFiles, maxBytes), duplo.PoolConfig{ChunkSize: 16})
	require.NoError(t, err)

	handler := duplohttp.NewHandler(&duplohttp.HandlerConfig{}, pool)
	server := httptest.NewServer(handler.Router())
	t.Cleanup(server.Close)

	return server, pool, dir
}

func newClient(t *testing.T, endpoint string, opts ...clientcli.Option) *clientcli.Client {
	t.Helper()
	client, err := clientcli.New(&clientcli.Config{Endpoint: endpoint}, opts...)
	require.NoError(t, err)
	return client
}

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestNew(t *testing.T) {
	t.Run("nil config", func(t *testing.T) {
		_, err := clientcli.New(nil)
		assert.ErrorIs(t, err, clientcli.ErrConfigRequired)
	})

	t.Run("defaults", func(t *testing.T) {
		client, err := clientcli.New(&clientcli.Config{})
		require.NoError(t, err)
		assert.Equal(t, clientcli.DefaultPool, client.Pool())
	})

	t.Run("invalid pool", func(t *testing.T) {
		_, err := clientcli.New(&clientcli.Config{Pool: "a/b"})
		assert.ErrorIs(t, err, clientcli.ErrInvalidPool)
	})
}

func TestClient_Upload(t *testing.T) {
	server, pool, dir := newServer(t, 10, 1000)
	client := newClient(t, server.URL)

	path := writeTemp(t, "notes.txt", "test content")

	results, err := client.Upload(context.Background(), clientcli.UploadOptions{Paths: []string{path}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	r := results[0]
	require.NoError(t, r.Err)
	assert.Equal(t, path, r.LocalPath)
	assert.Equal(t, "transient", r.Pool)
	assert.Equal(t, "notes.txt", r.Name)
	assert.Equal(t, int64(12), r.Size)
	assert.False(t, r.Partial)

	content, err := os.ReadFile(filepath.Join(dir, "notes.txt"))
	require.NoError(t, err)
	assert.Equal(t, "test content", string(content))
	assert.Equal(t, uint64(12), pool.Quotas().Bytes.Current())
}

func TestClient_Upload_RenamedAndStdin(t *testing.T) {
	server, _, dir := newServer(t, 10, 1000)
	client := newClient(t, server.URL, clientcli.WithStdin(strings.NewReader("from stdin")))

	results, err := client.Upload(context.Background(), clientcli.UploadOptions{Paths: []string{"-"}, Name: "piped.txt"})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
	assert.Equal(t, "piped.txt", results[0].Name)

	content, err := os.ReadFile(filepath.Join(dir, "piped.txt"))
	require.NoError(t, err)
	assert.Equal(t, "from stdin", string(content))
}

func TestClient_Upload_InputErrors(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1")
	ctx := context.Background()

	_, err := client.Upload(ctx, clientcli.UploadOptions{})
	assert.ErrorIs(t, err, clientcli.ErrNoPaths)

	_, err = client.Upload(ctx, clientcli.UploadOptions{Paths: []string{"a", "b"}, Name: "c"})
	assert.ErrorIs(t, err, clientcli.ErrNameAmbiguous)

	results, err := client.Upload(ctx, clientcli.UploadOptions{Paths: []string{"-"}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.ErrorIs(t, results[0].Err, clientcli.ErrStdinNeedsName)

	results, err = client.Upload(ctx, clientcli.UploadOptions{Paths: []string{filepath.Join(t.TempDir(), "missing")}})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Error(t, results[0].Err)
	assert.True(t, clientcli.HasUploadErrors(results))
}

func TestClient_Upload_QuotaTruncates(t *testing.T) {
	server, pool, dir := newServer(t, 10, 40)
	client := newClient(t, server.URL)

	path := writeTemp(t, "big.bin", strings.Repeat("x", 100))

	results, err := client.Upload(context.Background(), clientcli.UploadOptions{Paths: []string{path}})
	require.NoError(t, err)
	require.Len(t, results, 1)

	uploadErr := results[0].Err
	require.Error(t, uploadErr)
	assert.ErrorIs(t, uploadErr, clientcli.ErrQuotaExceeded)
	assert.Contains(t, uploadErr.Error(), "big.bin.partial")

	var apiErr *clientcli.APIError
	require.True(t, errors.As(uploadErr, &apiErr))
	assert.Equal(t, "payload_too_large", apiErr.Code)

	info, err := os.Stat(filepath.Join(dir, "big.bin.partial"))
	require.NoError(t, err)
	assert.Equal(t, int64(40), info.Size())
	assert.Equal(t, uint64(40), pool.Quotas().Bytes.Current())
}

func TestClient_Upload_ContinuesAfterFailure(t *testing.T) {
	server, _, _ := newServer(t, 10, 1000)
	client := newClient(t, server.URL)

	good := writeTemp(t, "good.txt", "ok")
	missing := filepath.Join(t.TempDir(), "missing.txt")

	results, err := client.Upload(context.Background(), clientcli.UploadOptions{Paths: []string{missing, good}})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)
	assert.Equal(t, "good.txt", results[1].Name)
}

func TestClient_ShareText(t *testing.T) {
	server, _, dir := newServer(t, 10, 1000)
	client := newClient(t, server.URL)

	res, err := client.ShareText(context.Background(), clientcli.ShareOptions{Title: "meeting", Body: "room 4 at noon"})
	require.NoError(t, err)
	assert.Equal(t, "meeting.txt", res.Name)
	assert.Equal(t, int64(len("room 4 at noon")), res.Size)

	content, err := os.ReadFile(filepath.Join(dir, "meeting.txt"))
	require.NoError(t, err)
	assert.Equal(t, "room 4 at noon", string(content))
}

func TestClient_List(t *testing.T) {
	server, _, _ := newServer(t, 2, 1000)
	client := newClient(t, server.URL)
	ctx := context.Background()

	_, err := client.ShareText(ctx, clientcli.ShareOptions{Title: "a", Body: "alpha"})
	require.NoError(t, err)
	_, err = client.ShareText(ctx, clientcli.ShareOptions{Title: "b", Body: "beta!"})
	require.NoError(t, err)

	result, err := client.List(ctx)
	require.NoError(t, err)

	assert.Equal(t, "transient", result.Pool)
	require.Len(t, result.Entries, 2)
	assert.Equal(t, int64(10), result.TotalSize())
	assert.Equal(t, uint64(2), result.Usage.Files)
	assert.Equal(t, uint64(2), result.Usage.FilesCeiling)
	assert.Contains(t, result.Warnings, duplo.WarnTooManyFiles)
}

func TestClient_Download(t *testing.T) {
	server, _, _ := newServer(t, 10, 1000)
	client := newClient(t, server.URL)
	ctx := context.Background()

	_, err := client.ShareText(ctx, clientcli.ShareOptions{Title: "greeting", Body: "downloaded content"})
	require.NoError(t, err)

	t.Run("to file", func(t *testing.T) {
		localPath := filepath.Join(t.TempDir(), "sub", "out.txt")

		result, reader, err := client.Download(ctx, clientcli.DownloadOptions{Name: "greeting.txt", LocalPath: localPath})
		require.NoError(t, err)
		assert.Nil(t, reader)
		assert.Equal(t, int64(18), result.Size)
		assert.False(t, result.Modified.IsZero())

		content, err := os.ReadFile(localPath)
		require.NoError(t, err)
		assert.Equal(t, "downloaded content", string(content))
	})

	t.Run("to stdout", func(t *testing.T) {
		result, reader, err := client.Download(ctx, clientcli.DownloadOptions{Name: "greeting.txt", LocalPath: "-"})
		require.NoError(t, err)
		require.NotNil(t, reader)
		defer func() { _ = reader.Close() }()

		assert.Equal(t, "-", result.LocalPath)
		content, err := io.ReadAll(reader)
		require.NoError(t, err)
		assert.Equal(t, "downloaded content", string(content))
	})

	t.Run("not found", func(t *testing.T) {
		_, _, err := client.Download(ctx, clientcli.DownloadOptions{Name: "nope.txt", LocalPath: "-"})
		assert.ErrorIs(t, err, clientcli.ErrNotFound)
	})

	t.Run("empty name", func(t *testing.T) {
		_, _, err := client.Download(ctx, clientcli.DownloadOptions{})
		assert.ErrorIs(t, err, clientcli.ErrEmptyPath)
	})
}

func TestClient_Remove(t *testing.T) {
	server, pool, _ := newServer(t, 10, 1000)
	client := newClient(t, server.URL)
	ctx := context.Background()

	_, err := client.ShareText(ctx, clientcli.ShareOptions{Title: "gone", Body: "soon"})
	require.NoError(t, err)

	results, err := client.Remove(ctx, clientcli.RemoveOptions{Names: []string{"gone.txt", "never.txt", "../etc"}})
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Removed)
	assert.NoError(t, results[0].Err)
	assert.ErrorIs(t, results[1].Err, clientcli.ErrNotFound)
	assert.ErrorIs(t, results[2].Err, clientcli.ErrBadRequest)
	assert.True(t, clientcli.HasRemoveErrors(results))

	assert.Equal(t, uint64(0), pool.Quotas().Files.Current())
	assert.Equal(t, uint64(0), pool.Quotas().Bytes.Current())

	_, err = client.Remove(ctx, clientcli.RemoveOptions{})
	assert.ErrorIs(t, err, clientcli.ErrNoPaths)
}

func TestClient_Events(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/permanent/events/", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":"7b0cb5c4-3a64-4c1e-9f43-3a0d5f0b6a11","pool":"permanent","action":"upload","name":"a.txt","size":3,"result":"ok","created_at":"2026-01-02T03:04:05Z"}]`))
	}))
	defer server.Close()

	client, err := clientcli.New(&clientcli.Config{Endpoint: server.URL, Pool: "permanent"})
	require.NoError(t, err)

	events, err := client.Events(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "upload", events[0].Action)
	assert.Equal(t, "a.txt", events[0].Name)
	assert.Equal(t, 2026, events[0].CreatedAt.Year())
}

func TestAPIError(t *testing.T) {
	t.Run("plain body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream down\n"))
		}))
		defer server.Close()

		_, err := newClient(t, server.URL).List(context.Background())
		require.Error(t, err)
		assert.Equal(t, "server error: 502 - upstream down", err.Error())
	})

	t.Run("json body", func(t *testing.T) {
		err := &clientcli.APIError{StatusCode: http.StatusNotFound, Code: "not_found", Message: "File not found"}
		assert.Equal(t, "server error: 404 not_found - File not found", err.Error())
		assert.True(t, err.IsNotFound())
		assert.ErrorIs(t, err, clientcli.ErrNotFound)
		assert.NotErrorIs(t, err, clientcli.ErrBadRequest)
	})
}

func TestClient_Upload_Cancelled(t *testing.T) {
	client := newClient(t, "http://127.0.0.1:1")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := client.Upload(ctx, clientcli.UploadOptions{Paths: []string{writeTemp(t, "a", "a")}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
}

