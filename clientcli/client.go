package clientcli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultTimeout is the default HTTP client timeout.
	DefaultTimeout = 30 * time.Second

	// DefaultEventLimit is the number of journal events requested when no
	// limit is given.
	DefaultEventLimit = 50
)

// Client performs operations against one pool of a duplo server.
type Client struct {
	endpoint   string
	pool       string
	httpClient *http.Client
	stdin      io.Reader
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the HTTP client timeout. Zero disables it.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithStdin sets the reader used for the "-" upload path.
func WithStdin(r io.Reader) Option {
	return func(c *Client) {
		c.stdin = r
	}
}

// New creates a new Client with the given config and options.
func New(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, ErrConfigRequired
	}

	cfg = cfg.WithDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	c := &Client{
		endpoint:   strings.TrimSuffix(cfg.Endpoint, "/"),
		pool:       cfg.Pool,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		stdin:      os.Stdin,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

// Pool returns the name of the pool the client talks to.
func (c *Client) Pool() string {
	return c.pool
}

// poolURL returns the URL of suffix under the client's pool.
func (c *Client) poolURL(suffix string) string {
	return c.endpoint + "/" + url.PathEscape(c.pool) + "/" + suffix
}

// Upload streams each file to the pool in its own request. A failing file
// does not stop the others; its error is recorded in the result.
func (c *Client) Upload(ctx context.Context, opts UploadOptions) ([]UploadResult, error) {
	if len(opts.Paths) == 0 {
		return nil, fmt.Errorf("upload: %w", ErrNoPaths)
	}
	if opts.Name != "" && len(opts.Paths) > 1 {
		return nil, fmt.Errorf("upload: %w", ErrNameAmbiguous)
	}

	results := make([]UploadResult, 0, len(opts.Paths))
	for _, path := range opts.Paths {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		name := opts.Name
		if name == "" {
			name = filepath.Base(path)
		}

		result, err := c.uploadSingle(ctx, path, name)
		if err != nil {
			result = UploadResult{LocalPath: path, Pool: c.pool, Name: name, Err: err}
		}
		results = append(results, result)
	}

	return results, nil
}

// uploadSingle sends one file as a multipart body written through a pipe,
// so the file is never held in memory.
func (c *Client) uploadSingle(ctx context.Context, localPath, name string) (UploadResult, error) {
	var src io.Reader
	if localPath == "-" {
		if name == "-" {
			return UploadResult{}, ErrStdinNeedsName
		}
		src = c.stdin
	} else {
		if localPath == "" {
			return UploadResult{}, ErrEmptyPath
		}
		file, err := os.Open(localPath) //#nosec G304 -- localPath is user-provided input
		if err != nil {
			return UploadResult{}, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = file.Close() }()
		src = file
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		part, err := mw.CreateFormFile("file", name)
		if err == nil {
			_, err = io.Copy(part, src)
		}
		if err == nil {
			err = mw.Close()
		}
		_ = pw.CloseWithError(err)
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.poolURL("upload/"), pr)
	if err != nil {
		_ = pr.Close()
		return UploadResult{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	var stored []serverUploadResult
	if err := c.doJSON(req, &stored); err != nil {
		return UploadResult{}, err
	}
	if len(stored) == 0 {
		return UploadResult{}, errors.New("server stored no file")
	}

	return UploadResult{
		LocalPath: localPath,
		Pool:      stored[0].Pool,
		Name:      stored[0].Name,
		Size:      stored[0].Size,
		Partial:   stored[0].Partial,
	}, nil
}

// ShareText stores body as a text file named after title.
func (c *Client) ShareText(ctx context.Context, opts ShareOptions) (UploadResult, error) {
	form := url.Values{}
	form.Set("title", opts.Title)
	form.Set("body", opts.Body)

	req, err := c.newFormRequest(ctx, "shareText/", form)
	if err != nil {
		return UploadResult{}, err
	}
	req.Header.Set("Accept", "application/json")

	var stored []serverUploadResult
	if err := c.doJSON(req, &stored); err != nil {
		return UploadResult{}, err
	}
	if len(stored) == 0 {
		return UploadResult{}, errors.New("server stored no file")
	}

	return UploadResult{
		Pool: stored[0].Pool,
		Name: stored[0].Name,
		Size: stored[0].Size,
	}, nil
}

// Download downloads a file from the pool.
// If opts.LocalPath is "-", the content is returned via the io.ReadCloser and must be closed by the caller.
// Otherwise, the content is written to the file and the io.ReadCloser is nil.
func (c *Client) Download(ctx context.Context, opts DownloadOptions) (*DownloadResult, io.ReadCloser, error) {
	if opts.Name == "" {
		return nil, nil, fmt.Errorf("download: %w", ErrEmptyPath)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.poolURL(url.PathEscape(opts.Name)), http.NoBody)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		return nil, nil, parseServerError(resp.StatusCode, body)
	}

	result := &DownloadResult{
		Pool:        c.pool,
		Name:        opts.Name,
		ContentType: resp.Header.Get("Content-Type"),
		Size:        resp.ContentLength,
	}
	if modified, err := http.ParseTime(resp.Header.Get("Last-Modified")); err == nil {
		result.Modified = modified
	}

	if opts.LocalPath == "-" {
		result.LocalPath = "-"
		return result, resp.Body, nil
	}

	localPath := opts.LocalPath
	if localPath == "" {
		localPath = filepath.Base(opts.Name)
	}
	result.LocalPath = localPath

	dir := filepath.Dir(localPath)
	if dir != "" && dir != "." {
		if mkdirErr := os.MkdirAll(dir, 0o750); mkdirErr != nil {
			_ = resp.Body.Close()
			return nil, nil, fmt.Errorf("create directory: %w", mkdirErr)
		}
	}

	file, createErr := os.Create(localPath) //#nosec G304 -- localPath is user-provided input
	if createErr != nil {
		_ = resp.Body.Close()
		return nil, nil, fmt.Errorf("create file: %w", createErr)
	}

	written, copyErr := io.Copy(file, resp.Body)
	_ = resp.Body.Close()
	if copyErr != nil {
		_ = file.Close()
		return nil, nil, fmt.Errorf("write file: %w", copyErr)
	}

	if closeErr := file.Close(); closeErr != nil {
		return nil, nil, fmt.Errorf("close file: %w", closeErr)
	}

	result.Size = written
	return result, nil, nil
}

// Remove removes one or more files from the pool.
// Continues on error, collecting results for all names.
func (c *Client) Remove(ctx context.Context, opts RemoveOptions) ([]RemoveResult, error) {
	if len(opts.Names) == 0 {
		return nil, ErrNoPaths
	}

	results := make([]RemoveResult, 0, len(opts.Names))

	for _, name := range opts.Names {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		results = append(results, c.removeSingle(ctx, name))
	}

	return results, nil
}

func (c *Client) removeSingle(ctx context.Context, name string) RemoveResult {
	form := url.Values{}
	form.Set("fileName", name)

	req, err := c.newFormRequest(ctx, "remove/", form)
	if err != nil {
		return RemoveResult{Name: name, Err: err}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return RemoveResult{Name: name, Err: fmt.Errorf("do request: %w", err)}
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusNoContent || resp.StatusCode == http.StatusOK {
		return RemoveResult{Name: name, Removed: true}
	}

	body, _ := io.ReadAll(resp.Body)
	return RemoveResult{Name: name, Err: parseServerError(resp.StatusCode, body)}
}

// HasRemoveErrors returns true if any remove operation failed.
func HasRemoveErrors(results []RemoveResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// HasUploadErrors returns true if any upload failed.
func HasUploadErrors(results []UploadResult) bool {
	for _, r := range results {
		if r.Err != nil {
			return true
		}
	}
	return false
}

// List returns the pool listing.
func (c *Client) List(ctx context.Context) (*ListResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.poolURL(""), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	var result ListResult
	if err := c.doJSON(req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Events returns the most recent journal events of the pool, newest first.
func (c *Client) Events(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = DefaultEventLimit
	}

	target := c.poolURL("events/") + "?limit=" + strconv.Itoa(limit)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	var events []Event
	if err := c.doJSON(req, &events); err != nil {
		return nil, err
	}
	return events, nil
}

func (c *Client) newFormRequest(ctx context.Context, suffix string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.poolURL(suffix), strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req, nil
}

// doJSON executes req and decodes a 200 response into v.
func (c *Client) doJSON(req *http.Request, v any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return parseServerError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}

// parseServerError builds an APIError, taking the code and message from a
// JSON error body when there is one.
func parseServerError(statusCode int, body []byte) error {
	apiErr := &APIError{
		StatusCode: statusCode,
		Body:       string(body),
	}

	var se serverError
	if json.Unmarshal(body, &se) == nil {
		apiErr.Code = se.Error
		apiErr.Message = se.Message
	}
	return apiErr
}

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Body       string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return "server error: " + strconv.Itoa(e.StatusCode) + " " + e.Code + " - " + e.Message
	}
	return "server error: " + strconv.Itoa(e.StatusCode) + " - " + strings.TrimSpace(e.Body)
}

// Is reports whether target matches this error.
// It matches if target is an *APIError with the same StatusCode.
func (e *APIError) Is(target error) bool {
	var t *APIError
	ok := errors.As(target, &t)
	if !ok {
		return false
	}
	return t.StatusCode == e.StatusCode
}

// IsNotFound returns true if the error is a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound
}

// Sentinel errors for common API error conditions.
// Use errors.Is() to check for these conditions.
var (
	// ErrNotFound is returned when the requested file does not exist (404).
	ErrNotFound = &APIError{StatusCode: http.StatusNotFound}

	// ErrBadRequest is returned for rejected names and malformed requests (400).
	ErrBadRequest = &APIError{StatusCode: http.StatusBadRequest}

	// ErrQuotaExceeded is returned when a pool quota refused or truncated
	// the upload (413). The message names the partial file, if any.
	ErrQuotaExceeded = &APIError{StatusCode: http.StatusRequestEntityTooLarge}
)
