package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/sagarc03/duplo"
)

// Service is one pool as seen by the HTTP layer. *duplo.Pool implements it.
type Service interface {
	Name() string
	Exhausted() bool
	Upload(ctx context.Context, filename string, content io.Reader) (duplo.UploadResult, error)
	ShareText(ctx context.Context, title, body string) (duplo.UploadResult, error)
	Remove(ctx context.Context, filename string) error
	List(ctx context.Context) (duplo.Listing, error)
	Open(ctx context.Context, filename string) (duplo.Entry, io.ReadSeekCloser, error)
	Events(ctx context.Context, limit int) ([]duplo.Event, error)
}

type CORSConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	ExposedHeaders   []string `mapstructure:"exposed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

type HandlerConfig struct {
	DefaultPool string       // Target of the "/" redirect (default: first pool)
	CORS        CORSConfig
	Metrics     http.Handler // Mounted at MetricsPath when non-nil
	MetricsPath string       // Default: /metrics
}

const (
	defaultEventLimit = 50
	maxEventLimit     = 1000
)

// Handler provides HTTP handlers for pool operations.
type Handler struct {
	config HandlerConfig
	pools  []Service
	view   *listingView
}

// NewHandler creates a new Handler serving the given pools.
func NewHandler(config *HandlerConfig, pools ...Service) *Handler {
	cfg := *config
	if cfg.DefaultPool == "" && len(pools) > 0 {
		cfg.DefaultPool = pools[0].Name()
	}
	if cfg.MetricsPath == "" {
		cfg.MetricsPath = "/metrics"
	}

	names := make([]string, len(pools))
	for i, p := range pools {
		names[i] = p.Name()
	}

	return &Handler{
		config: cfg,
		pools:  pools,
		view:   newListingView(names),
	}
}

// Router returns an http.Handler with every pool mounted under /{name}/.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RemoteMiddleware)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)

	if h.config.CORS.Enabled {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   h.config.CORS.AllowedOrigins,
			AllowedMethods:   h.config.CORS.AllowedMethods,
			AllowedHeaders:   h.config.CORS.AllowedHeaders,
			ExposedHeaders:   h.config.CORS.ExposedHeaders,
			AllowCredentials: h.config.CORS.AllowCredentials,
			MaxAge:           h.config.CORS.MaxAge,
		}))
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeDefaultNotFound(w)
	})

	if h.config.DefaultPool != "" {
		target := "/" + h.config.DefaultPool + "/"
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			http.Redirect(w, r, target, http.StatusPermanentRedirect)
		})
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok\n")
	})

	r.Handle("/res/*", resourceHandler())

	if h.config.Metrics != nil {
		r.Handle(h.config.MetricsPath, h.config.Metrics)
	}

	for _, svc := range h.pools {
		r.Route("/"+svc.Name(), func(r chi.Router) {
			r.Get("/", h.handleList(svc))
			r.Get("/events/", h.handleEvents(svc))
			r.Post("/upload/", h.handleUpload(svc))
			r.Post("/shareText/", h.handleShareText(svc))
			r.Post("/remove/", h.handleRemove(svc))
			r.Get("/*", h.handleGet(svc))
		})
	}

	return r
}

func (h *Handler) handleList(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		listing, err := svc.List(r.Context())
		if err != nil {
			HandleError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-cache")

		if wantsJSON(r) {
			_ = WriteJSON(w, http.StatusOK, listing)
			return
		}

		h.view.render(w, listing)
	}
}

func (h *Handler) handleEvents(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit := defaultEventLimit
		if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
			if parsed, err := strconv.Atoi(limitStr); err == nil {
				limit = max(1, min(maxEventLimit, parsed))
			}
		}

		events, err := svc.Events(r.Context(), limit)
		if err != nil {
			HandleError(w, err)
			return
		}

		w.Header().Set("Cache-Control", "no-cache")
		_ = WriteJSON(w, http.StatusOK, events)
	}
}

func (h *Handler) handleGet(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")

		if !duplo.IsValidFilename(name) {
			WriteError(w, http.StatusBadRequest, "invalid_filename", "Invalid file name")
			return
		}

		entry, content, err := svc.Open(r.Context(), name)
		if err != nil {
			if errors.Is(err, duplo.ErrNotFound) {
				writeDefaultNotFound(w)
			} else {
				HandleError(w, err)
			}
			return
		}
		defer func() { _ = content.Close() }()

		http.ServeContent(w, r, entry.Name, entry.ModTime, content)
	}
}

// handleUpload streams every file part of a multipart body into the pool.
// Parts without a filename are skipped. The first failing part ends the
// request; parts stored before it stay stored.
func (h *Handler) handleUpload(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc.Exhausted() {
			HandleError(w, fmt.Errorf("upload: %w", duplo.ErrQuotaExceeded))
			return
		}

		mr, err := r.MultipartReader()
		if err != nil {
			HandleError(w, fmt.Errorf("upload: %w: %w", ErrBadMultipart, err))
			return
		}

		results := []duplo.UploadResult{}
		for {
			part, err := mr.NextPart()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				HandleError(w, fmt.Errorf("upload: %w: %w", ErrBadMultipart, err))
				return
			}

			filename, ok := partFilename(part)
			if !ok {
				_ = part.Close()
				continue
			}

			logAction(r, svc.Name(), "upload", filename, -1)
			res, err := svc.Upload(r.Context(), filename, part)
			_ = part.Close()
			if err != nil {
				HandleError(w, err)
				return
			}
			logAction(r, svc.Name(), "upload_finished", res.Name, res.Size)
			results = append(results, res)
		}

		writeSuccess(w, r, results)
	}
}

func (h *Handler) handleShareText(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			HandleError(w, fmt.Errorf("share text: %w: %w", ErrMissingField, err))
			return
		}

		if !r.PostForm.Has("title") || !r.PostForm.Has("body") {
			HandleError(w, fmt.Errorf("share text: %w: title and body are required", ErrMissingField))
			return
		}
		title := r.PostForm.Get("title")
		body := r.PostForm.Get("body")

		logAction(r, svc.Name(), "share_text", title, int64(len(body)))
		res, err := svc.ShareText(r.Context(), title, body)
		if err != nil {
			HandleError(w, err)
			return
		}

		writeSuccess(w, r, []duplo.UploadResult{res})
	}
}

func (h *Handler) handleRemove(svc Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			HandleError(w, fmt.Errorf("remove: %w: %w", ErrMissingField, err))
			return
		}

		if !r.PostForm.Has("fileName") {
			HandleError(w, fmt.Errorf("remove: %w: fileName is required", ErrMissingField))
			return
		}
		name := r.PostForm.Get("fileName")

		logAction(r, svc.Name(), "remove", name, -1)
		if err := svc.Remove(r.Context(), name); err != nil {
			HandleError(w, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func writeSuccess(w http.ResponseWriter, r *http.Request, results []duplo.UploadResult) {
	if wantsJSON(r) {
		_ = WriteJSON(w, http.StatusOK, results)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

// partFilename returns the filename parameter of the part's
// Content-Disposition exactly as sent. multipart.Part.FileName is not used
// since it strips directories, which would hide traversal attempts.
func partFilename(part *multipart.Part) (string, bool) {
	_, params, err := mime.ParseMediaType(part.Header.Get("Content-Disposition"))
	if err != nil {
		return "", false
	}
	filename, ok := params["filename"]
	if !ok || filename == "" {
		return "", false
	}
	return filename, true
}
