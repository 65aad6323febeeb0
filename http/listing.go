package http

import (
	"bytes"
	"embed"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/sagarc03/duplo"
)

//go:embed templates/listing.html
var listingTemplate string

//go:embed res
var resources embed.FS

var listingFuncs = template.FuncMap{
	"ibytes": func(n int64) string { return humanize.IBytes(uint64(max(n, 0))) },
	"ubytes": humanize.IBytes,
	"ago":    humanize.Time,
	"stamp":  func(t time.Time) string { return t.UTC().Format(time.DateTime) },
	"escape": url.PathEscape,
}

type listingView struct {
	tmpl  *template.Template
	pools []string
}

type listingPage struct {
	duplo.Listing
	Pools []string
}

func newListingView(pools []string) *listingView {
	return &listingView{
		tmpl:  template.Must(template.New("listing").Funcs(listingFuncs).Parse(listingTemplate)),
		pools: pools,
	}
}

// render executes into a buffer first so a template failure still produces
// a clean error response.
func (v *listingView) render(w http.ResponseWriter, listing duplo.Listing) {
	var buf bytes.Buffer
	if err := v.tmpl.Execute(&buf, listingPage{Listing: listing, Pools: v.pools}); err != nil {
		slog.Error("failed to render listing", "pool", listing.Pool, "error", err)
		WriteError(w, http.StatusInternalServerError, "internal_error", "Internal server error")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = buf.WriteTo(w)
}

// resourceHandler serves the embedded stylesheet and script under /res/.
func resourceHandler() http.Handler {
	sub, err := fs.Sub(resources, "res")
	if err != nil {
		panic(err)
	}
	files := http.StripPrefix("/res/", http.FileServer(http.FS(sub)))

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "max-age=3600")
		files.ServeHTTP(w, r)
	})
}
