package clientcli

import (
	"time"

	"github.com/google/uuid"
)

// UploadOptions configures an upload operation.
type UploadOptions struct {
	Paths []string // local files; "-" reads standard input
	Name  string   // remote name, only with a single path (default: base name)
}

// UploadResult represents the result of uploading a single file.
type UploadResult struct {
	LocalPath string `json:"local_path"`
	Pool      string `json:"pool"`
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	Partial   bool   `json:"partial"`
	Err       error  `json:"-"` // nil on success
}

// ShareOptions configures a share-text operation.
type ShareOptions struct {
	Title string
	Body  string
}

// DownloadOptions configures a download operation.
type DownloadOptions struct {
	Name      string
	LocalPath string // empty = same as Name, "-" = stdout
}

// DownloadResult represents the result of downloading a file.
type DownloadResult struct {
	Pool        string    `json:"pool"`
	Name        string    `json:"name"`
	LocalPath   string    `json:"local_path"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	Modified    time.Time `json:"modified"`
}

// RemoveOptions configures a remove operation.
type RemoveOptions struct {
	Names []string
}

// RemoveResult represents the result of removing a single file.
type RemoveResult struct {
	Name    string `json:"name"`
	Removed bool   `json:"removed"`
	Err     error  `json:"-"` // nil on success
}

// ListResult is a pool listing as returned by the server.
type ListResult struct {
	Pool     string      `json:"pool"`
	Entries  []EntryInfo `json:"entries"`
	Warnings []string    `json:"warnings"`
	Usage    Usage       `json:"usage"`
}

// EntryInfo represents one file in a listing.
type EntryInfo struct {
	Name     string    `json:"name"`
	Size     int64     `json:"size"`
	Modified time.Time `json:"modified"`
}

// Usage is the pool's quota state at listing time.
type Usage struct {
	Bytes        uint64 `json:"bytes"`
	BytesCeiling uint64 `json:"bytes_ceiling"`
	Files        uint64 `json:"files"`
	FilesCeiling uint64 `json:"files_ceiling"`
}

// TotalSize calculates the total size of all entries in bytes.
func (r *ListResult) TotalSize() int64 {
	var total int64
	for _, e := range r.Entries {
		total += e.Size
	}
	return total
}

// Event is one journal record returned by the events endpoint.
type Event struct {
	ID        uuid.UUID `json:"id"`
	Pool      string    `json:"pool"`
	Action    string    `json:"action"`
	Name      string    `json:"name"`
	Size      int64     `json:"size"`
	Result    string    `json:"result"`
	Remote    string    `json:"remote,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// serverUploadResult mirrors one element of the server's upload response.
type serverUploadResult struct {
	Pool    string `json:"pool"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Partial bool   `json:"partial"`
}

// serverError mirrors the server's JSON error body.
type serverError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}
