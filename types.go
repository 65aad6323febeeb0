package duplo

import (
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/google/uuid"
)

// EntryKind classifies a directory entry.
type EntryKind int

const (
	KindRegular EntryKind = iota
	KindDir
	KindSymlink
	KindOther
)

func (k EntryKind) String() string {
	switch k {
	case KindRegular:
		return "file"
	case KindDir:
		return "dir"
	case KindSymlink:
		return "symlink"
	default:
		return "other"
	}
}

// Entry is one directory entry as seen by FileStorage.List.
// Err is set when the entry's metadata could not be read; Size and ModTime are
// zero in that case.
type Entry struct {
	Name    string    `json:"name"`
	Kind    EntryKind `json:"-"`
	Size    int64     `json:"size"`
	ModTime time.Time `json:"modified"`
	Err     error     `json:"-"`
}

// UploadResult describes a file stored by Upload or ShareText.
type UploadResult struct {
	Pool    string `json:"pool"`
	Name    string `json:"name"`
	Size    int64  `json:"size"`
	Partial bool   `json:"partial"`
}

// QuotaUsage is a point-in-time copy of a QuotaSet.
type QuotaUsage struct {
	Bytes        uint64 `json:"bytes"`
	BytesCeiling uint64 `json:"bytes_ceiling"`
	Files        uint64 `json:"files"`
	FilesCeiling uint64 `json:"files_ceiling"`
}

// Listing is the read-only view of a pool.
type Listing struct {
	Pool     string     `json:"pool"`
	Entries  []Entry    `json:"entries"`
	Warnings []string   `json:"warnings"`
	Usage    QuotaUsage `json:"usage"`
}

// Listing warnings.
const (
	WarnTooManyFiles = "Too many files"
	WarnStorageFull  = "Disk storage quota full"
	WarnStorageNear  = "Disk storage quota is close to being full"
)

// ScanResult reports what QuotaSet.ScanAndAdd counted.
type ScanResult struct {
	Files  uint64
	Bytes  uint64
	Errors int
}

// SweepResult reports the outcome of one Reaper sweep.
type SweepResult struct {
	Removed    int
	Retained   int
	Failed     int
	Skipped    int
	FreedBytes uint64
}

// Action names recorded in the journal and in metrics.
const (
	ActionUpload    = "upload"
	ActionShareText = "share_text"
	ActionRemove    = "remove"
	ActionSweep     = "sweep_remove"
)

// Outcomes recorded in the journal and in metrics.
const (
	ResultOK       = "ok"
	ResultPartial  = "partial"
	ResultRejected = "rejected"
	ResultFailed   = "failed"
)

// Event is one journal record.
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

// Tables holds configurable table names for the journal.
type Tables struct {
	Events string `mapstructure:"events"`
}

var validTableNameRegex = regexp.MustCompile(`^[a-z_][a-z0-9_]*$`)

// IsValidTableName checks if a table name is valid (lowercase, alphanumeric with underscores, max 63 chars).
func IsValidTableName(name string) bool {
	return validTableNameRegex.MatchString(name) && len(name) <= 63
}

// Validate checks that all required table names are set and valid.
func (t Tables) Validate() error {
	if t.Events == "" {
		return errors.New("validate tables: events table name cannot be empty")
	}

	if !IsValidTableName(t.Events) {
		return fmt.Errorf("validate tables: invalid events table name: %s (must match ^[a-z_][a-z0-9_]*$ and be <= 63 chars)", t.Events)
	}

	return nil
}
