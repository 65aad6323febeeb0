package clientcli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
)

// Formatter formats results for output.
type Formatter interface {
	FormatUpload(w io.Writer, results []UploadResult) error
	FormatDownload(w io.Writer, result *DownloadResult) error
	FormatRemove(w io.Writer, results []RemoveResult) error
	FormatList(w io.Writer, result *ListResult) error
	FormatEvents(w io.Writer, events []Event) error
	FormatError(w io.Writer, err error) error
	FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error
	FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error
}

// NewFormatter returns the appropriate formatter based on flags.
func NewFormatter(jsonOutput, quiet bool) Formatter {
	if jsonOutput {
		return &JSONFormatter{}
	}
	return &HumanFormatter{Quiet: quiet}
}

// HumanFormatter outputs human-readable text.
type HumanFormatter struct {
	Quiet bool
}

// FormatUpload formats upload results as human-readable text. Truncated
// uploads are reported even in quiet mode.
func (f *HumanFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	for i := range results {
		r := &results[i]
		switch {
		case r.Err != nil:
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", displayPath(r.LocalPath, r.Name), r.Err)
		case r.Partial:
			_, _ = fmt.Fprintf(w, "Partial: %s/%s (%s, quota reached)\n", r.Pool, r.Name, formatSize(r.Size))
		case !f.Quiet:
			_, _ = fmt.Fprintf(w, "Uploaded: %s/%s (%s)\n", r.Pool, r.Name, formatSize(r.Size))
		}
	}
	return nil
}

// FormatDownload formats download result as human-readable text.
func (f *HumanFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	if f.Quiet {
		return nil
	}
	if result.LocalPath == "-" {
		_, _ = fmt.Fprintf(w, "Downloaded: %s/%s (%s)\n", result.Pool, result.Name, formatSize(result.Size))
	} else {
		_, _ = fmt.Fprintf(w, "Downloaded: %s/%s -> %s (%s)\n", result.Pool, result.Name, result.LocalPath, formatSize(result.Size))
	}
	return nil
}

// FormatRemove formats remove results as human-readable text.
func (f *HumanFormatter) FormatRemove(w io.Writer, results []RemoveResult) error {
	for i := range results {
		r := &results[i]
		if r.Err != nil {
			_, _ = fmt.Fprintf(w, "Error: %s - %v\n", r.Name, r.Err)
			continue
		}
		if !f.Quiet {
			_, _ = fmt.Fprintf(w, "Removed: %s\n", r.Name)
		}
	}
	return nil
}

// FormatList formats a pool listing as human-readable text.
func (f *HumanFormatter) FormatList(w io.Writer, result *ListResult) error {
	for _, warning := range result.Warnings {
		_, _ = fmt.Fprintf(w, "Warning: %s\n", warning)
	}

	if len(result.Entries) == 0 {
		_, _ = fmt.Fprintln(w, "No files found")
	} else {
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		_, _ = fmt.Fprintln(tw, "NAME\tSIZE\tMODIFIED")
		for i := range result.Entries {
			e := &result.Entries[i]
			_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Name, formatSize(e.Size), e.Modified.Format("2006-01-02 15:04:05"))
		}
		_ = tw.Flush()
	}

	if f.Quiet {
		return nil
	}

	_, _ = fmt.Fprintf(w, "\n%d file(s) (%s total)\n", len(result.Entries), formatSize(result.TotalSize()))
	_, _ = fmt.Fprintf(w, "Quota: %d/%d files, %s/%s\n",
		result.Usage.Files, result.Usage.FilesCeiling,
		humanize.IBytes(result.Usage.Bytes), humanize.IBytes(result.Usage.BytesCeiling))

	return nil
}

// FormatEvents formats journal events as human-readable text.
func (f *HumanFormatter) FormatEvents(w io.Writer, events []Event) error {
	if len(events) == 0 {
		_, _ = fmt.Fprintln(w, "No events recorded")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "TIME\tACTION\tRESULT\tNAME\tSIZE\tREMOTE")
	for i := range events {
		e := &events[i]
		_, _ = fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.Action, e.Result, e.Name, formatSize(e.Size), e.Remote)
	}
	return tw.Flush()
}

// FormatError formats an error as human-readable text.
func (f *HumanFormatter) FormatError(w io.Writer, err error) error {
	_, _ = fmt.Fprintf(w, "Error: %v\n", err)
	return nil
}

// FormatProfileList formats a list of profiles as human-readable text.
func (f *HumanFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(tw, "  NAME\tENDPOINT\tPOOL")

	for i := range profiles {
		p := &profiles[i]
		marker := " "
		if p.Name == defaultName {
			marker = "*"
		}
		_, _ = fmt.Fprintf(tw, "%s %s\t%s\t%s\n", marker, p.Name, p.Endpoint, poolOrDefault(p.Pool))
	}

	return tw.Flush()
}

// FormatProfileShow formats a single profile as human-readable text.
func (f *HumanFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	_, _ = fmt.Fprintf(w, "Name:     %s", profile.Name)
	if isDefault {
		_, _ = fmt.Fprintf(w, " (default)")
	}
	_, _ = fmt.Fprintln(w)
	_, _ = fmt.Fprintf(w, "Endpoint: %s\n", profile.Endpoint)
	_, _ = fmt.Fprintf(w, "Pool:     %s\n", poolOrDefault(profile.Pool))
	return nil
}

// JSONFormatter outputs JSON.
type JSONFormatter struct{}

// FormatUpload formats upload results as JSON.
func (f *JSONFormatter) FormatUpload(w io.Writer, results []UploadResult) error {
	// Convert errors to strings for JSON output
	type jsonResult struct {
		LocalPath string `json:"local_path,omitempty"`
		Pool      string `json:"pool"`
		Name      string `json:"name"`
		Size      int64  `json:"size"`
		Partial   bool   `json:"partial"`
		Error     string `json:"error,omitempty"`
	}

	output := make([]jsonResult, len(results))
	for i := range results {
		r := &results[i]
		jr := jsonResult{
			LocalPath: r.LocalPath,
			Pool:      r.Pool,
			Name:      r.Name,
			Size:      r.Size,
			Partial:   r.Partial,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output[i] = jr
	}

	return writeJSON(w, output)
}

// FormatDownload formats download result as JSON.
func (f *JSONFormatter) FormatDownload(w io.Writer, result *DownloadResult) error {
	return writeJSON(w, result)
}

// FormatRemove formats remove results as JSON.
func (f *JSONFormatter) FormatRemove(w io.Writer, results []RemoveResult) error {
	type jsonResult struct {
		Name    string `json:"name"`
		Removed bool   `json:"removed"`
		Error   string `json:"error,omitempty"`
	}

	output := struct {
		Results []jsonResult `json:"results"`
	}{
		Results: make([]jsonResult, len(results)),
	}

	for i, r := range results {
		jr := jsonResult{
			Name:    r.Name,
			Removed: r.Removed,
		}
		if r.Err != nil {
			jr.Error = r.Err.Error()
		}
		output.Results[i] = jr
	}

	return writeJSON(w, output)
}

// FormatList formats a pool listing as JSON.
func (f *JSONFormatter) FormatList(w io.Writer, result *ListResult) error {
	return writeJSON(w, result)
}

// FormatEvents formats journal events as JSON.
func (f *JSONFormatter) FormatEvents(w io.Writer, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	return writeJSON(w, events)
}

// FormatError formats an error as JSON.
func (f *JSONFormatter) FormatError(w io.Writer, err error) error {
	output := struct {
		Error string `json:"error"`
	}{
		Error: err.Error(),
	}
	return writeJSON(w, output)
}

// FormatProfileList formats a list of profiles as JSON.
func (f *JSONFormatter) FormatProfileList(w io.Writer, profiles []Profile, defaultName string) error {
	type jsonProfile struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Pool     string `json:"pool"`
		Default  bool   `json:"default,omitempty"`
	}

	output := struct {
		Profiles []jsonProfile `json:"profiles"`
	}{
		Profiles: make([]jsonProfile, len(profiles)),
	}

	for i := range profiles {
		p := &profiles[i]
		output.Profiles[i] = jsonProfile{
			Name:     p.Name,
			Endpoint: p.Endpoint,
			Pool:     poolOrDefault(p.Pool),
			Default:  p.Name == defaultName,
		}
	}

	return writeJSON(w, output)
}

// FormatProfileShow formats a single profile as JSON.
func (f *JSONFormatter) FormatProfileShow(w io.Writer, profile Profile, isDefault bool) error {
	output := struct {
		Name     string `json:"name"`
		Endpoint string `json:"endpoint"`
		Pool     string `json:"pool"`
		Default  bool   `json:"default"`
	}{
		Name:     profile.Name,
		Endpoint: profile.Endpoint,
		Pool:     poolOrDefault(profile.Pool),
		Default:  isDefault,
	}

	return writeJSON(w, output)
}

// writeJSON writes a value as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatSize formats bytes as human-readable size.
func formatSize(bytes int64) string {
	if bytes < 0 {
		return "-"
	}
	return humanize.IBytes(uint64(bytes))
}

func poolOrDefault(pool string) string {
	if strings.TrimSpace(pool) == "" {
		return DefaultPool
	}
	return pool
}

func displayPath(localPath, name string) string {
	if localPath != "" && localPath != "-" {
		return localPath
	}
	return name
}
