package duplo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// Upload streams content into a new file named after filename.
//
// Bytes are reserved against the pool's byte quota one chunk at a time,
// before the chunk is written. When a reservation overflows, the reservation
// is handed back and only the part of the chunk that still fits is written.
// That tail is not reserved; the counter is corrected from the real file size
// once writing stops. The file is then renamed with the partial suffix and
// ErrQuotaExceeded is returned together with the result describing it.
//
// Returns:
//   - UploadResult: the stored file, also on ErrQuotaExceeded and ErrUploadAborted
//   - error: ErrInvalidInput for a bad filename, ErrQuotaExceeded when the
//     byte quota is full or ran out mid-stream, ErrTooManyFiles when no
//     file slot is left, ErrUploadAborted when reading content failed
//
// An aborted upload keeps whatever reached the disk, under its original name,
// and keeps its reservations.
func (p *Pool) Upload(ctx context.Context, filename string, content io.Reader) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("upload: %w", err)
	}

	if p.quotas.Bytes.IsExceeded() {
		p.observer.ObserveQuotaExceeded(p.name, QuotaBytes)
		p.observer.ObserveUpload(p.name, ActionUpload, ResultRejected, 0)
		p.record(ctx, ActionUpload, filename, 0, ResultRejected)
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, ErrQuotaExceeded)
	}

	if !IsValidFilename(filename) {
		return UploadResult{}, fmt.Errorf("upload %q: %w", filename, ErrInvalidInput)
	}

	w, name, err := p.admit(ctx, filename)
	if err != nil {
		p.observer.ObserveUpload(p.name, ActionUpload, ResultRejected, 0)
		p.record(ctx, ActionUpload, filename, 0, ResultRejected)
		return UploadResult{}, fmt.Errorf("upload %s: %w", filename, err)
	}

	in := &inflight{name: name}
	streamErr := p.stream(ctx, w, in, content)
	closeErr := w.Close()

	switch {
	case in.writeErr != nil || (closeErr != nil && !in.exceeded):
		cause := errors.Join(in.writeErr, closeErr)
		p.abandon(ctx, in)
		p.observer.ObserveUpload(p.name, ActionUpload, ResultFailed, in.written)
		p.record(ctx, ActionUpload, name, in.written, ResultFailed)
		return UploadResult{}, fmt.Errorf("upload %s: %w: %w", name, ErrInternal, cause)

	case streamErr != nil:
		slog.Warn("upload aborted", "pool", p.name, "name", name, "written", in.written, "error", streamErr)
		p.observer.ObserveUpload(p.name, ActionUpload, ResultFailed, in.written)
		p.record(ctx, ActionUpload, name, in.written, ResultFailed)
		res := UploadResult{Pool: p.name, Name: name, Size: in.written}
		return res, fmt.Errorf("upload %s: %w: %w", name, ErrUploadAborted, streamErr)

	case in.exceeded:
		if closeErr != nil {
			slog.Warn("failed to close truncated upload", "pool", p.name, "name", name, "error", closeErr)
		}
		res := p.reconcilePartial(ctx, in)
		p.observer.ObserveQuotaExceeded(p.name, QuotaBytes)
		p.observer.ObserveUpload(p.name, ActionUpload, ResultPartial, res.Size)
		p.record(ctx, ActionUpload, res.Name, res.Size, ResultPartial)
		return res, fmt.Errorf("upload %s: stored as %s: %w", filename, res.Name, ErrQuotaExceeded)
	}

	p.observer.ObserveUpload(p.name, ActionUpload, ResultOK, in.written)
	p.record(ctx, ActionUpload, name, in.written, ResultOK)
	return UploadResult{Pool: p.name, Name: name, Size: in.written}, nil
}

// inflight tracks one streaming upload.
type inflight struct {
	name string
	// accepted counts bytes that were reserved and written while under quota.
	accepted uint64
	// written counts every byte handed to the file, including a truncated tail.
	written  int64
	exceeded bool
	writeErr error
}

// admit takes a file slot and creates the destination file. The slot is
// handed back when either step fails.
func (p *Pool) admit(ctx context.Context, filename string) (io.WriteCloser, string, error) {
	if p.quotas.Files.Bump(1) {
		p.quotas.Files.Reduce(1)
		p.observer.ObserveQuotaExceeded(p.name, QuotaFiles)
		return nil, "", ErrTooManyFiles
	}

	w, name, err := p.storage.CreateNew(ctx, filename)
	if err != nil {
		p.quotas.Files.Reduce(1)
		return nil, "", err
	}

	return w, name, nil
}

// stream copies content into w chunk by chunk. It returns a non-nil error
// only when reading content failed; write failures are left in in.writeErr.
func (p *Pool) stream(ctx context.Context, w io.Writer, in *inflight, content io.Reader) error {
	buf := make([]byte, p.chunkSize)
	r := &ctxReader{ctx: ctx, r: content}

	for {
		n, readErr := r.Read(buf)
		if n > 0 {
			if done := p.ingestChunk(w, in, buf[:n]); done {
				return nil
			}
		}
		if errors.Is(readErr, io.EOF) {
			return nil
		}
		if readErr != nil {
			return readErr
		}
	}
}

// ingestChunk reserves and writes one chunk. It reports true when the stream
// must stop, either because the byte quota ran out or a write failed.
func (p *Pool) ingestChunk(w io.Writer, in *inflight, chunk []byte) bool {
	size := uint64(len(chunk))

	if p.quotas.Bytes.Bump(size) {
		p.quotas.Bytes.Reduce(size)
		in.exceeded = true

		fits := min(p.quotas.Bytes.Remaining(), size)
		if fits == 0 {
			return true
		}
		n, err := w.Write(chunk[:fits])
		in.written += int64(n)
		if err != nil {
			slog.Warn("failed to write truncated chunk", "pool", p.name, "name", in.name, "error", err)
		}
		return true
	}

	n, err := w.Write(chunk)
	in.written += int64(n)
	if err != nil {
		if in.written == 0 {
			p.quotas.Bytes.Reduce(size)
		} else {
			in.accepted += size
		}
		in.writeErr = err
		return true
	}

	in.accepted += size
	return false
}

// abandon cleans up after a write failure. A file that never received a byte
// is removed and its slot handed back; anything else stays on disk and keeps
// its reservations.
func (p *Pool) abandon(ctx context.Context, in *inflight) {
	if in.written > 0 {
		return
	}

	if err := p.storage.Remove(context.WithoutCancel(ctx), in.name); err != nil {
		slog.Warn("failed to remove empty file after write error", "pool", p.name, "name", in.name, "error", err)
		return
	}
	p.quotas.Files.Reduce(1)
}

// reconcilePartial corrects the byte counter from the file's real size and
// renames the file with the partial suffix. A rename conflict leaves the file
// under its original name.
func (p *Pool) reconcilePartial(ctx context.Context, in *inflight) UploadResult {
	ctx = context.WithoutCancel(ctx)
	res := UploadResult{Pool: p.name, Name: in.name, Size: in.written, Partial: true}

	size := in.written
	if entry, err := p.storage.Stat(ctx, in.name); err != nil {
		slog.Error("failed to stat partial upload, charging bytes written", "pool", p.name, "name", in.name, "written", in.written, "error", err)
	} else {
		size = entry.Size
	}

	actual := uint64(max(size, 0))
	switch {
	case actual > in.accepted:
		p.quotas.Bytes.Bump(actual - in.accepted)
	case actual < in.accepted:
		p.quotas.Bytes.Reduce(in.accepted - actual)
	}
	res.Size = size

	partialName := in.name + p.partialSuffix
	if err := p.storage.RenameNoReplace(ctx, in.name, partialName); err != nil {
		slog.Warn("failed to mark upload as partial", "pool", p.name, "name", in.name, "target", partialName, "error", err)
		return res
	}

	slog.Info("upload truncated by byte quota", "pool", p.name, "name", partialName, "size", res.Size)
	res.Name = partialName
	return res
}

// ShareText stores body as a text file named after title, with ".txt"
// appended unless already present. The full size is reserved up front; if it
// does not fit nothing is written.
func (p *Pool) ShareText(ctx context.Context, title, body string) (UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return UploadResult{}, fmt.Errorf("share text: %w", err)
	}

	if !IsValidFilename(title) {
		return UploadResult{}, fmt.Errorf("share text %q: %w", title, ErrInvalidInput)
	}
	filename := textFilename(title)

	size := uint64(len(body))
	if p.quotas.Bytes.Bump(size) {
		p.quotas.Bytes.Reduce(size)
		p.observer.ObserveQuotaExceeded(p.name, QuotaBytes)
		p.observer.ObserveUpload(p.name, ActionShareText, ResultRejected, 0)
		p.record(ctx, ActionShareText, filename, 0, ResultRejected)
		return UploadResult{}, fmt.Errorf("share text %s: %w", filename, ErrQuotaExceeded)
	}

	w, name, err := p.admit(ctx, filename)
	if err != nil {
		p.quotas.Bytes.Reduce(size)
		p.observer.ObserveUpload(p.name, ActionShareText, ResultRejected, 0)
		p.record(ctx, ActionShareText, filename, 0, ResultRejected)
		return UploadResult{}, fmt.Errorf("share text %s: %w", filename, err)
	}

	n, writeErr := io.WriteString(w, body)
	closeErr := w.Close()
	if cause := errors.Join(writeErr, closeErr); cause != nil {
		if n == 0 {
			p.quotas.Bytes.Reduce(size)
			p.abandon(ctx, &inflight{name: name})
		}
		p.observer.ObserveUpload(p.name, ActionShareText, ResultFailed, int64(n))
		p.record(ctx, ActionShareText, name, int64(n), ResultFailed)
		return UploadResult{}, fmt.Errorf("share text %s: %w: %w", name, ErrInternal, cause)
	}

	p.observer.ObserveUpload(p.name, ActionShareText, ResultOK, int64(n))
	p.record(ctx, ActionShareText, name, int64(n), ResultOK)
	return UploadResult{Pool: p.name, Name: name, Size: int64(n)}, nil
}

// ctxReader wraps an io.Reader and checks for context cancellation on each Read.
type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	if err := cr.ctx.Err(); err != nil {
		return 0, err
	}
	return cr.r.Read(p)
}
