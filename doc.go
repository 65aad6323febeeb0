// Package duplo provides a quota-bounded drop-box over a set of local directories.
//
// Clients upload files (or short text snippets saved as files) into a pool, list
// its contents, and delete entries. Each pool holds a QuotaSet that tracks the live
// number of stored bytes and files, so that admission never has to rescan the disk.
//
// # Key Components
//
//   - QuotaCounter: one atomic budget with add-then-check reservations
//   - QuotaSet: the bytes and files counters of a single pool
//   - Pool: upload, share-text, remove and list operations over one directory
//   - Reaper: background loop deleting aged files from a pool
//   - FileStorage: interface for the directory itself (see the filesystem package)
//
// # Streaming Uploads
//
// Pool.Upload reserves one file slot, then reads the inbound stream chunk by chunk,
// reserving byte quota for every chunk before writing it. When a reservation
// overflows, the chunk is cut to the remaining budget, the stream is abandoned, the
// byte counter is reconciled against the size that actually reached the disk, and
// the file is renamed with a ".partial" suffix:
//
//	pool, err := duplo.NewPool("transient", storage, duplo.NewQuotaSet(1000, 10<<30), duplo.PoolConfig{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	res, err := pool.Upload(ctx, "notes.txt", body)
//	if errors.Is(err, duplo.ErrQuotaExceeded) && res.Partial {
//	    // res.Name is "notes.txt.partial"
//	}
//
// # Counters Are Soft
//
// Reservations are single atomic adds and no lock is held across disk I/O. Two
// concurrent uploads may both reserve before either sees the overflow; the loser
// rolls back. Counters may therefore overshoot their ceiling for a moment but never
// stay above it once the caller has reacted.
//
// See the http package for the REST surface and the filesystem package for the
// directory-backed FileStorage.
package duplo
