// Package lszip lists and extracts files from a ZIP archive on an HTTP
// server without downloading the whole archive.
//
// HTTP Range Requests (see RFC 7233) are used to fetch the End of Central
// Directory record from the tail of the archive, then the Central
// Directory, and finally the Local File Header and data of each file that
// is extracted. Stored and deflated entries are supported; multi-disk
// archives, ZIP64 and encryption are not.
package lszip

import (
	"context"
	"io"
	"net/http"
	"sync"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/snabb/lszip/pkg/contentrange"
	"github.com/snabb/lszip/pkg/zipfmt"
)

// endWindowLen is the size of the trailing window that always contains the
// End of Central Directory record, whatever the length of the comment.
const endWindowLen = zipfmt.EndOfCentralDirectoryLen + zipfmt.MaxCommentLen

// Archive is a listed remote archive. Entries can be extracted
// concurrently.
type Archive struct {
	fetcher RangeFetcher
	closer  io.Closer
	logger  zerolog.Logger

	size      int64
	end       *zipfmt.EndOfCentralDirectory
	endOffset int64

	mu      sync.Mutex
	entries []Entry
}

// Open reads the index of the archive behind fetcher. It makes one range
// request for the tail of the archive and, unless the Central Directory
// is already inside that tail, one more for the Central Directory.
func Open(ctx context.Context, fetcher RangeFetcher, opts ...Option) (*Archive, error) {
	o := newOptions(opts)
	a := &Archive{
		fetcher: fetcher,
		logger:  o.logger,
	}
	tail, err := a.readEnd(ctx)
	if err != nil {
		return nil, err
	}
	cd, err := a.readDirectory(ctx, tail)
	if err != nil {
		return nil, err
	}
	if err := a.decodeDirectory(cd); err != nil {
		return nil, err
	}
	return a, nil
}

// OpenURL opens the archive at url with a new HTTPFetcher. The fetcher is
// closed together with the archive.
func OpenURL(ctx context.Context, client *http.Client, url string, opts ...Option) (*Archive, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return OpenRequest(ctx, client, req, opts...)
}

// OpenRequest is like OpenURL but uses req as the prototype for every
// range request, so callers can set headers.
func OpenRequest(ctx context.Context, client *http.Client, req *http.Request, opts ...Option) (*Archive, error) {
	f, err := NewHTTPFetcher(client, req, opts...)
	if err != nil {
		return nil, err
	}
	a, err := Open(ctx, f, opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	a.closer = f
	return a, nil
}

// Close releases the fetcher if the archive owns it.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	return a.closer.Close()
}

// readEnd fetches the trailing window and finds the End of Central
// Directory record in it.
func (a *Archive) readEnd(ctx context.Context) (*Window, error) {
	win, err := a.fetcher.Fetch(ctx, -endWindowLen, contentrange.Open)
	if err != nil {
		return nil, err
	}
	if win.Size < 0 {
		return nil, errors.New("server did not report the archive size")
	}
	if win.End() != win.Size {
		return nil, errors.Errorf("tail request returned bytes %d-%d of %d", win.Offset, win.End()-1, win.Size)
	}

	end, off, ok := zipfmt.FindEndOfCentralDirectory(win.Data)
	if !ok {
		return nil, errors.Wrapf(ErrArchiveFormat, "no end of central directory record in last %d bytes", len(win.Data))
	}
	if end.DiskNumber != 0 || end.DirectoryDisk != 0 || end.DiskEntries != end.TotalEntries {
		return nil, errors.Wrap(ErrArchiveFormat, "multi-disk archives are not supported")
	}
	if end.TotalEntries == 0xffff || end.DirectorySize == 0xffffffff || end.DirectoryOffset == 0xffffffff {
		return nil, errors.Wrap(ErrArchiveFormat, "zip64 archives are not supported")
	}

	a.size = win.Size
	a.end = end
	a.endOffset = win.Offset + int64(off)
	a.logger.Debug().
		Int64("size", a.size).
		Int64("offset", a.endOffset).
		Uint16("entries", end.TotalEntries).
		Uint32("directory_offset", end.DirectoryOffset).
		Uint32("directory_size", end.DirectorySize).
		Msg("Found end of central directory")
	return win, nil
}

// readDirectory returns the bytes of the Central Directory, slicing them
// out of tail when it already covers them.
func (a *Archive) readDirectory(ctx context.Context, tail *Window) ([]byte, error) {
	off := int64(a.end.DirectoryOffset)
	size := int64(a.end.DirectorySize)
	if off+size > a.endOffset {
		return nil, errors.Wrapf(ErrArchiveFormat,
			"central directory at %d (%d bytes) overlaps end record at %d", off, size, a.endOffset)
	}

	windowSize := int64(len(tail.Data))
	if zipfmt.LiesWithinFetchedWindow(off, windowSize, a.size) {
		i := zipfmt.LocalIndex(off, windowSize, a.size)
		a.logger.Debug().Int64("offset", off).Msg("Central directory inside tail window")
		return tail.Data[i : i+size], nil
	}

	win, err := a.fetcher.Fetch(ctx, off, contentrange.Open)
	if err != nil {
		return nil, err
	}
	if win.Offset != off {
		return nil, errors.Errorf("central directory request returned offset %d, want %d", win.Offset, off)
	}
	if int64(len(win.Data)) < size {
		return win.Data, nil
	}
	return win.Data[:size], nil
}

func (a *Archive) decodeDirectory(cd []byte) error {
	records, _ := zipfmt.DecodeCentralDirectory(cd)
	if len(records) != int(a.end.TotalEntries) {
		return &CountMismatchError{Declared: int(a.end.TotalEntries), Decoded: len(records)}
	}
	a.entries = make([]Entry, len(records))
	for i := range records {
		a.entries[i] = newEntry(&records[i])
	}
	a.logger.Debug().Int("entries", len(a.entries)).Msg("Listed central directory")
	return nil
}

// Size returns the size of the archive.
func (a *Archive) Size() int64 {
	return a.size
}

// Comment returns the archive comment.
func (a *Archive) Comment() string {
	return zipfmt.DecodeName(a.end.Comment, false)
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entries returns a copy of the listing in Central Directory order.
func (a *Archive) Entries() []Entry {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]Entry(nil), a.entries...)
}

// Entry returns the entry at index.
func (a *Archive) Entry(index int) (Entry, error) {
	if index < 0 || index >= len(a.entries) {
		return Entry{}, errors.Wrapf(ErrNoSuchEntry, "index %d", index)
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.entries[index], nil
}

func (a *Archive) setMethod(index int, m zipfmt.Method) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.entries[index].Method = m
}
