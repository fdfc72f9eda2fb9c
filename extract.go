package lszip

import (
	"context"
	"hash/crc32"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/snabb/lszip/pkg/zipfmt"
)

// Extract writes the uncompressed contents of the entry at index to w and
// returns the number of bytes written.
//
// The Local File Header is fetched first because it, not the Central
// Directory, says where the data starts; its compression method replaces
// the one in the listing. Entries that cannot be extracted are rejected
// before anything is written to w. The result is checked against the
// recorded size and CRC-32.
func (a *Archive) Extract(ctx context.Context, index int, w io.Writer) (int64, error) {
	p, err := a.prepare(ctx, index)
	if err != nil {
		return 0, err
	}
	return a.copyPayload(ctx, p, w)
}

// payload locates the data of one entry.
type payload struct {
	entry  Entry
	method zipfmt.Method
	offset int64
	size   int64
	usize  int64
	crc    uint32
}

func (a *Archive) prepare(ctx context.Context, index int) (*payload, error) {
	e, err := a.Entry(index)
	if err != nil {
		return nil, err
	}
	if e.IsDir() {
		return nil, errors.Wrapf(ErrDirectoryExtraction, "%s", e.Name)
	}

	win, err := a.fetcher.Fetch(ctx, e.LocalHeaderOffset, e.LocalHeaderOffset+zipfmt.LocalFileHeaderLen-1)
	if err != nil {
		return nil, err
	}
	lfh, err := zipfmt.DecodeLocalFileHeader(win.Data)
	if err != nil {
		return nil, &LocalHeaderError{Name: e.Name, Offset: e.LocalHeaderOffset, Err: err}
	}
	a.setMethod(index, lfh.Method)
	e.Method = lfh.Method

	if lfh.Flags&zipfmt.FlagEncrypted != 0 {
		return nil, errors.Wrapf(ErrEncrypted, "%s", e.Name)
	}
	if lfh.Method.Kind() == zipfmt.KindUnsupported {
		return nil, &UnsupportedCompressionError{Name: e.Name, Method: lfh.Method}
	}

	p := &payload{
		entry:  e,
		method: lfh.Method,
		offset: e.LocalHeaderOffset + lfh.DataOffset(),
		size:   int64(lfh.CompressedSize),
		usize:  int64(lfh.UncompressedSize),
		crc:    lfh.CRC32,
	}
	// With a data descriptor the sizes and CRC follow the data and the
	// local header holds zeros; the Central Directory has the real values.
	if lfh.Flags&zipfmt.FlagDataDescriptor != 0 || (p.size == 0 && e.CompressedSize != 0) {
		p.size = e.CompressedSize
		p.usize = e.UncompressedSize
		p.crc = e.CRC32
	}
	if p.offset+p.size > a.endOffset {
		return nil, &LocalHeaderError{
			Name:   e.Name,
			Offset: e.LocalHeaderOffset,
			Err:    errors.Errorf("data at %d (%d bytes) runs past the central directory", p.offset, p.size),
		}
	}
	return p, nil
}

func (a *Archive) copyPayload(ctx context.Context, p *payload, w io.Writer) (int64, error) {
	h := crc32.NewIEEE()
	var n int64
	if p.size > 0 {
		body, _, err := a.fetcher.Open(ctx, p.offset, p.offset+p.size-1)
		if err != nil {
			return 0, err
		}
		defer body.Close()

		rc := decompressor(p.method, io.LimitReader(body, p.size))
		defer rc.Close()

		n, err = io.Copy(io.MultiWriter(w, h), rc)
		if err != nil {
			return n, errors.Wrapf(err, "%s: extract", p.entry.Name)
		}
	}
	if n != p.usize || h.Sum32() != p.crc {
		return n, &ChecksumError{
			Name:      p.entry.Name,
			WantSize:  p.usize,
			GotSize:   n,
			WantCRC32: p.crc,
			GotCRC32:  h.Sum32(),
		}
	}
	a.logger.Debug().
		Int("index", p.entry.Index).
		Str("name", p.entry.Name).
		Stringer("method", p.method).
		Int64("compressed", p.size).
		Int64("written", n).
		Msg("Extracted entry")
	return n, nil
}

// decompressor wraps r for method, which must not be of KindUnsupported.
func decompressor(method zipfmt.Method, r io.Reader) io.ReadCloser {
	switch method.Kind() {
	case zipfmt.KindDeflate:
		return flate.NewReader(r)
	default:
		return io.NopCloser(r)
	}
}

// Result is the outcome of extracting one entry in a batch.
type Result struct {
	Index   int
	Name    string
	Written int64
	Err     error
}

// OpenFunc opens the destination for an entry. It is only called once the
// entry is known to be extractable.
type OpenFunc func(Entry) (io.WriteCloser, error)

// Aborter is implemented by destinations that want to discard what was
// written when extraction fails. Abort is called instead of Close.
type Aborter interface {
	Abort() error
}

// ExtractBatch extracts the entries at indices, at most jobs at a time.
// Every entry is attempted: a failure is recorded in that entry's Result
// and does not stop the others. Results are in the order of indices.
func (a *Archive) ExtractBatch(ctx context.Context, indices []int, open OpenFunc, jobs int) []Result {
	results := make([]Result, len(indices))
	var g errgroup.Group
	g.SetLimit(max(jobs, 1))
	for i, index := range indices {
		g.Go(func() error {
			results[i] = a.extractTo(ctx, index, open)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (a *Archive) extractTo(ctx context.Context, index int, open OpenFunc) (r Result) {
	r.Index = index
	if err := ctx.Err(); err != nil {
		r.Err = err
		return r
	}
	p, err := a.prepare(ctx, index)
	if err != nil {
		r.Err = err
		if e, eerr := a.Entry(index); eerr == nil {
			r.Name = e.Name
		}
		a.logger.Warn().Err(err).Int("index", index).Msg("Cannot extract entry")
		return r
	}
	r.Name = p.entry.Name

	w, err := open(p.entry)
	if err != nil {
		r.Err = errors.Wrapf(err, "%s: open destination", p.entry.Name)
		return r
	}
	r.Written, r.Err = a.copyPayload(ctx, p, w)
	if r.Err != nil {
		a.logger.Warn().Err(r.Err).Int("index", index).Str("name", r.Name).Msg("Extraction failed")
		if ab, ok := w.(Aborter); ok {
			if err := ab.Abort(); err != nil {
				a.logger.Warn().Err(err).Str("name", r.Name).Msg("Abort failed")
			}
			return r
		}
		w.Close()
		return r
	}
	if err := w.Close(); err != nil {
		r.Err = errors.Wrapf(err, "%s: close destination", r.Name)
	}
	return r
}
