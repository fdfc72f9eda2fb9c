package lszip

import (
	"context"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"go.uber.org/ratelimit"

	"github.com/snabb/lszip/pkg/contentrange"
)

// RangeFetcher fetches byte ranges of one remote archive. Ranges use the
// conventions of contentrange.Range: a negative low selects a suffix and a
// negative high leaves the range open-ended.
type RangeFetcher interface {
	// Fetch reads the whole range into memory.
	Fetch(ctx context.Context, low, high int64) (*Window, error)

	// Open streams the range. The returned Window has no Data.
	Open(ctx context.Context, low, high int64) (io.ReadCloser, *Window, error)
}

// Window describes the part of the archive covered by one response.
type Window struct {
	// Offset is the archive offset of the first byte.
	Offset int64

	// Length is the number of bytes covered, or -1 if the server did not
	// say.
	Length int64

	// Size is the size of the whole archive, or -1 if unknown.
	Size int64

	Data []byte
}

// End is the archive offset one past the last byte of the window.
func (w *Window) End() int64 {
	return w.Offset + w.Length
}

// HTTPFetcher is a RangeFetcher that makes HTTP Range Requests. All
// requests go through one http.Client so that connections are reused for
// the lifetime of the archive. It is safe for concurrent use.
type HTTPFetcher struct {
	client  *http.Client
	req     *http.Request
	logger  zerolog.Logger
	limiter ratelimit.Limiter

	metaMutex sync.Mutex
	metaSet   bool
	meta      meta

	bsMutex sync.Mutex
	bs      Store
	bsSize  int64
	usebs   bool
}

var _ RangeFetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates a new HTTPFetcher. If nil is passed as
// http.Client, then http.DefaultClient is used. The supplied http.Request
// is used as a prototype for requests. It is copied before making the
// actual request. It is an error to specify any other HTTP method than
// "GET".
func NewHTTPFetcher(client *http.Client, req *http.Request, opts ...Option) (*HTTPFetcher, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if req.Method != http.MethodGet {
		return nil, errors.New("invalid HTTP method")
	}
	o := newOptions(opts)
	return &HTTPFetcher{
		client:  client,
		req:     req,
		logger:  o.logger,
		limiter: o.limiter,
		bs:      o.store,
	}, nil
}

// ContentType returns "Content-Type" header contents of the first
// response.
func (f *HTTPFetcher) ContentType() string {
	f.metaMutex.Lock()
	defer f.metaMutex.Unlock()
	return f.meta.contentType
}

// LastModified returns "Last-Modified" header contents of the first
// response.
func (f *HTTPFetcher) LastModified() string {
	f.metaMutex.Lock()
	defer f.metaMutex.Unlock()
	return f.meta.lastModified
}

// Close releases idle connections and the Store, if any.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	f.bsMutex.Lock()
	defer f.bsMutex.Unlock()
	if f.bs != nil {
		return f.bs.Close()
	}
	return nil
}

// Fetch implements RangeFetcher.
func (f *HTTPFetcher) Fetch(ctx context.Context, low, high int64) (*Window, error) {
	body, win, err := f.Open(ctx, low, high)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	win.Data, err = io.ReadAll(body)
	if err != nil {
		return nil, &TransportError{Range: contentrange.Range(low, high), Err: err}
	}
	if win.Length >= 0 && int64(len(win.Data)) != win.Length {
		return nil, &TransportError{
			Range: contentrange.Range(low, high),
			Err:   errors.Errorf("short body: got %d bytes, want %d", len(win.Data), win.Length),
		}
	}
	if win.Length < 0 {
		// A whole resource of unannounced size.
		win.Size = int64(len(win.Data))
	}
	win.Length = int64(len(win.Data))
	return win, nil
}

// Open implements RangeFetcher.
func (f *HTTPFetcher) Open(ctx context.Context, low, high int64) (io.ReadCloser, *Window, error) {
	if body, win, ok := f.openStore(low, high); ok {
		return body, win, nil
	}

	rng := contentrange.Range(low, high)
	req := f.copyReq(ctx)
	req.Header.Set("Range", rng)

	if f.limiter != nil {
		f.limiter.Take()
	}
	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, nil, &TransportError{Range: rng, Err: err}
	}

	win, err := f.handle(resp, low, high)
	if err != nil {
		resp.Body.Close()
		if te := (*TransportError)(nil); !errors.As(err, &te) {
			err = &TransportError{Range: rng, Status: resp.Status, StatusCode: resp.StatusCode, Err: err}
		}
		return nil, nil, err
	}
	f.logger.Debug().
		Str("range", rng).
		Int("status", resp.StatusCode).
		Int64("offset", win.Offset).
		Int64("length", win.Length).
		Int64("size", win.Size).
		Dur("elapsed", time.Since(start)).
		Msg("Range request")

	if win.Length < 0 {
		// Only reachable for a 200 response; handle moved the body to the
		// store otherwise.
		return resp.Body, win, nil
	}
	if f.storeActive() {
		resp.Body.Close()
		body, win, _ := f.openStore(low, high)
		return body, win, nil
	}
	return resp.Body, win, nil
}

func (f *HTTPFetcher) handle(resp *http.Response, low, high int64) (*Window, error) {
	switch resp.StatusCode {
	case http.StatusPartialContent:
		return f.handlePartial(resp, low, high)
	case http.StatusOK:
		return f.handleFull(resp, low, high)
	default:
		return nil, &TransportError{
			Range:      contentrange.Range(low, high),
			Status:     resp.Status,
			StatusCode: resp.StatusCode,
		}
	}
}

func (f *HTTPFetcher) handlePartial(resp *http.Response, low, high int64) (*Window, error) {
	cr := resp.Header.Get("Content-Range")
	if cr == "" {
		return nil, errors.New("no content-range header in partial response")
	}
	first, last, length, err := contentrange.Parse(cr)
	if err != nil {
		// net/http answers a suffix request for an empty resource with
		// "bytes 0--1/0".
		if n, lerr := contentrange.Length(cr); lerr != nil || n != 0 {
			return nil, errors.Wrap(err, "http request error")
		}
		length = 0
	}
	if length == 0 {
		if resp.ContentLength > 0 {
			return nil, errors.New("content-length mismatch in http response")
		}
		if err := f.setAndValidate(resp); err != nil {
			return nil, err
		}
		return &Window{Offset: 0, Length: 0, Size: 0}, nil
	}
	if first < 0 {
		return nil, errors.Errorf("unsatisfied range in partial response: %q", cr)
	}
	reqFirst := low
	if low < 0 {
		reqFirst = first
		if length >= 0 {
			reqFirst = max(length+low, 0)
		}
	}
	if first != reqFirst || (high >= 0 && last > high) {
		return nil, errors.Errorf(
			"received different range than requested (req=%s, resp=%d-%d)",
			contentrange.Range(low, high), first, last)
	}
	if resp.ContentLength != -1 && resp.ContentLength != last-first+1 {
		return nil, errors.New("content-length mismatch in http response")
	}
	if err := f.setAndValidate(resp); err != nil {
		return nil, err
	}
	return &Window{Offset: first, Length: last - first + 1, Size: length}, nil
}

// handleFull accepts a 200 response when it necessarily holds the range
// that was asked for, i.e. the range starts at the beginning of the
// resource and the resource is no larger than the range. Otherwise the
// body is copied into the store if there is one.
func (f *HTTPFetcher) handleFull(resp *http.Response, low, high int64) (*Window, error) {
	if err := f.setAndValidate(resp); err != nil {
		return nil, err
	}
	size := resp.ContentLength
	if coversWhole(low, high, size) {
		return &Window{Offset: 0, Length: size, Size: size}, nil
	}
	if low == 0 && high < 0 {
		return &Window{Offset: 0, Length: -1, Size: -1}, nil
	}

	f.bsMutex.Lock()
	defer f.bsMutex.Unlock()
	if f.bs == nil {
		return nil, ErrNoRange
	}
	if f.usebs {
		// Another request filled the store while this one was in flight.
		// Open serves the range from there.
		return &Window{Offset: 0, Length: f.bsSize, Size: f.bsSize}, nil
	}
	if h, ok := f.bs.(SizeHinter); ok && size > 0 {
		h.Expect(size)
	}
	n, err := f.bs.ReadFrom(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "fill store")
	}
	if size != -1 && size != n {
		return nil, errors.Errorf("content-length mismatch in http response: got %d bytes, want %d", n, size)
	}
	f.bsSize = n
	f.usebs = true
	f.logger.Debug().Int64("size", n).Msg("Server ignores ranges, serving from store")
	return &Window{Offset: 0, Length: n, Size: n}, nil
}

func coversWhole(low, high, size int64) bool {
	if size < 0 {
		return false
	}
	if low < 0 {
		return size <= -low
	}
	return low == 0 && (high < 0 || size <= high+1)
}

func (f *HTTPFetcher) storeActive() bool {
	f.bsMutex.Lock()
	defer f.bsMutex.Unlock()
	return f.usebs
}

// openStore serves a range from the store once the server has been found
// not to support ranges.
func (f *HTTPFetcher) openStore(low, high int64) (io.ReadCloser, *Window, bool) {
	f.bsMutex.Lock()
	defer f.bsMutex.Unlock()
	if !f.usebs {
		return nil, nil, false
	}
	size := f.bsSize
	first, last := low, high
	if low < 0 {
		first = max(size+low, 0)
	}
	if low < 0 || high < 0 || high >= size {
		last = size - 1
	}
	n := max(last-first+1, 0)
	return io.NopCloser(io.NewSectionReader(f.bs, first, n)),
		&Window{Offset: first, Length: n, Size: size}, true
}

func (f *HTTPFetcher) copyReq(ctx context.Context) *http.Request {
	out := f.req.WithContext(ctx)
	out.Body = nil
	out.ContentLength = 0
	out.Header = f.req.Header.Clone()
	if out.Header == nil {
		out.Header = make(http.Header)
	}
	return out
}

type meta struct {
	size         int64
	lastModified string
	etag         string
	contentType  string
}

func getMeta(resp *http.Response) (meta meta) {
	meta.lastModified = resp.Header.Get("Last-Modified")
	meta.etag = resp.Header.Get("ETag")
	meta.contentType = resp.Header.Get("Content-Type")

	switch resp.StatusCode {
	case http.StatusOK:
		meta.size = resp.ContentLength
	case http.StatusPartialContent:
		meta.size, _ = contentrange.Length(resp.Header.Get("Content-Range"))
	}
	return meta
}

// setAndValidate records the metadata of the first response and checks
// every later one against it.
func (f *HTTPFetcher) setAndValidate(resp *http.Response) error {
	m := getMeta(resp)

	f.metaMutex.Lock()
	defer f.metaMutex.Unlock()

	if !f.metaSet {
		f.meta = m
		f.metaSet = true
		return nil
	}
	if f.meta.size == m.size &&
		f.meta.lastModified == m.lastModified &&
		f.meta.etag == m.etag {
		return nil
	}
	return ErrValidationFailed
}
