package lszip

import (
	"bytes"
	"io"
	"os"

	"github.com/pkg/errors"
)

// Store holds a complete copy of an archive for servers that ignore the
// Range header.
type Store interface {
	io.ReaderFrom
	io.ReaderAt
	io.Closer
}

// SizeHinter is implemented by stores that can pick where to keep the
// archive once its size is known. The fetcher calls Expect with the
// Content-Length before filling the store.
type SizeHinter interface {
	Expect(size int64)
}

// ErrStoreLimit is returned when the archive does not fit in the last
// Store of a chain.
var ErrStoreLimit = errors.New("backing store limit reached")

const (
	defaultMemoryLimit = 1 << 20
	defaultFileLimit   = 1 << 30
)

// NewDefaultStore keeps archives of up to 1 MB in memory and larger ones,
// up to 1 GB, in a temporary file. It must be closed when no longer used.
func NewDefaultStore() Store {
	file := NewLimitedStore(NewStoreFile(), defaultFileLimit, nil)
	return NewLimitedStore(NewStoreMemory(), defaultMemoryLimit, file)
}

// StoreFile keeps the archive in a temporary file that is created on the
// first write and removed by Close.
type StoreFile struct {
	f    *os.File
	size int64
}

var _ Store = (*StoreFile)(nil)

func NewStoreFile() *StoreFile {
	return &StoreFile{}
}

func (s *StoreFile) ReadFrom(r io.Reader) (int64, error) {
	if s.f == nil {
		f, err := os.CreateTemp("", "lszip-*")
		if err != nil {
			return 0, errors.Wrap(err, "create store file")
		}
		s.f = f
	}
	n, err := io.Copy(s.f, r)
	s.size += n
	return n, err
}

func (s *StoreFile) ReadAt(p []byte, off int64) (int, error) {
	if s.f == nil {
		return 0, io.EOF
	}
	return s.f.ReadAt(p, off)
}

// Size is the number of bytes stored.
func (s *StoreFile) Size() int64 {
	return s.size
}

// Close deletes the temporary file. It is safe to call more than once.
func (s *StoreFile) Close() error {
	if s.f == nil {
		return nil
	}
	f := s.f
	s.f, s.size = nil, 0
	cerr := f.Close()
	if rerr := os.Remove(f.Name()); cerr == nil {
		cerr = rerr
	}
	return cerr
}

// StoreMemory keeps the archive in memory.
type StoreMemory struct {
	data []byte
}

var _ Store = (*StoreMemory)(nil)

func NewStoreMemory() *StoreMemory {
	return &StoreMemory{}
}

func (s *StoreMemory) ReadFrom(r io.Reader) (int64, error) {
	buf := bytes.NewBuffer(s.data)
	n, err := buf.ReadFrom(r)
	s.data = buf.Bytes()
	return n, err
}

func (s *StoreMemory) ReadAt(p []byte, off int64) (int, error) {
	return bytes.NewReader(s.data).ReadAt(p, off)
}

// Size is the number of bytes stored.
func (s *StoreMemory) Size() int64 {
	return int64(len(s.data))
}

func (s *StoreMemory) Close() error {
	s.data = nil
	return nil
}

// LimitedStore writes to a primary Store until limit bytes are held, then
// copies everything to fallback and continues there. With no fallback,
// exceeding the limit fails with ErrStoreLimit.
type LimitedStore struct {
	cur      Store
	limit    int64
	fallback Store
	moved    bool
}

var (
	_ Store      = (*LimitedStore)(nil)
	_ SizeHinter = (*LimitedStore)(nil)
)

func NewLimitedStore(primary Store, limit int64, fallback Store) *LimitedStore {
	return &LimitedStore{cur: primary, limit: limit, fallback: fallback}
}

// Expect moves straight to the fallback when size is over the limit, so
// a large archive is not first buffered in the primary store.
func (s *LimitedStore) Expect(size int64) {
	if !s.moved && size > s.limit && s.fallback != nil {
		s.cur.Close()
		s.cur = s.fallback
		s.moved = true
	}
	if h, ok := s.cur.(SizeHinter); ok {
		h.Expect(size)
	}
}

func (s *LimitedStore) ReadFrom(r io.Reader) (int64, error) {
	if s.moved {
		return s.cur.ReadFrom(r)
	}

	// One byte past the limit tells a full store from an overflowing one.
	n, err := s.cur.ReadFrom(io.LimitReader(r, s.limit+1))
	if n <= s.limit {
		s.limit -= n
		return n, err
	}
	if s.fallback == nil {
		return n, ErrStoreLimit
	}

	held := io.NewSectionReader(s.cur, 0, n)
	n, err = s.fallback.ReadFrom(io.MultiReader(held, r))
	if cerr := s.cur.Close(); err == nil {
		err = cerr
	}
	s.cur = s.fallback
	s.moved = true
	return n, err
}

func (s *LimitedStore) ReadAt(p []byte, off int64) (int, error) {
	return s.cur.ReadAt(p, off)
}

func (s *LimitedStore) Close() error {
	return s.cur.Close()
}
