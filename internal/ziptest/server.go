package ziptest

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"time"
)

// Server serves one archive over HTTP and records the Range header of
// every request it receives.
type Server struct {
	*httptest.Server

	mu          sync.Mutex
	data        []byte
	etag        string
	ignoreRange bool
	ranges      []string
	header      http.Header
}

// NewServer starts a server for data. It must be closed by the caller.
func NewServer(data []byte) *Server {
	s := &Server{data: data}
	s.Server = httptest.NewServer(http.HandlerFunc(s.serve))
	return s
}

// ArchiveURL is the URL the archive is served at.
func (s *Server) ArchiveURL() string {
	return s.URL + "/archive.zip"
}

// IgnoreRange makes the server answer every request with the whole
// archive and status 200.
func (s *Server) IgnoreRange(ignore bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ignoreRange = ignore
}

// SetETag sets the ETag header sent with every response.
func (s *Server) SetETag(etag string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.etag = etag
}

// Ranges returns the Range headers received so far, in order.
func (s *Server) Ranges() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.ranges...)
}

// LastHeader returns the headers of the most recent request.
func (s *Server) LastHeader() http.Header {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.header.Clone()
}

func (s *Server) serve(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.ranges = append(s.ranges, r.Header.Get("Range"))
	s.header = r.Header.Clone()
	data, etag, ignore := s.data, s.etag, s.ignoreRange
	s.mu.Unlock()

	if etag != "" {
		w.Header().Set("ETag", etag)
	}
	if ignore {
		w.Header().Set("Content-Length", strconv.Itoa(len(data)))
		w.WriteHeader(http.StatusOK)
		w.Write(data)
		return
	}
	http.ServeContent(w, r, "archive.zip", time.Time{}, bytes.NewReader(data))
}
