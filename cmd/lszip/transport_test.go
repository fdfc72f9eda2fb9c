package main

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stallingServer sends headers and the first bytes of a 100 byte
// response, then sends nothing until the client goes away.
func stallingServer(t *testing.T) *httptest.Server {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Range", "bytes 0-99/100")
		w.Header().Set("Content-Length", "100")
		w.WriteHeader(http.StatusPartialContent)
		w.Write(bytes.Repeat([]byte{'x'}, 10))
		w.(http.Flusher).Flush()
		<-r.Context().Done()
	}))
	t.Cleanup(s.Close)
	return s
}

func TestIdleTimeoutStalledBody(t *testing.T) {
	s := stallingServer(t)
	client := &http.Client{Transport: newIdleTimeoutTransport(s.Client().Transport, 100*time.Millisecond)}

	resp, err := client.Get(s.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	_, err = io.ReadAll(resp.Body)
	assert.ErrorIs(t, err, errIdleTimeout)
}

func TestIdleTimeoutSlowProgress(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		for range 5 {
			w.Write([]byte("chunk"))
			w.(http.Flusher).Flush()
			time.Sleep(40 * time.Millisecond)
		}
	}))
	defer s.Close()
	client := &http.Client{Transport: newIdleTimeoutTransport(s.Client().Transport, 150*time.Millisecond)}

	resp, err := client.Get(s.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	// The whole transfer takes longer than the timeout.
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, bytes.Repeat([]byte("chunk"), 5), body)
}

func TestIdleTimeoutNoHeaders(t *testing.T) {
	s := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer s.Close()
	client := &http.Client{Transport: newIdleTimeoutTransport(s.Client().Transport, 100*time.Millisecond)}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, s.URL, nil)
	require.NoError(t, err)
	_, err = client.Do(req)
	assert.ErrorIs(t, err, errIdleTimeout)
}

func TestIdleTimeoutDisabled(t *testing.T) {
	base := http.DefaultTransport
	assert.Same(t, base, newIdleTimeoutTransport(base, 0))
}

func TestListStalledServer(t *testing.T) {
	s := stallingServer(t)
	a := &app{transport: s.Client().Transport}
	root := newRootCmd(a)
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"list", s.URL + "/archive.zip", "--timeout", "100ms"})

	err := root.ExecuteContext(context.Background())
	assert.ErrorIs(t, err, errIdleTimeout)
}
