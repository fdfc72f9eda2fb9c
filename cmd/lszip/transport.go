package main

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

var errIdleTimeout = errors.New("no data received within timeout")

// idleTimeoutTransport cancels a request when neither the response headers
// nor the next part of the body arrive within timeout. A slow transfer
// that keeps making progress is never cut off.
type idleTimeoutTransport struct {
	next    http.RoundTripper
	timeout time.Duration
}

func newIdleTimeoutTransport(next http.RoundTripper, timeout time.Duration) http.RoundTripper {
	if timeout <= 0 {
		return next
	}
	return &idleTimeoutTransport{next: next, timeout: timeout}
}

func (t *idleTimeoutTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, cancel := context.WithCancelCause(req.Context())
	timer := time.AfterFunc(t.timeout, func() { cancel(errIdleTimeout) })

	resp, err := t.next.RoundTrip(req.WithContext(ctx))
	if err != nil {
		timer.Stop()
		if context.Cause(ctx) == errIdleTimeout {
			err = errors.Wrap(errIdleTimeout, "waiting for response")
		}
		cancel(nil)
		return nil, err
	}
	resp.Body = &idleBody{
		ReadCloser: resp.Body,
		ctx:        ctx,
		cancel:     cancel,
		timer:      timer,
		timeout:    t.timeout,
	}
	return resp, nil
}

// CloseIdleConnections lets http.Client.CloseIdleConnections reach the
// wrapped transport.
func (t *idleTimeoutTransport) CloseIdleConnections() {
	if c, ok := t.next.(interface{ CloseIdleConnections() }); ok {
		c.CloseIdleConnections()
	}
}

type idleBody struct {
	io.ReadCloser
	ctx     context.Context
	cancel  context.CancelCauseFunc
	timer   *time.Timer
	timeout time.Duration
}

func (b *idleBody) Read(p []byte) (int, error) {
	n, err := b.ReadCloser.Read(p)
	if n > 0 {
		b.timer.Reset(b.timeout)
	}
	if err != nil && err != io.EOF && context.Cause(b.ctx) == errIdleTimeout {
		err = errors.Wrap(errIdleTimeout, "reading response body")
	}
	return n, err
}

func (b *idleBody) Close() error {
	b.timer.Stop()
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}
