// Package archive persists raw fetched chart pages for offline
// debugging of selector breakage. Archiving is best effort and never
// blocks or fails a crawl.
package archive

import "context"

// Provider stores one raw page body and returns a location URI.
type Provider interface {
	Put(ctx context.Context, path, contentType string, data []byte) (string, error)
	Close() error
}

// NoOp discards everything. Used when archiving is disabled.
type NoOp struct{}

// Put implements Provider.
func (NoOp) Put(_ context.Context, _, _ string, _ []byte) (string, error) {
	return "", nil
}

// Close implements Provider.
func (NoOp) Close() error { return nil }
