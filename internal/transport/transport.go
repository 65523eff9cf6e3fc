// Package transport defines the interface for pluggable chat transports.
//
// Each transport (HTTP, MCP) implements this interface and is handed the
// dispatcher's Handle method. The dispatcher doesn't care how requests
// arrive; it only works with the Handler contract.
package transport

import (
	"context"

	"github.com/nadzzz/sahayak/internal/message"
)

// Handler processes one chat request and returns the answer.
// The dispatcher provides this handler to each transport.
type Handler func(ctx context.Context, req *message.ChatRequest) (*message.ChatResponse, error)

// AidCenterFinder looks up legal-aid centers by city.
type AidCenterFinder interface {
	Find(city string) []message.AidCenter
}

// Transport is the interface that every transport adapter must implement.
type Transport interface {
	// Name returns the transport identifier (e.g., "http", "mcp").
	Name() string

	// Listen starts accepting requests and passes them to the handler.
	// It blocks until the context is cancelled.
	Listen(ctx context.Context, handler Handler) error

	// Close gracefully shuts down the transport, draining in-flight work.
	Close() error
}
