// Package flows drives the employment flows end to end: fetch the schema,
// collect values, validate, confirm, and submit. All remote access goes
// through the Client interface with explicit tokens so nothing hides in
// ambient state.
package flows

import (
	"context"
	"fmt"

	"github.com/goliatone/go-jsform/pkg/jsf"
)

// Client performs the remote calls flows depend on.
type Client interface {
	// FetchSchema retrieves the JSF document for a flow.
	FetchSchema(ctx context.Context, token, flow string) (jsf.Document, error)
	// Submit posts the collected values and returns the server response body.
	Submit(ctx context.Context, token, flow string, payload map[string]any) (map[string]any, error)
}

// APIError is a server-side rejection. FieldErrors carry messages keyed by
// the server's field paths; Raw preserves the untouched response body.
type APIError struct {
	Message     string
	FieldErrors map[string][]string
	Raw         map[string]any
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("flows: submission rejected: %s", e.Message)
	}
	return "flows: submission rejected"
}
