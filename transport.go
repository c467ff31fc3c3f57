package results

import (
	"context"
	"net/url"
)

// Transport performs one request-response round trip against the remote API.
//
// The client core never opens sockets, manages tokens, retries, or applies
// timeouts; all of that belongs to the Transport implementation. The session
// subpackage provides the standard HTTP transport; tests inject stubs.
//
// Both methods receive a path relative to the API root (e.g.,
// "results/dbexplorer/search") and return the raw response payload.
type Transport interface {
	// Get issues a GET request with the given query parameters.
	Get(ctx context.Context, path string, params url.Values) ([]byte, error)

	// Post issues a form-encoded POST request with the given body.
	Post(ctx context.Context, path string, form url.Values) ([]byte, error)
}
