// Package client talks to the blog HTTP API on behalf of the CLI.
//
// HTTPClient keeps the bearer token returned by Login in memory and attaches
// it to every protected call. Error responses are decoded into *APIError,
// which unwraps to the shared sentinels in internal/common; transport
// failures are reported as ErrUnavailable.
package client
