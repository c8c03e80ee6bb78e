// Package apperr defines the sentinel errors shared across layers.
package apperr

import "errors"

var (
	// ErrNotFound means no source yielded content for an id. It surfaces
	// as 404 only once every source has been consulted.
	ErrNotFound = errors.New("not found")
	// ErrMalformedContent marks files whose front matter could not be
	// parsed. Listings skip these instead of failing the whole build.
	ErrMalformedContent = errors.New("malformed content")
)
