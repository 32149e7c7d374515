package sitemap

import "errors"

// Common errors
var (
	// ErrValidation is returned when a URL is built from invalid input.
	ErrValidation = errors.New("sitemap: validation failed")

	// ErrConfiguration is returned when a sitemap cannot be chunked with its current path.
	ErrConfiguration = errors.New("sitemap: invalid configuration")

	// ErrRender is returned when a rendered document is not well-formed.
	ErrRender = errors.New("sitemap: render failed")
)
