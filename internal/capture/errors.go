package capture

import "errors"

// Capture errors.
var (
	// ErrInvalidURL is returned when the page URL is not an absolute http or
	// https URL.
	ErrInvalidURL = errors.New("invalid page URL")

	// ErrFetchFailed is returned when the page cannot be downloaded.
	ErrFetchFailed = errors.New("failed to fetch page")

	// ErrUnexpectedStatus is returned when the server answers with a non-2xx
	// status.
	ErrUnexpectedStatus = errors.New("unexpected HTTP status")

	// ErrParseFailed is returned when the document cannot be parsed.
	ErrParseFailed = errors.New("failed to parse page")
)
