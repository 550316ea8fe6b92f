package classifier

import "errors"

// Classifier errors.
// Every failure of Analyze wraps one of these, so callers can tell a
// classifier that is down from one that answers with garbage.
var (
	// ErrInvalidBaseURL is returned by New when the classifier URL is not an
	// absolute http(s) URL.
	ErrInvalidBaseURL = errors.New("classifier URL must be an absolute http or https URL")

	// ErrRequestFailed is returned when the request could not be sent or no
	// response was received (connection refused, timeout, cancellation).
	ErrRequestFailed = errors.New("classifier request failed")

	// ErrUnexpectedStatus is returned when the classifier answers with a
	// non-2xx status code.
	ErrUnexpectedStatus = errors.New("unexpected classifier status")

	// ErrRateLimited is returned together with ErrUnexpectedStatus when the
	// classifier answers 429 Too Many Requests.
	ErrRateLimited = errors.New("classifier rate limit exceeded")

	// ErrMalformedResponse is returned when the response body is not a JSON
	// object with a string "prediction" field.
	ErrMalformedResponse = errors.New("malformed classifier response")
)
