package http

import "errors"

var (
	// ErrInvalidURL is returned before any network activity when a URL is not
	// an absolute http or https URL.
	ErrInvalidURL = errors.New("invalid URL")

	// ErrUnsupportedMethod is returned for any method other than get or post.
	ErrUnsupportedMethod = errors.New("unsupported request method")

	// ErrInvalidHeader is returned for a header line that has neither a colon
	// nor a semicolon after the header name.
	ErrInvalidHeader = errors.New("invalid header line")

	// ErrTransport wraps failures of the underlying transport: DNS, connect,
	// TLS, timeouts, too many redirects and unreadable CA files.
	ErrTransport = errors.New("transport failure")
)
