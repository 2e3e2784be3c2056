package cmd

import (
	"errors"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
)

// Exit codes for hitclient CLI
const (
	// ExitSuccess indicates the request completed, whatever its status code
	ExitSuccess = 0

	// ExitFailure indicates an unclassified failure
	ExitFailure = 1

	// ExitQueryError indicates the response body could not be queried
	ExitQueryError = 2

	// ExitConfigError indicates a configuration or env file error
	ExitConfigError = 3

	// ExitNetworkError indicates a transport failure: DNS, connect, TLS, timeout
	ExitNetworkError = 4

	// ExitUsageError indicates invalid CLI usage, URL, method or header line
	ExitUsageError = 64
)

// ExitError carries the process exit code for a failed command. Its message
// has already been printed by the formatter.
type ExitError struct {
	Code int
	Err  error
}

func (e *ExitError) Error() string {
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

func exitCodeFor(err error) int {
	switch {
	case errors.Is(err, http.ErrTransport):
		return ExitNetworkError
	case errors.Is(err, http.ErrInvalidURL),
		errors.Is(err, http.ErrUnsupportedMethod),
		errors.Is(err, http.ErrInvalidHeader):
		return ExitUsageError
	default:
		return ExitFailure
	}
}
