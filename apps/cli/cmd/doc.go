// Package cmd implements the hitclient CLI commands using Cobra.
//
// Available commands:
//   - get: Issue a GET request, form data goes to the query string
//   - post: Issue a POST request with a raw or form-encoded body
//   - request: Issue a request with an explicit method
//   - version: Show hitclient version information
//   - completion: Generate shell completion scripts
//
// Executor defaults come from a hitclient.yaml config file and can be
// overridden with flags or HITCLIENT_* environment variables.
package cmd
