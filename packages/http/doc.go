// Package http provides the request executor used as the transport layer of
// the authentication library.
//
// It wraps the standard library's http package with:
//   - Connect and total timeouts
//   - Redirect following with a configurable cap
//   - Explicit HTTP proxy with basic credentials
//   - Custom CA bundle or directory for TLS verification
//   - Literal header lines applied over implied headers
//   - Form encoding of GET query strings and POST bodies
package http
