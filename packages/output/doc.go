// Package output provides formatters for displaying responses in the CLI.
//
// Supported output formats:
//   - Console: the body, optionally narrowed with a gjson query, with a
//     colored status line and headers in verbose mode
//   - JSON: the structured response as a JSON document
package output
