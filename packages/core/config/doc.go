// Package config handles configuration loading and management for hitclient.
//
// It provides functionality for:
//   - Loading executor defaults from YAML or JSON files
//   - Expanding ${VAR} references from the environment
//   - Rejecting unknown keys through schema validation
//   - Default configuration values
package config
