package config

import (
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

const durationPattern = `^([0-9]+(\.[0-9]+)?(ns|us|µs|ms|s|m|h))+$`

// Schema is the JSON schema config documents are validated against. Unknown
// keys are rejected at every level.
var Schema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "additionalProperties": false,
  "properties": {
    "connectTimeout": {"type": "string", "pattern": "` + jsonEscape(durationPattern) + `"},
    "timeout": {"type": "string", "pattern": "` + jsonEscape(durationPattern) + `"},
    "followRedirects": {"type": "boolean"},
    "maxRedirects": {"type": "integer", "minimum": 0},
    "validateSSL": {"type": "boolean"},
    "userAgent": {"type": "string"},
    "headers": {"type": "array", "items": {"type": "string", "minLength": 1}},
    "certificates": {"type": "string"},
    "clientRequestId": {"type": "boolean"},
    "proxy": {
      "type": "object",
      "additionalProperties": false,
      "required": ["url"],
      "properties": {
        "url": {"type": "string", "minLength": 1},
        "user": {"type": "string"},
        "password": {"type": "string"}
      }
    },
    "rateLimit": {
      "type": "object",
      "additionalProperties": false,
      "required": ["rps"],
      "properties": {
        "rps": {"type": "number", "exclusiveMinimum": 0},
        "burst": {"type": "integer", "minimum": 1}
      }
    }
  }
}`

var schemaLoader = gojsonschema.NewStringLoader(Schema)

func jsonEscape(s string) string {
	return strings.ReplaceAll(s, `\`, `\\`)
}

// ValidateDocument checks a decoded YAML or JSON document against Schema.
func ValidateDocument(doc any) error {
	result, err := gojsonschema.Validate(schemaLoader, gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("config schema: %w", err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}
