package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
)

// JSONResponse is the JSON rendering of a response
type JSONResponse struct {
	StatusCode int               `json:"statusCode"`
	Status     string            `json:"status"`
	URL        string            `json:"url"`
	Headers    map[string]string `json:"headers,omitempty"`
	Body       string            `json:"body"`
	// JSON holds the decoded body when the response declares a JSON content type
	JSON     json.RawMessage `json:"json,omitempty"`
	Duration int64           `json:"durationMs"`
}

// JSONError is the JSON rendering of a failed request
type JSONError struct {
	Error string `json:"error"`
}

// JSONFormatter formats responses as JSON
type JSONFormatter struct {
	writer io.Writer
}

type JSONOption func(*JSONFormatter)

func NewJSONFormatter(opts ...JSONOption) *JSONFormatter {
	f := &JSONFormatter{
		writer: os.Stdout,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func WithJSONWriter(w io.Writer) JSONOption {
	return func(f *JSONFormatter) {
		f.writer = w
	}
}

func (f *JSONFormatter) FormatResponse(resp *http.Response) error {
	out := JSONResponse{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		URL:        resp.URL,
		Headers:    resp.Headers,
		Body:       resp.BodyString(),
		Duration:   resp.DurationMs(),
	}
	if resp.IsJSON() && json.Valid(resp.Body) {
		out.JSON = json.RawMessage(resp.Body)
	}
	return f.write(out)
}

func (f *JSONFormatter) FormatError(err error) {
	_ = f.write(JSONError{Error: err.Error()})
}

func (f *JSONFormatter) write(v any) error {
	encoder := json.NewEncoder(f.writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
