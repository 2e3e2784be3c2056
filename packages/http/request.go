package http

import (
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// MethodGet and MethodPost are the only methods the executor dispatches.
	MethodGet  = "get"
	MethodPost = "post"

	formContentType = "application/x-www-form-urlencoded"
)

// Payload is the data sent with a request. The zero value is an empty payload.
type Payload struct {
	raw     string
	form    url.Values
	ordered []Field
	isForm  bool
}

// Field is a single form field of an ordered payload.
type Field struct {
	Key   string
	Value string
}

// Raw returns a payload sent verbatim: as the POST body, or appended to the
// query string of a GET.
func Raw(s string) Payload {
	return Payload{raw: s}
}

// Form returns a payload of form fields. GET appends them to the query
// string, POST sends them form-encoded.
func Form(values url.Values) Payload {
	return Payload{form: values, isForm: true}
}

// Fields is Form for single-valued fields.
func Fields(fields map[string]string) Payload {
	values := make(url.Values, len(fields))
	for k, v := range fields {
		values.Set(k, v)
	}
	return Form(values)
}

// Ordered returns a form payload encoded in the order the fields are given,
// duplicates included.
func Ordered(fields ...Field) Payload {
	return Payload{ordered: append([]Field(nil), fields...), isForm: true}
}

// IsEmpty reports whether the payload carries no data.
func (p Payload) IsEmpty() bool {
	if p.isForm {
		return len(p.form) == 0 && len(p.ordered) == 0
	}
	return p.raw == ""
}

// IsForm reports whether the payload holds form fields.
func (p Payload) IsForm() bool {
	return p.isForm
}

// Encode returns the wire form of the payload. Fields built with Form or
// Fields are encoded sorted by key, Ordered fields keep their order.
func (p Payload) Encode() string {
	if !p.isForm {
		return p.raw
	}
	if p.ordered == nil {
		return p.form.Encode()
	}

	var buf strings.Builder
	for i, f := range p.ordered {
		if i > 0 {
			buf.WriteByte('&')
		}
		buf.WriteString(url.QueryEscape(f.Key))
		buf.WriteByte('=')
		buf.WriteString(url.QueryEscape(f.Value))
	}
	return buf.String()
}

// Options configures a single request. Zero values mean "not set": per-call
// options only override the client defaults for fields they set.
type Options struct {
	ConnectTimeout  time.Duration
	Timeout         time.Duration
	FollowRedirects *bool
	MaxRedirects    int
	ValidateSSL     *bool
	UserAgent       string

	// Headers are literal header lines such as "Content-Type: application/json".
	// They are applied last and replace the default header lines entirely.
	Headers []string
}

// Bool returns a pointer to b, for the optional boolean fields of Options.
func Bool(b bool) *bool {
	return &b
}

// DefaultOptions returns the executor defaults.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:  DefaultConnectTimeout,
		Timeout:         DefaultTimeout,
		FollowRedirects: Bool(true),
		MaxRedirects:    DefaultMaxRedirects,
		ValidateSSL:     Bool(true),
	}
}

// Merge returns a copy of o with the fields set in other taking precedence.
func (o Options) Merge(other *Options) Options {
	result := o
	result.Headers = append([]string(nil), o.Headers...)
	if other == nil {
		return result
	}

	if other.ConnectTimeout > 0 {
		result.ConnectTimeout = other.ConnectTimeout
	}
	if other.Timeout > 0 {
		result.Timeout = other.Timeout
	}
	if other.MaxRedirects > 0 {
		result.MaxRedirects = other.MaxRedirects
	}
	if other.UserAgent != "" {
		result.UserAgent = other.UserAgent
	}
	if other.FollowRedirects != nil {
		result.FollowRedirects = Bool(*other.FollowRedirects)
	}
	if other.ValidateSSL != nil {
		result.ValidateSSL = Bool(*other.ValidateSSL)
	}
	if len(other.Headers) > 0 {
		result.Headers = append([]string(nil), other.Headers...)
	}

	return result
}

func (o Options) followRedirects() bool {
	return o.FollowRedirects == nil || *o.FollowRedirects
}

func (o Options) validateSSL() bool {
	return o.ValidateSSL == nil || *o.ValidateSSL
}

// BuildURL returns the effective GET URL: a non-empty payload is appended to
// the query string with "&" when rawURL already contains "?", otherwise "?".
func BuildURL(rawURL string, data Payload) string {
	if data.IsEmpty() {
		return rawURL
	}
	sep := "?"
	if strings.Contains(rawURL, "?") {
		sep = "&"
	}
	return rawURL + sep + data.Encode()
}

// HeaderLine is a parsed literal header line.
type HeaderLine struct {
	Name  string
	Value string
	// Remove is set for "Name:" lines, which drop a header the executor
	// would otherwise send.
	Remove bool
}

// ParseHeaderLine parses "Name: value", "Name:" (remove) and "Name;" (send
// with an empty value).
func ParseHeaderLine(line string) (HeaderLine, error) {
	idx := strings.IndexAny(line, ":;")
	if idx <= 0 {
		return HeaderLine{}, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
	}

	name := strings.TrimSpace(line[:idx])
	if name == "" || strings.ContainsAny(name, " \t") {
		return HeaderLine{}, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
	}

	value := strings.TrimSpace(line[idx+1:])
	if line[idx] == ';' {
		if value != "" {
			return HeaderLine{}, fmt.Errorf("%w: %q", ErrInvalidHeader, line)
		}
		return HeaderLine{Name: name}, nil
	}

	return HeaderLine{Name: name, Value: value, Remove: value == ""}, nil
}

// applyHeaderLines applies lines over req's headers. The first line for a
// name replaces whatever the executor set; later lines for the same name add
// further values.
func applyHeaderLines(req *http.Request, lines []string) error {
	seen := make(map[string]bool, len(lines))
	for _, line := range lines {
		h, err := ParseHeaderLine(line)
		if err != nil {
			return err
		}

		key := http.CanonicalHeaderKey(h.Name)
		if key == "Host" {
			if !h.Remove {
				req.Host = h.Value
			}
			continue
		}

		switch {
		case h.Remove:
			req.Header.Del(key)
		case seen[key]:
			req.Header.Add(key, h.Value)
		default:
			req.Header.Set(key, h.Value)
		}
		seen[key] = true
	}
	return nil
}
