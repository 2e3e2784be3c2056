package output

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/fatih/color"
	"github.com/tidwall/gjson"
)

// Formatter renders responses and errors for the CLI
type Formatter interface {
	FormatResponse(resp *http.Response) error
	FormatError(err error)
}

type ConsoleFormatter struct {
	writer    io.Writer
	errWriter io.Writer
	verbose   bool
	noColor   bool
	query     string
}

type ConsoleOption func(*ConsoleFormatter)

func NewConsoleFormatter(opts ...ConsoleOption) *ConsoleFormatter {
	f := &ConsoleFormatter{
		writer:    os.Stdout,
		errWriter: os.Stderr,
	}
	for _, opt := range opts {
		opt(f)
	}
	if f.noColor {
		color.NoColor = true
	}
	return f
}

func WithWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.writer = w
	}
}

func WithErrorWriter(w io.Writer) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.errWriter = w
	}
}

func WithVerbose(v bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.verbose = v
	}
}

func WithNoColor(nc bool) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.noColor = nc
	}
}

// WithQuery prints only the gjson path result of a JSON body
func WithQuery(path string) ConsoleOption {
	return func(f *ConsoleFormatter) {
		f.query = path
	}
}

func statusColor(resp *http.Response) *color.Color {
	switch {
	case resp.IsSuccess():
		return color.New(color.FgGreen, color.Bold)
	case resp.IsRedirect():
		return color.New(color.FgYellow, color.Bold)
	case resp.IsClientError():
		return color.New(color.FgRed, color.Bold)
	case resp.IsServerError():
		return color.New(color.FgHiRed, color.Bold)
	default:
		return color.New(color.Bold)
	}
}

func (f *ConsoleFormatter) FormatResponse(resp *http.Response) error {
	if f.verbose {
		cyan := color.New(color.FgCyan).SprintFunc()
		faint := color.New(color.Faint).SprintFunc()

		fmt.Fprintf(f.writer, "%s %s %s\n", statusColor(resp).Sprint(resp.Status), resp.URL, cyan(fmt.Sprintf("(%dms)", resp.DurationMs())))

		keys := make([]string, 0, len(resp.Headers))
		for k := range resp.Headers {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(f.writer, "%s %s\n", faint(k+":"), resp.Headers[k])
		}
		fmt.Fprintf(f.writer, "\n")
	}

	if f.query == "" {
		fmt.Fprintf(f.writer, "%s\n", resp.BodyString())
		return nil
	}

	value, err := Query(resp.Body, f.query)
	if err != nil {
		return err
	}
	fmt.Fprintf(f.writer, "%s\n", value)
	return nil
}

func (f *ConsoleFormatter) FormatError(err error) {
	red := color.New(color.FgRed).SprintFunc()
	fmt.Fprintf(f.errWriter, "%s %v\n", red("error:"), err)
}

// Query evaluates a gjson path against a JSON body. Strings are returned
// unquoted, everything else as raw JSON.
func Query(body []byte, path string) (string, error) {
	if !gjson.ValidBytes(body) {
		return "", fmt.Errorf("response body is not JSON, cannot apply query %q", path)
	}

	result := gjson.GetBytes(body, path)
	if !result.Exists() {
		return "", fmt.Errorf("query %q matched nothing", path)
	}
	if result.Type == gjson.String {
		return result.String(), nil
	}
	return result.Raw, nil
}
