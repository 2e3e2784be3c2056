package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/abdul-hamid-achik/hitclient/packages/core/config"
	"github.com/abdul-hamid-achik/hitclient/packages/http"
	"github.com/abdul-hamid-achik/hitclient/packages/output"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type requestFlags struct {
	configFile     string
	envFile        string
	data           []string
	body           string
	headers        []string
	timeout        string
	connectTimeout string
	maxRedirects   int
	noFollow       bool
	cacert         string
	proxy          string
	proxyUser      string
	insecure       bool
	userAgent      string
	requestID      bool
	query          string
	output         string
	verbose        int // 0=body, 1=-v status and headers, 2=-vv transport logs
	noColor        bool
	watch          bool
}

func (f *requestFlags) register(cmd *cobra.Command) {
	// Core flags
	cmd.Flags().StringVar(&f.configFile, "config", getEnvString("HITCLIENT_CONFIG", ""), "Path to config file (env: HITCLIENT_CONFIG)")
	cmd.Flags().StringVar(&f.envFile, "env-file", getEnvString("HITCLIENT_ENV_FILE", ""), "Path to .env file exported before the config is loaded (env: HITCLIENT_ENV_FILE)")
	cmd.Flags().StringArrayVarP(&f.data, "data", "d", nil, "Form field key=value, sent in the order given (repeatable)")
	cmd.Flags().StringVar(&f.body, "body", "", "Raw payload, sent as the POST body or appended to the GET query string")
	cmd.Flags().StringArrayVarP(&f.headers, "header", "H", nil, "Literal header line, replaces the config headers (repeatable)")

	// Output flags
	cmd.Flags().StringVarP(&f.query, "query", "q", "", "Print only this gjson path of a JSON body")
	cmd.Flags().StringVarP(&f.output, "output", "o", getEnvString("HITCLIENT_OUTPUT", "console"), "Output format: console, json (env: HITCLIENT_OUTPUT)")
	cmd.Flags().CountVarP(&f.verbose, "verbose", "v", "Verbose output (-v status and headers, -vv transport logs)")
	cmd.Flags().BoolVar(&f.noColor, "no-color", getEnvBool("HITCLIENT_NO_COLOR", false), "Disable colored output (env: HITCLIENT_NO_COLOR)")
	cmd.Flags().BoolVarP(&f.watch, "watch", "w", false, "Re-run the request when the config file changes")

	// Network flags
	cmd.Flags().StringVar(&f.timeout, "timeout", getEnvString("HITCLIENT_TIMEOUT", ""), "Total request timeout (e.g., 12s) (env: HITCLIENT_TIMEOUT)")
	cmd.Flags().StringVar(&f.connectTimeout, "connect-timeout", getEnvString("HITCLIENT_CONNECT_TIMEOUT", ""), "Connect timeout (e.g., 3s) (env: HITCLIENT_CONNECT_TIMEOUT)")
	cmd.Flags().IntVar(&f.maxRedirects, "max-redirects", getEnvInt("HITCLIENT_MAX_REDIRECTS", 0), "Maximum redirects to follow (env: HITCLIENT_MAX_REDIRECTS)")
	cmd.Flags().BoolVar(&f.noFollow, "no-follow", false, "Do not follow redirects")
	cmd.Flags().StringVar(&f.cacert, "cacert", getEnvString("HITCLIENT_CACERT", ""), "CA bundle file or directory (env: HITCLIENT_CACERT)")
	cmd.Flags().StringVar(&f.proxy, "proxy", getEnvString("HITCLIENT_PROXY", ""), "HTTP proxy URL (env: HITCLIENT_PROXY)")
	cmd.Flags().StringVar(&f.proxyUser, "proxy-user", getEnvString("HITCLIENT_PROXY_USER", ""), "Proxy credentials user:password (env: HITCLIENT_PROXY_USER)")
	cmd.Flags().BoolVarP(&f.insecure, "insecure", "k", getEnvBool("HITCLIENT_INSECURE", false), "Disable TLS certificate validation (env: HITCLIENT_INSECURE)")
	cmd.Flags().StringVarP(&f.userAgent, "user-agent", "A", getEnvString("HITCLIENT_USER_AGENT", ""), "User-Agent header (env: HITCLIENT_USER_AGENT)")
	cmd.Flags().BoolVar(&f.requestID, "request-id", false, "Send a fresh client-request-id header")
}

func newGetCmd() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "get <url>",
		Short: "Issue a GET request",
		Long: `Issue a GET request. Form fields are appended to the query string.

Examples:
  hitclient get https://login.example.com/common/discovery/instance -d api-version=1.1
  hitclient get https://login.example.com/.well-known/openid-configuration -q issuer`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, flags, http.MethodGet, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func newPostCmd() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "post <url>",
		Short: "Issue a POST request",
		Long: `Issue a POST request with form fields or a raw body.

Examples:
  hitclient post https://login.example.com/token -d grant_type=client_credentials -d client_id=abc
  hitclient post https://api.example.com/items --body '{"a":1}' -H "Content-Type: application/json"`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, flags, http.MethodPost, args[0])
		},
	}
	flags.register(cmd)
	return cmd
}

func newRequestCmd() *cobra.Command {
	flags := &requestFlags{}
	cmd := &cobra.Command{
		Use:   "request <method> <url>",
		Short: "Issue a request with an explicit method (get or post)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRequest(cmd, flags, args[0], args[1])
		},
	}
	flags.register(cmd)
	return cmd
}

func runRequest(cmd *cobra.Command, flags *requestFlags, method, rawURL string) error {
	formatter := flags.formatter(cmd)

	if flags.body != "" && len(flags.data) > 0 {
		return fail(formatter, ExitUsageError, fmt.Errorf("--body and --data cannot be combined"))
	}

	if flags.envFile != "" {
		if err := godotenv.Load(flags.envFile); err != nil {
			return fail(formatter, ExitConfigError, fmt.Errorf("cannot load env file: %w", err))
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := execute(ctx, cmd, flags, formatter, method, rawURL)
	if !flags.watch {
		return err
	}

	return watchConfig(ctx, cmd, flags, formatter, func() {
		_ = execute(ctx, cmd, flags, formatter, method, rawURL)
	})
}

func execute(ctx context.Context, cmd *cobra.Command, flags *requestFlags, formatter output.Formatter, method, rawURL string) error {
	logger := newLogger(flags.verbose, cmd.ErrOrStderr())
	defer func() { _ = logger.Sync() }()

	cfg, err := config.LoadConfig(flags.configFile)
	if err != nil {
		return fail(formatter, ExitConfigError, err)
	}

	override, err := flags.configOverride()
	if err != nil {
		return fail(formatter, ExitUsageError, err)
	}
	cfg = cfg.Merge(override)

	client, err := newClient(cfg, logger)
	if err != nil {
		return fail(formatter, ExitConfigError, err)
	}

	resp, err := client.Do(ctx, method, rawURL, flags.payload(), flags.callOptions())
	if err != nil {
		return fail(formatter, exitCodeFor(err), err)
	}

	if err := formatter.FormatResponse(resp); err != nil {
		return fail(formatter, ExitQueryError, err)
	}
	return nil
}

func fail(formatter output.Formatter, code int, err error) error {
	formatter.FormatError(err)
	return &ExitError{Code: code, Err: err}
}

func (f *requestFlags) formatter(cmd *cobra.Command) output.Formatter {
	if strings.EqualFold(f.output, "json") {
		return output.NewJSONFormatter(output.WithJSONWriter(cmd.OutOrStdout()))
	}
	return output.NewConsoleFormatter(
		output.WithWriter(cmd.OutOrStdout()),
		output.WithErrorWriter(cmd.ErrOrStderr()),
		output.WithVerbose(f.verbose > 0),
		output.WithNoColor(f.noColor),
		output.WithQuery(f.query),
	)
}

// configOverride turns the network flags into a config layered over the file
func (f *requestFlags) configOverride() (*config.Config, error) {
	override := &config.Config{
		ConnectTimeout: f.connectTimeout,
		Timeout:        f.timeout,
		MaxRedirects:   f.maxRedirects,
		UserAgent:      f.userAgent,
		Certificates:   f.cacert,
	}
	if f.noFollow {
		override.FollowRedirects = config.BoolPtr(false)
	}
	if f.insecure {
		override.ValidateSSL = config.BoolPtr(false)
	}
	if f.requestID {
		override.ClientRequestID = config.BoolPtr(true)
	}
	if f.proxy != "" {
		user, password, _ := strings.Cut(f.proxyUser, ":")
		override.Proxy = &config.ProxyConfig{URL: f.proxy, User: user, Password: password}
	}

	if err := override.Validate(); err != nil {
		return nil, err
	}
	return override, nil
}

func (f *requestFlags) payload() http.Payload {
	if f.body != "" {
		return http.Raw(f.body)
	}
	if len(f.data) == 0 {
		return http.Payload{}
	}

	fields := make([]http.Field, 0, len(f.data))
	for _, field := range f.data {
		key, value, _ := strings.Cut(field, "=")
		fields = append(fields, http.Field{Key: key, Value: value})
	}
	return http.Ordered(fields...)
}

func (f *requestFlags) callOptions() *http.Options {
	if len(f.headers) == 0 {
		return nil
	}
	return &http.Options{Headers: f.headers}
}

// newClient builds the executor from a loaded config
func newClient(cfg *config.Config, logger *zap.Logger) (*http.Client, error) {
	connectTimeout, err := cfg.ConnectTimeoutDuration()
	if err != nil {
		return nil, err
	}
	timeout, err := cfg.TimeoutDuration()
	if err != nil {
		return nil, err
	}

	opts := []http.ClientOption{
		http.WithFollowRedirects(cfg.GetFollowRedirects()),
		http.WithMaxRedirects(cfg.MaxRedirects),
		http.WithValidateSSL(cfg.GetValidateSSL()),
		http.WithClientRequestID(cfg.GetClientRequestID()),
		http.WithLogger(logger),
	}
	if connectTimeout > 0 {
		opts = append(opts, http.WithConnectTimeout(connectTimeout))
	}
	if timeout > 0 {
		opts = append(opts, http.WithTimeout(timeout))
	}
	if cfg.UserAgent != "" {
		opts = append(opts, http.WithUserAgent(cfg.UserAgent))
	}
	if len(cfg.Headers) > 0 {
		opts = append(opts, http.WithDefaultHeaders(cfg.Headers...))
	}
	if cfg.Certificates != "" {
		opts = append(opts, http.WithCertificates(cfg.Certificates))
	}
	if cfg.RateLimit != nil {
		opts = append(opts, http.WithRateLimit(cfg.RateLimit.RPS, cfg.RateLimit.Burst))
	}

	client := http.NewClient(opts...)

	if cfg.Proxy != nil {
		if err := client.SetProxy(cfg.Proxy.URL, cfg.Proxy.User, cfg.Proxy.Password); err != nil {
			return nil, err
		}
	}

	return client, nil
}

func newLogger(verbose int, w io.Writer) *zap.Logger {
	if verbose < 2 {
		return zap.NewNop()
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return zap.New(core)
}
