package http

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"net/http"
	neturl "net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/idna"
	"golang.org/x/time/rate"
)

const (
	// DefaultConnectTimeout bounds establishing the TCP connection and TLS handshake
	DefaultConnectTimeout = 3 * time.Second
	// DefaultTimeout bounds the whole request, redirects and body included
	DefaultTimeout = 12 * time.Second
	// DefaultMaxRedirects is the maximum number of redirects to follow
	DefaultMaxRedirects = 12

	// ClientRequestIDHeader correlates a request with the identity provider's logs
	ClientRequestIDHeader = "client-request-id"
)

// Client executes GET and POST requests. The zero value is not usable; build
// one with NewClient.
//
// Defaults, certificates and proxy may be changed with the setters while
// requests are in flight; a request uses the settings it started with.
type Client struct {
	mu           sync.RWMutex
	defaults     Options
	certificates string
	proxy        *proxyConfig

	logger          *zap.Logger
	limiter         *rate.Limiter
	clientRequestID bool
}

type proxyConfig struct {
	url      *neturl.URL
	user     string
	password string
}

func (p *proxyConfig) credentials() string {
	return p.user + ":" + p.password
}

// settings is the part of a Client the setters mutate.
type settings struct {
	defaults     Options
	certificates string
	proxy        *proxyConfig
}

type ClientOption func(*Client)

func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		defaults: DefaultOptions(),
		logger:   zap.NewNop(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.defaults.Timeout = d
	}
}

func WithConnectTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.defaults.ConnectTimeout = d
	}
}

func WithFollowRedirects(follow bool) ClientOption {
	return func(c *Client) {
		c.defaults.FollowRedirects = Bool(follow)
	}
}

func WithMaxRedirects(max int) ClientOption {
	return func(c *Client) {
		c.defaults.MaxRedirects = max
	}
}

// WithValidateSSL enables or disables TLS certificate validation
func WithValidateSSL(validate bool) ClientOption {
	return func(c *Client) {
		c.defaults.ValidateSSL = Bool(validate)
	}
}

func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		c.defaults.UserAgent = ua
	}
}

// WithDefaultHeaders sets header lines sent when a call passes none
func WithDefaultHeaders(lines ...string) ClientOption {
	return func(c *Client) {
		c.defaults.Headers = append(c.defaults.Headers, lines...)
	}
}

// WithCertificates sets the CA path, see SetCertificates
func WithCertificates(path string) ClientOption {
	return func(c *Client) {
		c.SetCertificates(path)
	}
}

func WithLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRateLimit throttles request issuance to rps requests per second with
// the given burst. A non-positive rps disables throttling.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithClientRequestID sends a fresh client-request-id header with every
// request unless a header line overrides it.
func WithClientRequestID(enabled bool) ClientOption {
	return func(c *Client) {
		c.clientRequestID = enabled
	}
}

// SetCertificates uses path as both the CA bundle file and the CA directory
// for subsequent requests. An empty path restores the system roots.
func (c *Client) SetCertificates(path string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.certificates = path
}

// Certificates returns the configured CA path.
func (c *Client) Certificates() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.certificates
}

// SetProxy routes subsequent requests through an HTTP proxy using basic
// credentials "user:password". A URL without a scheme is taken as http.
// Userinfo embedded in proxyURL is dropped; only user and password are sent.
func (c *Client) SetProxy(proxyURL, user, password string) error {
	u, err := parseProxyURL(proxyURL)
	if err != nil {
		return err
	}
	u.User = nil
	if user != "" || password != "" {
		u.User = neturl.UserPassword(user, password)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.proxy = &proxyConfig{url: u, user: user, password: password}
	return nil
}

// ProxyCredentials returns the proxy credentials string, or "" when no
// proxy is configured.
func (c *Client) ProxyCredentials() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.proxy == nil {
		return ""
	}
	return c.proxy.credentials()
}

// Defaults returns a copy of the client's default options.
func (c *Client) Defaults() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.defaults.Merge(nil)
}

func (c *Client) snapshot() settings {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return settings{
		defaults:     c.defaults.Merge(nil),
		certificates: c.certificates,
		proxy:        c.proxy,
	}
}

func (c *Client) Get(rawURL string, data Payload, opts *Options) (string, error) {
	return c.Request(MethodGet, rawURL, data, opts)
}

func (c *Client) Post(rawURL string, data Payload, opts *Options) (string, error) {
	return c.Request(MethodPost, rawURL, data, opts)
}

// Request issues method against rawURL and returns the response body as
// text. Status codes are not interpreted.
func (c *Client) Request(method, rawURL string, data Payload, opts *Options) (string, error) {
	resp, err := c.Do(context.Background(), method, rawURL, data, opts)
	if err != nil {
		return "", err
	}
	return resp.BodyString(), nil
}

// Do is Request returning the structured response.
func (c *Client) Do(ctx context.Context, method, rawURL string, data Payload, opts *Options) (*Response, error) {
	if err := ValidateURL(rawURL); err != nil {
		return nil, err
	}

	s := c.snapshot()
	o := s.defaults.Merge(opts)

	var (
		verb   string
		target = rawURL
		body   io.Reader
	)
	switch strings.ToLower(method) {
	case MethodGet:
		verb = http.MethodGet
		target = BuildURL(rawURL, data)
	case MethodPost:
		verb = http.MethodPost
		body = strings.NewReader(data.Encode())
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedMethod, method)
	}

	httpReq, err := http.NewRequestWithContext(ctx, verb, target, body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if verb == http.MethodPost {
		httpReq.Header.Set("Content-Type", formContentType)
	}
	if o.UserAgent != "" {
		httpReq.Header.Set("User-Agent", o.UserAgent)
	}
	if c.clientRequestID {
		httpReq.Header.Set(ClientRequestIDHeader, uuid.NewString())
	}

	// Header lines go last so they override anything set above
	if err := applyHeaderLines(httpReq, o.Headers); err != nil {
		return nil, err
	}

	transport, err := s.newTransport(o)
	if err != nil {
		return nil, err
	}
	defer transport.CloseIdleConnections()

	httpClient := &http.Client{
		Transport:     transport,
		Timeout:       o.Timeout,
		CheckRedirect: redirectPolicy(o),
	}

	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
	}

	start := time.Now()
	httpResp, err := httpClient.Do(httpReq)
	duration := time.Since(start)

	if err != nil {
		c.logger.Warn("http request failed",
			zap.String("method", verb),
			zap.String("url", logURL(httpReq.URL)),
			zap.Duration("duration", duration),
			zap.Error(err))
		return nil, fmt.Errorf("%w: %w", ErrTransport, err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading body: %w", ErrTransport, err)
	}

	headers := make(map[string]string)
	for k := range httpResp.Header {
		headers[k] = httpResp.Header.Get(k)
	}

	c.logger.Debug("http request",
		zap.String("method", verb),
		zap.String("url", logURL(httpReq.URL)),
		zap.Int("status", httpResp.StatusCode),
		zap.Int("bytes", len(respBody)),
		zap.Duration("duration", duration))

	return &Response{
		StatusCode: httpResp.StatusCode,
		Status:     httpResp.Status,
		Headers:    headers,
		Body:       respBody,
		Duration:   duration,
		URL:        httpResp.Request.URL.String(),
	}, nil
}

// newTransport builds a transport for a single call. Keep-alives are off so
// nothing outlives the call.
func (s settings) newTransport(o Options) (*http.Transport, error) {
	dialer := &net.Dialer{
		Timeout: o.ConnectTimeout,
	}

	tlsConfig := &tls.Config{
		MinVersion: tls.VersionTLS12,
	}
	if !o.validateSSL() {
		tlsConfig.InsecureSkipVerify = true
	}
	if s.certificates != "" {
		pool, err := LoadCertPool(s.certificates)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrTransport, err)
		}
		tlsConfig.RootCAs = pool
	}

	transport := &http.Transport{
		DialContext:         dialer.DialContext,
		TLSHandshakeTimeout: o.ConnectTimeout,
		TLSClientConfig:     tlsConfig,
		DisableKeepAlives:   true,
	}

	// No proxy unless one was set explicitly; HTTP_PROXY is not consulted
	if s.proxy != nil {
		transport.Proxy = http.ProxyURL(s.proxy.url)
	}

	return transport, nil
}

func redirectPolicy(o Options) func(req *http.Request, via []*http.Request) error {
	follow := o.followRedirects()
	max := o.MaxRedirects
	return func(req *http.Request, via []*http.Request) error {
		if !follow {
			return http.ErrUseLastResponse
		}
		if len(via) > max {
			return fmt.Errorf("stopped after %d redirects", max)
		}
		return nil
	}
}

// logURL drops credentials and the query string, which may carry secrets.
func logURL(u *neturl.URL) string {
	return u.Scheme + "://" + u.Host + u.EscapedPath()
}

// ValidateURL checks that a URL is absolute, uses http or https and names a
// valid host.
func ValidateURL(rawURL string) error {
	if strings.ContainsAny(rawURL, " \t\r\n") {
		return fmt.Errorf("%w: URL contains whitespace", ErrInvalidURL)
	}

	u, err := neturl.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidURL, err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: unsupported URL scheme: %q (only http and https are allowed)", ErrInvalidURL, u.Scheme)
	}

	host := u.Hostname()
	if host == "" {
		return fmt.Errorf("%w: URL must have a host", ErrInvalidURL)
	}

	if net.ParseIP(host) == nil {
		if _, err := idna.Lookup.ToASCII(host); err != nil {
			return fmt.Errorf("%w: invalid host %q: %v", ErrInvalidURL, host, err)
		}
	}

	return nil
}

func parseProxyURL(raw string) (*neturl.URL, error) {
	if raw == "" {
		return nil, fmt.Errorf("%w: empty proxy URL", ErrInvalidURL)
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := neturl.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: proxy: %v", ErrInvalidURL, err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("%w: proxy scheme %q not supported (only http)", ErrInvalidURL, u.Scheme)
	}
	if u.Host == "" {
		return nil, fmt.Errorf("%w: proxy URL must have a host", ErrInvalidURL)
	}

	return u, nil
}
