package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	connect, err := cfg.ConnectTimeoutDuration()
	require.NoError(t, err)
	total, err := cfg.TimeoutDuration()
	require.NoError(t, err)

	assert.Equal(t, 3*time.Second, connect)
	assert.Equal(t, 12*time.Second, total)
	assert.Equal(t, 12, cfg.MaxRedirects)
	assert.True(t, cfg.GetFollowRedirects())
	assert.True(t, cfg.GetValidateSSL())
	assert.False(t, cfg.GetClientRequestID())
	assert.True(t, cfg.IsDefault())
}

func TestParse_YAML(t *testing.T) {
	cfg, err := Parse([]byte(`
timeout: 30s
followRedirects: false
headers:
  - "Accept: application/json"
  - "X-Tenant: contoso"
certificates: /etc/ssl/certs
proxy:
  url: http://proxy.local:3128
  user: alice
  password: secret
rateLimit:
  rps: 5
  burst: 2
`))

	require.NoError(t, err)
	assert.Equal(t, "30s", cfg.Timeout)
	assert.Equal(t, "3s", cfg.ConnectTimeout, "unset keys keep defaults")
	assert.False(t, cfg.GetFollowRedirects())
	assert.Equal(t, []string{"Accept: application/json", "X-Tenant: contoso"}, cfg.Headers)
	assert.Equal(t, "/etc/ssl/certs", cfg.Certificates)
	require.NotNil(t, cfg.Proxy)
	assert.Equal(t, "alice", cfg.Proxy.User)
	require.NotNil(t, cfg.RateLimit)
	assert.Equal(t, 5.0, cfg.RateLimit.RPS)
	assert.Equal(t, 2, cfg.RateLimit.Burst)
	assert.False(t, cfg.IsDefault())
}

func TestParse_JSON(t *testing.T) {
	cfg, err := Parse([]byte(`{"maxRedirects": 3, "validateSSL": false, "clientRequestId": true}`))

	require.NoError(t, err)
	assert.Equal(t, 3, cfg.MaxRedirects)
	assert.False(t, cfg.GetValidateSSL())
	assert.True(t, cfg.GetClientRequestID())
}

func TestParse_Empty(t *testing.T) {
	cfg, err := Parse(nil)

	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())
}

func TestParse_ExpandsEnv(t *testing.T) {
	t.Setenv("HITCLIENT_TEST_PROXY_PASSWORD", "s3cret")

	cfg, err := Parse([]byte(`
proxy:
  url: http://proxy.local:3128
  user: alice
  password: ${HITCLIENT_TEST_PROXY_PASSWORD}
`))

	require.NoError(t, err)
	assert.Equal(t, "s3cret", cfg.Proxy.Password)
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		errMsg string
	}{
		{
			name:   "unknown key",
			doc:    "returnTransfer: true\n",
			errMsg: "returnTransfer",
		},
		{
			name:   "unknown proxy key",
			doc:    "proxy:\n  url: http://p:1\n  type: socks5\n",
			errMsg: "type",
		},
		{
			name:   "proxy without url",
			doc:    "proxy:\n  user: alice\n",
			errMsg: "url",
		},
		{
			name:   "wrong type",
			doc:    "maxRedirects: many\n",
			errMsg: "maxRedirects",
		},
		{
			name:   "bad duration",
			doc:    "timeout: soon\n",
			errMsg: "timeout",
		},
		{
			name:   "negative redirects",
			doc:    "maxRedirects: -1\n",
			errMsg: "maxRedirects",
		},
		{
			name:   "not yaml",
			doc:    "timeout: [unclosed\n",
			errMsg: "cannot parse config",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestFindAndLoadConfig(t *testing.T) {
	dir := t.TempDir()

	cfg, err := FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.True(t, cfg.IsDefault())

	require.NoError(t, os.WriteFile(filepath.Join(dir, "hitclient.yaml"), []byte("userAgent: aad/1.0\n"), 0644))

	cfg, err = FindAndLoadConfig(dir)
	require.NoError(t, err)
	assert.Equal(t, "aad/1.0", cfg.UserAgent)
	assert.Equal(t, filepath.Join(dir, "hitclient.yaml"), FindConfigFile(dir))
}

func TestLoadConfig_ErrorNamesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("nope: 1\n"), 0644))

	_, err := LoadConfig(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), path)
}

func TestConfig_Merge(t *testing.T) {
	base := DefaultConfig()
	base.Headers = []string{"A: 1"}

	merged := base.Merge(&Config{
		Timeout:     "30s",
		ValidateSSL: BoolPtr(false),
		Proxy:       &ProxyConfig{URL: "http://p:8080", User: "alice", Password: "secret"},
	})

	assert.Equal(t, "30s", merged.Timeout)
	assert.Equal(t, "3s", merged.ConnectTimeout)
	assert.False(t, merged.GetValidateSSL())
	assert.True(t, merged.GetFollowRedirects())
	assert.Equal(t, []string{"A: 1"}, merged.Headers)
	assert.Equal(t, "alice", merged.Proxy.User)

	assert.Same(t, base, base.Merge(nil))
}

func TestConfig_SaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hitclient.yaml")
	cfg := DefaultConfig()
	cfg.UserAgent = "saved/1.0"

	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "saved/1.0", loaded.UserAgent)
	assert.Equal(t, cfg.Timeout, loaded.Timeout)
}
