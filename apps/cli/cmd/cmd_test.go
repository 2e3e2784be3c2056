package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abdul-hamid-achik/hitclient/packages/output"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func executeCommand(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	root := newRootCmd()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append(args, "--no-color"))
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func exitCode(t *testing.T, err error) int {
	t.Helper()
	var exitErr *ExitError
	require.True(t, errors.As(err, &exitErr), "expected ExitError, got %v", err)
	return exitErr.Code
}

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"method":      r.Method,
			"query":       r.URL.RawQuery,
			"body":        string(body),
			"contentType": r.Header.Get("Content-Type"),
			"userAgent":   r.UserAgent(),
			"tenant":      r.Header.Get("X-Tenant"),
		})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestGetCommand(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand(t, "get", server.URL, "-d", "api-version=1.1", "-d", "a=b c", "-q", "query")

	require.NoError(t, err)
	assert.Equal(t, "api-version=1.1&a=b+c\n", stdout)
}

func TestPostCommand(t *testing.T) {
	server := echoServer(t)

	stdout, _, err := executeCommand(t, "post", server.URL,
		"--body", `{"a":1}`,
		"-H", "Content-Type: application/json",
		"-o", "json")

	require.NoError(t, err)

	var resp output.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))
	assert.Equal(t, 200, resp.StatusCode)

	var echoed map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &echoed))
	assert.Equal(t, "POST", echoed["method"])
	assert.Equal(t, `{"a":1}`, echoed["body"])
	assert.Equal(t, "application/json", echoed["contentType"])
}

func TestRequestCommand_UnsupportedMethod(t *testing.T) {
	_, stderr, err := executeCommand(t, "request", "put", "https://example.com")

	assert.Equal(t, ExitUsageError, exitCode(t, err))
	assert.Contains(t, stderr, "unsupported request method")
}

func TestRequestCommand_InvalidURL(t *testing.T) {
	_, _, err := executeCommand(t, "request", "get", "not-a-url")

	assert.Equal(t, ExitUsageError, exitCode(t, err))
}

func TestGetCommand_NetworkError(t *testing.T) {
	server := httptest.NewServer(nethttp.HandlerFunc(func(w nethttp.ResponseWriter, r *nethttp.Request) {}))
	addr := server.URL
	server.Close()

	_, stderr, err := executeCommand(t, "get", addr)

	assert.Equal(t, ExitNetworkError, exitCode(t, err))
	assert.Contains(t, stderr, "transport failure")
}

func TestPostCommand_BodyAndDataConflict(t *testing.T) {
	_, _, err := executeCommand(t, "post", "https://example.com", "--body", "x", "-d", "a=b")

	assert.Equal(t, ExitUsageError, exitCode(t, err))
}

func TestGetCommand_ConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hitclient.yaml")
	require.NoError(t, os.WriteFile(path, []byte("returnTransfer: true\n"), 0644))

	_, stderr, err := executeCommand(t, "get", "https://example.com", "--config", path)

	assert.Equal(t, ExitConfigError, exitCode(t, err))
	assert.Contains(t, stderr, "returnTransfer")
}

func TestGetCommand_QueryError(t *testing.T) {
	server := echoServer(t)

	_, _, err := executeCommand(t, "get", server.URL, "-q", "missing.path")

	assert.Equal(t, ExitQueryError, exitCode(t, err))
}

func TestGetCommand_ConfigAndEnvFile(t *testing.T) {
	server := echoServer(t)
	dir := t.TempDir()

	envFile := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envFile, []byte("HITCLIENT_TEST_TENANT=contoso\n"), 0644))
	t.Cleanup(func() { _ = os.Unsetenv("HITCLIENT_TEST_TENANT") })

	configFile := filepath.Join(dir, "hitclient.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte(`
userAgent: hitclient-test/1.0
headers:
  - "X-Tenant: ${HITCLIENT_TEST_TENANT}"
`), 0644))

	stdout, _, err := executeCommand(t, "get", server.URL, "--config", configFile, "--env-file", envFile, "-o", "json")
	require.NoError(t, err)

	var resp output.JSONResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp))

	var echoed map[string]string
	require.NoError(t, json.Unmarshal([]byte(resp.Body), &echoed))
	assert.Equal(t, "hitclient-test/1.0", echoed["userAgent"])
	assert.Equal(t, "contoso", echoed["tenant"])
}

func TestGetCommand_FlagsOverrideConfig(t *testing.T) {
	server := echoServer(t)
	configFile := filepath.Join(t.TempDir(), "hitclient.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("userAgent: from-config\n"), 0644))

	stdout, _, err := executeCommand(t, "get", server.URL, "--config", configFile, "-A", "from-flag", "-q", "userAgent")

	require.NoError(t, err)
	assert.Equal(t, "from-flag\n", stdout)
}

func TestGetCommand_Verbose(t *testing.T) {
	server := echoServer(t)

	stdout, stderr, err := executeCommand(t, "get", server.URL, "-vv")

	require.NoError(t, err)
	assert.Contains(t, stdout, "200 OK "+server.URL)
	assert.Contains(t, stdout, "Content-Type: application/json")
	assert.Contains(t, stderr, "http request")
}

func TestVersionCommand(t *testing.T) {
	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"version"})

	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "hitclient version dev")
}

func TestWatchConfig(t *testing.T) {
	configFile := filepath.Join(t.TempDir(), "hitclient.yaml")
	require.NoError(t, os.WriteFile(configFile, []byte("timeout: 5s\n"), 0644))

	cmd := &cobra.Command{}
	cmd.SetOut(io.Discard)
	flags := &requestFlags{configFile: configFile}
	formatter := output.NewConsoleFormatter(output.WithWriter(io.Discard), output.WithErrorWriter(io.Discard))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reruns := make(chan struct{}, 4)
	done := make(chan error, 1)
	go func() {
		done <- watchConfig(ctx, cmd, flags, formatter, func() { reruns <- struct{}{} })
	}()

	// Give the watcher time to register before writing
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(configFile, []byte("timeout: 6s\n"), 0644))

	select {
	case <-reruns:
	case <-time.After(5 * time.Second):
		t.Fatal("config change did not trigger a re-run")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchConfig_NeedsConfigFile(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	formatter := output.NewConsoleFormatter(output.WithWriter(io.Discard), output.WithErrorWriter(io.Discard))
	err = watchConfig(context.Background(), &cobra.Command{}, &requestFlags{}, formatter, func() {})

	assert.Equal(t, ExitUsageError, exitCode(t, err))
}

func TestCompletionCommand(t *testing.T) {
	root := newRootCmd()
	var stdout bytes.Buffer
	root.SetOut(&stdout)
	root.SetArgs([]string{"completion", "bash"})

	require.NoError(t, root.Execute())
	assert.Contains(t, stdout.String(), "bash completion")
	assert.Contains(t, stdout.String(), "hitclient")
}

func TestCompletionCommand_UnknownShell(t *testing.T) {
	root := newRootCmd()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"completion", "tcsh"})

	assert.Error(t, root.Execute())
}

func TestExitCodeFor(t *testing.T) {
	assert.Equal(t, ExitFailure, exitCodeFor(fmt.Errorf("other")))
}
