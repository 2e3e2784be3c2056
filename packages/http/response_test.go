package http

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResponse_StatusPredicates(t *testing.T) {
	tests := []struct {
		code        int
		success     bool
		redirect    bool
		clientError bool
		serverError bool
	}{
		{code: 100},
		{code: 200, success: true},
		{code: 204, success: true},
		{code: 301, redirect: true},
		{code: 304, redirect: true},
		{code: 400, clientError: true},
		{code: 429, clientError: true},
		{code: 500, serverError: true},
		{code: 503, serverError: true},
	}

	for _, tt := range tests {
		resp := &Response{StatusCode: tt.code}
		assert.Equal(t, tt.success, resp.IsSuccess(), "IsSuccess(%d)", tt.code)
		assert.Equal(t, tt.redirect, resp.IsRedirect(), "IsRedirect(%d)", tt.code)
		assert.Equal(t, tt.clientError, resp.IsClientError(), "IsClientError(%d)", tt.code)
		assert.Equal(t, tt.serverError, resp.IsServerError(), "IsServerError(%d)", tt.code)
	}
}

func TestResponse_IsJSON(t *testing.T) {
	tests := []struct {
		contentType string
		expected    bool
	}{
		{contentType: "application/json", expected: true},
		{contentType: "application/json; charset=utf-8", expected: true},
		{contentType: "application/problem+json", expected: true},
		{contentType: "text/html", expected: false},
		{contentType: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.contentType, func(t *testing.T) {
			resp := &Response{Headers: map[string]string{"Content-Type": tt.contentType}}
			assert.Equal(t, tt.expected, resp.IsJSON())
		})
	}
}

func TestResponse_Header(t *testing.T) {
	resp := &Response{
		Headers:  map[string]string{"Content-Type": "text/plain", "X-Ms-Request-Id": "abc"},
		Body:     []byte("hello"),
		Duration: 1500 * time.Microsecond,
	}

	assert.Equal(t, "abc", resp.Header("x-ms-request-id"))
	assert.Equal(t, "", resp.Header("missing"))
	assert.Equal(t, "text/plain", resp.ContentType())
	assert.Equal(t, "hello", resp.BodyString())
	assert.Equal(t, int64(1), resp.DurationMs())
}
