package apijson

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorMessage(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{body: `{"error":"name is required"}`, want: "name is required"},
		{body: `{"message":"token expired"}`, want: "token expired"},
		{body: `{"error":"  ","message":"fallback"}`, want: "fallback"},
		{body: `<html>bad gateway</html>`, want: "HTTP 502"},
		{body: ``, want: "HTTP 502"},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, ErrorMessage([]byte(tc.body), http.StatusBadGateway), "body %q", tc.body)
	}
}

func TestWriteError(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteError(rr, http.StatusBadRequest, "name: is required")

	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Equal(t, "application/json; charset=utf-8", rr.Header().Get("Content-Type"))

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "name: is required", body.Error)
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	decode := func(body string) error {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		var p payload
		return DecodeJSON(httptest.NewRecorder(), req, 64, &p)
	}

	assert.NoError(t, decode(`{"name":"Ivan"}`))
	assert.Error(t, decode(`{"name":"Ivan","extra":1}`))
	assert.Error(t, decode(`{"name":"Ivan"} {"name":"again"}`))
	assert.Error(t, decode(`{"name":"`+strings.Repeat("x", 100)+`"}`))
}
