package weibo

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"weibograb/pkg/errors"
	"weibograb/pkg/logger"
)

func TestClientSendsConfiguredHeaders(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(10*time.Second, logger.NewTestLogger())
	client.SetCookie("SUB=abc")
	client.SetHeader("User-Agent", "custom-agent")

	var target map[string]interface{}
	require.NoError(t, client.GetJSON(srv.URL, map[string]string{"Referer": "https://weibo.com/fav"}, &target))

	assert.Equal(t, "SUB=abc", got.Get("Cookie"))
	assert.Equal(t, "custom-agent", got.Get("User-Agent"))
	assert.Equal(t, "XMLHttpRequest", got.Get("X-Requested-With"))
	assert.Equal(t, "https://weibo.com/fav", got.Get("Referer"))
}

func TestClientClearCookie(t *testing.T) {
	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	client := NewClient(10*time.Second, logger.NewTestLogger())
	client.SetCookie("SUB=abc")
	client.SetCookie("")

	var target map[string]interface{}
	require.NoError(t, client.GetJSON(srv.URL, nil, &target))
	assert.Empty(t, got.Get("Cookie"))
}

func TestGetJSONDetectsSessionHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("\n  <html>login required</html>"))
	}))
	defer srv.Close()

	client := NewClient(10*time.Second, logger.NewTestLogger())
	var target map[string]interface{}
	err := client.GetJSON(srv.URL, nil, &target)
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeAuth, apiErr.Type)
}

func TestGetJSONStatusMapping(t *testing.T) {
	tests := []struct {
		status   int
		wantType errors.ErrorType
	}{
		{http.StatusUnauthorized, errors.ErrorTypeAuth},
		{http.StatusForbidden, errors.ErrorTypeAuth},
		{http.StatusNotFound, errors.ErrorTypeNotFound},
		{http.StatusTooManyRequests, errors.ErrorTypeRateLimit},
		{http.StatusBadGateway, errors.ErrorTypeServerError},
	}
	for _, tt := range tests {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tt.status)
		}))

		client := NewClient(10*time.Second, logger.NewTestLogger())
		var target map[string]interface{}
		err := client.GetJSON(srv.URL, nil, &target)
		require.Error(t, err)

		var apiErr *errors.Error
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, tt.wantType, apiErr.Type)
		assert.Equal(t, tt.status, apiErr.Code)
		srv.Close()
	}
}

func TestGetJSONParseFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"broken":`))
	}))
	defer srv.Close()

	client := NewClient(10*time.Second, logger.NewTestLogger())
	var target map[string]interface{}
	err := client.GetJSON(srv.URL, nil, &target)
	require.Error(t, err)

	var apiErr *errors.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, errors.ErrorTypeParsing, apiErr.Type)
}

func TestGetHTML(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>detail page</html>"))
	}))
	defer srv.Close()

	client := NewClient(10*time.Second, logger.NewTestLogger())
	html, err := client.GetHTML(srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "<html>detail page</html>", html)
}
