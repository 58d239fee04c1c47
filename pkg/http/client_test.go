package http

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		w.Header().Set("Content-Type", ContentTypeJSON)
		switch r.URL.Path {
		case "/fail":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(strings.Repeat("x", 8192)))
		default:
			_ = json.NewEncoder(w).Encode(echoed{
				Method: r.Method,
				CT:     r.Header.Get("Content-Type"),
				UA:     r.Header.Get("User-Agent"),
				Query:  r.URL.RawQuery,
				Body:   string(body),
			})
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type echoed struct {
	Method string `json:"method"`
	CT     string `json:"ct"`
	UA     string `json:"ua"`
	Query  string `json:"q"`
	Body   string `json:"body"`
}

func TestSendAndParseFormBody(t *testing.T) {
	srv := echoServer(t)
	c := NewClient(WithHeader("User-Agent", "engdb-test"))

	var got echoed
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:  MethodPost,
		URL:     srv.URL,
		Headers: map[string]string{"Content-Type": ContentTypeForm},
		Body:    map[string]string{"request": `{"a":1}`},
	}, &got)
	require.NoError(t, err)

	assert.Equal(t, MethodPost, got.Method)
	assert.Equal(t, ContentTypeForm, got.CT)
	assert.Equal(t, "engdb-test", got.UA)
	assert.Equal(t, "request=%7B%22a%22%3A1%7D", got.Body)
}

func TestSendAndParseJSONBodyAndQuery(t *testing.T) {
	srv := echoServer(t)
	c := NewClient()

	var got echoed
	err := c.SendAndParse(context.Background(), &RequestOptions{
		Method:      MethodPost,
		URL:         srv.URL,
		QueryParams: map[string][]string{"page": {"1"}},
		Body:        map[string]string{"k": "v"},
	}, &got)
	require.NoError(t, err)
	assert.Equal(t, ContentTypeJSON, got.CT)
	assert.Equal(t, "page=1", got.Query)
	assert.JSONEq(t, `{"k":"v"}`, got.Body)
}

func TestSendAndReadAndWriter(t *testing.T) {
	srv := echoServer(t)
	c := NewClient()
	opts := &RequestOptions{Method: MethodGet, URL: srv.URL}

	body, err := c.SendAndRead(context.Background(), opts)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"method":"GET"`)

	var buf bytes.Buffer
	require.NoError(t, c.SendAndParse(context.Background(), opts, &buf))
	assert.Equal(t, string(body), buf.String())
}

func TestStatusErrorLimitsBody(t *testing.T) {
	srv := echoServer(t)
	_, err := NewClient().SendAndRead(context.Background(), &RequestOptions{
		Method: MethodGet,
		URL:    srv.URL + "/fail",
	})
	require.Error(t, err)

	se, ok := err.(*StatusError)
	require.True(t, ok, "got %T", err)
	assert.Equal(t, http.StatusServiceUnavailable, se.StatusCode)
	assert.Len(t, se.Body, 4096)
}

func TestSendRequestHonoursContext(t *testing.T) {
	srv := echoServer(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient().SendAndRead(ctx, &RequestOptions{Method: MethodGet, URL: srv.URL})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
