package mast

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"EngDB/internal/domain/models"
	drepo "EngDB/internal/domain/repository"
	xhttp "EngDB/pkg/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedInvoke struct {
	auth        string
	contentType string
	request     invokeRequest
}

func newInvokeServer(t *testing.T, status int, body string, got *capturedInvoke, calls *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(calls, 1)
		if r.URL.Path != invokePath || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		if got != nil {
			got.auth = r.Header.Get("Authorization")
			got.contentType = r.Header.Get("Content-Type")
			assert.NoError(t, r.ParseForm())
			assert.NoError(t, json.Unmarshal([]byte(r.PostForm.Get("request")), &got.request))
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestRequestSendsInvokeEnvelope(t *testing.T) {
	var got capturedInvoke
	var calls int32
	body := `{"status":"COMPLETE","data":[]}`
	srv := newInvokeServer(t, http.StatusOK, body, &got, &calls)

	c := New(NewSession("secret"), WithBaseURL(srv.URL), WithPageSize(10))
	params := map[string]string{"mnemonic": "SA_ZFGOUTFOV", "start": "2022-01-01 00:00:00.000000"}
	resp, err := c.Request(context.Background(), drepo.ServiceTimeseries, params)
	require.NoError(t, err)

	assert.Equal(t, int32(1), calls)
	assert.Equal(t, drepo.ServiceTimeseries, resp.Service)
	assert.JSONEq(t, body, string(resp.Body))
	assert.Equal(t, "token secret", got.auth)
	assert.Equal(t, xhttp.ContentTypeForm, got.contentType)
	assert.Equal(t, drepo.ServiceTimeseries, got.request.Service)
	assert.Equal(t, params, got.request.Params)
	assert.Equal(t, "json", got.request.Format)
	assert.Equal(t, 10, got.request.PageSize)
	assert.Equal(t, 1, got.request.Page)
}

func TestRequestInventoryHasEmptyParams(t *testing.T) {
	var got capturedInvoke
	var calls int32
	srv := newInvokeServer(t, http.StatusOK, `{"status":"COMPLETE","data":[]}`, &got, &calls)

	c := New(NewSession("t"), WithBaseURL(srv.URL))
	_, err := c.Request(context.Background(), drepo.ServiceInventory, nil)
	require.NoError(t, err)
	assert.NotNil(t, got.request.Params)
	assert.Empty(t, got.request.Params)
}

func TestRequestPropagatesHTTPStatus(t *testing.T) {
	var calls int32
	srv := newInvokeServer(t, http.StatusUnauthorized, "bad token", nil, &calls)

	c := New(NewSession("t"), WithBaseURL(srv.URL))
	_, err := c.Request(context.Background(), drepo.ServiceInventory, nil)
	require.Error(t, err)

	var se *xhttp.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusUnauthorized, se.StatusCode)
	assert.Equal(t, int32(1), calls, "no retry expected")
}

func TestRequestPropagatesTransportError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c := New(NewSession("t"), WithBaseURL(url), WithTimeout(time.Second))
	_, err := c.Request(context.Background(), drepo.ServiceInventory, nil)
	require.Error(t, err)
}

func TestLogin(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/info" {
			http.NotFound(w, r)
			return
		}
		if r.Header.Get("Authorization") == "token good" {
			_, _ = w.Write([]byte(`{"ezid":"jdoe","anon":false,"attrib":{"display_name":"J Doe"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"ezid":"","anon":true}`))
	}))
	defer srv.Close()

	info, err := New(NewSession("good"), WithAuthURL(srv.URL)).Login(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "jdoe", info.EZID)

	_, err = New(NewSession("bad"), WithAuthURL(srv.URL)).Login(context.Background())
	require.ErrorIs(t, err, models.ErrTokenRejected)
}

func TestBreakerOpensAndFailsFast(t *testing.T) {
	var calls int32
	srv := newInvokeServer(t, http.StatusBadGateway, "down", nil, &calls)

	br := NewBreaker(BreakerConfig{
		Name:         "mast",
		MaxRequests:  1,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}, nil)
	c := New(NewSession("t"), WithBaseURL(srv.URL), WithGuard(br))

	for i := 0; i < 2; i++ {
		_, err := c.Request(context.Background(), drepo.ServiceInventory, nil)
		require.Error(t, err)
	}
	assert.Equal(t, "open", br.State())

	_, err := c.Request(context.Background(), drepo.ServiceInventory, nil)
	require.Error(t, err)
	assert.True(t, IsOpen(err))
	assert.Equal(t, int32(2), calls, "open breaker must not reach the network")
}
