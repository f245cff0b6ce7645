package network

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"jpx-history/src/helpers"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(retries, delayMs int) *AsyncNetworkManager {
	cfg := &models.MConfig{Network: models.MNetworkConfig{
		RequestTimeout: 5,
		MaxRetries:     retries,
		RequestDelayMs: delayMs,
		UserAgent:      "jpx-history-test",
	}}
	nm := NewAsyncNetworkManager(cfg, logger.NewSilentLogger())
	nm.RetryBaseDelay = time.Millisecond
	return nm
}

func TestGet_ReturnsBodyAndSendsParams(t *testing.T) {
	var gotQuery, gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		gotUA = r.UserAgent()
		w.Write([]byte("hello"))
	}))
	defer srv.Close()

	nm := newTestManager(0, 0)
	body, err := nm.Get(context.Background(), srv.URL+"/quote/7203.T/history", map[string]string{"page": "2"})
	require.NoError(t, err)
	assert.Equal(t, "hello", string(body))
	assert.Equal(t, "page=2", gotQuery)
	assert.Equal(t, "jpx-history-test", gotUA)
}

func TestGet_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	nm := newTestManager(2, 0)
	body, err := nm.Get(context.Background(), srv.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "ok", string(body))
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGet_NotFoundIsPermanentFetchError(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	nm := newTestManager(3, 0)
	_, err := nm.Get(context.Background(), srv.URL, nil)
	require.Error(t, err)

	var fe *helpers.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusNotFound, fe.StatusCode)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestGet_ExhaustedRetriesKeepStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	nm := newTestManager(1, 0)
	_, err := nm.Get(context.Background(), srv.URL, nil)

	var fe *helpers.FetchError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, http.StatusTooManyRequests, fe.StatusCode)
}

func TestGet_PacesRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	nm := newTestManager(0, 50)
	start := time.Now()
	for i := 0; i < 3; i++ {
		_, err := nm.Get(context.Background(), srv.URL, nil)
		require.NoError(t, err)
	}
	// first request is immediate, the next two wait ~50ms each
	assert.GreaterOrEqual(t, time.Since(start), 90*time.Millisecond)
}

func TestGet_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	nm := newTestManager(3, 0)
	_, err := nm.Get(ctx, srv.URL, nil)
	require.Error(t, err)
	assert.True(t, helpers.IsFetchError(err))
}
