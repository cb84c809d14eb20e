package catalog

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/cj-movies/internal/logging"
)

type recordingObserver struct {
	mu      sync.Mutex
	results []string
}

func (o *recordingObserver) CatalogRequest(operation, result string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, operation+":"+result)
}

func newTestClient(t *testing.T, h http.HandlerFunc, opts ...Option) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Config{
		BaseURL:     srv.URL,
		Token:       "test-token",
		Timeout:     2 * time.Second,
		MaxAttempts: 3,
		Backoff:     time.Millisecond,
	}, opts...)
}

func TestGetPopularPassesThrough(t *testing.T) {
	const payload = `{"page":1,"results":[{"id":550,"title":"Fight Club"}]}`
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/popular", r.URL.Path)
		assert.Equal(t, "en-US", r.URL.Query().Get("language"))
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		_, _ = w.Write([]byte(payload))
	})

	got, err := c.GetPopular(context.Background())
	require.NoError(t, err)
	assert.JSONEq(t, payload, string(got))
}

func TestGetPopularInvalidJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("<html>"))
	})

	_, err := c.GetPopular(context.Background())
	require.Error(t, err)
}

func TestGetPopularSharedFetchSurvivesCallerCancel(t *testing.T) {
	const payload = `{"page":1,"results":[]}`
	started := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		once.Do(func() { close(started) })
		<-release
		_, _ = w.Write([]byte(payload))
	})

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := c.GetPopular(ctxA)
		errA <- err
	}()
	<-started

	type result struct {
		body []byte
		err  error
	}
	resB := make(chan result, 1)
	go func() {
		body, err := c.GetPopular(context.Background())
		resB <- result{body: body, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	cancelA()
	assert.ErrorIs(t, <-errA, context.Canceled)

	close(release)
	got := <-resB
	require.NoError(t, got.err)
	assert.JSONEq(t, payload, string(got.body))
}

func TestGetMovieByIDDecodesOptionalFields(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/42", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":42,"title":"Answer","vote_average":7.25,"vote_count":10}`))
	})

	m, err := c.GetMovieByID(context.Background(), 42)
	require.NoError(t, err)
	assert.Equal(t, int64(42), m.ID)
	assert.Nil(t, m.Runtime)
	assert.Nil(t, m.Genres)
}

func TestGetMovieByIDNotFoundIsNotRetried(t *testing.T) {
	var calls int32
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"status_code":34}`))
	}, WithObserver(obs))

	_, err := c.GetMovieByID(context.Background(), 1)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"movie:not_found"}, obs.results)
}

func TestGetMovieByIDRetriesServerErrors(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"id":7,"title":"Se7en"}`))
	})

	m, err := c.GetMovieByID(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, "Se7en", m.Title)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestGetMovieByIDGivesUpAfterMaxAttempts(t *testing.T) {
	var calls int32
	obs := &recordingObserver{}
	c := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}, WithObserver(obs))

	_, err := c.GetMovieByID(context.Background(), 7)
	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusBadGateway, statusErr.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"movie:error"}, obs.results)
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, MaxAttempts: 1, Backoff: time.Millisecond})

	for i := 0; i < 5; i++ {
		_, err := c.GetMovieByID(context.Background(), 1)
		require.Error(t, err)
	}
	require.Equal(t, int32(5), atomic.LoadInt32(&calls))

	_, err := c.GetMovieByID(context.Background(), 1)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestRetryAndBreakerLogsCarryRequestID(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewWithWriter(&buf, "info", "json")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)
	c := NewClient(Config{BaseURL: srv.URL, MaxAttempts: 5, Backoff: time.Millisecond}, WithLogger(logger))

	ctx := logging.WithRequestID(context.Background(), "req-42")
	_, err := c.GetMovieByID(ctx, 1)
	require.Error(t, err)

	out := buf.String()
	assert.Contains(t, out, "catalog request failed, retrying")
	assert.Contains(t, out, "circuit breaker state changed")
	for _, line := range bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n")) {
		assert.Contains(t, string(line), `"request_id":"req-42"`)
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want string
	}{
		{"not found", &StatusError{StatusCode: 404}, "stop"},
		{"unauthorized", &StatusError{StatusCode: 401}, "stop"},
		{"rate limited", &StatusError{StatusCode: 429}, "after"},
		{"server error", &StatusError{StatusCode: 500}, "retry"},
		{"network", errors.New("connection reset"), "retry"},
		{"deadline", context.DeadlineExceeded, "stop"},
		{"open breaker", gobreaker.ErrOpenState, "stop"},
	}
	names := map[int]string{0: "stop", 1: "retry", 2: "after"}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, names[int(classify(tc.err))])
		})
	}
}
