package httpds

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fast returns a client whose backoff waits are negligible.
func fast(retries int) *Client {
	return NewClient(Config{
		MaxRetries:     retries,
		Timeout:        2 * time.Second,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
	})
}

// sequence serves the given statuses in order, then 200 with body.
func sequence(t *testing.T, body string, statuses ...int) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := int(atomic.AddInt32(&hits, 1))
		if n <= len(statuses) {
			w.WriteHeader(statuses[n-1])
			return
		}
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestNewClient_Defaults(t *testing.T) {
	t.Parallel()

	c := NewClient(Config{InsecureSkipVerify: true, MaxRetries: -1})
	assert.Equal(t, 30*time.Second, c.httpClient.Timeout)
	assert.Equal(t, 0, c.maxRetries)
	assert.Equal(t, 200*time.Millisecond, c.initialBackoff)
	assert.Equal(t, 5*time.Second, c.maxBackoff)

	tr, ok := c.httpClient.Transport.(*http.Transport)
	require.True(t, ok, "transport = %T", c.httpClient.Transport)
	require.NotNil(t, tr.TLSClientConfig)
	assert.True(t, tr.TLSClientConfig.InsecureSkipVerify)
}

func TestGet_Success(t *testing.T) {
	t.Parallel()

	srv, hits := sequence(t, "title,score\n")
	resp, err := fast(3).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	got, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, "title,score\n", string(got))
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestGet_RetriesTransientStatus(t *testing.T) {
	t.Parallel()

	srv, hits := sequence(t, "ok", http.StatusBadGateway, http.StatusTooManyRequests)
	resp, err := fast(3).Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.EqualValues(t, 3, atomic.LoadInt32(hits))
}

func TestGet_RetriesExhausted(t *testing.T) {
	t.Parallel()

	srv, hits := sequence(t, "ok", 500, 500, 500)
	_, err := fast(2).Get(context.Background(), srv.URL)

	var se *StatusError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, 500, se.Code)
	assert.EqualValues(t, 3, atomic.LoadInt32(hits))
}

func TestGet_FinalStatusNotRetried(t *testing.T) {
	t.Parallel()

	srv, hits := sequence(t, "ok", http.StatusNotFound)
	_, err := fast(5).Get(context.Background(), srv.URL)

	var se *StatusError
	require.True(t, errors.As(err, &se), "got %T: %v", err, err)
	assert.Equal(t, http.StatusNotFound, se.Code)
	assert.Contains(t, se.Error(), "404 Not Found")
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestGet_SendsHeader(t *testing.T) {
	t.Parallel()

	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("Authorization")
	}))
	defer srv.Close()

	c := NewClient(Config{Header: http.Header{"Authorization": {"Bearer t"}}})
	resp, err := c.Get(context.Background(), srv.URL)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, "Bearer t", got)
}

func TestGet_EmptyURL(t *testing.T) {
	t.Parallel()

	_, err := fast(0).Get(context.Background(), "")
	assert.ErrorContains(t, err, "url must not be empty")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestGet_TransportErrorRetried(t *testing.T) {
	t.Parallel()

	var calls int32
	c := NewClient(Config{
		MaxRetries:     1,
		InitialBackoff: time.Millisecond,
		Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
			atomic.AddInt32(&calls, 1)
			return nil, errors.New("dial refused")
		}),
	})
	_, err := c.Get(context.Background(), "http://catalog.invalid/raw_titles.csv")
	assert.ErrorContains(t, err, "dial refused")
	assert.EqualValues(t, 2, atomic.LoadInt32(&calls))
}

// TestGet_CanceledDuringBackoff parks the client in its backoff wait on a fake
// clock and cancels the context instead of advancing time.
func TestGet_CanceledDuringBackoff(t *testing.T) {
	t.Parallel()

	srv, hits := sequence(t, "ok", 503)
	clock := clockwork.NewFakeClock()
	c := NewClient(Config{MaxRetries: 3, InitialBackoff: time.Hour, Clock: clock})

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx, srv.URL)
		errc <- err
	}()

	wctx, wcancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer wcancel()
	require.NoError(t, clock.BlockUntilContext(wctx, 1))
	cancel()

	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Get did not return after cancel")
	}
	assert.EqualValues(t, 1, atomic.LoadInt32(hits))
}

func TestBackoffDuration(t *testing.T) {
	t.Parallel()

	initial, max := 100*time.Millisecond, time.Second
	assert.Equal(t, 100*time.Millisecond, backoffDuration(initial, 0, max))
	assert.Equal(t, 200*time.Millisecond, backoffDuration(initial, 1, max))
	assert.Equal(t, 800*time.Millisecond, backoffDuration(initial, 3, max))
	assert.Equal(t, max, backoffDuration(initial, 4, max))
	assert.Equal(t, max, backoffDuration(initial, 62, max))
	assert.Equal(t, max, backoffDuration(2*time.Second, 0, max))
}

func TestIsRetryableStatus(t *testing.T) {
	t.Parallel()

	for code, want := range map[int]bool{
		200: false, 301: false, 400: false, 404: false,
		429: true, 500: true, 502: true, 503: true, 599: true,
	} {
		assert.Equal(t, want, isRetryableStatus(code), "code %d", code)
	}
}

func TestRemoteOpen(t *testing.T) {
	t.Parallel()

	srv, _ := sequence(t, "id,name\n1,Ana\n")
	r := NewRemote(fast(0), srv.URL+"/raw_credits.csv")
	assert.Equal(t, srv.URL+"/raw_credits.csv", r.Location())

	rc, err := r.Open(context.Background())
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "id,name\n1,Ana\n", string(body))
}
