package library

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientSendsBasicAuth(t *testing.T) {
	t.Parallel()

	var gotUser, gotPass string

	var gotOK bool

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUser, gotPass, gotOK = r.BasicAuth()
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "alice", "s3cret", srv.Client(), nil)

	var out map[string]any
	require.NoError(t, c.getJSON(context.Background(), "/api/heartbeat", &out))

	require.True(t, gotOK)
	assert.Equal(t, "alice", gotUser)
	assert.Equal(t, "s3cret", gotPass)
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/heartbeat", r.URL.Path)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "u", "p", srv.Client(), nil)

	var out map[string]any
	require.NoError(t, c.getJSON(context.Background(), "/api/heartbeat", &out))
}

func TestClientClassifiesErrorResponses(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte("bad credentials"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "u", "wrong", srv.Client(), nil)

	var out map[string]any
	err := c.getJSON(context.Background(), "/api/platforms", &out)

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnauthorized)

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.StatusCode)
	assert.Equal(t, "bad credentials", apiErr.Message)
}

func TestPingDistinguishesReachabilityFromAuth(t *testing.T) {
	t.Parallel()

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()

		c := NewClient("http://127.0.0.1:1", "u", "p", nil, nil)

		err := c.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot reach server")
	})

	t.Run("bad credentials", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/api/heartbeat" {
				w.Write([]byte(`{}`))
				return
			}

			w.WriteHeader(http.StatusUnauthorized)
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "u", "wrong", srv.Client(), nil)

		err := c.Ping(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "authentication failed")
	})

	t.Run("ok", func(t *testing.T) {
		t.Parallel()

		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`[]`))
		}))
		defer srv.Close()

		c := NewClient(srv.URL, "u", "p", srv.Client(), nil)
		require.NoError(t, c.Ping(context.Background()))
	})
}
