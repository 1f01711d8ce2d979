package feed

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func pinTestClient(t *testing.T, distinguishURL, tokenURL string) *RedditClient {
	t.Helper()
	ts := NewTokenSource(testConfig(), nil)
	ts.tokenURL = tokenURL
	return &RedditClient{
		tokens:         ts,
		http:           &http.Client{Timeout: 5 * time.Second},
		userAgent:      "opal/test",
		distinguishURL: distinguishURL,
	}
}

func tokenServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok", "expires_in": 3600})
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestPinReplySendsDistinguishForm(t *testing.T) {
	t.Parallel()

	tokens := tokenServer(t)

	var gotForm map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		require.NoError(t, r.ParseForm())
		gotForm = map[string]string{
			"id":     r.PostForm.Get("id"),
			"how":    r.PostForm.Get("how"),
			"sticky": r.PostForm.Get("sticky"),
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := pinTestClient(t, srv.URL, tokens.URL)
	require.True(t, client.PinReply(context.Background(), "t1_abc"))
	require.Equal(t, map[string]string{"id": "t1_abc", "how": "yes", "sticky": "true"}, gotForm)
}

func TestPinReplyFailureIsSwallowed(t *testing.T) {
	t.Parallel()

	tokens := tokenServer(t)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := pinTestClient(t, srv.URL, tokens.URL)
	require.False(t, client.PinReply(context.Background(), "t1_abc"))
}

func TestPinReplyWithoutTokenIsFalse(t *testing.T) {
	t.Parallel()

	down := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer down.Close()

	client := pinTestClient(t, "http://127.0.0.1:0", down.URL)
	require.False(t, client.PinReply(context.Background(), "t1_abc"))
}
