package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolver_FollowsRedirectsAndCaches(t *testing.T) {
	var shortHits atomic.Int32
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		shortHits.Add(1)
		http.Redirect(w, r, "/hop", http.StatusFound)
	})
	mux.HandleFunc("/hop", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/maps/place/40%C2%B024'33.5%22N+49%C2%B052'01.6%22E", http.StatusMovedPermanently)
	})
	mux.HandleFunc("/maps/place/", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	var results []string
	r := NewResolver(ResolverOptions{
		Timeout:   5 * time.Second,
		CacheSize: 10,
		OnCache:   func(result string) { results = append(results, result) },
	}, discardLogger())

	final, err := r.Resolve(context.Background(), srv.URL+"/short")
	require.NoError(t, err)
	assert.Contains(t, final, "/maps/place/40%C2%B024")

	again, err := r.Resolve(context.Background(), srv.URL+"/short")
	require.NoError(t, err)
	assert.Equal(t, final, again)

	assert.Equal(t, int32(1), shortHits.Load())
	assert.Equal(t, []string{"miss", "hit"}, results)
}

func TestResolver_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer srv.Close()

	r := NewResolver(ResolverOptions{Timeout: time.Second, CacheSize: 10}, discardLogger())
	_, err := r.Resolve(context.Background(), srv.URL)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 410")
}

func TestResolver_TooManyRedirects(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	r := NewResolver(ResolverOptions{Timeout: time.Second, CacheSize: 10}, discardLogger())
	_, err := r.Resolve(context.Background(), srv.URL+"/a")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "too many redirects")
}
