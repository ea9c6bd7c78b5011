package photo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matzehuels/cardforge/pkg/cache"
	"github.com/matzehuels/cardforge/pkg/errors"
)

func TestFetcherFetch(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte("payload"))
	}))
	defer srv.Close()

	f := NewFetcher(nil, nil)
	data, err := f.Fetch(context.Background(), srv.URL+"/a.jpg")
	if err != nil {
		t.Fatalf("Fetch() error: %v", err)
	}
	if string(data) != "payload" {
		t.Errorf("Fetch() = %q", data)
	}
	if gotUA != DefaultUserAgent {
		t.Errorf("User-Agent = %q, want %q", gotUA, DefaultUserAgent)
	}
}

func TestFetcherErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/missing":
			http.NotFound(w, r)
		case "/slow":
			time.Sleep(200 * time.Millisecond)
			w.Write([]byte("late"))
		}
	}))
	defer srv.Close()

	f := NewFetcher(nil, nil, WithTimeout(50*time.Millisecond))

	tests := []struct {
		name string
		url  string
		code errors.Code
	}{
		{"non-200", srv.URL + "/missing", errors.ErrCodeNetwork},
		{"timeout", srv.URL + "/slow", errors.ErrCodeTimeout},
		{"bad scheme", "ftp://example.com/a.jpg", errors.ErrCodeInvalidURL},
		{"connection refused", "http://127.0.0.1:1/a.jpg", errors.ErrCodeNetwork},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.Fetch(context.Background(), tt.url)
			if !errors.Is(err, tt.code) {
				t.Errorf("Fetch(%s) error = %v, want %s", tt.url, err, tt.code)
			}
		})
	}
}

func TestFetcherCachesPayload(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write([]byte("photo"))
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c, nil)

	for i := 0; i < 3; i++ {
		data, err := f.Fetch(context.Background(), srv.URL+"/same.jpg")
		if err != nil || string(data) != "photo" {
			t.Fatalf("Fetch() #%d = %q, %v", i, data, err)
		}
	}
	if n := hits.Load(); n != 1 {
		t.Errorf("server hits = %d, want 1", n)
	}
}

func TestFetcherDoesNotCacheFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	f := NewFetcher(c, nil)

	for i := 0; i < 2; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err == nil {
			t.Fatal("expected error")
		}
	}
	if n := hits.Load(); n != 2 {
		t.Errorf("server hits = %d, want 2 (no retry, no cached failure)", n)
	}
}
