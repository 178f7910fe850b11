package icon

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestFetchReturnsBody(t *testing.T) {
	png := append(append([]byte(nil), Signature...), []byte("IHDR")...)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Accept") != "image/png" {
			t.Errorf("unexpected Accept header %q", r.Header.Get("Accept"))
		}
		_, _ = w.Write(png)
	}))
	defer srv.Close()

	data, err := NewHTTPFetcher(srv.Client(), time.Second).Fetch(context.Background(), srv.URL+"/icon.png")
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if !IsPNG(data) {
		t.Fatalf("expected PNG data, got %q", data)
	}
}

func TestFetchNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewHTTPFetcher(nil, 0).Fetch(context.Background(), srv.URL)
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d", statusErr.StatusCode)
	}
}

func TestFetchHonoursContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewHTTPFetcher(srv.Client(), time.Second).Fetch(ctx, srv.URL); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestIsPNG(t *testing.T) {
	if IsPNG([]byte("GIF89a")) || IsPNG(Signature[:7]) {
		t.Fatal("non-PNG data accepted")
	}
	if !IsPNG(Signature) {
		t.Fatal("signature rejected")
	}
}

func TestIsRemoteURL(t *testing.T) {
	cases := map[string]bool{
		"https://example.com/icon.png": true,
		"http://localhost:8080/i.png":  true,
		"icon.png":                     false,
		"/abs/icon.png":                false,
		"file:///tmp/icon.png":         false,
		"":                             false,
		"https://":                     false,
		"ftp://example.com/icon.png":   false,
		"HTTPS://example.com/i.png":    true,
	}
	for value, want := range cases {
		if got := IsRemoteURL(value); got != want {
			t.Errorf("IsRemoteURL(%q) = %v, want %v", value, got, want)
		}
	}
}
