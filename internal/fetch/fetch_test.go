package fetch

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetchText_OK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "#EXTM3U\n#EXTINF:-1,X\nhttp://e/x\n")
	}))
	defer srv.Close()

	got, err := FetchText(context.Background(), KindPlaylist, srv.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(got, "#EXTM3U") {
		t.Fatalf("body=%q", got)
	}
}

func TestFetchText_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := FetchText(context.Background(), KindPolicy, srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("err type=%T", err)
	}
	if fe.AppError.Code != "FETCH_FAILED" {
		t.Fatalf("code=%q", fe.AppError.Code)
	}
	if fe.AppError.Stage != "fetch_policy" {
		t.Fatalf("stage=%q", fe.AppError.Stage)
	}
}

func TestFetchText_TooLarge(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 100))
	}))
	defer srv.Close()

	_, err := FetchTextWithOptions(context.Background(), KindOverrides, srv.URL, Options{MaxBytes: 50})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.AppError.Code != "TOO_LARGE" {
		t.Fatalf("err=%v", err)
	}
	if fe.Status != http.StatusUnprocessableEntity {
		t.Fatalf("status=%d", fe.Status)
	}
}

func TestFetchText_RedirectLimit(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, srv.URL+r.URL.Path+"x", http.StatusFound)
	}))
	defer srv.Close()

	_, err := FetchTextWithOptions(context.Background(), KindPlaylist, srv.URL, Options{MaxRedirects: 2})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.AppError.Code != "FETCH_FAILED" {
		t.Fatalf("err=%v", err)
	}
	if !strings.Contains(fe.AppError.Message, "redirect limit") {
		t.Fatalf("message=%q", fe.AppError.Message)
	}
}

func TestFetchText_InvalidScheme(t *testing.T) {
	for _, u := range []string{"ftp://example.com/a", "file:///etc/passwd", "not a url"} {
		_, err := FetchText(context.Background(), KindPlaylist, u)
		var fe *FetchError
		if !errors.As(err, &fe) || fe.AppError.Code != "INVALID_ARGUMENT" {
			t.Fatalf("%q: err=%v", u, err)
		}
	}
}

func TestFetchText_InvalidUTF8(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte{0xff, 0xfe, 0x00})
	}))
	defer srv.Close()

	_, err := FetchText(context.Background(), KindCredentials, srv.URL)
	var fe *FetchError
	if !errors.As(err, &fe) || fe.AppError.Code != "FETCH_INVALID_UTF8" {
		t.Fatalf("err=%v", err)
	}
}

func TestFetchText_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(500 * time.Millisecond)
	}))
	defer srv.Close()

	_, err := FetchTextWithOptions(context.Background(), KindPlaylist, srv.URL, Options{Timeout: 50 * time.Millisecond})
	var fe *FetchError
	if !errors.As(err, &fe) || fe.AppError.Code != "FETCH_TIMEOUT" {
		t.Fatalf("err=%v", err)
	}
}
