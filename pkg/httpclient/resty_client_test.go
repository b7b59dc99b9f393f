package httpclient

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"
)

func TestRestyClientGetEncodesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "climate change & more" {
			t.Errorf("q = %q", got)
		}
		if got := r.Header.Get("X-Test"); got != "1" {
			t.Errorf("X-Test = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client := NewRestyClient(2 * time.Second)
	resp, err := client.Get(context.Background(), srv.URL, url.Values{"q": {"climate change & more"}}, map[string]string{"X-Test": "1"})
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if resp.StatusCode() != http.StatusTeapot {
		t.Fatalf("status = %d", resp.StatusCode())
	}
	if resp.Header("Content-Type") != "application/json" {
		t.Fatalf("content-type = %q", resp.Header("Content-Type"))
	}
	if string(resp.Body()) != `{"ok":true}` {
		t.Fatalf("body = %s", resp.Body())
	}
}

func TestRestyClientTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	client := NewRestyClient(20 * time.Millisecond)
	if _, err := client.Get(context.Background(), srv.URL, nil, nil); err == nil {
		t.Fatalf("expected timeout error")
	}
}

func TestSnippet(t *testing.T) {
	if Snippet(nil) != "<empty>" {
		t.Fatalf("expected placeholder for empty body")
	}
	long := strings.Repeat("x", 600)
	if got := Snippet([]byte(long)); len(got) != 515 {
		t.Fatalf("snippet length = %d", len(got))
	}
}
