package crawler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
)

const page = `<html><head><title>t</title><script>var secret = "do not index this script";</script></head>
<body>
  <h1>Help Center</h1>
  <h2>Shipping and delivery times</h2>
  <p>Orders ship within two business days.</p>
  <ul><li>Free returns within thirty days.</li><li>short</li></ul>
</body></html>`

func TestFetch_ExtractsVisibleText(t *testing.T) {
	var ua string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ua = r.Header.Get("User-Agent")
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	c := New(Config{}, srv.Client(), zap.NewNop())
	pages, err := c.Fetch(context.Background(), []string{srv.URL})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("expected 1 page, got %d", len(pages))
	}
	text := pages[0].Text
	for _, want := range []string{
		"Shipping and delivery times",
		"Orders ship within two business days.",
		"Free returns within thirty days.",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
	for _, unwanted := range []string{"Help Center", "short", "secret"} {
		if strings.Contains(text, unwanted) {
			t.Errorf("unexpected %q in %q", unwanted, text)
		}
	}
	if strings.Count(text, "Orders ship within two business days.") != 1 {
		t.Error("nested element text should appear once")
	}
	if !strings.HasPrefix(ua, "Mozilla/5.0") {
		t.Errorf("unexpected user agent: %q", ua)
	}
}

func TestFetch_SkipsFailedPagesKeepsOrder(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/a", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<p>Page A has enough text to keep.</p>`))
	})
	mux.HandleFunc("/broken", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	mux.HandleFunc("/b", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<p>Page B has enough text to keep.</p>`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	c := New(Config{Concurrency: 3}, srv.Client(), zap.NewNop())
	pages, err := c.Fetch(context.Background(), []string{
		srv.URL + "/a", srv.URL + "/broken", "http://127.0.0.1:0/unreachable", srv.URL + "/b",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages, got %d", len(pages))
	}
	if pages[0].URL != srv.URL+"/a" || pages[1].URL != srv.URL+"/b" {
		t.Errorf("order not preserved: %s, %s", pages[0].URL, pages[1].URL)
	}
}

func TestFetch_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := New(Config{Timeout: 50 * time.Millisecond}, srv.Client(), zap.NewNop())
	pages, err := c.Fetch(context.Background(), []string{srv.URL})
	if err != nil {
		t.Fatalf("per-page timeout must not fail the crawl: %v", err)
	}
	if len(pages) != 0 {
		t.Errorf("expected no pages, got %d", len(pages))
	}
}

func TestFetch_CancelledContext(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := New(Config{}, srv.Client(), zap.NewNop())
	if _, err := c.Fetch(ctx, []string{srv.URL}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
