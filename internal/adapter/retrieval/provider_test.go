package retrieval

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestFetch_ReturnsSnippets(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "settlement policy" {
			t.Errorf("query: got %q, want %q", got, "settlement policy")
		}
		if got := r.URL.Query().Get("k"); got != "3" {
			t.Errorf("k: got %q, want 3", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"snippets": [{"text": "first"}, {"text": "second"}]}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, 3, time.Second, discardLogger())

	got := p.Fetch(context.Background(), "settlement policy")
	if len(got) != 2 || got[0] != "first" || got[1] != "second" {
		t.Errorf("Fetch: got %v", got)
	}
}

func TestFetch_TruncatesToTopK(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"snippets": [{"text": "a"}, {"text": "b"}, {"text": "c"}, {"text": "d"}]}`))
	}))
	defer srv.Close()

	p := NewProvider(srv.URL, 2, time.Second, discardLogger())

	got := p.Fetch(context.Background(), "anything")
	if len(got) != 2 {
		t.Errorf("Fetch: got %d snippets, want 2", len(got))
	}
}

func TestFetch_BestEffort(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		p := NewProvider("", 3, time.Second, discardLogger())
		if p.Enabled() {
			t.Error("Enabled: expected false without a base URL")
		}
		if got := p.Fetch(context.Background(), "q"); got != nil {
			t.Errorf("Fetch: got %v, want nil", got)
		}
	})

	t.Run("server error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		p := NewProvider(srv.URL, 3, time.Second, discardLogger())
		if got := p.Fetch(context.Background(), "q"); got != nil {
			t.Errorf("Fetch: got %v, want nil", got)
		}
	})

	t.Run("bad json", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte(`not json`))
		}))
		defer srv.Close()

		p := NewProvider(srv.URL, 3, time.Second, discardLogger())
		if got := p.Fetch(context.Background(), "q"); got != nil {
			t.Errorf("Fetch: got %v, want nil", got)
		}
	})

	t.Run("unreachable", func(t *testing.T) {
		t.Parallel()
		p := NewProvider("http://127.0.0.1:1", 3, 200*time.Millisecond, discardLogger())
		if got := p.Fetch(context.Background(), "q"); got != nil {
			t.Errorf("Fetch: got %v, want nil", got)
		}
	})
}
