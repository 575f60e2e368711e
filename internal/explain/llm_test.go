package explain

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/antoniostano/caissa/internal/cache"
)

const testFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func newChatStub(t *testing.T, calls *atomic.Int64, reply string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/chat/completions") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"` + reply + `"}}]}`))
	}))
}

func TestLLMExplain(t *testing.T) {
	var calls atomic.Int64
	srv := newChatStub(t, &calls, "Controls the center.")
	defer srv.Close()

	l := NewLLM(srv.URL, "ollama", "mistral", nil, 0, nil)
	got, err := l.Explain(context.Background(), testFEN, "e2e4")
	if err != nil {
		t.Fatalf("Explain: %v", err)
	}
	if got != "Controls the center." {
		t.Fatalf("explanation = %q", got)
	}
}

func TestLLMMemoizesThroughCache(t *testing.T) {
	var calls atomic.Int64
	srv := newChatStub(t, &calls, "Pins the knight.")
	defer srv.Close()

	c := cache.NewInMemoryCache()
	defer c.Close()
	l := NewLLM(srv.URL, "ollama", "mistral", c, time.Hour, nil)

	for i := 0; i < 3; i++ {
		got, err := l.SuggestImprovement(context.Background(), testFEN, "a2a3", "e2e4")
		if err != nil {
			t.Fatalf("SuggestImprovement: %v", err)
		}
		if got != "Pins the knight." {
			t.Fatalf("suggestion = %q", got)
		}
	}
	if calls.Load() != 1 {
		t.Fatalf("upstream called %d times, want memoized single call", calls.Load())
	}
}

func TestLLMPropagatesUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "model not loaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	l := NewLLM(srv.URL, "ollama", "mistral", nil, 0, nil)
	if _, err := l.Explain(context.Background(), testFEN, "e2e4"); err == nil {
		t.Fatal("expected error from failing upstream")
	}
}

func TestStaticGeneratorMentionsMoves(t *testing.T) {
	s := NewStatic()
	got, err := s.Explain(context.Background(), testFEN, "g1f3")
	if err != nil || !strings.Contains(got, "g1f3") {
		t.Fatalf("Explain = %q, %v", got, err)
	}
	got, err = s.SuggestImprovement(context.Background(), testFEN, "a2a3", "e2e4")
	if err != nil || !strings.Contains(got, "e2e4") {
		t.Fatalf("SuggestImprovement = %q, %v", got, err)
	}
}
