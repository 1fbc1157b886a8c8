package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/pageza/alchemorsel-bot/internal/bot"
	"github.com/pageza/alchemorsel-bot/internal/dialogue"
	"github.com/pageza/alchemorsel-bot/internal/metrics"
	"github.com/pageza/alchemorsel-bot/internal/service"
)

// fakeCompletions is an OpenAI-compatible chat completions endpoint that
// answers every request with the next queued recipe
type fakeCompletions struct {
	mu      sync.Mutex
	replies []string
	prompts []string
}

func (f *fakeCompletions) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	raw, _ := io.ReadAll(r.Body)

	f.mu.Lock()
	f.prompts = append(f.prompts, string(raw))
	content := "# Untitled\n"
	if len(f.replies) > 0 {
		content, f.replies = f.replies[0], f.replies[1:]
	}
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-integration",
		"object":  "chat.completion",
		"created": 1,
		"model":   "gpt-4o-mini",
		"choices": []map[string]any{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]any{"role": "assistant", "content": content},
		}},
	})
}

func (f *fakeCompletions) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

type stack struct {
	dispatcher *bot.Dispatcher
	llm        *fakeCompletions
	metrics    *metrics.Metrics
	db         *gorm.DB
}

func newStack(t *testing.T, db *gorm.DB, replies ...string) *stack {
	t.Helper()

	llm := &fakeCompletions{replies: replies}
	srv := httptest.NewServer(llm)
	t.Cleanup(srv.Close)

	generator, err := service.NewLLMService("integration-key", srv.URL, "gpt-4o-mini")
	require.NoError(t, err)

	m := metrics.New(prometheus.NewRegistry())
	prefs := service.NewPreferenceService(db)
	recipes := service.NewRecipeService(db)
	engine := dialogue.NewEngine(dialogue.NewMemoryStore(0), prefs, recipes, generator, dialogue.Options{
		AskDisliked: true,
		Metrics:     m,
	})

	return &stack{
		dispatcher: bot.NewDispatcher(engine, prefs, recipes, m),
		llm:        llm,
		metrics:    m,
		db:         db,
	}
}
