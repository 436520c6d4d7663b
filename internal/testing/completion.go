package testing

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
)

// CompletionStub is an httptest server implementing POST /chat/completions.
type CompletionStub struct {
	*httptest.Server

	mu sync.Mutex
	// Content is returned as the first choice's message content.
	Content string
	// NoChoices returns an empty choices array.
	NoChoices bool
	// Status forces a status code.
	Status int
	// RawBody, when set, is written verbatim in place of a chat completion.
	RawBody string

	requests []map[string]any
	auth     []string
}

// NewCompletionStub starts a stub answering with content and closes it when the test ends.
func NewCompletionStub(t *testing.T, content string) *CompletionStub {
	t.Helper()

	s := &CompletionStub{Content: content}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /chat/completions", s.handle)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// Requests returns the decoded request bodies.
func (s *CompletionStub) Requests() []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]map[string]any(nil), s.requests...)
}

// AuthHeaders returns the Authorization header of each request.
func (s *CompletionStub) AuthHeaders() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.auth...)
}

func (s *CompletionStub) handle(w http.ResponseWriter, r *http.Request) {
	var body map[string]any
	json.NewDecoder(r.Body).Decode(&body)

	s.mu.Lock()
	s.requests = append(s.requests, body)
	s.auth = append(s.auth, r.Header.Get("Authorization"))
	status, content, none, raw := s.Status, s.Content, s.NoChoices, s.RawBody
	s.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if raw != "" {
		fmt.Fprint(w, raw)
		return
	}
	if status != 0 {
		w.WriteHeader(status)
		fmt.Fprintf(w, `{"error":{"message":"stubbed failure","code":%d}}`, status)
		return
	}

	choices := []any{}
	if !none {
		choices = append(choices, map[string]any{
			"index":         0,
			"message":       map[string]string{"role": "assistant", "content": content},
			"finish_reason": "stop",
		})
	}
	json.NewEncoder(w).Encode(map[string]any{
		"id":      "chatcmpl-stub",
		"object":  "chat.completion",
		"model":   "gpt-3.5-turbo-0125",
		"choices": choices,
		"usage":   map[string]int{"prompt_tokens": 10, "completion_tokens": 5, "total_tokens": 15},
	})
}
