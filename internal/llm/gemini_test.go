package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/almeera/ultah/internal/config"
)

func TestGeminiProviderChat_RequestAndResponse(t *testing.T) {
	var gotPath string
	var gotReq map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"candidates":[{"content":{"role":"model","parts":[{"text":"Happy birthday, Kak!"}]}}],
			"usageMetadata":{"promptTokenCount":3,"candidatesTokenCount":2,"totalTokenCount":5}
		}`))
	}))
	defer srv.Close()

	p, err := newProvider(context.Background(), config.LLMConfig{
		Provider: config.ProviderGemini,
		APIKey:   "test-key",
		Model:    "gemini-2.5-flash",
		BaseURL:  srv.URL,
	}, srv.Client())
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}

	resp, err := p.Chat(context.Background(), ChatRequest{
		SystemPrompt: "asisten klinik",
		Messages:     []ChatMessage{UserMessage("halo"), AssistantMessage("hai"), UserMessage("ucapkan")},
	})
	if err != nil {
		t.Fatalf("chat failed: %v", err)
	}

	if !strings.HasSuffix(gotPath, "/models/gemini-2.5-flash:generateContent") {
		t.Fatalf("unexpected path: %s", gotPath)
	}
	contents, ok := gotReq["contents"].([]any)
	if !ok || len(contents) != 3 {
		t.Fatalf("expected 3 contents, got %#v", gotReq["contents"])
	}
	if role := contents[1].(map[string]any)["role"]; role != "model" {
		t.Fatalf("expected assistant mapped to model role, got %v", role)
	}
	if _, ok := gotReq["systemInstruction"]; !ok {
		t.Fatalf("expected systemInstruction in request")
	}

	if resp.Content != "Happy birthday, Kak!" {
		t.Fatalf("unexpected content: %q", resp.Content)
	}
	if resp.Usage.InputTokens != 3 || resp.Usage.OutputTokens != 2 || resp.Usage.TotalTokens != 5 {
		t.Fatalf("unexpected usage: %+v", resp.Usage)
	}
}
