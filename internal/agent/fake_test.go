package agent

import (
	"context"
	"io"
	"os"
	"sync"
	"testing"

	"github.com/almeera/ultah/internal/llm"
	"github.com/almeera/ultah/internal/logging"
)

func TestMain(m *testing.M) {
	logging.SetOutput(io.Discard)
	os.Exit(m.Run())
}

type fakeProvider struct {
	mu       sync.Mutex
	requests []llm.ChatRequest
	reply    func(req llm.ChatRequest) (*llm.ChatResponse, error)
}

func (p *fakeProvider) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	p.mu.Lock()
	p.requests = append(p.requests, req)
	p.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return p.reply(req)
}

func (p *fakeProvider) lastRequest() llm.ChatRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[len(p.requests)-1]
}

func staticReply(text string) func(llm.ChatRequest) (*llm.ChatResponse, error) {
	return func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return &llm.ChatResponse{Content: text}, nil
	}
}

type moderatingProvider struct {
	fakeProvider
	verdict *llm.Moderation
	err     error
}

func (p *moderatingProvider) Moderate(context.Context, string) (*llm.Moderation, error) {
	return p.verdict, p.err
}
