package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	goopenai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

type stubCompleter struct {
	req  goopenai.ChatCompletionRequest
	resp goopenai.ChatCompletionResponse
	err  error
}

func (s *stubCompleter) CreateChatCompletion(_ context.Context, req goopenai.ChatCompletionRequest) (goopenai.ChatCompletionResponse, error) {
	s.req = req
	return s.resp, s.err
}

func TestGenerateContent(t *testing.T) {
	t.Parallel()

	stub := &stubCompleter{resp: goopenai.ChatCompletionResponse{
		Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{Content: "  plan  "}}},
	}}
	g := &Generator{client: stub, model: "gpt-test", maxTokens: 10, logger: zap.NewNop()}

	out, err := g.GenerateContent(context.Background(), "be brief", "write a plan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "plan" {
		t.Fatalf("unexpected output %q", out)
	}
	if stub.req.Model != "gpt-test" || len(stub.req.Messages) != 2 {
		t.Fatalf("unexpected request: %+v", stub.req)
	}
	if stub.req.Messages[0].Role != goopenai.ChatMessageRoleSystem || stub.req.Messages[1].Content != "write a plan" {
		t.Fatalf("unexpected messages: %+v", stub.req.Messages)
	}
}

func TestGenerateContentErrors(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		stub *stubCompleter
		msg  string
	}{
		{name: "api error", stub: &stubCompleter{err: errors.New("boom")}, msg: "hi"},
		{name: "no choices", stub: &stubCompleter{}, msg: "hi"},
		{name: "empty prompt", stub: &stubCompleter{}, msg: " "},
		{name: "empty content", stub: &stubCompleter{resp: goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{}},
		}}, msg: "hi"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			g := &Generator{client: tc.stub, model: "m", logger: zap.NewNop()}
			if _, err := g.GenerateContent(context.Background(), "", tc.msg); err == nil {
				t.Fatal("expected error")
			}
		})
	}
}

func TestNewGeneratorAgainstServer(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer key" {
			t.Errorf("unexpected authorization %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(goopenai.ChatCompletionResponse{
			Choices: []goopenai.ChatCompletionChoice{{Message: goopenai.ChatCompletionMessage{Role: "assistant", Content: "ok"}}},
		})
	}))
	defer srv.Close()

	g, err := NewGenerator("key", "", srv.URL, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.Model() != DefaultModel {
		t.Fatalf("expected default model, got %q", g.Model())
	}

	out, err := g.GenerateContent(context.Background(), "", "hello")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected output %q", out)
	}
}

func TestNewGeneratorRequiresKey(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator(" ", "", "", nil); err == nil {
		t.Fatal("expected error without api key")
	}
}
