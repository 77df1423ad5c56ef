package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

const (
	strategySystem = "You write concise, actionable job application strategies in markdown."
	strategyPrompt = "Write an application strategy for the report below."
)

// reply is one scripted outcome of a chat turn.
type reply struct {
	text string
	err  error
}

// scriptedChats hands out one chat per Create call, each answering with the
// next scripted reply.
type scriptedChats struct {
	replies []reply
	models  []string
	configs []*genai.GenerateContentConfig
	sent    [][]string
}

type scriptedChat struct {
	owner *scriptedChats
	index int
	reply reply
}

func (c *scriptedChat) SendMessage(_ context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error) {
	for _, part := range parts {
		c.owner.sent[c.index] = append(c.owner.sent[c.index], part.Text)
	}
	if c.reply.err != nil {
		return nil, c.reply.err
	}
	if c.reply.text == "" {
		return &genai.GenerateContentResponse{}, nil
	}

	content := &genai.Content{}
	for _, line := range strings.Split(c.reply.text, "\n") {
		content.Parts = append(content.Parts, &genai.Part{Text: line})
	}
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: content}}}, nil
}

func (s *scriptedChats) Create(_ context.Context, model string, config *genai.GenerateContentConfig, _ []*genai.Content) (chatSession, error) {
	if len(s.replies) == 0 {
		return nil, errors.New("no scripted reply left")
	}
	next := s.replies[0]
	s.replies = s.replies[1:]

	s.models = append(s.models, model)
	s.configs = append(s.configs, config)
	s.sent = append(s.sent, nil)
	return &scriptedChat{owner: s, index: len(s.sent) - 1, reply: next}, nil
}

func (s *scriptedChats) attempts() int {
	return len(s.models)
}

func newScriptedGenerator(maxRetries int, replies ...reply) (*Generator, *scriptedChats) {
	chats := &scriptedChats{replies: replies}
	return &Generator{chats: chats, model: DefaultModel, maxRetries: maxRetries, logger: zap.NewNop()}, chats
}

// recordSleep replaces the retry pause for the duration of the test.
func recordSleep(t *testing.T) *[]time.Duration {
	t.Helper()
	var pauses []time.Duration
	original := sleep
	sleep = func(d time.Duration) { pauses = append(pauses, d) }
	t.Cleanup(func() { sleep = original })
	return &pauses
}

var (
	unavailable = genai.APIError{Code: http.StatusServiceUnavailable, Status: "UNAVAILABLE"}
	badRequest  = genai.APIError{Code: http.StatusBadRequest, Status: "INVALID_ARGUMENT"}
)

func quotaExhausted(message string) genai.APIError {
	return genai.APIError{Code: http.StatusTooManyRequests, Status: "RESOURCE_EXHAUSTED", Message: message}
}

func TestStrategyGeneratedAfterServerError(t *testing.T) {
	pauses := recordSleep(t)
	g, chats := newScriptedGenerator(2,
		reply{err: unavailable},
		reply{text: "# Application Strategy"},
	)

	got, err := g.GenerateContent(context.Background(), strategySystem, strategyPrompt)
	if err != nil {
		t.Fatalf("expected the second attempt to succeed, got %v", err)
	}
	if got != "# Application Strategy" {
		t.Fatalf("unexpected strategy: %q", got)
	}
	if chats.attempts() != 2 || len(*pauses) != 1 {
		t.Fatalf("expected 2 attempts and 1 pause, got %d and %v", chats.attempts(), *pauses)
	}

	for i := range chats.models {
		if chats.models[i] != DefaultModel {
			t.Fatalf("attempt %d used model %q", i, chats.models[i])
		}
		cfg := chats.configs[i]
		if cfg == nil || cfg.SystemInstruction == nil || cfg.SystemInstruction.Parts[0].Text != strategySystem {
			t.Fatalf("attempt %d lost the system instruction: %+v", i, cfg)
		}
		if len(chats.sent[i]) != 1 || chats.sent[i][0] != strategyPrompt {
			t.Fatalf("attempt %d sent %v", i, chats.sent[i])
		}
	}
}

func TestRetryBudget(t *testing.T) {
	tests := []struct {
		name       string
		maxRetries int
		replies    []reply
		attempts   int
	}{
		{
			name:       "server errors until the budget runs out",
			maxRetries: 3,
			replies:    []reply{{err: unavailable}, {err: unavailable}, {err: unavailable}},
			attempts:   3,
		},
		{
			name:       "client errors are final",
			maxRetries: 3,
			replies:    []reply{{err: badRequest}},
			attempts:   1,
		},
		{
			name:       "quota delay longer than the limit is final",
			maxRetries: 3,
			replies:    []reply{{err: quotaExhausted("quota exhausted, retry after 90 seconds")}},
			attempts:   1,
		},
		{
			name:       "empty response",
			maxRetries: 1,
			replies:    []reply{{}},
			attempts:   1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recordSleep(t)
			g, chats := newScriptedGenerator(tt.maxRetries, tt.replies...)

			if _, err := g.GenerateContent(context.Background(), strategySystem, strategyPrompt); err == nil {
				t.Fatal("expected an error")
			}
			if chats.attempts() != tt.attempts {
				t.Fatalf("expected %d attempts, got %d", tt.attempts, chats.attempts())
			}
		})
	}
}

func TestQuotaDelayIsHonoured(t *testing.T) {
	pauses := recordSleep(t)
	g, chats := newScriptedGenerator(3,
		reply{err: quotaExhausted("quota exhausted, retry in 5s")},
		reply{text: "## Priority Applications\n\n1. Acme"},
	)

	got, err := g.GenerateContent(context.Background(), "", strategyPrompt)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if got != "## Priority Applications\n1. Acme" {
		t.Fatalf("expected empty parts to be dropped, got %q", got)
	}
	if len(*pauses) != 1 || (*pauses)[0] != 5*time.Second {
		t.Fatalf("expected a single 5s pause, got %v", *pauses)
	}
	if chats.configs[0] != nil {
		t.Fatal("expected no config without a system instruction")
	}
}

func TestBlankPromptIsRejected(t *testing.T) {
	g, chats := newScriptedGenerator(1, reply{text: "unused"})

	if _, err := g.GenerateContent(context.Background(), strategySystem, "   "); err == nil {
		t.Fatal("expected an error for a blank prompt")
	}
	if chats.attempts() != 0 {
		t.Fatalf("expected no chat, got %d", chats.attempts())
	}
}
