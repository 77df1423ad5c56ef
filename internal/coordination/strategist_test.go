package coordination

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/profile"
)

type stubGenerator struct {
	response   string
	err        error
	lastSystem string
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, system, prompt string) (string, error) {
	s.lastSystem = system
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) Model() string {
	return "stub-model"
}

var at = time.Date(2024, 1, 15, 12, 0, 0, 0, time.UTC)

func testInput() (*jobs.Postings, *profile.UserProfile) {
	p := &jobs.Posting{Title: "Go Engineer", Company: "Acme", URL: "https://acme.dev/1", Description: "docker"}
	p.SetScore(88, at)
	return jobs.New(p), &profile.UserProfile{Name: "Ada", CurrentRole: "Engineer", Skills: []string{"go"}}
}

func TestStrategistUsesGenerator(t *testing.T) {
	t.Parallel()

	stub := &stubGenerator{response: "```markdown\n# Application Strategy for Ada\n```"}
	postings, p := testInput()

	strategy, err := NewStrategist(stub, zap.NewNop()).Write(context.Background(), "# Report\nAcme", postings, p, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !strategy.Generated || strategy.Model != "stub-model" {
		t.Fatalf("expected generated strategy, got %+v", strategy)
	}
	if strategy.Markdown != "# Application Strategy for Ada\n" {
		t.Fatalf("unexpected markdown %q", strategy.Markdown)
	}
	if !strings.Contains(stub.lastPrompt, `"name": "Ada"`) || !strings.Contains(stub.lastPrompt, "# Report\nAcme") {
		t.Fatalf("prompt is missing profile or report:\n%s", stub.lastPrompt)
	}
	if strings.Contains(stub.lastPrompt, "{{") {
		t.Fatal("prompt still has placeholders")
	}
	if stub.lastSystem == "" {
		t.Fatal("expected a system instruction")
	}
}

func TestStrategistFallsBack(t *testing.T) {
	t.Parallel()

	core, logs := observer.New(zapcore.WarnLevel)
	stub := &stubGenerator{err: errors.New("quota")}
	postings, p := testInput()

	strategy, err := NewStrategist(stub, zap.New(core)).Write(context.Background(), "# Report", postings, p, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if strategy.Generated {
		t.Fatal("expected static strategy")
	}
	if !strings.Contains(strategy.Markdown, "**Go Engineer** at Acme") {
		t.Fatalf("unexpected static strategy:\n%s", strategy.Markdown)
	}
	if logs.Len() != 1 {
		t.Fatalf("expected one warning, got %d", logs.Len())
	}
}

func TestStrategistWithoutGenerator(t *testing.T) {
	t.Parallel()

	postings, p := testInput()

	strategy, err := NewStrategist(nil, nil).Write(context.Background(), "# Report", postings, p, at)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strategy.Generated || !strings.HasPrefix(strategy.Markdown, "# Application Strategy for Ada") {
		t.Fatalf("unexpected strategy: %+v", strategy)
	}
}
