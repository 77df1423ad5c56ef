// Package coordination turns the job search report into an application strategy.
package coordination

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/ai"
	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/report"
	"github.com/spigell/job-seeker/internal/utils"
)

//go:embed prompt.md
var promptTemplate string

const (
	systemInstruction = "You write concise, actionable job application strategies in markdown."
	defaultMaxLogLen  = 200
)

// Strategist writes the application strategy. Without a generator, or when the
// generator fails, it falls back to the static strategy.
type Strategist struct {
	generator ai.Generator
	logger    *zap.Logger
	maxLogLen int
}

// Strategy is the coordination stage output.
type Strategy struct {
	Markdown  string `json:"markdown"`
	Generated bool   `json:"generated"`
	Model     string `json:"model,omitempty"`
}

func NewStrategist(generator ai.Generator, logger *zap.Logger) *Strategist {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Strategist{generator: generator, logger: logger, maxLogLen: defaultMaxLogLen}
}

func (s *Strategist) Write(ctx context.Context, reportMarkdown string, postings *jobs.Postings, p *profile.UserProfile, at time.Time) (*Strategy, error) {
	if s.generator != nil && strings.TrimSpace(reportMarkdown) != "" {
		strategy, err := s.generate(ctx, reportMarkdown, p)
		if err == nil {
			return strategy, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		s.logger.Warn("strategy generation failed, using the static strategy", zap.Error(err))
	}

	markdown, err := report.RenderStrategy(postings, p, at)
	if err != nil {
		return nil, err
	}

	return &Strategy{Markdown: markdown}, nil
}

func (s *Strategist) generate(ctx context.Context, reportMarkdown string, p *profile.UserProfile) (*Strategy, error) {
	profileJSON, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal profile: %w", err)
	}

	prompt := buildPrompt(string(profileJSON), reportMarkdown)

	s.logger.Debug("strategy request",
		zap.String("model", s.generator.Model()),
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.Truncate(prompt, s.maxLogLen)),
	)

	raw, err := s.generator.GenerateContent(ctx, systemInstruction, prompt)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("strategy response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.Truncate(raw, s.maxLogLen)),
	)

	markdown := ai.StripFences(raw)
	if markdown == "" {
		return nil, fmt.Errorf("generator returned an empty strategy")
	}

	return &Strategy{Markdown: markdown + "\n", Generated: true, Model: s.generator.Model()}, nil
}

func buildPrompt(profileJSON, reportMarkdown string) string {
	prompt := strings.ReplaceAll(promptTemplate, "{{PROFILE_JSON}}", profileJSON)
	return strings.ReplaceAll(prompt, "{{REPORT}}", strings.TrimSpace(reportMarkdown))
}
