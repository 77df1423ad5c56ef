package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/report"
	"github.com/spigell/job-seeker/internal/scoring"
)

// IterationSummary describes one run of a training or verification loop.
type IterationSummary struct {
	Iteration      int     `json:"iteration"`
	RunID          string  `json:"run_id"`
	Found          int     `json:"found"`
	Evaluated      int     `json:"evaluated"`
	Stored         int     `json:"stored"`
	Qualified      int     `json:"qualified"`
	TopScore       float64 `json:"top_score"`
	AverageScore   float64 `json:"average_score"`
	SearchFailures int     `json:"search_failures"`
	DurationMS     int64   `json:"duration_ms"`
	Generated      bool    `json:"strategy_generated"`
	Error          string  `json:"error,omitempty"`
}

func summarize(iteration int, state *State, took time.Duration) IterationSummary {
	summary := IterationSummary{
		Iteration:      iteration,
		RunID:          state.RunID,
		Found:          state.Found.Len(),
		Evaluated:      state.Evaluated.Len(),
		Stored:         state.Stored,
		SearchFailures: len(state.SearchFailures),
		DurationMS:     took.Milliseconds(),
	}

	if state.Evaluated.Len() > 0 {
		summary.Qualified = state.Evaluated.AtLeast(report.Threshold).Len()
		total := 0.0
		for _, posting := range state.Evaluated.Items {
			total += posting.Score()
			summary.TopScore = max(summary.TopScore, posting.Score())
		}
		summary.AverageScore = total / float64(state.Evaluated.Len())
	}

	if state.Strategy != nil {
		summary.Generated = state.Strategy.Generated
	}

	return summary
}

// Train runs the whole chain n times and summarizes every iteration.
// It stops at the first failing iteration.
func (p *Pipeline) Train(ctx context.Context, n int, query string, sites []string) ([]IterationSummary, error) {
	return p.iterate(ctx, n, query, sites, nil)
}

// Verify runs the chain n times and checks the output of every iteration
// against the scoring and report guarantees.
func (p *Pipeline) Verify(ctx context.Context, n int, query string, sites []string) ([]IterationSummary, error) {
	return p.iterate(ctx, n, query, sites, CheckInvariants)
}

func (p *Pipeline) iterate(ctx context.Context, n int, query string, sites []string, check func(*State) error) ([]IterationSummary, error) {
	if n <= 0 {
		return nil, fmt.Errorf("iterations must be positive, got %d", n)
	}

	summaries := make([]IterationSummary, 0, n)
	for i := 1; i <= n; i++ {
		started := time.Now()
		state, err := p.Run(ctx, NewState(query, sites, p.deps.now()))
		if err == nil && check != nil {
			err = check(state)
		}

		summary := summarize(i, state, time.Since(started))
		if err != nil {
			summary.Error = err.Error()
			summaries = append(summaries, summary)
			return summaries, fmt.Errorf("iteration %d: %w", i, err)
		}
		summaries = append(summaries, summary)

		p.deps.Logger.Info("iteration finished",
			zap.Int("iteration", i),
			zap.Int("found", summary.Found),
			zap.Int("qualified", summary.Qualified),
			zap.Float64("top_score", summary.TopScore),
		)
	}

	return summaries, nil
}

// CheckInvariants verifies what every completed run must satisfy.
func CheckInvariants(state *State) error {
	var errs []error

	prev := scoring.MaxScore + 1
	for _, posting := range state.Evaluated.Items {
		score := posting.Score()
		if posting.MatchScore == nil {
			errs = append(errs, fmt.Errorf("posting %s was not scored", posting.URL))
		}
		if score < 0 || score > scoring.MaxScore {
			errs = append(errs, fmt.Errorf("posting %s scored %.1f outside [0, %d]", posting.URL, score, int(scoring.MaxScore)))
		}
		if score > prev {
			errs = append(errs, fmt.Errorf("posting %s is out of score order", posting.URL))
		}
		prev = score
	}

	if state.Stored > state.Evaluated.Len() {
		errs = append(errs, fmt.Errorf("stored %d postings out of %d evaluated", state.Stored, state.Evaluated.Len()))
	}

	if cards := strings.Count(state.Report, "**Apply Here**"); cards > report.MaxPostings {
		errs = append(errs, fmt.Errorf("report lists %d postings, at most %d allowed", cards, report.MaxPostings))
	}

	return errors.Join(errs...)
}

// WriteSummaries saves iteration summaries as indented JSON.
func WriteSummaries(path string, summaries []IterationSummary) error {
	data, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return err
	}
	return writeArtifact(path, string(data)+"\n")
}
