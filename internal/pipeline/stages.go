package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/report"
	"github.com/spigell/job-seeker/internal/search"
)

const (
	StageSearch     = "search"
	StageEvaluate   = "evaluate"
	StageStore      = "store"
	StageReport     = "report"
	StageCoordinate = "coordinate"

	startCheckpoint = "start"
)

// StageNames lists the chain in execution order.
var StageNames = []string{StageSearch, StageEvaluate, StageStore, StageReport, StageCoordinate}

// StageIndex returns the position of the named stage, or -1.
func StageIndex(name string) int {
	for i, n := range StageNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return i
		}
	}
	return -1
}

func DefaultStages() []Stage {
	return []Stage{
		&searchStage{},
		&evaluateStage{},
		&storeStage{},
		&reportStage{},
		&coordinateStage{},
	}
}

type toggle struct {
	disabled bool
	reason   string
}

func (t *toggle) Disable(reason string) {
	t.disabled = true
	t.reason = reason
}

func (t *toggle) IsEnabled() bool { return !t.disabled }

type searchStage struct{ toggle }

func (s *searchStage) Name() string { return StageSearch }

func (s *searchStage) Validate(deps Deps) error {
	if deps.Searcher == nil {
		return errors.New("searcher is not configured")
	}
	return nil
}

func (s *searchStage) Run(ctx context.Context, deps Deps, state *State) (Step, error) {
	if len(state.Sites) == 0 {
		state.Sites = append([]string(nil), search.DefaultSites...)
	}

	outcome, err := deps.Searcher.Search(ctx, state.Query, state.Sites)
	if err != nil {
		return Step{}, err
	}

	state.Found = outcome.Postings
	state.SearchFailures = nil
	for _, failure := range outcome.Failures {
		state.SearchFailures = append(state.SearchFailures, failure.Error())
	}

	if len(state.SearchFailures) > 0 {
		deps.Logger.Warn("some sites were replaced with placeholder postings",
			zap.Int("failed_sites", len(state.SearchFailures)),
		)
	}

	return Step{Input: len(state.Sites), Output: state.Found.Len()}, nil
}

type evaluateStage struct{ toggle }

func (s *evaluateStage) Name() string { return StageEvaluate }

func (s *evaluateStage) Validate(deps Deps) error {
	if deps.Evaluator == nil {
		return errors.New("evaluator is not configured")
	}
	return nil
}

func (s *evaluateStage) Run(_ context.Context, deps Deps, state *State) (Step, error) {
	state.Evaluated = deps.Evaluator.Evaluate(state.Found.Clone())

	fields := []zap.Field{zap.Int("qualified", state.Evaluated.AtLeast(report.Threshold).Len())}
	if state.Evaluated.Len() > 0 {
		fields = append(fields, zap.Float64("top_score", state.Evaluated.Items[0].Score()))
	}
	deps.Logger.Info("postings scored", fields...)

	return Step{Input: state.Found.Len(), Output: state.Evaluated.Len()}, nil
}

type storeStage struct{ toggle }

func (s *storeStage) Name() string { return StageStore }

func (s *storeStage) Validate(deps Deps) error {
	if deps.Store == nil {
		return errors.New("store is not configured")
	}
	return nil
}

func (s *storeStage) Run(ctx context.Context, deps Deps, state *State) (Step, error) {
	stored, err := deps.Store.Store(ctx, state.Evaluated)
	if err != nil {
		return Step{}, err
	}
	state.Stored = stored

	return Step{Input: state.Evaluated.Len(), Output: stored}, nil
}

type reportStage struct{ toggle }

func (s *reportStage) Name() string { return StageReport }

func (s *reportStage) Validate(Deps) error { return nil }

func (s *reportStage) Run(_ context.Context, deps Deps, state *State) (Step, error) {
	markdown, err := report.Render(state.Evaluated, deps.Profile, deps.now())
	if err != nil {
		return Step{}, err
	}
	state.Report = markdown

	if err := writeArtifact(deps.ReportFile, markdown); err != nil {
		return Step{}, err
	}
	if deps.ReportFile != "" {
		deps.Logger.Info("report written", zap.String("path", deps.ReportFile))
	}

	return Step{Input: state.Evaluated.Len(), Output: report.Select(state.Evaluated).Len()}, nil
}

type coordinateStage struct{ toggle }

func (s *coordinateStage) Name() string { return StageCoordinate }

func (s *coordinateStage) Validate(deps Deps) error {
	if deps.Coordinator == nil {
		return errors.New("coordinator is not configured")
	}
	return nil
}

func (s *coordinateStage) Run(ctx context.Context, deps Deps, state *State) (Step, error) {
	strategy, err := deps.Coordinator.Write(ctx, state.Report, state.Evaluated, deps.Profile, deps.now())
	if err != nil {
		return Step{}, err
	}
	state.Strategy = strategy

	if err := writeArtifact(deps.StrategyFile, strategy.Markdown); err != nil {
		return Step{}, err
	}
	if deps.StrategyFile != "" {
		deps.Logger.Info("strategy written",
			zap.String("path", deps.StrategyFile),
			zap.Bool("generated", strategy.Generated),
		)
	}

	return Step{Input: report.Select(state.Evaluated).Len(), Output: 1}, nil
}

func writeArtifact(path, content string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
