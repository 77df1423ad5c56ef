// Package pipeline drives the fixed search → evaluate → store → report → coordinate chain.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/coordination"
	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/logger"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/search"
)

// ErrStageFailed wraps every error returned by a stage.
var ErrStageFailed = errors.New("pipeline stage failed")

// Stage is a single link of the chain. It reads the accumulated state and adds its output to it.
type Stage interface {
	Name() string
	Disable(reason string)
	IsEnabled() bool

	Validate(deps Deps) error
	Run(ctx context.Context, deps Deps, state *State) (Step, error)
}

type Searcher interface {
	Search(ctx context.Context, query string, sites []string) (*search.Outcome, error)
}

type Evaluator interface {
	Evaluate(postings *jobs.Postings) *jobs.Postings
}

type Repository interface {
	Store(ctx context.Context, postings *jobs.Postings) (int, error)
}

type Coordinator interface {
	Write(ctx context.Context, report string, postings *jobs.Postings, p *profile.UserProfile, at time.Time) (*coordination.Strategy, error)
}

// Deps aggregates the collaborators shared by all stages.
type Deps struct {
	Logger      *zap.Logger
	Profile     *profile.UserProfile
	Searcher    Searcher
	Evaluator   Evaluator
	Store       Repository
	Coordinator Coordinator

	// ReportFile and StrategyFile are written when set.
	ReportFile   string
	StrategyFile string

	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

// Step describes the result of executing a stage.
type Step struct {
	Input  int
	Output int
}

// State is the context handed from one stage to the next.
type State struct {
	RunID     string    `json:"run_id"`
	Query     string    `json:"query"`
	Sites     []string  `json:"sites"`
	StartedAt time.Time `json:"started_at"`

	Found          *jobs.Postings         `json:"found,omitempty"`
	SearchFailures []string               `json:"search_failures,omitempty"`
	Evaluated      *jobs.Postings         `json:"evaluated,omitempty"`
	Stored         int                    `json:"stored"`
	Report         string                 `json:"report,omitempty"`
	Strategy       *coordination.Strategy `json:"strategy,omitempty"`

	Completed []string `json:"completed_stages"`
}

// NewState starts a run with a fresh id.
func NewState(query string, sites []string, at time.Time) *State {
	return &State{
		RunID:     uuid.NewString(),
		Query:     query,
		Sites:     append([]string(nil), sites...),
		StartedAt: at,
	}
}

// Checkpointer persists the state after every completed stage.
type Checkpointer interface {
	Save(state *State, index int, stage string) error
}

type Pipeline struct {
	stages      []Stage
	deps        Deps
	checkpoints Checkpointer
}

// New builds the default five-stage chain.
func New(deps Deps, checkpoints Checkpointer) *Pipeline {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Pipeline{stages: DefaultStages(), deps: deps, checkpoints: checkpoints}
}

func (p *Pipeline) Stages() []Stage {
	return p.stages
}

// DisableByName marks a stage as disabled while keeping it in the chain.
func (p *Pipeline) DisableByName(name, reason string) {
	for _, stage := range p.stages {
		if stage.Name() == name {
			stage.Disable(reason)
		}
	}
}

// Run executes every stage in order.
func (p *Pipeline) Run(ctx context.Context, state *State) (*State, error) {
	return p.RunFrom(ctx, state, p.stages[0].Name())
}

// RunFrom executes the chain starting at the named stage. Earlier stages are
// expected to have filled state already, as in a replayed checkpoint.
func (p *Pipeline) RunFrom(ctx context.Context, state *State, from string) (*State, error) {
	start := StageIndex(from)
	if start < 0 {
		return state, fmt.Errorf("unknown stage %q", from)
	}

	if err := p.validate(); err != nil {
		return state, err
	}

	if state.RunID == "" {
		state.RunID = uuid.NewString()
	}

	if p.checkpoints != nil && start == 0 {
		if err := p.checkpoints.Save(state, 0, startCheckpoint); err != nil {
			return state, fmt.Errorf("save checkpoint: %w", err)
		}
	}

	for i := start; i < len(p.stages); i++ {
		stage := p.stages[i]
		stageLogger := logger.WithFields(p.deps.Logger, logger.StageFields(stage.Name(), state.RunID)...)

		if err := ctx.Err(); err != nil {
			return state, err
		}

		if stage.IsEnabled() {
			deps := p.deps
			deps.Logger = stageLogger

			started := time.Now()
			info, err := stage.Run(ctx, deps, state)
			if err != nil {
				stageLogger.Error("stage failed", zap.Error(err))
				return state, fmt.Errorf("%w: %s: %w", ErrStageFailed, stage.Name(), err)
			}

			state.Completed = append(state.Completed, stage.Name())

			stageLogger.Info("stage completed",
				zap.Int("input", info.Input),
				zap.Int("output", info.Output),
				zap.Duration("took", time.Since(started)),
			)
		} else {
			stageLogger.Info("stage disabled")
		}

		if p.checkpoints != nil {
			if err := p.checkpoints.Save(state, i+1, stage.Name()); err != nil {
				return state, fmt.Errorf("save checkpoint: %w", err)
			}
		}
	}

	return state, nil
}

// Replay resumes a recorded run at the named stage.
func (p *Pipeline) Replay(ctx context.Context, recorder *Recorder, runID, from string) (*State, error) {
	state, err := recorder.LoadBefore(runID, from)
	if err != nil {
		return nil, err
	}

	p.deps.Logger.Info("replaying run", zap.String(logger.FieldRunID, runID), zap.String("from", from))

	return p.RunFrom(ctx, state, from)
}

func (p *Pipeline) validate() error {
	if p.deps.Profile.IsEmpty() {
		return profile.ErrEmptyProfile
	}
	for _, stage := range p.stages {
		if !stage.IsEnabled() {
			continue
		}
		if err := stage.Validate(p.deps); err != nil {
			return fmt.Errorf("%s: %w", stage.Name(), err)
		}
	}
	return nil
}
