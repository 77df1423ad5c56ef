package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const DefaultRunsDir = ".job-seeker/runs"

// Recorder stores one JSON checkpoint per completed stage under dir/<run-id>/.
type Recorder struct {
	dir string
}

func NewRecorder(dir string) *Recorder {
	if strings.TrimSpace(dir) == "" {
		dir = DefaultRunsDir
	}
	return &Recorder{dir: dir}
}

func (r *Recorder) Dir() string {
	return r.dir
}

func checkpointName(index int, stage string) string {
	return fmt.Sprintf("%02d-%s.json", index, stage)
}

// Save writes the state reached after the stage at position index.
// Index 0 is the state before any stage ran.
func (r *Recorder) Save(state *State, index int, stage string) error {
	if strings.TrimSpace(state.RunID) == "" {
		return errors.New("run id is required")
	}

	dir := filepath.Join(r.dir, state.RunID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	return os.WriteFile(filepath.Join(dir, checkpointName(index, stage)), data, 0o644)
}

// LoadBefore returns the state a replay of the named stage starts from:
// the checkpoint written by the stage right before it.
func (r *Recorder) LoadBefore(runID, stage string) (*State, error) {
	idx := StageIndex(stage)
	if idx < 0 {
		return nil, fmt.Errorf("unknown stage %q", stage)
	}

	name := startCheckpoint
	if idx > 0 {
		name = StageNames[idx-1]
	}

	path := filepath.Join(r.dir, runID, checkpointName(idx, name))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("run %s has no checkpoint before stage %s", runID, stage)
		}
		return nil, err
	}

	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("parse checkpoint %s: %w", path, err)
	}

	state.Completed = trimCompleted(state.Completed, idx)

	return &state, nil
}

// Runs lists recorded run ids, oldest first.
func (r *Recorder) Runs() ([]string, error) {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}

	type run struct {
		id      string
		modTime int64
	}
	runs := make([]run, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			return nil, err
		}
		runs = append(runs, run{id: entry.Name(), modTime: info.ModTime().UnixNano()})
	}

	sort.SliceStable(runs, func(i, j int) bool { return runs[i].modTime < runs[j].modTime })

	ids := make([]string, 0, len(runs))
	for _, r := range runs {
		ids = append(ids, r.id)
	}
	return ids, nil
}

func trimCompleted(completed []string, upTo int) []string {
	out := make([]string, 0, len(completed))
	for _, name := range completed {
		if idx := StageIndex(name); idx >= 0 && idx < upTo {
			out = append(out, name)
		}
	}
	return out
}
