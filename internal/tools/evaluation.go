package tools

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/profile"
	"github.com/spigell/job-seeker/internal/report"
	"github.com/spigell/job-seeker/internal/scoring"
)

// Evaluate scores a JSON array of postings against a JSON profile and returns
// them best first.
func Evaluate(postingsJSON, profileJSON string) Result {
	postings, p, res, ok := decodeInputs(postingsJSON, profileJSON)
	if !ok {
		return res
	}

	return success(scoring.NewScorer(p, nil).Evaluate(postings))
}

// Report renders the markdown report for already scored postings.
func Report(postingsJSON, profileJSON string, at time.Time) Result {
	postings, p, res, ok := decodeInputs(postingsJSON, profileJSON)
	if !ok {
		return res
	}

	markdown, err := report.Render(postings, p, at)
	if err != nil {
		return failure(KindInternal, "%v", err)
	}

	return success(markdown)
}

func decodeInputs(postingsJSON, profileJSON string) (*jobs.Postings, *profile.UserProfile, Result, bool) {
	postings := jobs.New()
	if err := json.Unmarshal([]byte(strings.TrimSpace(postingsJSON)), postings); err != nil {
		return nil, nil, failure(KindInvalidInput, "malformed postings: %v", err), false
	}

	p, err := profile.Parse([]byte(profileJSON))
	if err != nil {
		return nil, nil, failure(KindInvalidInput, "%v", err), false
	}

	return postings, p, Result{}, true
}
