package scoring

import (
	"time"

	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/profile"
)

// Scorer evaluates batches of postings against a single profile.
type Scorer struct {
	profile *profile.UserProfile
	logger  *zap.Logger
	now     func() time.Time
}

func NewScorer(p *profile.UserProfile, logger *zap.Logger) *Scorer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scorer{profile: p, logger: logger, now: time.Now}
}

// Evaluate scores every posting in place, stamps the evaluation time and sorts
// the collection by descending score. Ties keep their previous order.
func (s *Scorer) Evaluate(postings *jobs.Postings) *jobs.Postings {
	if postings == nil {
		return jobs.New()
	}

	at := s.now()
	for _, posting := range postings.Items {
		b := Explain(posting, s.profile)
		posting.SetScore(b.Total, at)

		s.logger.Debug("posting evaluated",
			zap.String("url", posting.URL),
			zap.Float64("score", b.Total),
			zap.Float64("skills", b.Skills),
			zap.Float64("experience", b.Experience),
			zap.Float64("location", b.Location),
			zap.Float64("salary", b.Salary),
			zap.Float64("company", b.Company),
		)
	}

	postings.SortByScore()
	return postings
}
