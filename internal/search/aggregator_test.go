package search

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/spigell/job-seeker/internal/extract"
)

type stubProvider struct {
	queries []string
	results map[string][]Result
	errs    map[string]error
}

func (s *stubProvider) Search(_ context.Context, query string, _ int) ([]Result, error) {
	s.queries = append(s.queries, query)
	if err, ok := s.errs[query]; ok {
		return nil, err
	}
	return s.results[query], nil
}

func newTestAggregator(provider Provider, logger *zap.Logger, waits *[]time.Duration) *Aggregator {
	agg := NewAggregator(provider, logger)
	agg.wait = func(_ context.Context, d time.Duration) error {
		*waits = append(*waits, d)
		return nil
	}
	return agg
}

func TestAggregatorSearch(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{
		results: map[string][]Result{
			SiteQuery("indeed.com", "golang"): {
				{Title: "Go Engineer at Acme", Link: "https://indeed.com/a", Snippet: "Austin, TX. Full-time role paying $120k - $150k. Posted 3 days ago"},
				{Title: "", Link: "https://indeed.com/missing-title"},
				{Title: "Missing link"},
			},
		},
		errs: map[string]error{
			SiteQuery("dice.com", "golang"): errors.New("boom"),
		},
	}

	core, logs := observer.New(zapcore.WarnLevel)
	var waits []time.Duration
	agg := newTestAggregator(provider, zap.New(core), &waits)

	out, err := agg.Search(context.Background(), "golang", []string{"indeed.com", "dice.com"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}

	if len(waits) != 1 || waits[0] != DefaultDelay {
		t.Fatalf("expected one pause of %s, got %v", DefaultDelay, waits)
	}

	if out.Postings.Len() != 1+fallbackCap {
		t.Fatalf("expected %d postings, got %d", 1+fallbackCap, out.Postings.Len())
	}

	first := out.Postings.Items[0]
	if first.Company != "Acme" || first.Location != "Austin, TX" || first.Site != "indeed.com" {
		t.Fatalf("unexpected parsed posting: %+v", first)
	}
	if first.SalaryRange != "$120k - $150k" || first.PostedDate != "3 days ago" || first.JobType != extract.FullTime {
		t.Fatalf("unexpected extracted fields: %+v", first)
	}

	if len(out.Failures) != 1 || out.Failures[0].Site != "dice.com" {
		t.Fatalf("expected one dice.com failure, got %+v", out.Failures)
	}
	var perr *ProviderError
	if !errors.As(error(out.Failures[0]), &perr) || perr.Cause.Error() != "boom" {
		t.Fatalf("unexpected failure: %v", out.Failures[0])
	}

	if logs.FilterMessage("search failed, using placeholder postings").Len() != 1 {
		t.Fatalf("expected a warning for the failed site, got %v", logs.All())
	}

	fallback := out.Postings.Items[1]
	if fallback.URL != "https://dice.com/job/1" || fallback.Title != "Senior golang Engineer" {
		t.Fatalf("unexpected placeholder posting: %+v", fallback)
	}
}

func TestAggregatorWithoutProvider(t *testing.T) {
	t.Parallel()

	var waits []time.Duration
	agg := newTestAggregator(nil, nil, &waits)
	agg.MaxResults = 3

	out, err := agg.Search(context.Background(), "rust", []string{"remote.co"})
	if err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if out.Postings.Len() != 3 {
		t.Fatalf("expected 3 placeholder postings, got %d", out.Postings.Len())
	}
	if !errors.Is(out.Failures[0], ErrNoProvider) {
		t.Fatalf("expected ErrNoProvider, got %v", out.Failures[0])
	}
	if len(waits) != 0 {
		t.Fatalf("expected no pauses for a single site, got %v", waits)
	}
}

func TestAggregatorDefaultSites(t *testing.T) {
	t.Parallel()

	provider := &stubProvider{}
	var waits []time.Duration
	agg := newTestAggregator(provider, nil, &waits)

	if _, err := agg.Search(context.Background(), "go", nil); err != nil {
		t.Fatalf("Search returned error: %v", err)
	}
	if len(provider.queries) != len(DefaultSites) {
		t.Fatalf("expected %d queries, got %d", len(DefaultSites), len(provider.queries))
	}
	if len(waits) != len(DefaultSites)-1 {
		t.Fatalf("expected %d pauses, got %d", len(DefaultSites)-1, len(waits))
	}
}

func TestAggregatorStopsOnCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	agg := NewAggregator(&stubProvider{}, nil)
	agg.wait = func(context.Context, time.Duration) error {
		cancel()
		return context.Canceled
	}

	_, err := agg.Search(ctx, "go", []string{"a.com", "b.com"})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestParseResultsCap(t *testing.T) {
	t.Parallel()

	results := make([]Result, 0, 15)
	for i := 0; i < 15; i++ {
		results = append(results, Result{Title: "Job", Link: "https://x.com/" + strings.Repeat("a", i+1)})
	}

	if got := ParseResults(results, "x.com"); len(got) != resultCap {
		t.Fatalf("expected %d postings, got %d", resultCap, len(got))
	}
}

func TestPlainText(t *testing.T) {
	t.Parallel()

	got := plainText("<b>Senior</b>  Go&nbsp;developer\n in <i>Berlin</i>")
	if got != "Senior Go developer in Berlin" {
		t.Fatalf("unexpected text %q", got)
	}
}

func TestSiteQuery(t *testing.T) {
	t.Parallel()

	if got := SiteQuery("dice.com", "go developer"); got != `site:dice.com "go developer" jobs` {
		t.Fatalf("unexpected query %q", got)
	}
}
