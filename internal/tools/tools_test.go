package tools

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/store"
)

func newTool(t *testing.T) *DatabaseTool {
	t.Helper()

	s, err := store.Open(filepath.Join(t.TempDir(), "tools.db"), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	return NewDatabaseTool(s, nil)
}

const postingsJSON = `[
	{"title": "Go Engineer", "company": "Acme", "url": "https://a", "match_score": 82},
	{"title": "Rust Engineer", "company": "Initech", "url": "https://b", "match_score": 55}
]`

func TestDatabaseToolRoundTrip(t *testing.T) {
	ctx := context.Background()
	tool := newTool(t)

	res := tool.Execute(ctx, "store", postingsJSON)
	require.True(t, res.OK, res.JSON())
	assert.Equal(t, StoreSummary{Received: 2, Stored: 2}, res.Data)

	res = tool.Execute(ctx, "store", postingsJSON)
	require.True(t, res.OK)
	assert.Equal(t, StoreSummary{Received: 2, Stored: 0}, res.Data)

	res = tool.Execute(ctx, "retrieve", `{"min_score": 70}`)
	require.True(t, res.OK)
	found := res.Data.(*jobs.Postings)
	require.Equal(t, 1, found.Len())
	assert.Equal(t, "https://a", found.Items[0].URL)

	id := found.Items[0].ID
	res = tool.Execute(ctx, "update", `{"id": `+itoa(id)+`, "updates": {"applied": true}}`)
	require.True(t, res.OK, res.JSON())

	res = tool.Execute(ctx, "retrieve", "")
	require.True(t, res.OK)
	all := res.Data.(*jobs.Postings)
	require.Equal(t, 2, all.Len())
	assert.True(t, all.Items[0].Applied)

	res = tool.Execute(ctx, "delete", itoa(id))
	require.True(t, res.OK, res.JSON())

	res = tool.Execute(ctx, "delete", `{"id": `+itoa(id)+`}`)
	require.True(t, res.OK, "deleting an absent id is a no-op")

	res = tool.Execute(ctx, "retrieve", `{"limit": 5}`)
	require.True(t, res.OK)
	assert.Equal(t, 1, res.Data.(*jobs.Postings).Len())
}

func TestDatabaseToolFailures(t *testing.T) {
	ctx := context.Background()
	tool := newTool(t)

	cases := []struct {
		name    string
		action  string
		payload string
		kind    ErrorKind
	}{
		{name: "unknown action", action: "truncate", kind: KindUnknownAction},
		{name: "malformed store", action: "store", payload: "{not json", kind: KindInvalidInput},
		{name: "empty store", action: "store", kind: KindInvalidInput},
		{name: "posting without url", action: "store", payload: `[{"title": "x"}]`, kind: KindInvalidInput},
		{name: "malformed filter", action: "retrieve", payload: `{"min_score": "high"}`, kind: KindInvalidInput},
		{name: "negative limit", action: "retrieve", payload: `{"limit": -1}`, kind: KindInvalidInput},
		{name: "update without id", action: "update", payload: `{"updates": {"title": "x"}}`, kind: KindInvalidInput},
		{name: "update unknown field", action: "update", payload: `{"id": 1, "updates": {"bogus": 1}}`, kind: KindInvalidInput},
		{name: "update without fields", action: "update", payload: `{"id": 1}`, kind: KindInvalidInput},
		{name: "update missing row", action: "update", payload: `{"id": 404, "updates": {"title": "x"}}`, kind: KindNotFound},
		{name: "delete without id", action: "delete", payload: `{}`, kind: KindInvalidInput},
		{name: "delete garbage", action: "delete", payload: `abc`, kind: KindInvalidInput},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := tool.Execute(ctx, tc.action, tc.payload)
			require.False(t, res.OK)
			require.NotNil(t, res.Error)
			assert.Equal(t, tc.kind, res.Error.Kind, res.Error.Message)
			assert.Error(t, res.Err())
			assert.Contains(t, res.JSON(), string(tc.kind))
		})
	}
}

const profileJSON = `{
	"name": "Ada",
	"current_role": "Engineer",
	"years_experience": 5,
	"skills": ["python", "aws"],
	"preferred_locations": ["Remote"],
	"expected_salary": 150000
}`

func TestEvaluateAndReport(t *testing.T) {
	t.Parallel()

	input := `[
		{"title": "Java role", "url": "https://j", "description": "java", "location": "Tokyo"},
		{"title": "Python role", "url": "https://p", "description": "5 years of experience with python and aws", "location": "Remote", "salary_range": "$140,000-$160,000"}
	]`

	res := Evaluate(input, profileJSON)
	require.True(t, res.OK, res.JSON())
	scored := res.Data.(*jobs.Postings)
	require.Equal(t, 2, scored.Len())
	assert.Equal(t, "https://p", scored.Items[0].URL)
	assert.InDelta(t, 90, scored.Items[0].Score(), 0.001)

	encoded := `[{"title": "Python role", "company": "Acme", "url": "https://p", "match_score": 90}]`
	res = Report(encoded, profileJSON, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC))
	require.True(t, res.OK, res.JSON())
	assert.True(t, strings.HasPrefix(res.Data.(string), "# Job Search Report for Ada"))
}

func TestEvaluateRejectsBadInput(t *testing.T) {
	t.Parallel()

	res := Evaluate("nope", profileJSON)
	require.False(t, res.OK)
	assert.Equal(t, KindInvalidInput, res.Error.Kind)

	res = Evaluate("[]", `{"years_experience": "many"}`)
	require.False(t, res.OK)
	assert.Equal(t, KindInvalidInput, res.Error.Kind)

	res = Report("[]", "{}", time.Now())
	require.False(t, res.OK)
	assert.Equal(t, KindInvalidInput, res.Error.Kind)
}

func itoa(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
