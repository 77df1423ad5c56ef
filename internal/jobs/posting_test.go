package jobs

import (
	"encoding/json"
	"os"
	"testing"
	"time"
)

func scored(url string, score float64) *Posting {
	p := &Posting{URL: url, Site: "indeed.com"}
	p.SetScore(score, time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC))
	return p
}

func TestSortByScoreIsStable(t *testing.T) {
	postings := New(scored("a", 50), scored("b", 90), scored("c", 50), &Posting{URL: "d"}, scored("e", 90))
	postings.SortByScore()

	want := []string{"b", "e", "a", "c", "d"}
	for i, url := range want {
		if postings.Items[i].URL != url {
			t.Fatalf("position %d: expected %s, got %s", i, url, postings.Items[i].URL)
		}
	}
}

func TestAtLeastAndTop(t *testing.T) {
	postings := New(scored("a", 69.9), scored("b", 70), scored("c", 85), scored("d", 99))

	above := postings.AtLeast(70)
	if above.Len() != 3 {
		t.Fatalf("expected 3 postings, got %d", above.Len())
	}
	for _, p := range above.Items {
		if p.Score() < 70 {
			t.Fatalf("posting %s below threshold", p.URL)
		}
	}

	top := postings.Top(2)
	if top.Len() != 2 || top.Items[0].URL != "d" || top.Items[1].URL != "c" {
		t.Fatalf("unexpected top postings: %+v", top.Items)
	}
	if postings.Items[0].URL != "a" {
		t.Fatalf("Top must not reorder the receiver")
	}
}

func TestFindAndReport(t *testing.T) {
	postings := New(scored("a", 80), &Posting{ID: 7, URL: "b", Site: "dice.com"})

	if postings.FindByURL("b") == nil || postings.FindByID(7) == nil {
		t.Fatalf("expected lookups to succeed")
	}
	if postings.FindByURL("zzz") != nil {
		t.Fatalf("expected nil for unknown url")
	}

	report := postings.ReportBySite()
	if len(report["indeed.com"]) != 1 || report["indeed.com"][0]["score"] != "80.0" {
		t.Fatalf("unexpected indeed entries: %+v", report["indeed.com"])
	}
	if _, ok := report["dice.com"][0]["score"]; ok {
		t.Fatalf("did not expect score for unevaluated posting")
	}
}

func TestPostingsJSONAndDump(t *testing.T) {
	postings := New(scored("a", 42))

	data, err := json.Marshal(postings)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var decoded Postings
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded.Len() != 1 || decoded.Items[0].Score() != 42 {
		t.Fatalf("unexpected decoded postings: %+v", decoded.Items)
	}

	empty, _ := json.Marshal(&Postings{})
	if string(empty) != "[]" {
		t.Fatalf("expected empty array, got %s", empty)
	}

	path, err := postings.DumpToTmpFile()
	if err != nil {
		t.Fatalf("dump: %v", err)
	}
	defer os.Remove(path)

	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("expected non-empty dump file, err=%v", err)
	}
}

func TestClone(t *testing.T) {
	t.Parallel()

	original := New(&Posting{URL: "https://a", Title: "A"})
	clone := original.Clone()
	clone.Items[0].Title = "changed"
	clone.Items[0].SetScore(50, time.Now())

	if original.Items[0].Title != "A" || original.Items[0].MatchScore != nil {
		t.Fatalf("clone shares state with the original: %+v", original.Items[0])
	}
	if (*Postings)(nil).Clone().Len() != 0 {
		t.Fatal("expected empty clone of nil postings")
	}
}
