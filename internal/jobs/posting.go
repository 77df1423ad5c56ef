package jobs

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// Posting is a single discovered job opportunity.
// URL is the natural key: two postings with the same URL are the same posting.
type Posting struct {
	ID          uint       `json:"id,omitempty"`
	Title       string     `json:"title"`
	Company     string     `json:"company"`
	Location    string     `json:"location"`
	URL         string     `json:"url"`
	Description string     `json:"description"`
	PostedDate  string     `json:"posted_date"`
	SalaryRange string     `json:"salary_range"`
	Site        string     `json:"site"`
	JobType     string     `json:"job_type"`
	MatchScore  *float64   `json:"match_score,omitempty"`
	EvaluatedAt *time.Time `json:"evaluation_date,omitempty"`
	Applied     bool       `json:"applied"`
	AppliedAt   *time.Time `json:"application_date,omitempty"`
}

// Score returns the match score, or zero when the posting was never evaluated.
func (p *Posting) Score() float64 {
	if p == nil || p.MatchScore == nil {
		return 0
	}
	return *p.MatchScore
}

// SetScore stamps the posting with a score and the evaluation time.
func (p *Posting) SetScore(score float64, at time.Time) {
	p.MatchScore = &score
	p.EvaluatedAt = &at
}

type Postings struct {
	Items []*Posting
}

func New(items ...*Posting) *Postings {
	return &Postings{Items: items}
}

func (p *Postings) Len() int {
	if p == nil {
		return 0
	}
	return len(p.Items)
}

// SortByScore orders postings by descending score. Ties keep their relative order.
func (p *Postings) SortByScore() {
	sort.SliceStable(p.Items, func(i, j int) bool {
		return p.Items[i].Score() > p.Items[j].Score()
	})
}

// AtLeast returns a new collection with the postings scoring min or more.
func (p *Postings) AtLeast(min float64) *Postings {
	out := &Postings{}
	for _, posting := range p.Items {
		if posting.Score() >= min {
			out.Items = append(out.Items, posting)
		}
	}
	return out
}

// Top returns the n best scored postings without reordering the receiver.
func (p *Postings) Top(n int) *Postings {
	sorted := &Postings{Items: append([]*Posting(nil), p.Items...)}
	sorted.SortByScore()
	if n >= 0 && sorted.Len() > n {
		sorted.Items = sorted.Items[:n]
	}
	return sorted
}

// Clone copies every posting so the copy can be changed independently.
func (p *Postings) Clone() *Postings {
	out := &Postings{}
	if p == nil {
		return out
	}
	for _, posting := range p.Items {
		c := *posting
		out.Items = append(out.Items, &c)
	}
	return out
}

func (p *Postings) FindByURL(url string) *Posting {
	for _, posting := range p.Items {
		if posting.URL == url {
			return posting
		}
	}
	return nil
}

func (p *Postings) FindByID(id uint) *Posting {
	for _, posting := range p.Items {
		if posting.ID == id {
			return posting
		}
	}
	return nil
}

func (p *Postings) MarshalJSON() ([]byte, error) {
	if p == nil || p.Items == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(p.Items)
}

func (p *Postings) UnmarshalJSON(data []byte) error {
	return json.Unmarshal(data, &p.Items)
}

func (p *Postings) DumpToTmpFile() (string, error) {
	file, err := os.CreateTemp("", "postings_*.json")
	if err != nil {
		return "", err
	}
	defer file.Close()

	enc := json.NewEncoder(file)
	enc.SetIndent("", "  ")
	if err := enc.Encode(p); err != nil {
		return "", err
	}
	return file.Name(), nil
}

// ReportBySite groups a short summary of every posting by its source site.
func (p *Postings) ReportBySite() map[string][]map[string]string {
	report := make(map[string][]map[string]string)
	for _, posting := range p.Items {
		entry := map[string]string{
			"title":    posting.Title,
			"company":  posting.Company,
			"url":      posting.URL,
			"location": posting.Location,
			"salary":   posting.SalaryRange,
		}
		if posting.MatchScore != nil {
			entry["score"] = fmt.Sprintf("%.1f", *posting.MatchScore)
		}
		report[posting.Site] = append(report[posting.Site], entry)
	}
	return report
}
