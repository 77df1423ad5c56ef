package store

import (
	"time"

	"github.com/spigell/job-seeker/internal/jobs"
)

const tableName = "job_opportunities"

// opportunity is the persisted form of a posting.
type opportunity struct {
	ID              uint   `gorm:"column:id;primaryKey;autoIncrement"`
	Title           string `gorm:"column:title;not null"`
	Company         string `gorm:"column:company"`
	Location        string `gorm:"column:location"`
	URL             string `gorm:"column:url;uniqueIndex;not null"`
	Description     string `gorm:"column:description;type:text"`
	SalaryRange     string `gorm:"column:salary_range"`
	PostedDate      string `gorm:"column:posted_date"`
	Site            string `gorm:"column:site"`
	JobType         string `gorm:"column:job_type"`
	MatchScore      *float64
	EvaluationDate  *time.Time
	Applied         bool `gorm:"column:applied;default:false"`
	ApplicationDate *time.Time
	CreatedAt       time.Time
}

func (opportunity) TableName() string {
	return tableName
}

// columns lists what Update may change. id and created_at are not writable.
var columns = map[string]struct{}{
	"title":            {},
	"company":          {},
	"location":         {},
	"url":              {},
	"description":      {},
	"salary_range":     {},
	"posted_date":      {},
	"site":             {},
	"job_type":         {},
	"match_score":      {},
	"evaluation_date":  {},
	"applied":          {},
	"application_date": {},
}

var timeColumns = map[string]struct{}{
	"evaluation_date":  {},
	"application_date": {},
}

func fromPosting(p *jobs.Posting) *opportunity {
	return &opportunity{
		Title:           p.Title,
		Company:         p.Company,
		Location:        p.Location,
		URL:             p.URL,
		Description:     p.Description,
		SalaryRange:     p.SalaryRange,
		PostedDate:      p.PostedDate,
		Site:            p.Site,
		JobType:         p.JobType,
		MatchScore:      p.MatchScore,
		EvaluationDate:  p.EvaluatedAt,
		Applied:         p.Applied,
		ApplicationDate: p.AppliedAt,
	}
}

func (o *opportunity) posting() *jobs.Posting {
	return &jobs.Posting{
		ID:          o.ID,
		Title:       o.Title,
		Company:     o.Company,
		Location:    o.Location,
		URL:         o.URL,
		Description: o.Description,
		SalaryRange: o.SalaryRange,
		PostedDate:  o.PostedDate,
		Site:        o.Site,
		JobType:     o.JobType,
		MatchScore:  o.MatchScore,
		EvaluatedAt: o.EvaluationDate,
		Applied:     o.Applied,
		AppliedAt:   o.ApplicationDate,
	}
}
