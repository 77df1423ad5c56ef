// Package store persists job postings in a single SQLite table keyed by URL.
package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/spigell/job-seeker/internal/jobs"
)

const DefaultPath = "job_opportunities.db"

var (
	ErrMissingID    = errors.New("posting id is required")
	ErrUnknownField = errors.New("unknown field")
	ErrNotFound     = errors.New("posting not found")
)

// Filter narrows Retrieve. The zero value returns every row.
type Filter struct {
	MinScore *float64 `json:"min_score,omitempty"`
	Limit    int      `json:"limit,omitempty"`
}

// MinScore is a convenience for building a Filter inline.
func MinScore(score float64) *float64 {
	return &score
}

type Store struct {
	db     *gorm.DB
	logger *zap.Logger

	mu       sync.Mutex
	migrated bool
}

// Open connects to the SQLite file at path. The schema is created on the first operation.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultPath
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("open database %q: %w", path, err)
	}

	return &Store{db: db, logger: logger.With(zap.String("database", path))}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) conn(ctx context.Context) (*gorm.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	db := s.db.WithContext(ctx)
	if s.migrated {
		return db, nil
	}

	if err := db.AutoMigrate(&opportunity{}); err != nil {
		return nil, fmt.Errorf("create schema: %w", err)
	}
	s.migrated = true

	return db, nil
}

// Store inserts postings and returns how many rows were added.
// A posting whose URL is already stored is skipped and the existing row is kept.
// Inserted postings get their ID set.
func (s *Store) Store(ctx context.Context, postings *jobs.Postings) (int, error) {
	if postings.Len() == 0 {
		return 0, nil
	}

	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	stored := 0
	for _, posting := range postings.Items {
		row := fromPosting(posting)

		result := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "url"}},
			DoNothing: true,
		}).Create(row)
		if result.Error != nil {
			return stored, fmt.Errorf("store %s: %w", posting.URL, result.Error)
		}

		if result.RowsAffected == 0 {
			s.logger.Debug("skip duplicate posting", zap.String("url", posting.URL))
			continue
		}

		posting.ID = row.ID
		stored++
	}

	s.logger.Info("postings stored", zap.Int("stored", stored), zap.Int("received", postings.Len()))

	return stored, nil
}

// Retrieve returns postings ordered by match score, best first.
// Unscored postings come last.
func (s *Store) Retrieve(ctx context.Context, filter Filter) (*jobs.Postings, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	query := db.Model(&opportunity{}).Order("match_score IS NULL, match_score DESC, id ASC")
	if filter.MinScore != nil {
		query = query.Where("match_score >= ?", *filter.MinScore)
	}
	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var rows []opportunity
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("retrieve postings: %w", err)
	}

	out := jobs.New()
	for i := range rows {
		out.Items = append(out.Items, rows[i].posting())
	}

	return out, nil
}

func (s *Store) Get(ctx context.Context, id uint) (*jobs.Posting, error) {
	if id == 0 {
		return nil, ErrMissingID
	}

	db, err := s.conn(ctx)
	if err != nil {
		return nil, err
	}

	var row opportunity
	if err := db.First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrNotFound, id)
		}
		return nil, err
	}

	return row.posting(), nil
}

// Update applies a partial update to the posting with the given id.
// Field names are column names; anything outside the table schema is rejected.
func (s *Store) Update(ctx context.Context, id uint, fields map[string]any) error {
	if id == 0 {
		return ErrMissingID
	}

	values, err := normalize(fields)
	if err != nil {
		return err
	}

	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	if len(values) == 0 {
		return nil
	}

	result := db.Model(&opportunity{}).Where("id = ?", id).Updates(values)
	if result.Error != nil {
		return fmt.Errorf("update posting %d: %w", id, result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: id %d", ErrNotFound, id)
	}

	s.logger.Debug("posting updated", zap.Uint("id", id), zap.Strings("fields", sortedKeys(values)))

	return nil
}

// MarkApplied flags a posting as applied and stamps the application time.
func (s *Store) MarkApplied(ctx context.Context, id uint, at time.Time) error {
	return s.Update(ctx, id, map[string]any{
		"applied":          true,
		"application_date": at,
	})
}

// Delete removes the posting with the given id. Deleting an absent id is not an error.
func (s *Store) Delete(ctx context.Context, id uint) error {
	if id == 0 {
		return ErrMissingID
	}

	db, err := s.conn(ctx)
	if err != nil {
		return err
	}

	result := db.Delete(&opportunity{}, id)
	if result.Error != nil {
		return fmt.Errorf("delete posting %d: %w", id, result.Error)
	}

	s.logger.Debug("posting deleted", zap.Uint("id", id), zap.Int64("rows", result.RowsAffected))

	return nil
}

func (s *Store) Count(ctx context.Context) (int64, error) {
	db, err := s.conn(ctx)
	if err != nil {
		return 0, err
	}

	var n int64
	if err := db.Model(&opportunity{}).Count(&n).Error; err != nil {
		return 0, err
	}
	return n, nil
}

func normalize(fields map[string]any) (map[string]any, error) {
	values := make(map[string]any, len(fields))

	for name, value := range fields {
		column := strings.ToLower(strings.TrimSpace(name))
		if _, ok := columns[column]; !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownField, name)
		}

		if _, ok := timeColumns[column]; ok {
			if raw, isString := value.(string); isString {
				parsed, err := time.Parse(time.RFC3339, raw)
				if err != nil {
					return nil, fmt.Errorf("field %s: %w", column, err)
				}
				value = parsed
			}
		}

		values[column] = value
	}

	return values, nil
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
