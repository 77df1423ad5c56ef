package tools

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/spigell/job-seeker/internal/jobs"
	"github.com/spigell/job-seeker/internal/store"
)

const (
	ActionStore    = "store"
	ActionRetrieve = "retrieve"
	ActionUpdate   = "update"
	ActionDelete   = "delete"
)

type Database interface {
	Store(ctx context.Context, postings *jobs.Postings) (int, error)
	Retrieve(ctx context.Context, filter store.Filter) (*jobs.Postings, error)
	Update(ctx context.Context, id uint, fields map[string]any) error
	Delete(ctx context.Context, id uint) error
}

// DatabaseTool runs store operations described by an action name and a JSON payload.
type DatabaseTool struct {
	db     Database
	logger *zap.Logger
}

type StoreSummary struct {
	Received int `json:"received"`
	Stored   int `json:"stored"`
}

type updateRequest struct {
	ID      uint           `json:"id"`
	Updates map[string]any `json:"updates"`
}

type idRequest struct {
	ID uint `json:"id"`
}

func NewDatabaseTool(db Database, logger *zap.Logger) *DatabaseTool {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DatabaseTool{db: db, logger: logger}
}

func (t *DatabaseTool) Execute(ctx context.Context, action, payload string) Result {
	action = strings.ToLower(strings.TrimSpace(action))
	payload = strings.TrimSpace(payload)

	var result Result
	switch action {
	case ActionStore:
		result = t.store(ctx, payload)
	case ActionRetrieve:
		result = t.retrieve(ctx, payload)
	case ActionUpdate:
		result = t.update(ctx, payload)
	case ActionDelete:
		result = t.delete(ctx, payload)
	default:
		result = failure(KindUnknownAction, "unknown action %q, expected one of store, retrieve, update, delete", action)
	}

	if !result.OK {
		t.logger.Warn("database tool failed",
			zap.String("action", action),
			zap.String("kind", string(result.Error.Kind)),
			zap.String("message", result.Error.Message),
		)
	}

	return result
}

func (t *DatabaseTool) store(ctx context.Context, payload string) Result {
	if payload == "" {
		return failure(KindInvalidInput, "store needs a JSON array of postings")
	}

	postings := jobs.New()
	if err := json.Unmarshal([]byte(payload), postings); err != nil {
		return failure(KindInvalidInput, "malformed postings: %v", err)
	}

	for i, posting := range postings.Items {
		if posting == nil || strings.TrimSpace(posting.URL) == "" {
			return failure(KindInvalidInput, "posting %d has no url", i)
		}
	}

	stored, err := t.db.Store(ctx, postings)
	if err != nil {
		return fromError(err)
	}

	return success(StoreSummary{Received: postings.Len(), Stored: stored})
}

func (t *DatabaseTool) retrieve(ctx context.Context, payload string) Result {
	var filter store.Filter
	if payload != "" {
		if err := json.Unmarshal([]byte(payload), &filter); err != nil {
			return failure(KindInvalidInput, "malformed filter: %v", err)
		}
	}
	if filter.Limit < 0 {
		return failure(KindInvalidInput, "limit must not be negative")
	}

	postings, err := t.db.Retrieve(ctx, filter)
	if err != nil {
		return fromError(err)
	}

	return success(postings)
}

func (t *DatabaseTool) update(ctx context.Context, payload string) Result {
	var req updateRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return failure(KindInvalidInput, "malformed update: %v", err)
	}
	if len(req.Updates) == 0 {
		return failure(KindInvalidInput, "update has no fields")
	}

	if err := t.db.Update(ctx, req.ID, req.Updates); err != nil {
		return fromError(err)
	}

	return success(map[string]any{"id": req.ID, "updated": len(req.Updates)})
}

// delete accepts either a bare id or {"id": n}.
func (t *DatabaseTool) delete(ctx context.Context, payload string) Result {
	id, err := parseID(payload)
	if err != nil {
		return failure(KindInvalidInput, "malformed id: %v", err)
	}

	if err := t.db.Delete(ctx, id); err != nil {
		return fromError(err)
	}

	return success(map[string]any{"id": id, "deleted": true})
}

func parseID(payload string) (uint, error) {
	trimmed := strings.Trim(payload, `"`)
	if n, err := strconv.ParseUint(trimmed, 10, 64); err == nil {
		return uint(n), nil
	}

	var req idRequest
	if err := json.Unmarshal([]byte(payload), &req); err != nil {
		return 0, err
	}
	return req.ID, nil
}

func fromError(err error) Result {
	switch {
	case errors.Is(err, store.ErrMissingID), errors.Is(err, store.ErrUnknownField):
		return failure(KindInvalidInput, "%v", err)
	case errors.Is(err, store.ErrNotFound):
		return failure(KindNotFound, "%v", err)
	default:
		return failure(KindInternal, "%v", err)
	}
}
