package repositories

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/db"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
	"github.com/yigit/storetrainer/internal/pkg/dberrors"
)

// IEventRepository defines read access to the seeded events
type IEventRepository interface {
	List(ctx context.Context, status models.EventStatus) ([]models.Event, error)
	GetByID(ctx context.Context, id string) (*models.Event, error)
	ListByIDs(ctx context.Context, ids []string) ([]models.Event, error)
	KnownIDs(ctx context.Context, ids []string) (map[string]bool, error)
}

// EventRepository handles database operations for events
type EventRepository struct {
	db db.Querier
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(q db.Querier) *EventRepository {
	return &EventRepository{db: q}
}

func (r *EventRepository) selectEventQuery() squirrel.SelectBuilder {
	return psql.Select(
		"e.id", "e.name", "e.start_date", "e.end_date", "e.status", "e.tags", "e.stores",
		"(SELECT count(*) FROM event_participants ep WHERE ep.event_id = e.id)",
		"e.case_count", "e.essential_knowledge",
	).From("events e").
		OrderBy("e.start_date", "e.id")
}

func scanEvent(row pgx.Row) (*models.Event, error) {
	var e models.Event
	err := row.Scan(
		&e.ID, &e.Name, &e.StartDate, &e.EndDate, &e.Status, &e.Tags, &e.Stores,
		&e.ParticipantCount, &e.CaseCount, &e.Knowledge,
	)
	if err != nil {
		if dberrors.IsNoRows(err) {
			return nil, apperrors.ErrEventNotFound
		}
		return nil, err
	}
	return &e, nil
}

func (r *EventRepository) query(ctx context.Context, builder squirrel.SelectBuilder) ([]models.Event, error) {
	sql, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build event query: %w", err)
	}

	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	events := []models.Event{}
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return events, nil
}

// List returns all events, optionally restricted to one status
func (r *EventRepository) List(ctx context.Context, status models.EventStatus) ([]models.Event, error) {
	builder := r.selectEventQuery()
	if status != "" {
		builder = builder.Where(squirrel.Eq{"e.status": string(status)})
	}
	return r.query(ctx, builder)
}

// GetByID retrieves one event
func (r *EventRepository) GetByID(ctx context.Context, id string) (*models.Event, error) {
	sql, args, err := r.selectEventQuery().Where(squirrel.Eq{"e.id": id}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("build get event query: %w", err)
	}
	return scanEvent(r.db.QueryRow(ctx, sql, args...))
}

// ListByIDs returns the events among ids that exist
func (r *EventRepository) ListByIDs(ctx context.Context, ids []string) ([]models.Event, error) {
	if len(ids) == 0 {
		return []models.Event{}, nil
	}
	return r.query(ctx, r.selectEventQuery().Where(squirrel.Eq{"e.id": ids}))
}

// KnownIDs reports which of ids exist
func (r *EventRepository) KnownIDs(ctx context.Context, ids []string) (map[string]bool, error) {
	known := make(map[string]bool, len(ids))
	if len(ids) == 0 {
		return known, nil
	}

	rows, err := r.db.Query(ctx, `SELECT id FROM events WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query known events: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan event id: %w", err)
		}
		known[id] = true
	}
	return known, rows.Err()
}
