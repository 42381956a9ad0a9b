package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/yigit/storetrainer/internal/app/models"
	"github.com/yigit/storetrainer/internal/db"
	"github.com/yigit/storetrainer/internal/pkg/apperrors"
)

// AddedCheck vets event IDs about to be added; an error aborts the save
type AddedCheck func(ctx context.Context, added []string) error

// IParticipationRepository manages user/event participation links
type IParticipationRepository interface {
	ListEventIDs(ctx context.Context, userID int64) ([]string, error)
	Replace(ctx context.Context, userID int64, desired []string, check AddedCheck) (*models.ParticipationChange, error)
}

// ParticipationRepository handles the event_participants table
type ParticipationRepository struct {
	db db.Querier
	tx db.TxRunner
}

// NewParticipationRepository creates a new ParticipationRepository
func NewParticipationRepository(q db.Querier, tx db.TxRunner) *ParticipationRepository {
	return &ParticipationRepository{db: q, tx: tx}
}

// ListEventIDs returns the IDs of the events a user joined
func (r *ParticipationRepository) ListEventIDs(ctx context.Context, userID int64) ([]string, error) {
	return listEventIDs(ctx, r.db, userID)
}

func listEventIDs(ctx context.Context, q db.Querier, userID int64) ([]string, error) {
	rows, err := q.Query(ctx, `
		SELECT event_id FROM event_participants
		WHERE user_id = $1
		ORDER BY event_id`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("list participation: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan participation: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Replace makes desired the user's participation list. The user row is
// locked first, so saves for one user are serialized; the stored list is
// read, diffed and only the difference written in the same transaction.
func (r *ParticipationRepository) Replace(ctx context.Context, userID int64, desired []string, check AddedCheck) (*models.ParticipationChange, error) {
	var change models.ParticipationChange

	err := r.tx.WithTransaction(ctx, func(ctx context.Context, tx pgx.Tx) error {
		var locked int64
		err := tx.QueryRow(ctx, `SELECT id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&locked)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return apperrors.ErrUserNotFound
			}
			return fmt.Errorf("lock user: %w", err)
		}

		current, err := listEventIDs(ctx, tx, userID)
		if err != nil {
			return err
		}

		change.Added, change.Removed = models.DiffEventIDs(current, desired)
		if !change.Changed() {
			change.EventIDs = current
			return nil
		}

		if len(change.Added) > 0 && check != nil {
			if err := check(ctx, change.Added); err != nil {
				return err
			}
		}

		if err := applyDiff(ctx, tx, userID, change.Added, change.Removed); err != nil {
			return err
		}

		change.EventIDs, err = listEventIDs(ctx, tx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return &change, nil
}

func applyDiff(ctx context.Context, tx pgx.Tx, userID int64, added, removed []string) error {
	if len(removed) > 0 {
		_, err := tx.Exec(ctx, `
			DELETE FROM event_participants
			WHERE user_id = $1 AND event_id = ANY($2)`,
			userID, removed)
		if err != nil {
			return fmt.Errorf("remove participation: %w", err)
		}
	}

	if len(added) > 0 {
		builder := psql.Insert("event_participants").Columns("user_id", "event_id")
		for _, id := range added {
			builder = builder.Values(userID, id)
		}
		sql, args, err := builder.Suffix("ON CONFLICT (user_id, event_id) DO NOTHING").ToSql()
		if err != nil {
			return fmt.Errorf("build participation insert: %w", err)
		}
		if _, err := tx.Exec(ctx, sql, args...); err != nil {
			return fmt.Errorf("add participation: %w", err)
		}
	}
	return nil
}
