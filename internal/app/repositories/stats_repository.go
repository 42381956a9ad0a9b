package repositories

import (
	"context"
	"fmt"

	"github.com/yigit/storetrainer/internal/db"
)

// CountedTables are the tables reported by TableCounts, in display order
var CountedTables = []string{"users", "events", "event_participants", "posts", "post_reactions"}

// TableCount is the row count of one table
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// StatsRepository answers aggregate questions across tables
type StatsRepository struct {
	db db.Querier
}

// NewStatsRepository creates a new StatsRepository
func NewStatsRepository(q db.Querier) *StatsRepository {
	return &StatsRepository{db: q}
}

// Departments lists the distinct non-empty departments of registered users
func (r *StatsRepository) Departments(ctx context.Context) ([]string, error) {
	rows, err := r.db.Query(ctx, `
		SELECT DISTINCT department FROM users
		WHERE department <> ''
		ORDER BY department`)
	if err != nil {
		return nil, fmt.Errorf("list departments: %w", err)
	}
	defer rows.Close()

	departments := []string{}
	for rows.Next() {
		var d string
		if err := rows.Scan(&d); err != nil {
			return nil, fmt.Errorf("scan department: %w", err)
		}
		departments = append(departments, d)
	}
	return departments, rows.Err()
}

// TableCounts returns the row count of every table in CountedTables
func (r *StatsRepository) TableCounts(ctx context.Context) ([]TableCount, error) {
	counts := make([]TableCount, 0, len(CountedTables))
	for _, table := range CountedTables {
		var n int64
		// table names come from CountedTables, never from input
		if err := r.db.QueryRow(ctx, "SELECT count(*) FROM "+table).Scan(&n); err != nil {
			return nil, fmt.Errorf("count %s: %w", table, err)
		}
		counts = append(counts, TableCount{Table: table, Rows: n})
	}
	return counts, nil
}
