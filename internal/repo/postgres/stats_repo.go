package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub/taskhub/internal/domain/stats"
	"github.com/taskhub/taskhub/internal/observability"
)

type StatsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewStatsRepo(pool *pgxpool.Pool, prom *observability.Prom) *StatsRepo {
	return &StatsRepo{pool: pool, prom: prom}
}

func (r *StatsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Summarize builds the dashboard numbers for one user. Project count covers
// owned projects only; task counts span everything the user can see.
func (r *StatsRepo) Summarize(ctx context.Context, userID string) (stats.Summary, error) {
	s := stats.Summary{TasksByStatus: make(map[string]int)}

	err := r.observe("stats.projects_owned", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM projects WHERE owner_id = $1`,
			userID,
		).Scan(&s.TotalProjects)
	})

	if err != nil {
		return stats.Summary{}, err
	}

	var rows pgx.Rows

	query := fmt.Sprintf(
		`SELECT t.status, COUNT(*)
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE %s
		 GROUP BY t.status`,
		fmt.Sprintf(visibleProjects, "$1"),
	)

	err = r.observe("stats.tasks_by_status", func() error {
		rows, err = r.pool.Query(ctx, query, userID)
		return err
	})

	if err != nil {
		return stats.Summary{}, err
	}

	defer rows.Close()

	for rows.Next() {
		var status string
		var n int

		if err := rows.Scan(&status, &n); err != nil {
			return stats.Summary{}, err
		}

		s.TasksByStatus[status] = n
		s.TotalTasks += n
	}

	if err := rows.Err(); err != nil {
		return stats.Summary{}, err
	}

	return s, nil
}
