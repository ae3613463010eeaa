package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub/taskhub/internal/domain/task"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/observability"
)

// taskSortColumns maps the client-facing sort keys (already normalized by
// task.NormalizeSort) onto real columns. Never interpolate raw client input
// into ORDER BY.
var taskSortColumns = map[string]string{
	"createdAt": "t.created_at",
	"dueDate":   "t.due_date",
	"priority":  "t.priority",
	"status":    "t.status",
	"title":     "t.title",
}

type TasksRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewTasksRepo(pool *pgxpool.Pool, prom *observability.Prom) *TasksRepo {
	return &TasksRepo{pool: pool, prom: prom}
}

func (r *TasksRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *TasksRepo) Create(ctx context.Context, t task.Task) error {
	var assignedID *string

	if t.AssignedUser != nil {
		assignedID = &t.AssignedUser.ID
	}

	return r.observe("tasks.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO tasks (id, title, description, status, priority, due_date,
			                    project_id, assigned_user_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)`,
			t.ID, t.Title, t.Description, t.Status, t.Priority, t.DueDate,
			t.ProjectID, assignedID, t.CreatedAt, t.UpdatedAt,
		)
		return err
	})
}

const taskSelect = `
	SELECT t.id, t.title, t.description, t.status, t.priority, t.due_date,
	       t.project_id, t.created_at, t.updated_at,
	       p.id, p.name, p.color, p.owner_id,
	       a.id, a.email, a.name, a.created_at, a.updated_at`

const taskFrom = `
	FROM tasks t
	JOIN projects p ON p.id = t.project_id
	LEFT JOIN users a ON a.id = t.assigned_user_id`

func scanTask(row pgx.Row, t *task.Task, total *int) error {
	var (
		aID, aEmail, aName *string
		aCreated, aUpdated *time.Time
	)

	dest := []any{
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.DueDate,
		&t.ProjectID, &t.CreatedAt, &t.UpdatedAt,
		&t.Project.ID, &t.Project.Name, &t.Project.Color, &t.Project.OwnerID,
		&aID, &aEmail, &aName, &aCreated, &aUpdated,
	}

	if total != nil {
		dest = append(dest, total)
	}

	if err := row.Scan(dest...); err != nil {
		return err
	}

	if aID != nil {
		t.AssignedUser = &user.User{
			ID:        *aID,
			Email:     *aEmail,
			Name:      *aName,
			CreatedAt: *aCreated,
			UpdatedAt: *aUpdated,
		}
	}

	return nil
}

// GetVisibleByID loads the task only when userID is a member of its project.
// An existing-but-invisible task reads as ErrNotFound, hiding its existence.
func (r *TasksRepo) GetVisibleByID(ctx context.Context, id, userID string) (task.Task, error) {
	var t task.Task

	query := taskSelect + taskFrom + `
	WHERE t.id = $1 AND ` + fmt.Sprintf(visibleProjects, "$2")

	err := r.observe("tasks.get_visible_by_id", func() error {
		return scanTask(r.pool.QueryRow(ctx, query, id, userID), &t, nil)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return task.Task{}, task.ErrNotFound
		}

		return task.Task{}, err
	}

	return t, nil
}

// ListVisible pages through the tasks of projects userID belongs to, with
// conjunctive filters and a whitelisted sort. The id tiebreak keeps pages
// stable when the sort column has duplicates.
func (r *TasksRepo) ListVisible(ctx context.Context, userID string, f task.ListTasksFilter) (tasks []task.Task, total int, err error) {
	conds := []string{fmt.Sprintf(visibleProjects, "$1")}
	args := []any{userID}
	argn := 2

	if f.Status != nil {
		conds = append(conds, fmt.Sprintf("t.status = $%d", argn))
		args = append(args, *f.Status)
		argn++
	}

	if f.Priority != nil {
		conds = append(conds, fmt.Sprintf("t.priority = $%d", argn))
		args = append(args, *f.Priority)
		argn++
	}

	if f.ProjectID != nil {
		conds = append(conds, fmt.Sprintf("t.project_id = $%d", argn))
		args = append(args, *f.ProjectID)
		argn++
	}

	if f.AssignedUserID != nil {
		conds = append(conds, fmt.Sprintf("t.assigned_user_id = $%d", argn))
		args = append(args, *f.AssignedUserID)
		argn++
	}

	sortBy, sortOrder := task.NormalizeSort(f.SortBy, f.SortOrder)
	orderBy := taskSortColumns[sortBy]

	query := fmt.Sprintf(
		taskSelect+`, COUNT(*) OVER() AS total`+taskFrom+`
	WHERE %s
	ORDER BY %s %s, t.id ASC
	LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), orderBy, sortOrder, argn, argn+1,
	)
	args = append(args, f.Limit, f.Offset)

	var rows pgx.Rows

	err = r.observe("tasks.list_visible", func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	tasks = make([]task.Task, 0)

	for rows.Next() {
		var t task.Task

		if e := scanTask(rows, &t, &total); e != nil {
			err = e
			return
		}
		tasks = append(tasks, t)
	}

	err = rows.Err()

	return
}

func (r *TasksRepo) Update(ctx context.Context, t task.Task) error {
	var assignedID *string

	if t.AssignedUser != nil {
		assignedID = &t.AssignedUser.ID
	}

	return r.observe("tasks.update", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE tasks
			 SET title = $2, description = $3, status = $4, priority = $5,
			     due_date = $6, assigned_user_id = $7, updated_at = $8
			 WHERE id = $1`,
			t.ID, t.Title, t.Description, t.Status, t.Priority,
			t.DueDate, assignedID, t.UpdatedAt,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}

		return nil
	})
}

func (r *TasksRepo) Delete(ctx context.Context, id string) error {
	return r.observe("tasks.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return task.ErrNotFound
		}

		return nil
	})
}
