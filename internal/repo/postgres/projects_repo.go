package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/taskhub/taskhub/internal/domain/project"
	"github.com/taskhub/taskhub/internal/domain/user"
	"github.com/taskhub/taskhub/internal/observability"
)

// visibleProjects filters to rows the user owns or collaborates on. $N is the
// positional arg holding the user id.
const visibleProjects = `(p.owner_id = %[1]s OR EXISTS (
	SELECT 1 FROM project_collaborators pc WHERE pc.project_id = p.id AND pc.user_id = %[1]s))`

type ProjectsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewProjectsRepo(pool *pgxpool.Pool, prom *observability.Prom) *ProjectsRepo {
	return &ProjectsRepo{pool: pool, prom: prom}
}

func (r *ProjectsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func (r *ProjectsRepo) Create(ctx context.Context, p project.Project) error {
	return r.observe("projects.create", func() error {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO projects (id, name, description, color, owner_id, created_at, updated_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			p.ID, p.Name, p.Description, p.Color, p.Owner.ID, p.CreatedAt, p.UpdatedAt,
		)
		return err
	})
}

// GetByID loads the project with its owner and full collaborator set. The
// caller decides what the requesting user may do with it.
func (r *ProjectsRepo) GetByID(ctx context.Context, id string) (project.Project, error) {
	var p project.Project

	err := r.observe("projects.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT p.id, p.name, p.description, p.color, p.created_at, p.updated_at,
			        o.id, o.email, o.name, o.created_at, o.updated_at
			 FROM projects p
			 JOIN users o ON o.id = p.owner_id
			 WHERE p.id = $1`,
			id,
		).Scan(
			&p.ID, &p.Name, &p.Description, &p.Color, &p.CreatedAt, &p.UpdatedAt,
			&p.Owner.ID, &p.Owner.Email, &p.Owner.Name, &p.Owner.CreatedAt, &p.Owner.UpdatedAt,
		)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return project.Project{}, project.ErrNotFound
		}

		return project.Project{}, err
	}

	collabs, err := r.collaboratorsFor(ctx, []string{p.ID})

	if err != nil {
		return project.Project{}, err
	}

	p.Collaborators = collabs[p.ID]

	if p.Collaborators == nil {
		p.Collaborators = make([]user.User, 0)
	}

	return p, nil
}

// ListVisible pages through the projects userID can see, newest first. The
// window total rides along on every row via COUNT(*) OVER().
func (r *ProjectsRepo) ListVisible(ctx context.Context, userID string, f project.ListProjectsFilter) (projects []project.Project, total int, err error) {
	conds := []string{fmt.Sprintf(visibleProjects, "$1")}
	args := []any{userID}
	argn := 2

	if f.Search != nil && *f.Search != "" {
		conds = append(conds, fmt.Sprintf("(p.name ILIKE $%[1]d OR p.description ILIKE $%[1]d)", argn))
		args = append(args, "%"+*f.Search+"%")
		argn++
	}

	query := fmt.Sprintf(
		`SELECT p.id, p.name, p.description, p.color, p.created_at, p.updated_at,
		        o.id, o.email, o.name, o.created_at, o.updated_at,
		        COUNT(*) OVER() AS total
		 FROM projects p
		 JOIN users o ON o.id = p.owner_id
		 WHERE %s
		 ORDER BY p.created_at DESC, p.id DESC
		 LIMIT $%d OFFSET $%d`,
		strings.Join(conds, " AND "), argn, argn+1,
	)
	args = append(args, f.Limit, f.Offset)

	var rows pgx.Rows

	err = r.observe("projects.list_visible", func() error {
		rows, err = r.pool.Query(ctx, query, args...)
		return err
	})

	if err != nil {
		return
	}

	defer rows.Close()

	projects = make([]project.Project, 0)

	for rows.Next() {
		var p project.Project

		e := rows.Scan(
			&p.ID, &p.Name, &p.Description, &p.Color, &p.CreatedAt, &p.UpdatedAt,
			&p.Owner.ID, &p.Owner.Email, &p.Owner.Name, &p.Owner.CreatedAt, &p.Owner.UpdatedAt,
			&total,
		)

		if e != nil {
			err = e
			return
		}
		projects = append(projects, p)
	}

	if err = rows.Err(); err != nil {
		return
	}

	ids := make([]string, 0, len(projects))
	for _, p := range projects {
		ids = append(ids, p.ID)
	}

	collabs, err := r.collaboratorsFor(ctx, ids)

	if err != nil {
		return
	}

	for i := range projects {
		projects[i].Collaborators = collabs[projects[i].ID]

		if projects[i].Collaborators == nil {
			projects[i].Collaborators = make([]user.User, 0)
		}
	}

	return
}

// collaboratorsFor loads collaborator sets for a batch of projects in one
// round trip, keyed by project id.
func (r *ProjectsRepo) collaboratorsFor(ctx context.Context, projectIDs []string) (map[string][]user.User, error) {
	out := make(map[string][]user.User, len(projectIDs))

	if len(projectIDs) == 0 {
		return out, nil
	}

	var rows pgx.Rows
	var err error

	err = r.observe("projects.collaborators_for", func() error {
		rows, err = r.pool.Query(ctx,
			`SELECT pc.project_id, u.id, u.email, u.name, u.created_at, u.updated_at
			 FROM project_collaborators pc
			 JOIN users u ON u.id = pc.user_id
			 WHERE pc.project_id = ANY($1)
			 ORDER BY pc.created_at ASC, u.id ASC`,
			projectIDs,
		)
		return err
	})

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	for rows.Next() {
		var pid string
		var u user.User

		if e := rows.Scan(&pid, &u.ID, &u.Email, &u.Name, &u.CreatedAt, &u.UpdatedAt); e != nil {
			return nil, e
		}
		out[pid] = append(out[pid], u)
	}

	return out, rows.Err()
}

func (r *ProjectsRepo) Update(ctx context.Context, p project.Project) error {
	return r.observe("projects.update", func() error {
		tag, err := r.pool.Exec(ctx,
			`UPDATE projects
			 SET name = $2, description = $3, color = $4, updated_at = $5
			 WHERE id = $1`,
			p.ID, p.Name, p.Description, p.Color, p.UpdatedAt,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return project.ErrNotFound
		}

		return nil
	})
}

// Delete removes the project; its tasks and collaborator rows go with it via
// ON DELETE CASCADE.
func (r *ProjectsRepo) Delete(ctx context.Context, id string) error {
	return r.observe("projects.delete", func() error {
		tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return project.ErrNotFound
		}

		return nil
	})
}

// AddCollaborator inserts one membership row. A zero-row insert means the
// user already collaborates on the project.
func (r *ProjectsRepo) AddCollaborator(ctx context.Context, projectID, userID string) error {
	return r.observe("projects.add_collaborator", func() error {
		tag, err := r.pool.Exec(ctx,
			`INSERT INTO project_collaborators (project_id, user_id)
			 VALUES ($1, $2)
			 ON CONFLICT (project_id, user_id) DO NOTHING`,
			projectID, userID,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return project.ErrAlreadyCollaborator
		}

		return nil
	})
}

// AddCollaborators persists a pre-validated batch in one transaction so a
// partial failure leaves the set untouched.
func (r *ProjectsRepo) AddCollaborators(ctx context.Context, projectID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}

	return r.observe("projects.add_collaborators", func() error {
		tx, err := r.pool.Begin(ctx)

		if err != nil {
			return err
		}

		defer tx.Rollback(ctx)

		for _, uid := range userIDs {
			if _, err := tx.Exec(ctx,
				`INSERT INTO project_collaborators (project_id, user_id)
				 VALUES ($1, $2)
				 ON CONFLICT (project_id, user_id) DO NOTHING`,
				projectID, uid,
			); err != nil {
				return err
			}
		}

		return tx.Commit(ctx)
	})
}

func (r *ProjectsRepo) RemoveCollaborator(ctx context.Context, projectID, userID string) error {
	return r.observe("projects.remove_collaborator", func() error {
		tag, err := r.pool.Exec(ctx,
			`DELETE FROM project_collaborators WHERE project_id = $1 AND user_id = $2`,
			projectID, userID,
		)

		if err != nil {
			return err
		}

		if tag.RowsAffected() == 0 {
			return project.ErrNotCollaborator
		}

		return nil
	})
}
