package db

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// schema is applied at startup; statements are idempotent so restarting is
// safe. Task and collaborator rows cascade with their project.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		email         TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		name          TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL,
		updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS projects (
		id          UUID PRIMARY KEY,
		name        TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		color       TEXT NOT NULL,
		owner_id    UUID NOT NULL REFERENCES users(id),
		created_at  TIMESTAMPTZ NOT NULL,
		updated_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS project_collaborators (
		project_id UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		user_id    UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (project_id, user_id)
	)`,
	`CREATE TABLE IF NOT EXISTS tasks (
		id               UUID PRIMARY KEY,
		title            TEXT NOT NULL,
		description      TEXT NOT NULL DEFAULT '',
		status           TEXT NOT NULL DEFAULT 'pending',
		priority         TEXT NOT NULL DEFAULT 'medium',
		due_date         TIMESTAMPTZ,
		project_id       UUID NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
		assigned_user_id UUID REFERENCES users(id),
		created_at       TIMESTAMPTZ NOT NULL,
		updated_at       TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_owner ON projects(owner_id)`,
	`CREATE INDEX IF NOT EXISTS idx_collaborators_user ON project_collaborators(user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_assigned ON tasks(assigned_user_id)`,
}

func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	return nil
}
