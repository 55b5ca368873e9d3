package repository

import (
	"database/sql"
	"fmt"

	"bugboard/pkg/logger"

	"go.uber.org/zap"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id UUID PRIMARY KEY,
    email VARCHAR(255) NOT NULL UNIQUE,
    password_hash VARCHAR(255) NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS sessions (
    token_hash CHAR(64) PRIMARY KEY,
    user_id UUID NOT NULL REFERENCES users (id) ON DELETE CASCADE,
    expires_at TIMESTAMPTZ NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS profiles (
    user_id UUID PRIMARY KEY,
    email VARCHAR(255) NOT NULL DEFAULT '',
    first_name TEXT,
    last_name TEXT,
    company TEXT,
    company_logo_url TEXT,
    invite_emails TEXT[] NOT NULL DEFAULT '{}',
    contact_number TEXT,
    disclaimer_accepted BOOLEAN NOT NULL DEFAULT FALSE,
    popia_accepted BOOLEAN NOT NULL DEFAULT FALSE,
    github_token_enc TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS task_counters (
    user_id UUID PRIMARY KEY,
    counter INT NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
    id UUID PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL CHECK (status IN ('backlog', 'todo', 'in_progress', 'in_review', 'done')),
    priority VARCHAR(20) NOT NULL CHECK (priority IN ('critical', 'high', 'medium', 'low')),
    type VARCHAR(20) NOT NULL CHECK (type IN ('bug', 'feature', 'improvement', 'task')),
    labels TEXT[] NOT NULL DEFAULT '{}',
    assignee TEXT NOT NULL DEFAULT '',
    task_key VARCHAR(32) NOT NULL,
    user_id UUID NOT NULL,
    report_id UUID,
    github_repo TEXT,
    github_issue_url TEXT,
    github_issue_number INT,
    github_branch TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    UNIQUE (user_id, task_key)
);

CREATE TABLE IF NOT EXISTS comments (
    id UUID PRIMARY KEY,
    task_id UUID NOT NULL REFERENCES tasks (id) ON DELETE CASCADE,
    user_id UUID NOT NULL,
    user_email VARCHAR(255) NOT NULL DEFAULT '',
    content TEXT NOT NULL,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS reports (
    id UUID PRIMARY KEY,
    title VARCHAR(255) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    type VARCHAR(20) NOT NULL,
    priority VARCHAR(20) NOT NULL,
    reporter_name TEXT NOT NULL DEFAULT '',
    reporter_email TEXT NOT NULL DEFAULT '',
    status VARCHAR(20) NOT NULL CHECK (status IN ('open', 'reviewing', 'promoted', 'dismissed')),
    user_id UUID NOT NULL,
    promoted_task_id UUID,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS github_projects (
    id UUID PRIMARY KEY,
    user_id UUID NOT NULL,
    owner TEXT NOT NULL,
    repo TEXT NOT NULL,
    display_name TEXT,
    created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE INDEX IF NOT EXISTS tasks_user_created_idx ON tasks (user_id, created_at DESC);
CREATE INDEX IF NOT EXISTS comments_task_created_idx ON comments (task_id, created_at);
CREATE INDEX IF NOT EXISTS reports_user_created_idx ON reports (user_id, created_at DESC);
`

// CreateTableIfNotExists applies the schema. It is idempotent.
func CreateTableIfNotExists(db *sql.DB) error {
	if _, err := db.Exec(schema); err != nil {
		logger.ErrorLogger.Error("Error creating tables", zap.Error(err))
		return fmt.Errorf("create tables: %w", err)
	}
	logger.SystemLogger.Info("Tables are ready")
	return nil
}

func DeleteAllTable(db *sql.DB) error {
	query := `
    DROP TABLE IF EXISTS comments;
    DROP TABLE IF EXISTS tasks;
    DROP TABLE IF EXISTS task_counters;
    DROP TABLE IF EXISTS reports;
    DROP TABLE IF EXISTS github_projects;
    DROP TABLE IF EXISTS profiles;
    DROP TABLE IF EXISTS sessions;
    DROP TABLE IF EXISTS users;
    `

	if _, err := db.Exec(query); err != nil {
		logger.ErrorLogger.Error("Error deleting tables", zap.Error(err))
		return fmt.Errorf("drop tables: %w", err)
	}
	logger.SystemLogger.Info("Tables are deleted")
	return nil
}
