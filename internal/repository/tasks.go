package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bugboard/internal/models"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

const taskSelect = `
SELECT t.id, t.title, t.description, t.status, t.priority, t.type, t.labels, t.assignee,
       t.task_key, t.user_id, t.report_id, t.github_repo, t.github_issue_url,
       t.github_issue_number, t.github_branch, t.created_at, t.updated_at,
       (SELECT COUNT(*) FROM comments c WHERE c.task_id = t.id) AS comments_count
FROM tasks t`

// nextCounterQuery allocates the next task number in one statement, so two
// concurrent creations for the same owner can never read the same value.
const nextCounterQuery = `
INSERT INTO task_counters (user_id, counter) VALUES ($1, 1)
ON CONFLICT (user_id) DO UPDATE SET counter = task_counters.counter + 1
RETURNING counter`

func scanTask(row scanner) (*models.Task, error) {
	var t models.Task
	var labels pq.StringArray
	err := row.Scan(
		&t.ID, &t.Title, &t.Description, &t.Status, &t.Priority, &t.Type, &labels, &t.Assignee,
		&t.TaskKey, &t.UserID, &t.ReportID, &t.GithubRepo, &t.GithubIssueURL,
		&t.GithubIssueNumber, &t.GithubBranch, &t.CreatedAt, &t.UpdatedAt,
		&t.CommentsCount,
	)
	if err != nil {
		return nil, err
	}
	t.Labels = nonNil(labels)
	return &t, nil
}

func (s *PostgresStore) ListTasks(ctx context.Context, ownerID string) ([]models.Task, error) {
	rows, err := s.db.QueryContext(ctx, taskSelect+" WHERE t.user_id = $1 ORDER BY t.created_at DESC", ownerID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, *task)
	}
	return tasks, rows.Err()
}

func (s *PostgresStore) GetTask(ctx context.Context, ownerID, id string) (*models.Task, error) {
	task, err := scanTask(s.db.QueryRowContext(ctx, taskSelect+" WHERE t.id = $1 AND t.user_id = $2", id, ownerID))
	if err != nil {
		return nil, mapError(err)
	}
	return task, nil
}

func nextTaskKey(ctx context.Context, q querier, ownerID string) (string, error) {
	var counter int
	if err := q.QueryRowContext(ctx, nextCounterQuery, ownerID).Scan(&counter); err != nil {
		return "", fmt.Errorf("allocate task key: %w", err)
	}
	return fmt.Sprintf("%s%d", models.TaskKeyPrefix, counter), nil
}

func insertTask(ctx context.Context, q querier, task *models.Task) error {
	key, err := nextTaskKey(ctx, q, task.UserID)
	if err != nil {
		return err
	}
	task.ID = uuid.NewString()
	task.TaskKey = key
	task.Labels = nonNil(task.Labels)

	return q.QueryRowContext(ctx, `
INSERT INTO tasks (id, title, description, status, priority, type, labels, assignee,
                   task_key, user_id, report_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING created_at, updated_at`,
		task.ID, task.Title, task.Description, task.Status, task.Priority, task.Type,
		pq.Array(task.Labels), task.Assignee, task.TaskKey, task.UserID, task.ReportID,
	).Scan(&task.CreatedAt, &task.UpdatedAt)
}

func (s *PostgresStore) CreateTask(ctx context.Context, task *models.Task) (*models.Task, error) {
	created := *task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		return insertTask(ctx, tx, &created)
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}

func (s *PostgresStore) UpdateTask(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error) {
	var sets []string
	var args []any
	set := func(col string, value any) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Status != nil {
		set("status", *update.Status)
	}
	if update.Priority != nil {
		set("priority", *update.Priority)
	}
	if update.Type != nil {
		set("type", *update.Type)
	}
	if update.Labels != nil {
		set("labels", pq.Array(nonNil(*update.Labels)))
	}
	if update.Assignee != nil {
		set("assignee", *update.Assignee)
	}
	if update.GithubRepo != nil {
		set("github_repo", update.GithubRepo)
	}
	if update.GithubIssueURL != nil {
		set("github_issue_url", update.GithubIssueURL)
	}
	if update.GithubIssueNumber != nil {
		set("github_issue_number", update.GithubIssueNumber)
	}
	if update.GithubBranch != nil {
		set("github_branch", update.GithubBranch)
	}
	if len(sets) == 0 {
		return s.GetTask(ctx, ownerID, id)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id, ownerID)
	query := fmt.Sprintf("UPDATE tasks SET %s WHERE id = $%d AND user_id = $%d",
		strings.Join(sets, ", "), len(args)-1, len(args))

	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	if err := checkAffected(res); err != nil {
		return nil, err
	}
	return s.GetTask(ctx, ownerID, id)
}

func (s *PostgresStore) DeleteTask(ctx context.Context, ownerID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM tasks WHERE id = $1 AND user_id = $2", id, ownerID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}
