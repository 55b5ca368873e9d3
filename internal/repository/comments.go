package repository

import (
	"context"

	"bugboard/internal/models"

	"github.com/google/uuid"
)

func (s *PostgresStore) ListComments(ctx context.Context, taskID string) ([]models.Comment, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, task_id, user_id, user_email, content, created_at, updated_at
FROM comments
WHERE task_id = $1
ORDER BY created_at ASC`, taskID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	comments := []models.Comment{}
	for rows.Next() {
		var c models.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.UserID, &c.UserEmail, &c.Content, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *PostgresStore) CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error) {
	created := *comment
	created.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx, `
INSERT INTO comments (id, task_id, user_id, user_email, content)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at, updated_at`,
		created.ID, created.TaskID, created.UserID, created.UserEmail, created.Content,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}
