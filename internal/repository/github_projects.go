package repository

import (
	"context"

	"bugboard/internal/models"

	"github.com/google/uuid"
)

func (s *PostgresStore) ListGithubProjects(ctx context.Context, userID string) ([]models.GithubProject, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, user_id, owner, repo, display_name, created_at
FROM github_projects
WHERE user_id = $1
ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	projects := []models.GithubProject{}
	for rows.Next() {
		var p models.GithubProject
		if err := rows.Scan(&p.ID, &p.UserID, &p.Owner, &p.Repo, &p.DisplayName, &p.CreatedAt); err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (s *PostgresStore) CreateGithubProject(ctx context.Context, project *models.GithubProject) (*models.GithubProject, error) {
	created := *project
	created.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx, `
INSERT INTO github_projects (id, user_id, owner, repo, display_name)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`,
		created.ID, created.UserID, created.Owner, created.Repo, created.DisplayName,
	).Scan(&created.CreatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}

func (s *PostgresStore) DeleteGithubProject(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM github_projects WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}
