package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"bugboard/internal/models"

	"github.com/google/uuid"
)

const reportColumns = `id, title, description, type, priority, reporter_name, reporter_email,
       status, user_id, promoted_task_id, created_at, updated_at`

func scanReport(row scanner) (*models.Report, error) {
	var r models.Report
	err := row.Scan(
		&r.ID, &r.Title, &r.Description, &r.Type, &r.Priority, &r.ReporterName, &r.ReporterEmail,
		&r.Status, &r.UserID, &r.PromotedTaskID, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &r, nil
}

func (s *PostgresStore) ListActiveReports(ctx context.Context, userID string) ([]models.Report, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+reportColumns+" FROM reports WHERE user_id = $1 AND status <> 'promoted' ORDER BY created_at DESC",
		userID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	reports := []models.Report{}
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, *r)
	}
	return reports, rows.Err()
}

func (s *PostgresStore) CreateReport(ctx context.Context, report *models.Report) (*models.Report, error) {
	created := *report
	created.ID = uuid.NewString()
	err := s.db.QueryRowContext(ctx, `
INSERT INTO reports (id, title, description, type, priority, reporter_name, reporter_email, status, user_id)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING created_at, updated_at`,
		created.ID, created.Title, created.Description, created.Type, created.Priority,
		created.ReporterName, created.ReporterEmail, created.Status, created.UserID,
	).Scan(&created.CreatedAt, &created.UpdatedAt)
	if err != nil {
		return nil, mapError(err)
	}
	return &created, nil
}

func (s *PostgresStore) UpdateReport(ctx context.Context, userID, id string, update models.ReportUpdate) (*models.Report, error) {
	var sets []string
	var args []any
	set := func(col, value string) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf("%s = $%d", col, len(args)))
	}
	if update.Title != nil {
		set("title", *update.Title)
	}
	if update.Description != nil {
		set("description", *update.Description)
	}
	if update.Type != nil {
		set("type", *update.Type)
	}
	if update.Priority != nil {
		set("priority", *update.Priority)
	}
	if update.Status != nil {
		set("status", *update.Status)
	}
	sets = append(sets, "updated_at = NOW()")

	args = append(args, id, userID)
	query := fmt.Sprintf("UPDATE reports SET %s WHERE id = $%d AND user_id = $%d RETURNING %s",
		strings.Join(sets, ", "), len(args)-1, len(args), reportColumns)

	r, err := scanReport(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return r, nil
}

func (s *PostgresStore) DeleteReport(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM reports WHERE id = $1 AND user_id = $2", id, userID)
	if err != nil {
		return mapError(err)
	}
	return checkAffected(res)
}

func (s *PostgresStore) PromoteReport(ctx context.Context, userID, reportID, boardOwnerID string) (*models.Task, error) {
	var task models.Task
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		report, err := scanReport(tx.QueryRowContext(ctx,
			"SELECT "+reportColumns+" FROM reports WHERE id = $1 AND user_id = $2 FOR UPDATE",
			reportID, userID))
		if err != nil {
			return err
		}
		if report.Status == models.ReportPromoted {
			return ErrAlreadyPromoted
		}

		task = models.Task{
			Title:       report.Title,
			Description: report.Description,
			Status:      models.StatusBacklog,
			Priority:    report.Priority,
			Type:        report.Type,
			Labels:      []string{},
			UserID:      boardOwnerID,
			ReportID:    &report.ID,
		}
		if err := insertTask(ctx, tx, &task); err != nil {
			return err
		}

		_, err = tx.ExecContext(ctx,
			"UPDATE reports SET status = $1, promoted_task_id = $2, updated_at = NOW() WHERE id = $3",
			models.ReportPromoted, task.ID, report.ID)
		return err
	})
	if err != nil {
		return nil, mapError(err)
	}
	return &task, nil
}
