package repository

import (
	"context"
	"fmt"
	"strings"

	"bugboard/internal/models"

	"github.com/lib/pq"
)

const profileColumns = `user_id, email, first_name, last_name, company, company_logo_url,
       invite_emails, contact_number, disclaimer_accepted, popia_accepted,
       github_token_enc, created_at, updated_at`

func scanProfile(row scanner) (*models.Profile, error) {
	var p models.Profile
	var invites pq.StringArray
	err := row.Scan(
		&p.UserID, &p.Email, &p.FirstName, &p.LastName, &p.Company, &p.CompanyLogoURL,
		&invites, &p.ContactNumber, &p.DisclaimerAccepted, &p.PopiaAccepted,
		&p.GithubTokenEnc, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.InviteEmails = nonNil(invites)
	p.HasGithubToken = p.GithubTokenEnc != nil && *p.GithubTokenEnc != ""
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+profileColumns+" FROM profiles WHERE user_id = $1", userID)
	p, err := scanProfile(row)
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

// UpsertProfile inserts only the columns present in update, so an existing
// row keeps every field the caller did not send.
func (s *PostgresStore) UpsertProfile(ctx context.Context, userID, email string, update models.ProfileUpdate) (*models.Profile, error) {
	cols := []string{"user_id", "email"}
	args := []any{userID, email}

	add := func(col string, value any) {
		cols = append(cols, col)
		args = append(args, value)
	}
	if update.FirstName != nil {
		add("first_name", update.FirstName)
	}
	if update.LastName != nil {
		add("last_name", update.LastName)
	}
	if update.Company != nil {
		add("company", update.Company)
	}
	if update.CompanyLogoURL != nil {
		add("company_logo_url", update.CompanyLogoURL)
	}
	if update.InviteEmails != nil {
		add("invite_emails", pq.Array(nonNil(*update.InviteEmails)))
	}
	if update.ContactNumber != nil {
		add("contact_number", update.ContactNumber)
	}
	if update.DisclaimerAccepted != nil {
		add("disclaimer_accepted", *update.DisclaimerAccepted)
	}
	if update.PopiaAccepted != nil {
		add("popia_accepted", *update.PopiaAccepted)
	}
	if update.GithubTokenEnc != nil {
		var enc *string
		if *update.GithubTokenEnc != "" {
			enc = update.GithubTokenEnc
		}
		add("github_token_enc", enc)
	}

	placeholders := make([]string, len(cols))
	sets := []string{
		"email = CASE WHEN EXCLUDED.email = '' THEN profiles.email ELSE EXCLUDED.email END",
		"updated_at = NOW()",
	}
	for i, col := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		if i >= 2 {
			sets = append(sets, fmt.Sprintf("%s = EXCLUDED.%s", col, col))
		}
	}

	query := fmt.Sprintf(`
INSERT INTO profiles (%s) VALUES (%s)
ON CONFLICT (user_id) DO UPDATE SET %s
RETURNING %s`,
		strings.Join(cols, ", "), strings.Join(placeholders, ", "),
		strings.Join(sets, ", "), profileColumns)

	p, err := scanProfile(s.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return p, nil
}

func (s *PostgresStore) ListInviterProfiles(ctx context.Context, excludeUserID string) ([]models.InviterProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT user_id, invite_emails, created_at FROM profiles WHERE user_id::text <> $1 ORDER BY created_at NULLS FIRST, user_id",
		excludeUserID)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var profiles []models.InviterProfile
	for rows.Next() {
		var p models.InviterProfile
		var invites pq.StringArray
		if err := rows.Scan(&p.UserID, &invites, &p.CreatedAt); err != nil {
			return nil, err
		}
		p.InviteEmails = invites
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}
