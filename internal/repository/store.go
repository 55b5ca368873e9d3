package repository

import (
	"context"
	"errors"

	"bugboard/internal/models"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrDuplicate       = errors.New("already exists")
	ErrAlreadyPromoted = errors.New("report already promoted")
)

type UserStore interface {
	CreateUser(ctx context.Context, email, passwordHash string) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id string) (*models.User, error)
}

type SessionStore interface {
	CreateSession(ctx context.Context, session *models.Session) error
	GetSession(ctx context.Context, tokenHash string) (*models.Session, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

type ProfileStore interface {
	// GetProfile returns ErrNotFound when the user has no profile row yet.
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	// UpsertProfile creates the row if missing and applies the non-nil fields.
	UpsertProfile(ctx context.Context, userID, email string, update models.ProfileUpdate) (*models.Profile, error)
	// ListInviterProfiles returns every profile except excludeUserID.
	ListInviterProfiles(ctx context.Context, excludeUserID string) ([]models.InviterProfile, error)
}

type TaskStore interface {
	// ListTasks returns the owner's tasks newest first, with comment counts.
	ListTasks(ctx context.Context, ownerID string) ([]models.Task, error)
	GetTask(ctx context.Context, ownerID, id string) (*models.Task, error)
	// CreateTask allocates the next task key for task.UserID atomically and
	// inserts the task.
	CreateTask(ctx context.Context, task *models.Task) (*models.Task, error)
	UpdateTask(ctx context.Context, ownerID, id string, update models.TaskUpdate) (*models.Task, error)
	DeleteTask(ctx context.Context, ownerID, id string) error
}

type CommentStore interface {
	ListComments(ctx context.Context, taskID string) ([]models.Comment, error)
	CreateComment(ctx context.Context, comment *models.Comment) (*models.Comment, error)
}

type ReportStore interface {
	// ListActiveReports excludes promoted reports, newest first.
	ListActiveReports(ctx context.Context, userID string) ([]models.Report, error)
	CreateReport(ctx context.Context, report *models.Report) (*models.Report, error)
	UpdateReport(ctx context.Context, userID, id string, update models.ReportUpdate) (*models.Report, error)
	DeleteReport(ctx context.Context, userID, id string) error
	// PromoteReport turns the caller's report into a task on boardOwnerID's
	// board and marks it promoted, in one transaction.
	PromoteReport(ctx context.Context, userID, reportID, boardOwnerID string) (*models.Task, error)
}

type GithubProjectStore interface {
	ListGithubProjects(ctx context.Context, userID string) ([]models.GithubProject, error)
	CreateGithubProject(ctx context.Context, project *models.GithubProject) (*models.GithubProject, error)
	DeleteGithubProject(ctx context.Context, userID, id string) error
}

// Store is everything the HTTP handlers need from the backing database.
type Store interface {
	UserStore
	SessionStore
	ProfileStore
	TaskStore
	CommentStore
	ReportStore
	GithubProjectStore
}
