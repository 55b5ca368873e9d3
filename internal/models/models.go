package models

import (
	"time"
)

// Task statuses, in board column order.
const (
	StatusBacklog    = "backlog"
	StatusTodo       = "todo"
	StatusInProgress = "in_progress"
	StatusInReview   = "in_review"
	StatusDone       = "done"
)

const (
	PriorityCritical = "critical"
	PriorityHigh     = "high"
	PriorityMedium   = "medium"
	PriorityLow      = "low"
)

const (
	TypeBug         = "bug"
	TypeFeature     = "feature"
	TypeImprovement = "improvement"
	TypeTask        = "task"
)

const (
	ReportOpen      = "open"
	ReportReviewing = "reviewing"
	ReportPromoted  = "promoted"
	ReportDismissed = "dismissed"
)

// TaskKeyPrefix precedes the per-owner counter in a task key (BUG-12).
const TaskKeyPrefix = "BUG-"

// User is a row of the auth users table backing register/login.
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Session backs the cookie authentication path. Only the hash of the cookie
// value is stored.
type Session struct {
	TokenHash string
	UserID    string
	Email     string
	ExpiresAt time.Time
	CreatedAt time.Time
}

type Profile struct {
	UserID             string    `json:"user_id"`
	Email              string    `json:"email"`
	FirstName          *string   `json:"first_name"`
	LastName           *string   `json:"last_name"`
	Company            *string   `json:"company"`
	CompanyLogoURL     *string   `json:"company_logo_url"`
	InviteEmails       []string  `json:"invite_emails"`
	ContactNumber      *string   `json:"contact_number"`
	DisclaimerAccepted bool      `json:"disclaimer_accepted"`
	PopiaAccepted      bool      `json:"popia_accepted"`
	GithubTokenEnc     *string   `json:"-"`
	HasGithubToken     bool      `json:"has_github_token"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// ProfileUpdate carries only the fields a caller sent. GithubTokenEnc set to
// a pointer to "" clears the stored token.
type ProfileUpdate struct {
	FirstName          *string
	LastName           *string
	Company            *string
	CompanyLogoURL     *string
	InviteEmails       *[]string
	ContactNumber      *string
	DisclaimerAccepted *bool
	PopiaAccepted      *bool
	GithubTokenEnc     *string
}

// InviterProfile is the projection scanned during board owner resolution.
type InviterProfile struct {
	UserID       string
	InviteEmails []string
	CreatedAt    *time.Time
}

type Task struct {
	ID                string    `json:"id"`
	Title             string    `json:"title"`
	Description       string    `json:"description"`
	Status            string    `json:"status"`
	Priority          string    `json:"priority"`
	Type              string    `json:"type"`
	Labels            []string  `json:"labels"`
	Assignee          string    `json:"assignee"`
	CommentsCount     int       `json:"comments_count"`
	TaskKey           string    `json:"task_key"`
	UserID            string    `json:"user_id"`
	ReportID          *string   `json:"report_id"`
	GithubRepo        *string   `json:"github_repo"`
	GithubIssueURL    *string   `json:"github_issue_url"`
	GithubIssueNumber *int      `json:"github_issue_number"`
	GithubBranch      *string   `json:"github_branch"`
	CreatedAt         time.Time `json:"created_at"`
	UpdatedAt         time.Time `json:"updated_at"`
}

type TaskUpdate struct {
	Title             *string   `json:"title" validate:"omitempty,min=1,max=255"`
	Description       *string   `json:"description"`
	Status            *string   `json:"status" validate:"omitempty,oneof=backlog todo in_progress in_review done"`
	Priority          *string   `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	Type              *string   `json:"type" validate:"omitempty,oneof=bug feature improvement task"`
	Labels            *[]string `json:"labels"`
	Assignee          *string   `json:"assignee"`
	GithubRepo        *string   `json:"github_repo"`
	GithubIssueURL    *string   `json:"github_issue_url"`
	GithubIssueNumber *int      `json:"github_issue_number"`
	GithubBranch      *string   `json:"github_branch"`
}

// Empty reports whether the update would change nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil &&
		u.Priority == nil && u.Type == nil && u.Labels == nil && u.Assignee == nil &&
		u.GithubRepo == nil && u.GithubIssueURL == nil && u.GithubIssueNumber == nil &&
		u.GithubBranch == nil
}

type Comment struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	UserEmail string    `json:"user_email"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Report struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Type           string    `json:"type"`
	Priority       string    `json:"priority"`
	ReporterName   string    `json:"reporter_name"`
	ReporterEmail  string    `json:"reporter_email"`
	Status         string    `json:"status"`
	UserID         string    `json:"user_id"`
	PromotedTaskID *string   `json:"promoted_task_id"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type ReportUpdate struct {
	Title       *string `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	Type        *string `json:"type" validate:"omitempty,oneof=bug feature improvement task"`
	Priority    *string `json:"priority" validate:"omitempty,oneof=critical high medium low"`
	Status      *string `json:"status" validate:"omitempty,oneof=open reviewing dismissed"`
}

type GithubProject struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Owner       string    `json:"owner"`
	Repo        string    `json:"repo"`
	DisplayName *string   `json:"display_name"`
	CreatedAt   time.Time `json:"created_at"`
}
