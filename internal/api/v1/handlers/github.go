package handlers

import (
	"errors"
	"strings"

	"bugboard/internal/config"
	"bugboard/internal/github"
	"bugboard/internal/middleware"
	"bugboard/internal/models"
	"bugboard/internal/repository"
	"bugboard/pkg/logger"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func ListGithubProjects(c *fiber.Ctx) error {
	projects, err := config.Store.ListGithubProjects(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if err != nil {
		return storeError(c, err, "Projects not found", "listing projects")
	}
	return respond(c, fiber.StatusOK, "Projects retrieved", projects)
}

func CreateGithubProject(c *fiber.Ctx) error {
	var req struct {
		Owner       string `json:"owner"`
		Repo        string `json:"repo"`
		DisplayName string `json:"display_name"`
	}
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	owner, repo := strings.TrimSpace(req.Owner), strings.TrimSpace(req.Repo)
	if owner == "" || repo == "" {
		return respondError(c, fiber.StatusBadRequest, "owner and repo are required")
	}

	project := &models.GithubProject{
		UserID: middleware.CurrentIdentity(c).UserID,
		Owner:  owner,
		Repo:   repo,
	}
	if name := strings.TrimSpace(req.DisplayName); name != "" {
		project.DisplayName = &name
	}
	created, err := config.Store.CreateGithubProject(c.UserContext(), project)
	if err != nil {
		return storeError(c, err, "Project not found", "creating project")
	}
	return respond(c, fiber.StatusCreated, "Project saved", created)
}

// DeleteGithubProject takes the id from the path or, for older clients, from
// the JSON body.
func DeleteGithubProject(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		var req struct {
			ID string `json:"id"`
		}
		_ = c.BodyParser(&req)
		id = req.ID
	}
	if id == "" {
		return respondError(c, fiber.StatusBadRequest, "id is required")
	}
	if err := config.Store.DeleteGithubProject(c.UserContext(), middleware.CurrentIdentity(c).UserID, id); err != nil {
		return storeError(c, err, "Project not found", "deleting project")
	}
	return respond(c, fiber.StatusOK, "Project deleted", nil)
}

// githubToken prefers the caller's own stored token over the server-wide one.
func githubToken(c *fiber.Ctx) (string, error) {
	profile, err := config.Store.GetProfile(c.UserContext(), middleware.CurrentIdentity(c).UserID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return "", err
	}
	if profile != nil && profile.GithubTokenEnc != nil && *profile.GithubTokenEnc != "" {
		return config.Secrets.DecryptSecret(*profile.GithubTokenEnc)
	}
	return config.Cfg.GithubToken, nil
}

func githubError(c *fiber.Ctx, err error) error {
	var apiErr *github.APIError
	switch {
	case errors.As(err, &apiErr):
		return c.Status(apiErr.StatusCode).JSON(fiber.Map{
			"message": "GitHub request failed",
			"success": false,
			"status":  apiErr.StatusCode,
			"errors":  apiErr.Body,
		})
	case errors.Is(err, github.ErrNoToken):
		return respondError(c, fiber.StatusBadRequest, "GitHub token not configured")
	}
	logger.ErrorLogger.Error("GitHub request error", zap.Error(err))
	return respondError(c, fiber.StatusBadGateway, "GitHub request failed")
}

// linkTask records GitHub details on a task of the caller's board. A failure
// is logged; the GitHub side effect already happened.
func linkTask(c *fiber.Ctx, taskID string, update models.TaskUpdate) *models.Task {
	if taskID == "" {
		return nil
	}
	owner := middleware.BoardOwner(c)
	task, err := config.Store.UpdateTask(c.UserContext(), owner, taskID, update)
	if err != nil {
		logger.ErrorLogger.Error("Error linking task to github", zap.String("task_id", taskID), zap.Error(err))
		return nil
	}
	config.Hub.Publish(c.UserContext(), owner, EventTaskUpdated, task)
	return task
}

type createIssueRequest struct {
	Owner     string   `json:"owner" validate:"required"`
	Repo      string   `json:"repo" validate:"required"`
	Title     string   `json:"title" validate:"required"`
	IssueBody string   `json:"issueBody"`
	Labels    []string `json:"labels"`
	Assignees []string `json:"assignees"`
	TaskID    string   `json:"task_id"`
}

func CreateGithubIssue(c *fiber.Ctx) error {
	var req createIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "owner, repo and title are required")
	}

	token, err := githubToken(c)
	if err != nil {
		logger.ErrorLogger.Error("Error loading github token", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error loading github token")
	}

	issue, err := config.GitHub.CreateIssue(c.UserContext(), token, github.IssueRequest{
		Owner:     req.Owner,
		Repo:      req.Repo,
		Title:     req.Title,
		Body:      req.IssueBody,
		Labels:    req.Labels,
		Assignees: req.Assignees,
	})
	if err != nil {
		return githubError(c, err)
	}

	repoName := req.Owner + "/" + req.Repo
	task := linkTask(c, req.TaskID, models.TaskUpdate{
		GithubRepo:        &repoName,
		GithubIssueURL:    &issue.HTMLURL,
		GithubIssueNumber: &issue.Number,
	})

	logger.AuditLogger.Info("GitHub issue created", zap.String("repo", repoName), zap.Int("number", issue.Number))
	return respond(c, fiber.StatusCreated, "Issue created", fiber.Map{"issue": issue, "task": task})
}

type createBranchRequest struct {
	Owner      string `json:"owner" validate:"required"`
	Repo       string `json:"repo" validate:"required"`
	BranchName string `json:"branchName" validate:"required"`
	BaseBranch string `json:"baseBranch"`
	TaskID     string `json:"task_id"`
}

func CreateGithubBranch(c *fiber.Ctx) error {
	var req createBranchRequest
	if err := c.BodyParser(&req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "Bad request")
	}
	if err := config.Validate.Struct(req); err != nil {
		return respondError(c, fiber.StatusBadRequest, "owner, repo and branchName are required")
	}

	token, err := githubToken(c)
	if err != nil {
		logger.ErrorLogger.Error("Error loading github token", zap.Error(err))
		return respondError(c, fiber.StatusInternalServerError, "Error loading github token")
	}

	branch, err := config.GitHub.CreateBranch(c.UserContext(), token, github.BranchRequest{
		Owner:  req.Owner,
		Repo:   req.Repo,
		Branch: req.BranchName,
		Base:   req.BaseBranch,
	})
	if err != nil {
		return githubError(c, err)
	}

	repoName := req.Owner + "/" + req.Repo
	task := linkTask(c, req.TaskID, models.TaskUpdate{
		GithubRepo:   &repoName,
		GithubBranch: &branch.Name,
	})

	logger.AuditLogger.Info("GitHub branch created", zap.String("repo", repoName), zap.String("branch", branch.Name))
	return respond(c, fiber.StatusCreated, "Branch created", fiber.Map{"branch": branch, "task": task})
}
