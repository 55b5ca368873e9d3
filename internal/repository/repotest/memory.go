// Package repotest provides an in-memory repository.Store for handler tests.
package repotest

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"bugboard/internal/models"
	"bugboard/internal/repository"

	"github.com/google/uuid"
)

type MemoryStore struct {
	mu sync.Mutex

	now func() time.Time

	users    map[string]*models.User
	sessions map[string]*models.Session
	profiles map[string]*models.Profile
	// profileOrder keeps insertion order so inviter scans are deterministic.
	profileOrder []string
	counters     map[string]int
	tasks        map[string]*models.Task
	comments     []models.Comment
	reports      map[string]*models.Report
	projects     map[string]*models.GithubProject

	// ProfileErr, when set, is returned by every profile read.
	ProfileErr error
}

var _ repository.Store = (*MemoryStore)(nil)

func NewMemoryStore() *MemoryStore {
	var tick int64
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return &MemoryStore{
		// Strictly increasing clock so "newest first" ordering is testable.
		now: func() time.Time {
			tick++
			return base.Add(time.Duration(tick) * time.Millisecond)
		},
		users:    map[string]*models.User{},
		sessions: map[string]*models.Session{},
		profiles: map[string]*models.Profile{},
		counters: map[string]int{},
		tasks:    map[string]*models.Task{},
		reports:  map[string]*models.Report{},
		projects: map[string]*models.GithubProject{},
	}
}

// SeedProfile stores p as-is, overwriting any existing row.
func (m *MemoryStore) SeedProfile(p models.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.profiles[p.UserID]; !ok {
		m.profileOrder = append(m.profileOrder, p.UserID)
	}
	cp := p
	cp.InviteEmails = append([]string{}, p.InviteEmails...)
	m.profiles[p.UserID] = &cp
}

func (m *MemoryStore) CreateUser(_ context.Context, email, passwordHash string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			return nil, repository.ErrDuplicate
		}
	}
	u := &models.User{ID: uuid.NewString(), Email: email, PasswordHash: passwordHash, CreatedAt: m.now()}
	m.users[u.ID] = u
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, u := range m.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MemoryStore) GetUserByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (m *MemoryStore) CreateSession(_ context.Context, session *models.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *session
	cp.CreatedAt = m.now()
	if u, ok := m.users[cp.UserID]; ok {
		cp.Email = u.Email
	}
	m.sessions[cp.TokenHash] = &cp
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, tokenHash string) (*models.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[tokenHash]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) DeleteSession(_ context.Context, tokenHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, tokenHash)
	return nil
}

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyProfile(p), nil
}

func (m *MemoryStore) UpsertProfile(_ context.Context, userID, email string, u models.ProfileUpdate) (*models.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		now := m.now()
		p = &models.Profile{UserID: userID, InviteEmails: []string{}, CreatedAt: now}
		m.profiles[userID] = p
		m.profileOrder = append(m.profileOrder, userID)
	}
	if email != "" {
		p.Email = email
	}
	if u.FirstName != nil {
		p.FirstName = strPtr(*u.FirstName)
	}
	if u.LastName != nil {
		p.LastName = strPtr(*u.LastName)
	}
	if u.Company != nil {
		p.Company = strPtr(*u.Company)
	}
	if u.CompanyLogoURL != nil {
		p.CompanyLogoURL = strPtr(*u.CompanyLogoURL)
	}
	if u.InviteEmails != nil {
		p.InviteEmails = append([]string{}, *u.InviteEmails...)
	}
	if u.ContactNumber != nil {
		p.ContactNumber = strPtr(*u.ContactNumber)
	}
	if u.DisclaimerAccepted != nil {
		p.DisclaimerAccepted = *u.DisclaimerAccepted
	}
	if u.PopiaAccepted != nil {
		p.PopiaAccepted = *u.PopiaAccepted
	}
	if u.GithubTokenEnc != nil {
		if *u.GithubTokenEnc == "" {
			p.GithubTokenEnc = nil
		} else {
			p.GithubTokenEnc = strPtr(*u.GithubTokenEnc)
		}
	}
	p.HasGithubToken = p.GithubTokenEnc != nil
	p.UpdatedAt = m.now()
	return copyProfile(p), nil
}

func (m *MemoryStore) ListInviterProfiles(_ context.Context, excludeUserID string) ([]models.InviterProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ProfileErr != nil {
		return nil, m.ProfileErr
	}
	var out []models.InviterProfile
	for _, id := range m.profileOrder {
		if id == excludeUserID {
			continue
		}
		p := m.profiles[id]
		inv := models.InviterProfile{
			UserID:       p.UserID,
			InviteEmails: append([]string{}, p.InviteEmails...),
		}
		if !p.CreatedAt.IsZero() {
			created := p.CreatedAt
			inv.CreatedAt = &created
		}
		out = append(out, inv)
	}
	return out, nil
}

func (m *MemoryStore) ListTasks(_ context.Context, ownerID string) ([]models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	tasks := []models.Task{}
	for _, t := range m.tasks {
		if t.UserID == ownerID {
			tasks = append(tasks, m.withCount(t))
		}
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].CreatedAt.After(tasks[j].CreatedAt) })
	return tasks, nil
}

func (m *MemoryStore) GetTask(_ context.Context, ownerID, id string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	cp := m.withCount(t)
	return &cp, nil
}

func (m *MemoryStore) CreateTask(_ context.Context, task *models.Task) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	created := m.insertTask(*task)
	return &created, nil
}

func (m *MemoryStore) insertTask(t models.Task) models.Task {
	m.counters[t.UserID]++
	t.ID = uuid.NewString()
	t.TaskKey = fmt.Sprintf("%s%d", models.TaskKeyPrefix, m.counters[t.UserID])
	t.Labels = append([]string{}, t.Labels...)
	t.CreatedAt = m.now()
	t.UpdatedAt = t.CreatedAt
	t.CommentsCount = 0
	stored := t
	m.tasks[t.ID] = &stored
	return t
}

func (m *MemoryStore) UpdateTask(_ context.Context, ownerID, id string, u models.TaskUpdate) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != ownerID {
		return nil, repository.ErrNotFound
	}
	if u.Title != nil {
		t.Title = *u.Title
	}
	if u.Description != nil {
		t.Description = *u.Description
	}
	if u.Status != nil {
		t.Status = *u.Status
	}
	if u.Priority != nil {
		t.Priority = *u.Priority
	}
	if u.Type != nil {
		t.Type = *u.Type
	}
	if u.Labels != nil {
		t.Labels = append([]string{}, *u.Labels...)
	}
	if u.Assignee != nil {
		t.Assignee = *u.Assignee
	}
	if u.GithubRepo != nil {
		t.GithubRepo = strPtr(*u.GithubRepo)
	}
	if u.GithubIssueURL != nil {
		t.GithubIssueURL = strPtr(*u.GithubIssueURL)
	}
	if u.GithubIssueNumber != nil {
		n := *u.GithubIssueNumber
		t.GithubIssueNumber = &n
	}
	if u.GithubBranch != nil {
		t.GithubBranch = strPtr(*u.GithubBranch)
	}
	if !u.Empty() {
		t.UpdatedAt = m.now()
	}
	cp := m.withCount(t)
	return &cp, nil
}

func (m *MemoryStore) DeleteTask(_ context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	t, ok := m.tasks[id]
	if !ok || t.UserID != ownerID {
		return repository.ErrNotFound
	}
	delete(m.tasks, id)
	kept := m.comments[:0]
	for _, c := range m.comments {
		if c.TaskID != id {
			kept = append(kept, c)
		}
	}
	m.comments = kept
	return nil
}

func (m *MemoryStore) ListComments(_ context.Context, taskID string) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Comment{}
	for _, c := range m.comments {
		if c.TaskID == taskID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *MemoryStore) CreateComment(_ context.Context, comment *models.Comment) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tasks[comment.TaskID]; !ok {
		return nil, repository.ErrNotFound
	}
	c := *comment
	c.ID = uuid.NewString()
	c.CreatedAt = m.now()
	c.UpdatedAt = c.CreatedAt
	m.comments = append(m.comments, c)
	return &c, nil
}

func (m *MemoryStore) ListActiveReports(_ context.Context, userID string) ([]models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Report{}
	for _, r := range m.reports {
		if r.UserID == userID && r.Status != models.ReportPromoted {
			out = append(out, *r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateReport(_ context.Context, report *models.Report) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *report
	r.ID = uuid.NewString()
	r.CreatedAt = m.now()
	r.UpdatedAt = r.CreatedAt
	stored := r
	m.reports[r.ID] = &stored
	return &r, nil
}

func (m *MemoryStore) UpdateReport(_ context.Context, userID, id string, u models.ReportUpdate) (*models.Report, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if u.Title != nil {
		r.Title = *u.Title
	}
	if u.Description != nil {
		r.Description = *u.Description
	}
	if u.Type != nil {
		r.Type = *u.Type
	}
	if u.Priority != nil {
		r.Priority = *u.Priority
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
	r.UpdatedAt = m.now()
	cp := *r
	return &cp, nil
}

func (m *MemoryStore) DeleteReport(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[id]
	if !ok || r.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.reports, id)
	return nil
}

func (m *MemoryStore) PromoteReport(_ context.Context, userID, reportID, boardOwnerID string) (*models.Task, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.reports[reportID]
	if !ok || r.UserID != userID {
		return nil, repository.ErrNotFound
	}
	if r.Status == models.ReportPromoted {
		return nil, repository.ErrAlreadyPromoted
	}
	reportID = r.ID
	task := m.insertTask(models.Task{
		Title:       r.Title,
		Description: r.Description,
		Status:      models.StatusBacklog,
		Priority:    r.Priority,
		Type:        r.Type,
		UserID:      boardOwnerID,
		ReportID:    &reportID,
	})
	r.Status = models.ReportPromoted
	r.PromotedTaskID = strPtr(task.ID)
	r.UpdatedAt = m.now()
	return &task, nil
}

func (m *MemoryStore) ListGithubProjects(_ context.Context, userID string) ([]models.GithubProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.GithubProject{}
	for _, p := range m.projects {
		if p.UserID == userID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStore) CreateGithubProject(_ context.Context, project *models.GithubProject) (*models.GithubProject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := *project
	p.ID = uuid.NewString()
	p.CreatedAt = m.now()
	stored := p
	m.projects[p.ID] = &stored
	return &p, nil
}

func (m *MemoryStore) DeleteGithubProject(_ context.Context, userID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.projects[id]
	if !ok || p.UserID != userID {
		return repository.ErrNotFound
	}
	delete(m.projects, id)
	return nil
}

func (m *MemoryStore) withCount(t *models.Task) models.Task {
	cp := *t
	cp.Labels = append([]string{}, t.Labels...)
	for _, c := range m.comments {
		if c.TaskID == t.ID {
			cp.CommentsCount++
		}
	}
	return cp
}

func copyProfile(p *models.Profile) *models.Profile {
	cp := *p
	cp.InviteEmails = append([]string{}, p.InviteEmails...)
	return &cp
}

func strPtr(s string) *string { return &s }
