// Package board decides whose task board a caller works on.
package board

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"bugboard/internal/auth"
	"bugboard/internal/models"
	"bugboard/internal/repository"

	"golang.org/x/sync/errgroup"
)

// ProfileReader is the slice of the store the resolver needs.
type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListInviterProfiles(ctx context.Context, excludeUserID string) ([]models.InviterProfile, error)
}

type Resolver struct {
	profiles ProfileReader
}

func NewResolver(profiles ProfileReader) *Resolver {
	return &Resolver{profiles: profiles}
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeInviteList trims and lowercases every entry, dropping empties and
// later duplicates. Order of first appearance is kept.
func NormalizeInviteList(emails []string) []string {
	out := make([]string, 0, len(emails))
	seen := make(map[string]struct{}, len(emails))
	for _, e := range emails {
		n := NormalizeEmail(e)
		if n == "" {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}

// ResolveBoardOwner returns the user id whose board the caller sees.
//
// A caller who invites others, or who has no email, owns their own board.
// Otherwise, if other profiles invite the caller's email, the earliest
// created inviter wins; profiles without a creation time sort first.
// The result is recomputed on every call.
func (r *Resolver) ResolveBoardOwner(ctx context.Context, id auth.Identity) (string, error) {
	email := NormalizeEmail(id.Email)

	var own *models.Profile
	var others []models.InviterProfile

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := r.profiles.GetProfile(gctx, id.UserID)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
		own = p
		return nil
	})
	if email != "" {
		g.Go(func() error {
			list, err := r.profiles.ListInviterProfiles(gctx, id.UserID)
			if err != nil {
				return err
			}
			others = list
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if own != nil && len(NormalizeInviteList(own.InviteEmails)) > 0 {
		return id.UserID, nil
	}
	if email == "" {
		return id.UserID, nil
	}

	var inviters []models.InviterProfile
	for _, p := range others {
		if p.UserID == id.UserID {
			continue
		}
		for _, invited := range NormalizeInviteList(p.InviteEmails) {
			if invited == email {
				inviters = append(inviters, p)
				break
			}
		}
	}
	if len(inviters) == 0 {
		return id.UserID, nil
	}

	sort.SliceStable(inviters, func(i, j int) bool {
		return createdAt(inviters[i]).Before(createdAt(inviters[j]))
	})
	return inviters[0].UserID, nil
}

func createdAt(p models.InviterProfile) time.Time {
	if p.CreatedAt == nil {
		return time.Time{}
	}
	return *p.CreatedAt
}
