package application

import (
	"context"
	"fmt"

	"github.com/tablebook/user-service/internal/domain/entity"
	repo "github.com/tablebook/user-service/internal/domain/repository"
	"github.com/tablebook/user-service/pkg/apperr"
	"github.com/tablebook/user-service/pkg/helpers"
)

type GetUserQuery struct {
	UserID string
}

type GetUserPreferencesQuery struct {
	UserID string
}

type ListUsersQuery struct {
	Limit  int
	Offset int
}

type PreferencesResponse struct {
	UserID      string                     `json:"userId"`
	Preferences entity.PreferencesSnapshot `json:"preferences"`
}

type UserListResponse struct {
	Users []*UserDetailResponse `json:"users"`
	Total int                   `json:"total"`
}

// GetUser returns the full projection, read through a short-TTL cache.
func (s *Service) GetUser(ctx context.Context, q GetUserQuery) (*UserDetailResponse, error) {
	if s.Redis != nil {
		var cached UserDetailResponse
		if ok, err := helpers.RedisGetJSON(ctx, s.Redis, profileCacheKey(q.UserID), &cached); err == nil && ok {
			return &cached, nil
		}
	}

	u, err := s.Repo.FindByID(ctx, q.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil {
		return nil, apperr.NotFound(fmt.Sprintf("user with id %s not found", q.UserID))
	}

	resp := projectUserDetail(u)
	if s.Redis != nil {
		if err := helpers.RedisSetJSON(ctx, s.Redis, profileCacheKey(q.UserID), resp, profileCacheTTL); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", q.UserID).Warn("profile cache write failed")
		}
	}
	return resp, nil
}

// GetUserPreferences returns just the preference projection.
func (s *Service) GetUserPreferences(ctx context.Context, q GetUserPreferencesQuery) (*PreferencesResponse, error) {
	u, err := s.Repo.FindByID(ctx, q.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil {
		return nil, apperr.NotFound(fmt.Sprintf("user with id %s not found", q.UserID))
	}
	return &PreferencesResponse{UserID: u.ID(), Preferences: u.Preferences().Snapshot()}, nil
}

// GetUserStats exposes the repository's per-user counters.
func (s *Service) GetUserStats(ctx context.Context, userID string) (repo.UserStats, error) {
	u, err := s.Repo.FindByID(ctx, userID)
	if err != nil {
		return repo.UserStats{}, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil {
		return repo.UserStats{}, apperr.NotFound(fmt.Sprintf("user with id %s not found", userID))
	}
	stats, err := s.Repo.GetUserStats(ctx, userID)
	if err != nil {
		return repo.UserStats{}, apperr.Wrap(apperr.KindInternal, "stats lookup failed", err)
	}
	return stats, nil
}

// ListActiveUsers pages through active accounts.
func (s *Service) ListActiveUsers(ctx context.Context, q ListUsersQuery) (*UserListResponse, error) {
	limit := q.Limit
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset := q.Offset
	if offset < 0 {
		offset = 0
	}
	page, err := s.Repo.FindAllActive(ctx, limit, offset)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "user listing failed", err)
	}
	out := make([]*UserDetailResponse, 0, len(page.Users))
	for _, u := range page.Users {
		out = append(out, projectUserDetail(u))
	}
	return &UserListResponse{Users: out, Total: page.Total}, nil
}
