package repository

import (
	"context"
	"time"

	"github.com/tablebook/user-service/internal/domain/entity"
)

// UserStats are the per-user counters maintained by reservation event
// handlers plus login bookkeeping.
type UserStats struct {
	TotalReservations     int        `json:"totalReservations"`
	ActiveReservations    int        `json:"activeReservations"`
	CancelledReservations int        `json:"cancelledReservations"`
	JoinedAt              time.Time  `json:"joinedAt"`
	LastLoginAt           *time.Time `json:"lastLoginAt,omitempty"`
}

// StatsUpdate is a partial update; nil fields are left untouched.
type StatsUpdate struct {
	TotalReservations     *int
	ActiveReservations    *int
	CancelledReservations *int
	LastLoginAt           *time.Time
}

// UserPage is a paginated result.
type UserPage struct {
	Users []*entity.User
	Total int
}

// UserRepository is the persistence contract for user aggregates.
// Lookups return (nil, nil) on a miss; callers decide what absence means.
type UserRepository interface {
	Save(ctx context.Context, u *entity.User) error
	FindByID(ctx context.Context, id string) (*entity.User, error)
	FindByEmail(ctx context.Context, email string) (*entity.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	FindByIDs(ctx context.Context, ids []string) ([]*entity.User, error)
	FindAllActive(ctx context.Context, limit, offset int) (UserPage, error)
	Search(ctx context.Context, query string, limit, offset int) (UserPage, error)
	// DeleteByID soft-deletes by marking the user inactive.
	DeleteByID(ctx context.Context, id string) error
	GetUserStats(ctx context.Context, id string) (UserStats, error)
	UpdateUserStats(ctx context.Context, id string, stats StatsUpdate) error
}
