package application

import (
	"context"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/tablebook/user-service/internal/domain/entity"
	repo "github.com/tablebook/user-service/internal/domain/repository"
	"github.com/tablebook/user-service/pkg/helpers"
)

// Publisher is the queue-side contract for domain events and email jobs.
// *helpers.RabbitPublisher satisfies it; tests plug in fakes.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

const profileCacheTTL = 5 * time.Minute

// Service orchestrates the user use cases: commands load the aggregate,
// invoke its business methods, persist, and flush pending domain events to
// the event queue; queries return plain projections.
type Service struct {
	Repo         repo.UserRepository
	JWT          *helpers.JWTManager
	Redis        *redis.Client
	Logger       *logrus.Logger
	Events       Publisher
	Mail         Publisher
	ES           *elasticsearch.Client
	ESUsersIndex string
	ResetURL     string
}

func NewService(r repo.UserRepository, jwt *helpers.JWTManager, rdb *redis.Client, logger *logrus.Logger, events, mail Publisher, es *elasticsearch.Client, esUsersIndex, resetURL string) *Service {
	return &Service{
		Repo:         r,
		JWT:          jwt,
		Redis:        rdb,
		Logger:       logger,
		Events:       events,
		Mail:         mail,
		ES:           es,
		ESUsersIndex: esUsersIndex,
		ResetURL:     resetURL,
	}
}

// AuthTokens is the wire shape of an issued token pair.
type AuthTokens struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// UserResponse is the public projection returned after registration.
// It never carries the password or its hash.
type UserResponse struct {
	ID          string                     `json:"id"`
	Email       string                     `json:"email"`
	Name        string                     `json:"name"`
	Phone       string                     `json:"phone"`
	Preferences entity.PreferencesSnapshot `json:"preferences"`
	CreatedAt   time.Time                  `json:"createdAt"`
}

// UserDetailResponse is the full read projection.
type UserDetailResponse struct {
	ID          string                     `json:"id"`
	Email       string                     `json:"email"`
	Name        string                     `json:"name"`
	Phone       string                     `json:"phone"`
	Preferences entity.PreferencesSnapshot `json:"preferences"`
	CreatedAt   time.Time                  `json:"createdAt"`
	UpdatedAt   time.Time                  `json:"updatedAt"`
	IsActive    bool                       `json:"isActive"`
}

func projectUser(u *entity.User) *UserResponse {
	return &UserResponse{
		ID:          u.ID(),
		Email:       u.Email(),
		Name:        u.Name(),
		Phone:       u.Phone(),
		Preferences: u.Preferences().Snapshot(),
		CreatedAt:   u.CreatedAt(),
	}
}

func projectUserDetail(u *entity.User) *UserDetailResponse {
	return &UserDetailResponse{
		ID:          u.ID(),
		Email:       u.Email(),
		Name:        u.Name(),
		Phone:       u.Phone(),
		Preferences: u.Preferences().Snapshot(),
		CreatedAt:   u.CreatedAt(),
		UpdatedAt:   u.UpdatedAt(),
		IsActive:    u.IsActive(),
	}
}

func profileCacheKey(userID string) string {
	return "user:profile:" + userID
}

// publishEvents flushes the aggregate's uncommitted events to the event
// queue and clears the buffer. A missing publisher or a publish failure
// never fails the command; the state change already happened.
func (s *Service) publishEvents(ctx context.Context, u *entity.User) {
	events := u.PendingEvents()
	if len(events) == 0 {
		return
	}
	if s.Events != nil {
		for _, e := range events {
			if err := s.Events.PublishJSON(ctx, entity.EnvelopeOf(e)); err != nil && s.Logger != nil {
				s.Logger.WithError(err).WithFields(logrus.Fields{
					"event":   e.EventName(),
					"user_id": e.AggregateID(),
				}).Warn("publish domain event failed")
			}
		}
	}
	u.MarkEventsCommitted()
}

func (s *Service) invalidateProfileCache(ctx context.Context, userID string) {
	if s.Redis == nil {
		return
	}
	if err := helpers.RedisDel(ctx, s.Redis, profileCacheKey(userID)); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", userID).Warn("profile cache invalidation failed")
	}
}
