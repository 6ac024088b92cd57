package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/tablebook/user-service/internal/domain/entity"
	repo "github.com/tablebook/user-service/internal/domain/repository"
	"github.com/tablebook/user-service/pkg/apperr"
	"github.com/tablebook/user-service/pkg/helpers"
	"github.com/tablebook/user-service/pkg/mailer"
)

type CreateUserCommand struct {
	Email       string
	Password    string
	Name        string
	Phone       string
	Preferences *entity.PreferencesPatch
}

type LoginCommand struct {
	Email    string
	Password string
}

type RefreshTokenCommand struct {
	RefreshToken string
}

type ChangePasswordCommand struct {
	UserID          string
	CurrentPassword string
	NewPassword     string
}

type UpdateUserCommand struct {
	UserID      string
	Name        string
	Phone       string
	Preferences *entity.PreferencesPatch
}

type DeleteUserCommand struct {
	UserID string
}

type LoginResponse struct {
	User   *UserResponse `json:"user"`
	Tokens AuthTokens    `json:"tokens"`
	Expiry helpers.TokenPair `json:"-"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser registers a new account. Email uniqueness is checked against
// the normalized address; the returned projection never contains the hash.
func (s *Service) CreateUser(ctx context.Context, cmd CreateUserCommand) (*UserResponse, error) {
	email := normalizeEmail(cmd.Email)

	exists, err := s.Repo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "email lookup failed", err)
	}
	if exists {
		return nil, apperr.Conflict("email already exists")
	}

	hash, err := helpers.HashPassword(cmd.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "password hashing failed", err)
	}

	var prefs *entity.UserPreferences
	if cmd.Preferences != nil {
		p, err := entity.PreferencesFromPatch(*cmd.Preferences)
		if err != nil {
			return nil, err
		}
		prefs = &p
	}

	u := entity.NewUser(uuid.NewString(), email, hash, strings.TrimSpace(cmd.Name), strings.TrimSpace(cmd.Phone), prefs)

	if err := s.Repo.Save(ctx, u); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save user failed", err)
	}
	s.publishEvents(ctx, u)

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID()).Info("user created")
	}
	return projectUser(u), nil
}

// Login verifies credentials and issues a token pair. A missing account, a
// wrong password and a deactivated account all answer unauthorized so the
// response never reveals which check failed.
func (s *Service) Login(ctx context.Context, cmd LoginCommand) (*LoginResponse, error) {
	u, err := s.Repo.FindByEmail(ctx, normalizeEmail(cmd.Email))
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil || !u.IsActive() {
		return nil, apperr.Unauthorized("invalid credentials")
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash(), cmd.Password) {
		return nil, apperr.Unauthorized("invalid credentials")
	}

	pair, err := s.JWT.GeneratePair(u.ID(), u.Email(), u.Name())
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "token generation failed", err)
	}

	now := time.Now().UTC()
	if err := s.Repo.UpdateUserStats(ctx, u.ID(), repo.StatsUpdate{LastLoginAt: &now}); err != nil && s.Logger != nil {
		s.Logger.WithError(err).WithField("user_id", u.ID()).Warn("last login update failed")
	}

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID()).Info("user logged in")
	}
	return &LoginResponse{
		User:   projectUser(u),
		Tokens: AuthTokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		Expiry: pair,
	}, nil
}

// RefreshToken exchanges a valid refresh token for a new pair. Every failure
// collapses to the same unauthorized error.
func (s *Service) RefreshToken(ctx context.Context, cmd RefreshTokenCommand) (*LoginResponse, error) {
	invalid := apperr.Unauthorized("invalid refresh token")

	sub, _, err := s.JWT.ParseRefreshToken(cmd.RefreshToken)
	if err != nil {
		return nil, invalid
	}
	u, err := s.Repo.FindByID(ctx, sub)
	if err != nil || u == nil || !u.IsActive() {
		return nil, invalid
	}

	pair, err := s.JWT.GeneratePair(u.ID(), u.Email(), u.Name())
	if err != nil {
		return nil, invalid
	}

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID()).Debug("tokens refreshed")
	}
	return &LoginResponse{
		User:   projectUser(u),
		Tokens: AuthTokens{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
		Expiry: pair,
	}, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, cmd ChangePasswordCommand) error {
	u, err := s.Repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil {
		return apperr.NotFound(fmt.Sprintf("user with id %s not found", cmd.UserID))
	}
	if !helpers.CompareHashAndPassword(u.PasswordHash(), cmd.CurrentPassword) {
		return apperr.Unauthorized("current password is incorrect")
	}

	hash, err := helpers.HashPassword(cmd.NewPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "password hashing failed", err)
	}
	u.ChangePassword(hash)

	if err := s.Repo.Save(ctx, u); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save user failed", err)
	}
	s.publishEvents(ctx, u)
	s.invalidateProfileCache(ctx, u.ID())

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID()).Info("password changed")
	}
	return nil
}

// UpdateUser applies the load-mutate-save pattern; invariant checks live on
// the aggregate.
func (s *Service) UpdateUser(ctx context.Context, cmd UpdateUserCommand) (*UserDetailResponse, error) {
	u, err := s.Repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil {
		return nil, apperr.NotFound(fmt.Sprintf("user with id %s not found", cmd.UserID))
	}

	var prefs *entity.UserPreferences
	if cmd.Preferences != nil {
		p, err := entity.PreferencesFromPatch(*cmd.Preferences)
		if err != nil {
			return nil, err
		}
		prefs = &p
	}

	if err := u.UpdateProfile(cmd.Name, cmd.Phone, prefs); err != nil {
		return nil, err
	}

	if err := s.Repo.Save(ctx, u); err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "save user failed", err)
	}
	s.publishEvents(ctx, u)
	s.invalidateProfileCache(ctx, u.ID())

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID()).Info("user updated")
	}
	return projectUserDetail(u), nil
}

// DeleteUser soft-deletes by deactivating the aggregate.
func (s *Service) DeleteUser(ctx context.Context, cmd DeleteUserCommand) error {
	u, err := s.Repo.FindByID(ctx, cmd.UserID)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil {
		return apperr.NotFound(fmt.Sprintf("user with id %s not found", cmd.UserID))
	}

	if err := u.Deactivate(); err != nil {
		return err
	}

	if err := s.Repo.Save(ctx, u); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save user failed", err)
	}
	s.publishEvents(ctx, u)
	s.invalidateProfileCache(ctx, u.ID())

	if s.Logger != nil {
		s.Logger.WithField("user_id", u.ID()).Info("user deactivated")
	}
	return nil
}

// RequestPasswordReset issues a reset token and queues the reset email.
// Unknown addresses return an empty link, never an error, to avoid account
// enumeration.
func (s *Service) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	u, err := s.Repo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "user lookup failed", err)
	}
	if u == nil || !u.IsActive() {
		return "", nil
	}

	token, err := s.JWT.GeneratePasswordResetToken(u.ID())
	if err != nil {
		return "", apperr.Wrap(apperr.KindInternal, "token generation failed", err)
	}
	link := s.ResetURL + "?token=" + token

	if s.Mail != nil {
		job := mailer.EmailJob{
			To:      u.Email(),
			Subject: "Reset your password",
			Text:    "Hi " + u.Name() + ",\n\nUse the link below to reset your password. It expires in one hour.\n\n" + link + "\n",
		}
		if err := s.Mail.PublishJSON(ctx, job); err != nil && s.Logger != nil {
			s.Logger.WithError(err).WithField("user_id", u.ID()).Warn("enqueue reset email failed")
		}
	}

	if s.Logger != nil {
		s.Logger.WithFields(logrus.Fields{"user_id": u.ID()}).Info("password reset requested")
	}
	return link, nil
}

// ResetPassword consumes a password-reset token and stores the new hash.
func (s *Service) ResetPassword(ctx context.Context, token, newPassword string) error {
	invalid := apperr.Unauthorized("invalid or expired reset token")

	sub, err := s.JWT.ParsePasswordResetToken(token)
	if err != nil {
		return invalid
	}
	u, err := s.Repo.FindByID(ctx, sub)
	if err != nil || u == nil {
		return invalid
	}

	hash, err := helpers.HashPassword(newPassword)
	if err != nil {
		return apperr.Wrap(apperr.KindInternal, "password hashing failed", err)
	}
	u.ChangePassword(hash)

	if err := s.Repo.Save(ctx, u); err != nil {
		return apperr.Wrap(apperr.KindInternal, "save user failed", err)
	}
	s.publishEvents(ctx, u)
	s.invalidateProfileCache(ctx, u.ID())
	return nil
}
