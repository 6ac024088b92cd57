package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	userapp "github.com/tablebook/user-service/internal/application"
	"github.com/tablebook/user-service/internal/domain/entity"
	repo "github.com/tablebook/user-service/internal/domain/repository"
	"github.com/tablebook/user-service/internal/interface/middleware"
	"github.com/tablebook/user-service/pkg/helpers"
	"github.com/tablebook/user-service/pkg/validation"
)

// stubRepo keeps snapshots in memory; enough persistence for handler tests.
type stubRepo struct {
	mu     sync.Mutex
	users  map[string]entity.UserSnapshot
	hashes map[string]string
}

func newStubRepo() *stubRepo {
	return &stubRepo{users: make(map[string]entity.UserSnapshot), hashes: make(map[string]string)}
}

func (s *stubRepo) Save(_ context.Context, u *entity.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := u.Snapshot()
	s.users[snap.ID] = snap
	s.hashes[snap.ID] = u.PasswordHash()
	return nil
}

func (s *stubRepo) FindByID(_ context.Context, id string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.users[id]
	if !ok {
		return nil, nil
	}
	return entity.RestoreUser(snap, s.hashes[id])
}

func (s *stubRepo) FindByEmail(_ context.Context, email string) (*entity.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, snap := range s.users {
		if snap.Email == email {
			return entity.RestoreUser(snap, s.hashes[id])
		}
	}
	return nil, nil
}

func (s *stubRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	u, err := s.FindByEmail(ctx, email)
	return u != nil, err
}

func (s *stubRepo) FindByIDs(context.Context, []string) ([]*entity.User, error) {
	return nil, nil
}

func (s *stubRepo) FindAllActive(_ context.Context, _, _ int) (repo.UserPage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*entity.User, 0)
	for id, snap := range s.users {
		if snap.IsActive {
			u, err := entity.RestoreUser(snap, s.hashes[id])
			if err != nil {
				return repo.UserPage{}, err
			}
			out = append(out, u)
		}
	}
	return repo.UserPage{Users: out, Total: len(out)}, nil
}

func (s *stubRepo) Search(_ context.Context, _ string, _, _ int) (repo.UserPage, error) {
	return repo.UserPage{}, nil
}

func (s *stubRepo) DeleteByID(context.Context, string) error { return nil }

func (s *stubRepo) GetUserStats(context.Context, string) (repo.UserStats, error) {
	return repo.UserStats{}, nil
}

func (s *stubRepo) UpdateUserStats(context.Context, string, repo.StatsUpdate) error { return nil }

var _ repo.UserRepository = (*stubRepo)(nil)

func newTestRouter(t *testing.T) (*gin.Engine, *userapp.Service) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	validation.Init()

	jwt := helpers.NewJWTManager("test-access", "test-refresh", 15*time.Minute, 168*time.Hour)
	svc := userapp.NewService(newStubRepo(), jwt, nil, nil, nil, nil, nil, "", "http://localhost:8080/reset-password")

	uh := NewUserHandler(svc, nil)
	ah := NewAuthHandler(svc, nil)

	r := gin.New()
	api := r.Group("/api/v1")
	api.POST("/users/register", uh.Register)
	api.GET("/users/profile", middleware.Auth(jwt), uh.GetProfile)
	api.PUT("/users/profile", middleware.Auth(jwt), uh.UpdateProfile)
	api.DELETE("/users/:id", middleware.Auth(jwt), uh.Delete)
	api.POST("/auth/login", ah.Login)
	api.POST("/auth/refresh", ah.Refresh)
	api.POST("/auth/change-password", middleware.Auth(jwt), ah.ChangePassword)
	api.POST("/auth/verify-token", middleware.Auth(jwt), ah.VerifyToken)
	return r, svc
}

func doJSON(r *gin.Engine, method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func registerBody() map[string]any {
	return map[string]any{
		"email":    "a@example.com",
		"password": "StrongPassword123!",
		"name":     "John Doe",
		"phone":    "+1234567890",
	}
}

func TestRegisterEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)

	w := doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "")
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			ID          string `json:"id"`
			Email       string `json:"email"`
			Preferences struct {
				Language string `json:"language"`
			} `json:"preferences"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.True(t, resp.Success)
	require.NotEmpty(t, resp.Data.ID)
	require.Equal(t, "a@example.com", resp.Data.Email)
	require.Equal(t, "en", resp.Data.Preferences.Language)

	// The hash never leaks through the projection.
	require.NotContains(t, w.Body.String(), "password")

	// Duplicate registration conflicts.
	w = doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "")
	require.Equal(t, http.StatusConflict, w.Code)
	require.Contains(t, w.Body.String(), "email already exists")
}

func TestRegisterEndpointValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	body := registerBody()
	body["password"] = "weak"
	w := doJSON(r, http.MethodPost, "/api/v1/users/register", body, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	body = registerBody()
	body["email"] = "not-an-email"
	w = doJSON(r, http.MethodPost, "/api/v1/users/register", body, "")
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(r, http.MethodPost, "/api/v1/users/register", map[string]any{}, "")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLoginAndProfileFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "").Code)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "StrongPassword123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)

	var login struct {
		Data struct {
			Tokens struct {
				AccessToken  string `json:"accessToken"`
				RefreshToken string `json:"refreshToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))
	require.NotEmpty(t, login.Data.Tokens.AccessToken)

	// Profile without a token is rejected.
	require.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodGet, "/api/v1/users/profile", nil, "").Code)

	// With the access token it returns the caller's account.
	w = doJSON(r, http.MethodGet, "/api/v1/users/profile", nil, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "a@example.com")

	// Update profile.
	w = doJSON(r, http.MethodPut, "/api/v1/users/profile", map[string]any{
		"name": "Johnny Doe", "phone": "+1987654321",
	}, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "Johnny Doe")

	// Refresh rotates the pair.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refreshToken": login.Data.Tokens.RefreshToken,
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "accessToken")

	// Refreshing with the access token is rejected.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/refresh", map[string]any{
		"refreshToken": login.Data.Tokens.AccessToken,
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginEndpointBadCredentials(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "").Code)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "WrongPassword123!",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "invalid credentials")
}

func TestChangePasswordEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "").Code)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "StrongPassword123!",
	}, "")
	require.Equal(t, http.StatusOK, w.Code)
	var login struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"accessToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(r, http.MethodPost, "/api/v1/auth/change-password", map[string]any{
		"currentPassword": "WrongPassword123!", "newPassword": "NewPassword123!",
	}, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusUnauthorized, w.Code)
	require.Contains(t, w.Body.String(), "current password is incorrect")

	w = doJSON(r, http.MethodPost, "/api/v1/auth/change-password", map[string]any{
		"currentPassword": "StrongPassword123!", "newPassword": "NewPassword123!",
	}, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	// Old password no longer works.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "StrongPassword123!",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestVerifyTokenEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	require.Equal(t, http.StatusCreated, doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "").Code)

	w := doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "StrongPassword123!",
	}, "")
	var login struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"accessToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(r, http.MethodPost, "/api/v1/auth/verify-token", nil, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), `"valid":true`)
	require.Contains(t, w.Body.String(), "a@example.com")

	require.Equal(t, http.StatusUnauthorized, doJSON(r, http.MethodPost, "/api/v1/auth/verify-token", nil, "bogus").Code)
}

func TestDeleteEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(r, http.MethodPost, "/api/v1/users/register", registerBody(), "")
	require.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "StrongPassword123!",
	}, "")
	var login struct {
		Data struct {
			Tokens struct {
				AccessToken string `json:"accessToken"`
			} `json:"tokens"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &login))

	w = doJSON(r, http.MethodDelete, "/api/v1/users/"+created.Data.ID, nil, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusOK, w.Code)

	// A second delete hits the already-deactivated invariant.
	w = doJSON(r, http.MethodDelete, "/api/v1/users/"+created.Data.ID, nil, login.Data.Tokens.AccessToken)
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "user is already deactivated")

	// And the deactivated account can no longer log in.
	w = doJSON(r, http.MethodPost, "/api/v1/auth/login", map[string]any{
		"email": "a@example.com", "password": "StrongPassword123!",
	}, "")
	require.Equal(t, http.StatusUnauthorized, w.Code)
}
