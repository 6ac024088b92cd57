package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/tablebook/user-service/internal/domain/entity"
	"github.com/tablebook/user-service/internal/domain/repository"
)

const userColumns = `id, email, password_hash, name, phone, preferences, is_active, created_at, updated_at`

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

func (r *UserRepository) Save(ctx context.Context, u *entity.User) error {
	snap := u.Snapshot()
	prefs, err := json.Marshal(snap.Preferences)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, `
		INSERT INTO users (id, email, password_hash, name, phone, preferences, is_active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			email = EXCLUDED.email,
			password_hash = EXCLUDED.password_hash,
			name = EXCLUDED.name,
			phone = EXCLUDED.phone,
			preferences = EXCLUDED.preferences,
			is_active = EXCLUDED.is_active,
			updated_at = EXCLUDED.updated_at
	`, snap.ID, snap.Email, u.PasswordHash(), snap.Name, snap.Phone, prefs, snap.IsActive, snap.CreatedAt, snap.UpdatedAt)
	return err
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entity.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return scanUser(row)
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

func (r *UserRepository) FindByIDs(ctx context.Context, ids []string) ([]*entity.User, error) {
	if len(ids) == 0 {
		return []*entity.User{}, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+userColumns+` FROM users WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectUsers(rows)
}

func (r *UserRepository) FindAllActive(ctx context.Context, limit, offset int) (repository.UserPage, error) {
	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE is_active = true`).Scan(&total); err != nil {
		return repository.UserPage{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active = true
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return repository.UserPage{}, err
	}
	defer rows.Close()
	users, err := collectUsers(rows)
	if err != nil {
		return repository.UserPage{}, err
	}
	return repository.UserPage{Users: users, Total: total}, nil
}

func (r *UserRepository) Search(ctx context.Context, query string, limit, offset int) (repository.UserPage, error) {
	pattern := "%" + query + "%"
	var total int
	if err := r.pool.QueryRow(ctx, `
		SELECT COUNT(*) FROM users
		WHERE is_active = true AND (name ILIKE $1 OR email ILIKE $1)
	`, pattern).Scan(&total); err != nil {
		return repository.UserPage{}, err
	}
	rows, err := r.pool.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE is_active = true AND (name ILIKE $1 OR email ILIKE $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`, pattern, limit, offset)
	if err != nil {
		return repository.UserPage{}, err
	}
	defer rows.Close()
	users, err := collectUsers(rows)
	if err != nil {
		return repository.UserPage{}, err
	}
	return repository.UserPage{Users: users, Total: total}, nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id string) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE users SET is_active = false, updated_at = $2 WHERE id = $1
	`, id, time.Now().UTC())
	return err
}

func (r *UserRepository) GetUserStats(ctx context.Context, id string) (repository.UserStats, error) {
	var stats repository.UserStats
	err := r.pool.QueryRow(ctx, `
		SELECT total_reservations, active_reservations, cancelled_reservations, created_at, last_login_at
		FROM users WHERE id = $1
	`, id).Scan(&stats.TotalReservations, &stats.ActiveReservations, &stats.CancelledReservations,
		&stats.JoinedAt, &stats.LastLoginAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.UserStats{}, nil
	}
	return stats, err
}

func (r *UserRepository) UpdateUserStats(ctx context.Context, id string, stats repository.StatsUpdate) error {
	set := make([]string, 0, 4)
	args := []any{id}
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, col+" = $"+strconv.Itoa(len(args)))
	}
	if stats.TotalReservations != nil {
		add("total_reservations", *stats.TotalReservations)
	}
	if stats.ActiveReservations != nil {
		add("active_reservations", *stats.ActiveReservations)
	}
	if stats.CancelledReservations != nil {
		add("cancelled_reservations", *stats.CancelledReservations)
	}
	if stats.LastLoginAt != nil {
		add("last_login_at", *stats.LastLoginAt)
	}
	if len(set) == 0 {
		return nil
	}
	sql := "UPDATE users SET " + set[0]
	for _, s := range set[1:] {
		sql += ", " + s
	}
	sql += " WHERE id = $1"
	_, err := r.pool.Exec(ctx, sql, args...)
	return err
}

func scanUser(row pgx.Row) (*entity.User, error) {
	var snap entity.UserSnapshot
	var hash string
	var prefs []byte
	err := row.Scan(&snap.ID, &snap.Email, &hash, &snap.Name, &snap.Phone, &prefs,
		&snap.IsActive, &snap.CreatedAt, &snap.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(prefs) > 0 {
		if err := json.Unmarshal(prefs, &snap.Preferences); err != nil {
			return nil, err
		}
	} else {
		snap.Preferences = entity.DefaultPreferences().Snapshot()
	}
	return entity.RestoreUser(snap, hash)
}

func collectUsers(rows pgx.Rows) ([]*entity.User, error) {
	users := make([]*entity.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

var _ repository.UserRepository = (*UserRepository)(nil)
