package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

type sqliteUserRepo struct {
	db database.TxQuerier
}

// NewSQLiteUserRepo, UserRepository'nin SQLite implementasyonunu döner.
func NewSQLiteUserRepo(db database.TxQuerier) UserRepository {
	return &sqliteUserRepo{db: db}
}

const userColumns = `id, fullname, username, password_hash, gender, profile_pic, email, is_online, last_seen, created_at, updated_at`

func scanUser(row interface{ Scan(...any) error }) (*models.User, error) {
	u := &models.User{}
	err := row.Scan(
		&u.ID, &u.Fullname, &u.Username, &u.PasswordHash, &u.Gender, &u.ProfilePic,
		&u.Email, &u.IsOnline, &u.LastSeen, &u.CreatedAt, &u.UpdatedAt,
	)
	return u, err
}

func (r *sqliteUserRepo) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Fullname, user.Username, user.PasswordHash, user.Gender, user.ProfilePic,
		user.Email, user.IsOnline, user.LastSeen, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		return uniqueUserError(err, "create user")
	}
	return nil
}

func (r *sqliteUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *sqliteUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *sqliteUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email = ?`, email))
	if err != nil {
		return nil, notFound(err, "user")
	}
	return u, nil
}

func (r *sqliteUserRepo) ListExcept(ctx context.Context, userID string) ([]models.UserSummary, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+summaryColumns("u")+` FROM users u WHERE u.id <> ? ORDER BY u.fullname`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	defer rows.Close()

	users := []models.UserSummary{}
	for rows.Next() {
		var s models.UserSummary
		if err := rows.Scan(summaryDest(&s)...); err != nil {
			return nil, fmt.Errorf("failed to scan user row: %w", err)
		}
		users = append(users, s)
	}
	return users, rows.Err()
}

func (r *sqliteUserRepo) Update(ctx context.Context, user *models.User) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE users SET fullname = ?, username = ?, gender = ?, profile_pic = ?, email = ?, updated_at = ?
		WHERE id = ?`,
		user.Fullname, user.Username, user.Gender, user.ProfilePic, user.Email, user.UpdatedAt, user.ID,
	)
	if err != nil {
		return uniqueUserError(err, "update user")
	}
	return mustAffect(result, "user")
}

func (r *sqliteUserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string, at time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`, passwordHash, at, userID)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	return mustAffect(result, "user")
}

// SetOnline, presence bayrağını günceller. Çevrimdışına geçerken last_seen de yazılır.
func (r *sqliteUserRepo) SetOnline(ctx context.Context, userID string, online bool, at time.Time) error {
	var (
		query = `UPDATE users SET is_online = 1 WHERE id = ?`
		args  = []any{userID}
	)
	if !online {
		query = `UPDATE users SET is_online = 0, last_seen = ? WHERE id = ?`
		args = []any{at, userID}
	}

	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update presence: %w", err)
	}
	return mustAffect(result, "user")
}

func uniqueUserError(err error, op string) error {
	if isUniqueViolation(err) {
		if strings.Contains(err.Error(), "email") {
			return fmt.Errorf("%w: email already in use", pkg.ErrAlreadyExists)
		}
		return fmt.Errorf("%w: username already taken", pkg.ErrAlreadyExists)
	}
	return fmt.Errorf("failed to %s: %w", op, err)
}
