package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/mehdiyara/stockroom/internal/model"
)

// UserRepo persists user records in the `users` table.  The refresh
// fingerprint column holds at most one valid refresh-token digest per
// user; rotating or clearing it is the only revocation mechanism.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "id, full_name, email, password_hash, avatar_url, role, is_active, refresh_fingerprint, last_login, created_at, updated_at"

// Create inserts a new user.  Email uniqueness is enforced by the
// database; a duplicate surfaces as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, full_name, email, password_hash, avatar_url, role, is_active) VALUES (?,?,?,?,?,?,?)",
		u.ID, u.FullName, strings.ToLower(strings.TrimSpace(u.Email)), u.PasswordHash, u.AvatarURL, u.Role, u.IsActive)
	if err != nil {
		if isDuplicate(err) {
			return ErrEmailExists
		}
		return err
	}
	return nil
}

// GetByEmail fetches a user by normalized email.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return r.get(ctx, "SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id)
}

// ListAll returns every user, newest first.
func (r *UserRepo) ListAll(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

// SetSession records a successful login: stores the new refresh
// fingerprint, marks the user active and stamps last_login.
func (r *UserRepo) SetSession(ctx context.Context, id, fingerprint string, lastLogin time.Time) error {
	return r.exec(ctx,
		"UPDATE users SET refresh_fingerprint=?, is_active=1, last_login=? WHERE id=?",
		fingerprint, lastLogin, id)
}

// RotateFingerprint overwrites the stored refresh fingerprint during a
// token refresh.  Last-write-wins: a concurrent refresh that loses the
// race fails its next fingerprint comparison.
func (r *UserRepo) RotateFingerprint(ctx context.Context, id, fingerprint string) error {
	return r.exec(ctx, "UPDATE users SET refresh_fingerprint=? WHERE id=?", fingerprint, id)
}

// ClearSession logs the user out: drops the fingerprint (logical
// revocation of the outstanding refresh token) and clears is_active.
func (r *UserRepo) ClearSession(ctx context.Context, id string) error {
	return r.exec(ctx, "UPDATE users SET refresh_fingerprint='', is_active=0 WHERE id=?", id)
}

// UpdatePassword stores a new password hash and clears the refresh
// fingerprint so every outstanding session must log in again.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, hash string) error {
	return r.exec(ctx, "UPDATE users SET password_hash=?, refresh_fingerprint='' WHERE id=?", hash, id)
}

// UpdateRole changes a user's role.  Role validity is checked by the
// handler against the closed enum.
func (r *UserRepo) UpdateRole(ctx context.Context, id string, role model.Role) error {
	return r.exec(ctx, "UPDATE users SET role=? WHERE id=?", role, id)
}

// UpdateAvatar stores a new avatar URL.
func (r *UserRepo) UpdateAvatar(ctx context.Context, id, url string) error {
	return r.exec(ctx, "UPDATE users SET avatar_url=? WHERE id=?", url, id)
}

// Delete removes a user row permanently.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	return r.exec(ctx, "DELETE FROM users WHERE id=?", id)
}

func (r *UserRepo) get(ctx context.Context, query string, args ...any) (model.User, error) {
	row := r.DB.QueryRowContext(ctx, query, args...)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return model.User{}, ErrNotFound
	}
	return u, err
}

func (r *UserRepo) exec(ctx context.Context, query string, args ...any) error {
	res, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		// MySQL reports 0 both for missing rows and same-value updates;
		// verify existence before declaring the row gone.
		if id, ok := lastArgString(args); ok {
			if _, getErr := r.GetByID(ctx, id); getErr != nil {
				return getErr
			}
		}
	}
	return nil
}

type rowScanner interface{ Scan(dest ...any) error }

func scanUser(row rowScanner) (model.User, error) {
	var (
		u         model.User
		lastLogin sql.NullTime
	)
	err := row.Scan(&u.ID, &u.FullName, &u.Email, &u.PasswordHash, &u.AvatarURL,
		&u.Role, &u.IsActive, &u.RefreshFingerprint, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return u, nil
}

func lastArgString(args []any) (string, bool) {
	if len(args) == 0 {
		return "", false
	}
	s, ok := args[len(args)-1].(string)
	return s, ok
}

// isDuplicate reports whether err is a MySQL duplicate-key violation
// (error 1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
