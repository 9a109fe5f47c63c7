package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jpbreysse/svelteblog/internal/model"
	"github.com/jpbreysse/svelteblog/internal/utils"
)

const userColumns = "id, email, first_name, last_name, password_hash, status, role, created_at, approved_at, approved_by"

// UserRepo persists user records and implements the credential operations.
type UserRepo struct {
	DB   *sql.DB
	Cost int // bcrypt cost used for every hash this repo produces
}

func NewUserRepo(db *sql.DB, cost int) *UserRepo { return &UserRepo{DB: db, Cost: cost} }

// Create registers a new user with status=pending and role=user. The caller
// is responsible for structural validation of the fields; Create only
// enforces email uniqueness. A duplicate caught by the pre-check and one
// caught by the unique constraint in a races-to-insert scenario both come
// back as ErrEmailExists.
func (r *UserRepo) Create(ctx context.Context, email, firstName, lastName, password string) (model.User, error) {
	var existing uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return model.User{}, ErrEmailExists
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return model.User{}, fmt.Errorf("check email: %w", err)
	}

	hash, err := utils.HashPassword(password, r.Cost)
	if err != nil {
		return model.User{}, fmt.Errorf("hash password: %w", err)
	}
	res, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (email, first_name, last_name, password_hash) VALUES (?,?,?,?)",
		email, firstName, lastName, hash)
	if err != nil {
		if isUniqueViolation(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByEmail fetches a user by email. Emails are stored case-sensitively.
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email = ? LIMIT 1", email)
	return scanUser(row)
}

// GetByID fetches a user by id.
func (r *UserRepo) GetByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? LIMIT 1", id)
	return scanUser(row)
}

// GetApprovedByID fetches a user by id, restricted to status=approved. The
// identity resolver uses this on every request so that de-approval takes
// effect immediately without any token revocation machinery.
func (r *UserRepo) GetApprovedByID(ctx context.Context, id uint64) (model.User, error) {
	row := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id = ? AND status = ? LIMIT 1",
		id, model.StatusApproved)
	return scanUser(row)
}

// VerifyLogin authenticates an email/password pair. An unknown email and a
// wrong password produce the same ErrInvalidCredentials; an account that is
// not approved produces NotApprovedError carrying the current status.
func (r *UserRepo) VerifyLogin(ctx context.Context, email, password string) (model.User, error) {
	u, err := r.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return model.User{}, ErrInvalidCredentials
		}
		return model.User{}, err
	}
	if u.Status != model.StatusApproved {
		return model.User{}, &NotApprovedError{Status: u.Status}
	}
	if !utils.VerifyPassword(u.PasswordHash, password) {
		return model.User{}, ErrInvalidCredentials
	}
	return u, nil
}

// ChangePassword overwrites the user's hash after verifying the current
// password.
func (r *UserRepo) ChangePassword(ctx context.Context, userID uint64, current, newPassword string) error {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !utils.VerifyPassword(u.PasswordHash, current) {
		return ErrInvalidCredentials
	}
	hash, err := utils.HashPassword(newPassword, r.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, userID)
	return err
}

// ResetPassword overwrites the target's hash without a current-password
// check. The acting user's admin role is re-read from the store at call
// time rather than trusted from a cached claim.
func (r *UserRepo) ResetPassword(ctx context.Context, adminID, targetID uint64, newPassword string) error {
	if err := r.requireAdmin(ctx, adminID); err != nil {
		return err
	}
	var id uint64
	err := r.DB.QueryRowContext(ctx, "SELECT id FROM users WHERE id = ?", targetID).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	hash, err := utils.HashPassword(newPassword, r.Cost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET password_hash = ? WHERE id = ?", hash, targetID)
	return err
}

// SetStatus applies an admin approval or rejection. The change is checked
// against the status transition table; approval stamps approved_at and
// approved_by, rejection clears approved_at.
func (r *UserRepo) SetStatus(ctx context.Context, adminID, targetID uint64, next model.Status) (model.User, error) {
	if !next.Valid() {
		return model.User{}, ErrInvalidTransition
	}
	if err := r.requireAdmin(ctx, adminID); err != nil {
		return model.User{}, err
	}
	target, err := r.GetByID(ctx, targetID)
	if err != nil {
		return model.User{}, err
	}
	if !target.Status.CanTransitionTo(next) {
		return model.User{}, ErrInvalidTransition
	}

	switch next {
	case model.StatusApproved:
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET status = ?, approved_at = CURRENT_TIMESTAMP, approved_by = ? WHERE id = ?",
			next, adminID, targetID)
	case model.StatusRejected:
		_, err = r.DB.ExecContext(ctx,
			"UPDATE users SET status = ?, approved_at = NULL, approved_by = ? WHERE id = ?",
			next, adminID, targetID)
	}
	if err != nil {
		return model.User{}, err
	}
	return r.GetByID(ctx, targetID)
}

// List returns all users newest-first for the admin overview.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at DESC, id DESC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// requireAdmin re-checks the acting user's role from the store.
func (r *UserRepo) requireAdmin(ctx context.Context, userID uint64) error {
	var role model.Role
	err := r.DB.QueryRowContext(ctx, "SELECT role FROM users WHERE id = ?", userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrForbidden
	}
	if err != nil {
		return err
	}
	if role != model.RoleAdmin {
		return ErrForbidden
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (model.User, error) {
	var (
		u          model.User
		approvedAt sql.NullTime
		approvedBy sql.NullInt64
	)
	err := row.Scan(&u.ID, &u.Email, &u.FirstName, &u.LastName, &u.PasswordHash,
		&u.Status, &u.Role, &u.CreatedAt, &approvedAt, &approvedBy)
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, ErrNotFound
	}
	if err != nil {
		return model.User{}, err
	}
	if approvedAt.Valid {
		t := approvedAt.Time
		u.ApprovedAt = &t
	}
	if approvedBy.Valid {
		id := uint64(approvedBy.Int64)
		u.ApprovedBy = &id
	}
	return u, nil
}
