package repository

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jpbreysse/svelteblog/internal/config"
	"github.com/jpbreysse/svelteblog/internal/database"
	"github.com/jpbreysse/svelteblog/internal/model"
)

// newTestDB opens a throwaway sqlite database with the real schema applied
// and the bootstrap admin seeded.
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	cfg := config.Config{
		DBDriver:   "sqlite3",
		SQLitePath: filepath.Join(t.TempDir(), "test.db"),
		BcryptCost: bcrypt.MinCost,
	}
	db, err := database.Open(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func newRepos(t *testing.T) (*UserRepo, *PostRepo) {
	t.Helper()
	db := newTestDB(t)
	return NewUserRepo(db, bcrypt.MinCost), NewPostRepo(db)
}

// adminUser returns the seeded bootstrap admin.
func adminUser(t *testing.T, users *UserRepo) model.User {
	t.Helper()
	admin, err := users.GetByEmail(context.Background(), database.AdminEmail)
	require.NoError(t, err)
	return admin
}

// approvedUser registers an account and has the bootstrap admin approve it.
func approvedUser(t *testing.T, users *UserRepo, email string) model.User {
	t.Helper()
	ctx := context.Background()
	u, err := users.Create(ctx, email, "Test", "User", "secret1")
	require.NoError(t, err)
	admin := adminUser(t, users)
	u, err = users.SetStatus(ctx, admin.ID, u.ID, model.StatusApproved)
	require.NoError(t, err)
	return u
}
