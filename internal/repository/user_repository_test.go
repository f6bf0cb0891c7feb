package repository

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/lms-client/internal/database"
	"github.com/iliyamo/lms-client/internal/model"
	"github.com/iliyamo/lms-client/internal/utils"
)

func newRepo(t *testing.T) *UserRepo {
	t.Helper()
	db, err := database.Open(database.DriverSQLite, filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	r := NewUserRepo(db, database.DriverSQLite)
	require.NoError(t, r.EnsureSchema(context.Background()))
	return r
}

func TestUserRepo_CreateAndGet(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	u, err := r.Create(ctx, "  Ada@Example.com ", " Ada ", "pw", model.RoleInstructor, bcrypt.MinCost)
	require.NoError(t, err)
	assert.NotZero(t, u.ID)
	assert.Equal(t, "ada@example.com", u.Email)
	assert.Equal(t, "Ada", u.Name)

	byEmail, err := r.GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	assert.Equal(t, u.ID, byEmail.ID)
	assert.Equal(t, model.RoleInstructor, byEmail.Role)
	assert.True(t, utils.VerifyPassword(byEmail.PasswordHash, "pw"))

	byID, err := r.GetByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: u.ID, Email: "ada@example.com", Name: "Ada", Role: model.RoleInstructor}, byID.Public())
}

func TestUserRepo_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	r := newRepo(t)

	_, err := r.Create(ctx, "a@b.com", "A", "pw", model.RoleStudent, bcrypt.MinCost)
	require.NoError(t, err)
	_, err = r.Create(ctx, "A@B.com", "Other", "pw", model.RoleStudent, bcrypt.MinCost)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestUserRepo_NotFound(t *testing.T) {
	r := newRepo(t)
	_, err := r.GetByEmail(context.Background(), "nobody@x.com")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = r.GetByID(context.Background(), 999)
	assert.ErrorIs(t, err, ErrNotFound)
}
