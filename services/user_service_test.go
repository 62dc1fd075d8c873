package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yeremiapane/club-pos/models"
	"github.com/yeremiapane/club-pos/utils"
)

func TestEnsureAdminAndLogin(t *testing.T) {
	users := NewUserService(newTestDB(t))

	created, err := users.EnsureAdmin(ctx, "owner", "secret123")
	require.NoError(t, err)
	assert.True(t, created)
	created, err = users.EnsureAdmin(ctx, "other", "secret123")
	require.NoError(t, err)
	assert.False(t, created, "only seeds an empty users table")

	res, err := users.Login(ctx, " owner ", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, res.User.Role)

	claims, err := utils.ParseToken(res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
	assert.Equal(t, models.RoleAdmin, claims.Role)

	_, err = users.Login(ctx, "owner", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Login(ctx, "nobody", "secret123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestCreateUser(t *testing.T) {
	users := NewUserService(newTestDB(t))
	_, err := users.EnsureAdmin(ctx, "owner", "secret123")
	require.NoError(t, err)

	u, err := users.Create(ctx, admin, UserInput{Username: "yuki", Password: "yuki1234", Name: "Yuki", Role: models.RoleCast})
	require.NoError(t, err)
	assert.True(t, u.Active)
	assert.NotEqual(t, "yuki1234", u.PasswordHash)

	var ve *ValidationError
	_, err = users.Create(ctx, admin, UserInput{Username: "yuki", Password: "another1", Name: "Yuki 2", Role: models.RoleCast})
	assert.ErrorAs(t, err, &ve, "duplicate username")
	_, err = users.Create(ctx, admin, UserInput{Username: "mei", Password: "short", Name: "Mei", Role: models.RoleCast})
	assert.ErrorAs(t, err, &ve, "short password")
	_, err = users.Create(ctx, admin, UserInput{Username: "mei", Password: "mei12345", Name: "Mei", Role: "manager"})
	assert.ErrorAs(t, err, &ve, "unknown role")

	_, err = users.Create(ctx, Actor{UserID: u.ID, Role: models.RoleStaff}, UserInput{Username: "x", Password: "xxxxxx", Name: "X", Role: models.RoleStaff})
	assert.ErrorIs(t, err, ErrForbidden)

	casts, err := users.List(ctx, UserFilter{Role: models.RoleCast})
	require.NoError(t, err)
	assert.Len(t, casts, 1)
}

func TestUpdateUserGuards(t *testing.T) {
	f := newFixture(t)
	users := NewUserService(f.db)
	owner := Actor{UserID: 1, Role: models.RoleAdmin}
	var ve *ValidationError
	var ce *ConflictError

	_, err := users.Update(ctx, owner, 1, UserInput{Role: models.RoleStaff})
	assert.ErrorAs(t, err, &ve, "own role")
	_, err = users.Deactivate(ctx, owner, 1)
	assert.ErrorAs(t, err, &ve, "own account")

	f.open(t, f.tables[0], "Tanaka", f.cast.ID)
	_, err = users.Deactivate(ctx, owner, f.cast.ID)
	assert.ErrorAs(t, err, &ce, "cast is serving")

	u, err := users.Deactivate(ctx, owner, f.cast2.ID)
	require.NoError(t, err)
	assert.False(t, u.Active)

	u, err = users.Update(ctx, owner, f.staff.ID, UserInput{Name: "Kenji S.", Password: "newpass1"})
	require.NoError(t, err)
	assert.Equal(t, "Kenji S.", u.Name)
	res, err := users.Login(ctx, "kenji", "newpass1")
	require.NoError(t, err)
	assert.Equal(t, f.staff.ID, res.User.ID)

	_, err = users.Update(ctx, owner, f.staff.ID, UserInput{Username: "yuki"})
	assert.ErrorAs(t, err, &ve, "username taken")
}

func TestLoginDeactivatedUser(t *testing.T) {
	db := newTestDB(t)
	users := NewUserService(db)
	_, err := users.EnsureAdmin(ctx, "owner", "secret123")
	require.NoError(t, err)
	inactive := false
	_, err = users.Create(ctx, admin, UserInput{Username: "gone", Password: "gone1234", Name: "Gone", Role: models.RoleStaff, Active: &inactive})
	require.NoError(t, err)

	_, err = users.Login(ctx, "gone", "gone1234")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
