package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/circle/models"
	"github.com/akinalp/circle/pkg"
)

func TestMembers_SetRole(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t, "admin@circle.test")
	member := env.member(t, "member@circle.test")

	promoted, err := env.members.SetRole(ctx, admin.ID, member.ID, &models.SetRoleRequest{Role: models.UserRoleAdmin})
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, promoted.Role)

	_, err = env.members.SetRole(ctx, admin.ID, admin.ID, &models.SetRoleRequest{Role: models.UserRoleMember})
	assert.ErrorIs(t, err, pkg.ErrBadRequest, "admins cannot demote themselves")

	_, err = env.members.SetRole(ctx, admin.ID, member.ID, &models.SetRoleRequest{Role: "owner"})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	page, err := env.audit.List(ctx, models.AuditFilter{Action: models.AuditMemberRole})
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
	assert.Equal(t, "admin", page.Entries[0].Details["to"])
}

func TestMembers_ListIncludesGroup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "alice@circle.test")
	env.member(t, "bob@circle.test")
	env.group(t, "Writers", alice)

	members, err := env.members.List(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	for _, m := range members {
		if m.ID == alice.ID {
			require.NotNil(t, m.GroupName)
			assert.Equal(t, "Writers", *m.GroupName)
		} else {
			assert.Nil(t, m.GroupID)
		}
	}
}

func TestMembers_UpdateProfile(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "alice@circle.test")

	updated, err := env.members.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{
		FullName: strPtr("Alice Liddell"),
		Timezone: strPtr("Europe/Istanbul"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Liddell", updated.FullName)

	stored, err := env.users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Europe/Istanbul", stored.Timezone)

	_, err = env.members.UpdateProfile(ctx, alice.ID, &models.UpdateProfileRequest{Timezone: strPtr("Mars/Olympus")})
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestMembers_Promote(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	member := env.member(t, "member@circle.test")

	user, err := env.members.Promote(ctx, "  MEMBER@circle.test ")
	require.NoError(t, err)
	assert.Equal(t, member.ID, user.ID)
	assert.True(t, user.IsAdmin())

	_, err = env.members.Promote(ctx, "nobody@circle.test")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestMaintenanceSweeper_PurgesExpiredRows(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	alice := env.member(t, "alice@circle.test")
	now := time.Now().UTC()

	require.NoError(t, env.sessions.Create(ctx, &models.Session{UserID: alice.ID, RefreshToken: "stale", ExpiresAt: now.Add(-time.Hour)}))
	require.NoError(t, env.sessions.Create(ctx, &models.Session{UserID: alice.ID, RefreshToken: "fresh", ExpiresAt: now.Add(time.Hour)}))
	require.NoError(t, env.resets.Create(ctx, &models.PasswordResetToken{UserID: alice.ID, TokenHash: "old", ExpiresAt: now.Add(-time.Minute)}))

	sweeper := NewMaintenanceSweeper(env.sessions, env.resets, time.Hour, zap.NewNop())
	sweeper.Sweep(ctx)

	_, err := env.sessions.GetByRefreshToken(ctx, "stale")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
	_, err = env.sessions.GetByRefreshToken(ctx, "fresh")
	assert.NoError(t, err)
	_, err = env.resets.GetByTokenHash(ctx, "old")
	assert.ErrorIs(t, err, pkg.ErrNotFound)

	sweeper.Start()
	sweeper.Stop()
	sweeper.Stop()
}
