package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HSouheill/carrental_backend/apperrors"
	"github.com/HSouheill/carrental_backend/models"
	"github.com/HSouheill/carrental_backend/security"
)

func TestIssueAndVerify(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")

	issued, err := f.sessions.Issue(ctx, user, models.ClientMeta{IPAddress: "10.0.0.1", UserAgent: "test"})
	require.NoError(t, err)
	assert.NotEmpty(t, issued.Token)
	assert.True(t, f.clock.Now().Add(7*24*time.Hour).Equal(issued.ExpiresAt))

	_, err = f.sessionStore.FindByTokenHash(ctx, issued.Token)
	assert.Error(t, err, "raw token must not be stored")
	stored, err := f.sessionStore.FindByTokenHash(ctx, security.HashToken(issued.Token))
	require.NoError(t, err)
	assert.Equal(t, "10.0.0.1", stored.IPAddress)

	identity, ok := f.sessions.Verify(ctx, issued.Token)
	require.True(t, ok)
	assert.Equal(t, user.ID.Hex(), identity.ID())
	assert.Equal(t, models.RoleCustomer, identity.Role())
}

func TestVerifyNormalizesLegacyRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "boss@example.com", "Admin", "Active")

	issued, err := f.sessions.Issue(ctx, user, models.ClientMeta{})
	require.NoError(t, err)

	identity, ok := f.sessions.Verify(ctx, issued.Token)
	require.True(t, ok)
	assert.Equal(t, models.RoleAdmin, identity.Role())
	assert.True(t, identity.IsActive())
}

func TestIssueRefusesInactiveUser(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "sus@example.com", "customer", "suspended")

	_, err := f.sessions.Issue(context.Background(), user, models.ClientMeta{})
	assert.ErrorIs(t, err, apperrors.ErrAccountInactive)
	assert.Zero(t, f.sessionStore.Count())
}

func TestIssueReportsStoreFailure(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	f.sessionStore.Err = errors.New("connection refused")

	issued, err := f.sessions.Issue(context.Background(), user, models.ClientMeta{})
	assert.Nil(t, issued)
	assert.True(t, apperrors.IsKind(err, apperrors.KindInternal))
}

func TestVerifyRejects(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	issued, err := f.sessions.Issue(ctx, user, models.ClientMeta{})
	require.NoError(t, err)

	t.Run("empty token", func(t *testing.T) {
		_, ok := f.sessions.Verify(ctx, "")
		assert.False(t, ok)
	})

	t.Run("unknown token", func(t *testing.T) {
		_, ok := f.sessions.Verify(ctx, "not-a-session")
		assert.False(t, ok)
	})

	t.Run("store failure fails closed", func(t *testing.T) {
		f.sessionStore.Err = errors.New("timeout")
		defer func() { f.sessionStore.Err = nil }()
		_, ok := f.sessions.Verify(ctx, issued.Token)
		assert.False(t, ok)
	})

	t.Run("user lookup failure fails closed", func(t *testing.T) {
		f.users.Err = errors.New("timeout")
		defer func() { f.users.Err = nil }()
		_, ok := f.sessions.Verify(ctx, issued.Token)
		assert.False(t, ok)
	})

	t.Run("expired", func(t *testing.T) {
		f.clock.Advance(7*24*time.Hour + time.Second)
		_, ok := f.sessions.Verify(ctx, issued.Token)
		assert.False(t, ok)
	})
}

func TestVerifyReflectsCurrentStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")
	issued, err := f.sessions.Issue(ctx, user, models.ClientMeta{})
	require.NoError(t, err)

	require.NoError(t, f.users.UpdateStatus(ctx, user.ID, models.StatusSuspended))

	identity, ok := f.sessions.Verify(ctx, issued.Token)
	require.True(t, ok)
	assert.False(t, identity.IsActive())
}

func TestRevokeAndList(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	user := f.seedUser(t, "jane@example.com", "customer", "active")

	first, err := f.sessions.Issue(ctx, user, models.ClientMeta{})
	require.NoError(t, err)
	f.clock.Advance(time.Minute)
	second, err := f.sessions.Issue(ctx, user, models.ClientMeta{})
	require.NoError(t, err)

	infos, err := f.sessions.List(ctx, user.ID, second.Token)
	require.NoError(t, err)
	require.Len(t, infos, 2)
	assert.True(t, infos[0].Current)
	assert.False(t, infos[1].Current)

	require.NoError(t, f.sessions.Revoke(ctx, first.Token))
	_, ok := f.sessions.Verify(ctx, first.Token)
	assert.False(t, ok)
	require.NoError(t, f.sessions.Revoke(ctx, first.Token), "revoking twice is a no-op")

	n, err := f.sessions.RevokeAll(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	_, ok = f.sessions.Verify(ctx, second.Token)
	assert.False(t, ok)
}
