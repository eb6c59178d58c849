package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
)

func TestCallLogs(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob, carol := env.user(t, "alice"), env.user(t, "bob"), env.user(t, "carol")
	duration := 42

	_, err := env.calls.Log(ctx, alice.ID, bob.ID, &models.CreateCallLogRequest{CallType: "fax", Duration: &duration})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = env.calls.Log(ctx, alice.ID, alice.ID, &models.CreateCallLogRequest{CallType: models.CallTypeVoice, Duration: &duration})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	log, err := env.calls.Log(ctx, alice.ID, bob.ID, &models.CreateCallLogRequest{CallType: models.CallTypeVideo, Duration: &duration})
	require.NoError(t, err)
	require.Equal(t, 42, log.Duration)
	require.Equal(t, alice.ID, log.Caller.ID)
	require.Len(t, env.hub.to(bob.ID, "newCallLog"), 1)

	_, err = env.calls.Log(ctx, carol.ID, alice.ID, &models.CreateCallLogRequest{CallType: models.CallTypeVoice, Duration: &duration})
	require.NoError(t, err)

	mine, err := env.calls.History(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)

	between, err := env.calls.HistoryWith(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, between, 1)
	require.Equal(t, log.ID, between[0].ID)

	_, err = env.calls.HistoryWith(ctx, bob.ID, "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCallToken(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice, bob := env.user(t, "alice"), env.user(t, "bob")

	token, err := env.calls.Token(ctx, alice.ID, bob.ID, &models.CallTokenRequest{CallType: models.CallTypeVoice})
	require.NoError(t, err)
	require.NotEmpty(t, token.Token)
	require.Equal(t, CallRoom(bob.ID, alice.ID), token.Room)
	require.Equal(t, "ws://localhost:7880", token.URL)

	_, err = env.relationships.Block(ctx, bob.ID, &models.BlockRequest{UserID: alice.ID})
	require.NoError(t, err)
	_, err = env.calls.Token(ctx, alice.ID, bob.ID, &models.CallTokenRequest{CallType: models.CallTypeVoice})
	require.ErrorIs(t, err, pkg.ErrForbidden)

	unconfigured := NewCallService(repository.NewSQLiteCallLogRepo(env.db.Conn), env.users, env.relationships, env.hub, config.LiveKitConfig{})
	_, err = unconfigured.Token(ctx, alice.ID, bob.ID, &models.CallTokenRequest{CallType: models.CallTypeVoice})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
}
