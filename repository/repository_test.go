package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
)

func openTestDB(t *testing.T) *database.DB {
	t.Helper()

	db, err := database.New(context.Background(), database.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, users UserRepository, username string) *models.User {
	t.Helper()

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Fullname:     username + " test",
		Username:     username,
		PasswordHash: "hash",
		Gender:       models.GenderFemale,
		ProfilePic:   "https://example.com/" + username,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, users.Create(context.Background(), u))
	return u
}

func seedConversation(t *testing.T, convs ConversationRepository, a, b string) *models.Conversation {
	t.Helper()

	now := time.Now().UTC()
	c := &models.Conversation{ID: uuid.NewString(), User1ID: a, User2ID: b, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, convs.Create(context.Background(), c))
	return c
}

func seedMessage(t *testing.T, msgs MessageRepository, convID, groupID *string, senderID, body string) *models.Message {
	t.Helper()

	now := time.Now().UTC()
	m := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: convID,
		GroupID:        groupID,
		SenderID:       senderID,
		Body:           &body,
		Status:         models.MessageStatusSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, msgs.Create(context.Background(), m))
	return m
}

func TestUserRepoUniqueness(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := NewSQLiteUserRepo(openTestDB(t).Conn)

	alice := seedUser(t, users, "alice")

	dup := *alice
	dup.ID = uuid.NewString()
	err := users.Create(ctx, &dup)
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)

	got, err := users.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	require.Equal(t, alice.ID, got.ID)

	_, err = users.GetByID(ctx, "missing")
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestUserRepoPresence(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	users := NewSQLiteUserRepo(openTestDB(t).Conn)
	alice := seedUser(t, users, "alice")

	require.NoError(t, users.SetOnline(ctx, alice.ID, true, time.Now().UTC()))
	got, err := users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.True(t, got.IsOnline)
	require.Nil(t, got.LastSeen)

	require.NoError(t, users.SetOnline(ctx, alice.ID, false, time.Now().UTC()))
	got, err = users.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	require.False(t, got.IsOnline)
	require.NotNil(t, got.LastSeen)
}

func TestFriendshipRepoOneRowPerPair(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	friends := NewSQLiteFriendshipRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	now := time.Now().UTC()

	req := &models.FriendRequest{
		ID: uuid.NewString(), SenderID: alice.ID, ReceiverID: bob.ID,
		Status: models.FriendRequestPending, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, friends.Create(ctx, req))

	reverse := &models.FriendRequest{
		ID: uuid.NewString(), SenderID: bob.ID, ReceiverID: alice.ID,
		Status: models.FriendRequestPending, CreatedAt: now, UpdatedAt: now,
	}
	require.ErrorIs(t, friends.Create(ctx, reverse), pkg.ErrAlreadyExists)

	incoming, err := friends.ListIncoming(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	require.Equal(t, alice.ID, incoming[0].User.ID)

	require.NoError(t, friends.UpdateStatus(ctx, req.ID, models.FriendRequestAccepted, now))

	ok, err := friends.AreFriends(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, ok)

	list, err := friends.ListFriends(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, bob.ID, list[0].ID)

	among, err := friends.FilterFriends(ctx, alice.ID, []string{bob.ID, "stranger"})
	require.NoError(t, err)
	require.Equal(t, map[string]bool{bob.ID: true}, among)
}

func TestFriendshipRepoBlockCycle(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	friends := NewSQLiteFriendshipRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	now := time.Now().UTC()

	req := &models.FriendRequest{
		ID: uuid.NewString(), SenderID: alice.ID, ReceiverID: bob.ID,
		Status: models.FriendRequestAccepted, CreatedAt: now, UpdatedAt: now,
	}
	require.NoError(t, friends.Create(ctx, req))

	require.NoError(t, friends.MarkPairBlocked(ctx, bob.ID, alice.ID, now))
	got, err := friends.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, models.FriendRequestBlocked, got.Status)

	require.NoError(t, friends.MarkPairUnblocked(ctx, alice.ID, bob.ID, now))
	got, err = friends.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.FriendRequestRejected, got.Status)

	require.NoError(t, friends.Reopen(ctx, req.ID, bob.ID, alice.ID, now))
	got, err = friends.GetByID(ctx, req.ID)
	require.NoError(t, err)
	require.Equal(t, models.FriendRequestPending, got.Status)
	require.Equal(t, bob.ID, got.SenderID)
}

func TestBlockRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	blocks := NewSQLiteBlockRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	b := &models.Block{ID: uuid.NewString(), BlockerID: alice.ID, BlockedID: bob.ID, CreatedAt: time.Now().UTC()}
	require.NoError(t, blocks.Create(ctx, b))

	dup := *b
	dup.ID = uuid.NewString()
	require.ErrorIs(t, blocks.Create(ctx, &dup), pkg.ErrAlreadyExists)

	// Engel tek yönlü kaydedilir, iki yönde de görünür.
	exists, err := blocks.ExistsBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.True(t, exists)

	byBob, err := blocks.IsBlockedBy(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.False(t, byBob)

	list, err := blocks.ListByBlocker(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, bob.ID, list[0].User.ID)

	require.ErrorIs(t, blocks.Delete(ctx, bob.ID, alice.ID), pkg.ErrNotFound)
	require.NoError(t, blocks.Delete(ctx, alice.ID, bob.ID))
}

func TestConversationRepoPairIsUnordered(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	c := seedConversation(t, convs, bob.ID, alice.ID)

	now := time.Now().UTC()
	dup := &models.Conversation{ID: uuid.NewString(), User1ID: alice.ID, User2ID: bob.ID, CreatedAt: now, UpdatedAt: now}
	require.ErrorIs(t, convs.Create(ctx, dup), pkg.ErrAlreadyExists)

	got, err := convs.GetByPair(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	require.NoError(t, convs.DeleteByPair(ctx, alice.ID, bob.ID))
	_, err = convs.GetByID(ctx, c.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestConversationRepoListForUser(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)
	msgs := NewSQLiteMessageRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	carol := seedUser(t, users, "carol")

	withBob := seedConversation(t, convs, alice.ID, bob.ID)
	withCarol := seedConversation(t, convs, alice.ID, carol.ID)

	seedMessage(t, msgs, &withBob.ID, nil, bob.ID, "hi")
	seedMessage(t, msgs, &withBob.ID, nil, bob.ID, "there")
	seedMessage(t, msgs, &withBob.ID, nil, alice.ID, "hello")
	require.NoError(t, convs.Touch(ctx, withBob.ID, time.Now().UTC().Add(time.Second)))

	page := models.PageRequest{Page: 1, Limit: 10}
	list, total, err := convs.ListForUser(ctx, alice.ID, page)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, list, 2)
	require.Equal(t, withBob.ID, list[0].ID)
	require.Equal(t, bob.ID, list[0].Participant.ID)
	require.Equal(t, 2, list[0].UnreadCount)
	require.Equal(t, withCarol.ID, list[1].ID)
	require.Equal(t, 0, list[1].UnreadCount)
}

func TestMessageRepoStatusOnlyAdvances(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)
	msgs := NewSQLiteMessageRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	c := seedConversation(t, convs, alice.ID, bob.ID)
	m := seedMessage(t, msgs, &c.ID, nil, alice.ID, "hi")
	now := time.Now().UTC()

	advanced, err := msgs.AdvanceStatus(ctx, m.ID, models.MessageStatusRead, now)
	require.NoError(t, err)
	require.True(t, advanced)

	advanced, err = msgs.AdvanceStatus(ctx, m.ID, models.MessageStatusDelivered, now)
	require.NoError(t, err)
	require.False(t, advanced)

	got, err := msgs.GetByID(ctx, m.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusRead, got.Status)
	require.Equal(t, "alice", got.Sender.Username)
}

func TestMessageRepoAdvanceConversationStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)
	msgs := NewSQLiteMessageRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	c := seedConversation(t, convs, alice.ID, bob.ID)

	first := seedMessage(t, msgs, &c.ID, nil, alice.ID, "one")
	second := seedMessage(t, msgs, &c.ID, nil, alice.ID, "two")
	own := seedMessage(t, msgs, &c.ID, nil, bob.ID, "mine")
	now := time.Now().UTC()

	_, err := msgs.AdvanceStatus(ctx, second.ID, models.MessageStatusRead, now)
	require.NoError(t, err)

	changes, err := msgs.AdvanceConversationStatus(ctx, c.ID, bob.ID, models.MessageStatusDelivered, now)
	require.NoError(t, err)
	require.Equal(t, []StatusChange{{MessageID: first.ID, SenderID: alice.ID}}, changes)

	got, err := msgs.GetByID(ctx, second.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusRead, got.Status)

	got, err = msgs.GetByID(ctx, own.ID)
	require.NoError(t, err)
	require.Equal(t, models.MessageStatusSent, got.Status)
}

func TestMessageRepoHideAndAttachment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)
	msgs := NewSQLiteMessageRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	c := seedConversation(t, convs, alice.ID, bob.ID)

	now := time.Now().UTC()
	withFile := &models.Message{
		ID:             uuid.NewString(),
		ConversationID: &c.ID,
		SenderID:       alice.ID,
		Attachment:     &models.Attachment{URL: "/api/uploads/a.png", Name: "a.png", MimeType: "image/png"},
		Status:         models.MessageStatusSent,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	require.NoError(t, msgs.Create(ctx, withFile))
	text := seedMessage(t, msgs, &c.ID, nil, bob.ID, "hi")

	require.NoError(t, msgs.Hide(ctx, withFile.ID, bob.ID, now))
	require.NoError(t, msgs.Hide(ctx, withFile.ID, bob.ID, now))

	forBob, err := msgs.ListByConversation(ctx, c.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, forBob, 1)
	require.Equal(t, text.ID, forBob[0].ID)

	forAlice, err := msgs.ListByConversation(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, forAlice, 2)
	require.Equal(t, withFile.ID, forAlice[0].ID)
	require.Nil(t, forAlice[0].Body)
	require.Equal(t, "image/png", forAlice[0].Attachment.MimeType)

	last, err := msgs.LastInConversation(ctx, c.ID, alice.ID)
	require.NoError(t, err)
	require.Equal(t, text.ID, last.ID)
}

func TestGroupRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	groups := NewSQLiteGroupRepo(db.Conn)
	msgs := NewSQLiteMessageRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	carol := seedUser(t, users, "carol")

	now := time.Now().UTC()
	g := &models.GroupConversation{ID: uuid.NewString(), Name: "trip", AdminID: alice.ID, CreatedAt: now, UpdatedAt: now}
	require.NoError(t, groups.Create(ctx, g, []string{alice.ID, bob.ID, carol.ID}))

	got, err := groups.GetByID(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, []string{alice.ID, bob.ID, carol.ID}, got.MemberIDs())

	require.ErrorIs(t, groups.AddMember(ctx, g.ID, bob.ID, now), pkg.ErrAlreadyExists)

	require.NoError(t, groups.RemoveMember(ctx, g.ID, alice.ID))
	oldest, err := groups.OldestMember(ctx, g.ID)
	require.NoError(t, err)
	require.Equal(t, bob.ID, oldest)

	m1 := seedMessage(t, msgs, nil, &g.ID, bob.ID, "one")
	m2 := seedMessage(t, msgs, nil, &g.ID, carol.ID, "two")

	page := models.PageRequest{Page: 1, Limit: 1}
	list, total, err := msgs.ListByGroup(ctx, g.ID, carol.ID, page)
	require.NoError(t, err)
	require.Equal(t, 2, total)
	require.Len(t, list, 1)
	require.Equal(t, m2.ID, list[0].ID)

	changes, err := msgs.MarkGroupMessagesRead(ctx, g.ID, carol.ID, []string{m1.ID, m2.ID}, now)
	require.NoError(t, err)
	require.Equal(t, []StatusChange{{MessageID: m1.ID, SenderID: bob.ID}}, changes)

	previews, total, err := groups.ListForUser(ctx, bob.ID, models.PageRequest{Page: 1, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, previews[0].Members, 2)
	require.Equal(t, 1, previews[0].UnreadCount)

	require.NoError(t, groups.Delete(ctx, g.ID))
	_, err = msgs.GetByID(ctx, m1.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestReactionRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	convs := NewSQLiteConversationRepo(db.Conn)
	msgs := NewSQLiteMessageRepo(db.Conn)
	reactions := NewSQLiteReactionRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	c := seedConversation(t, convs, alice.ID, bob.ID)
	m := seedMessage(t, msgs, &c.ID, nil, alice.ID, "hi")

	now := time.Now().UTC()
	rc := &models.Reaction{ID: uuid.NewString(), MessageID: m.ID, UserID: bob.ID, Emoji: "👍", CreatedAt: now}
	require.NoError(t, reactions.Create(ctx, rc))

	dup := *rc
	dup.ID = uuid.NewString()
	require.ErrorIs(t, reactions.Create(ctx, &dup), pkg.ErrAlreadyExists)

	byMsg, err := reactions.ListByMessageIDs(ctx, []string{m.ID, "other"})
	require.NoError(t, err)
	require.Len(t, byMsg[m.ID], 1)
	require.Equal(t, "bob", byMsg[m.ID][0].User.Username)

	// Mesaj silinince reaction'lar da gider.
	require.NoError(t, msgs.Delete(ctx, m.ID))
	_, err = reactions.GetByID(ctx, rc.ID)
	require.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestCallLogRepo(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	calls := NewSQLiteCallLogRepo(db.Conn)

	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")
	carol := seedUser(t, users, "carol")

	now := time.Now().UTC()
	for i, pair := range [][2]string{{alice.ID, bob.ID}, {bob.ID, alice.ID}, {alice.ID, carol.ID}} {
		l := &models.CallLog{
			ID: uuid.NewString(), CallerID: pair[0], ReceiverID: pair[1],
			CallType: models.CallTypeVoice, Duration: 10 * i, CreatedAt: now.Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, calls.Create(ctx, l))
	}

	all, err := calls.ListForUser(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, carol.ID, all[0].ReceiverID)

	between, err := calls.ListBetween(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	require.Len(t, between, 2)
	require.Equal(t, "bob", between[0].Caller.Username)
}

func TestReposWorkInsideTx(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	db := openTestDB(t)
	users := NewSQLiteUserRepo(db.Conn)
	alice := seedUser(t, users, "alice")
	bob := seedUser(t, users, "bob")

	err := database.WithTx(ctx, db.Conn, func(tx *sql.Tx) error {
		b := &models.Block{ID: uuid.NewString(), BlockerID: alice.ID, BlockedID: bob.ID, CreatedAt: time.Now().UTC()}
		if err := NewSQLiteBlockRepo(tx).Create(ctx, b); err != nil {
			return err
		}
		return pkg.ErrInternal
	})
	require.ErrorIs(t, err, pkg.ErrInternal)

	exists, err := NewSQLiteBlockRepo(db.Conn).ExistsBetween(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	require.False(t, exists)
}
