package services

import (
	"context"
	"mime/multipart"
	"net/textproto"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg/cache"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/ws"
)

type sentEvent struct {
	userID string
	event  ws.Event
}

// fakePublisher, gönderilen event'leri kaydeder.
type fakePublisher struct {
	mu     sync.Mutex
	events []sentEvent
}

var _ ws.EventPublisher = (*fakePublisher)(nil)

func (f *fakePublisher) BroadcastToUser(userID string, event ws.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, sentEvent{userID: userID, event: event})
}

func (f *fakePublisher) BroadcastToUsers(userIDs []string, event ws.Event) {
	for _, id := range userIDs {
		f.BroadcastToUser(id, event)
	}
}

func (f *fakePublisher) IsUserOnline(string) bool   { return false }
func (f *fakePublisher) GetOnlineUserIDs() []string { return nil }

// to, userID'ye giden op tipindeki event'ler.
func (f *fakePublisher) to(userID, op string) []ws.Event {
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []ws.Event
	for _, e := range f.events {
		if e.userID == userID && e.event.Op == op {
			out = append(out, e.event)
		}
	}
	return out
}

func (f *fakePublisher) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = nil
}

type testEnv struct {
	db  *database.DB
	hub *fakePublisher

	users    repository.UserRepository
	friends  repository.FriendshipRepository
	convs    repository.ConversationRepository
	messages repository.MessageRepository
	groups   repository.GroupRepository

	relationships RelationshipService
	conversations ConversationService
	friendships   FriendshipService
	messaging     MessageService
	groupSvc      GroupService
	reactions     ReactionService
	calls         CallService
	presence      PresenceService

	uploads   UploadService
	uploadDir string
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gate := cache.New[string, bool](time.Minute, time.Minute)
	t.Cleanup(gate.Close)

	env := &testEnv{
		db:       db,
		hub:      &fakePublisher{},
		users:    repository.NewSQLiteUserRepo(db.Conn),
		friends:  repository.NewSQLiteFriendshipRepo(db.Conn),
		convs:    repository.NewSQLiteConversationRepo(db.Conn),
		messages: repository.NewSQLiteMessageRepo(db.Conn),
		groups:   repository.NewSQLiteGroupRepo(db.Conn),
	}
	reactionRepo := repository.NewSQLiteReactionRepo(db.Conn)
	env.uploadDir = t.TempDir()
	uploads := NewUploadService(env.uploadDir, 1<<20, zap.NewNop())
	env.uploads = uploads

	env.relationships = NewRelationshipService(db.Conn, repository.NewSQLiteBlockRepo(db.Conn), env.users, uploads, gate)
	env.conversations = NewConversationService(env.convs, env.messages)
	env.friendships = NewFriendshipService(env.friends, env.users, env.relationships, env.conversations, env.hub)
	env.messaging = NewMessageService(db.Conn, env.messages, reactionRepo, env.users, env.convs, env.groups,
		env.relationships, env.conversations, uploads, env.hub)
	env.groupSvc = NewGroupService(db.Conn, env.groups, env.messages, env.friends, env.users, env.relationships, env.uploads, env.hub)
	env.reactions = NewReactionService(reactionRepo, env.messages, env.convs, env.groups, env.hub)
	env.calls = NewCallService(repository.NewSQLiteCallLogRepo(db.Conn), env.users, env.relationships, env.hub,
		config.LiveKitConfig{URL: "ws://localhost:7880", APIKey: "devkey", APISecret: "devsecret-devsecret-devsecret-00"})
	env.presence = NewPresenceService(env.users, env.friends, env.hub)
	return env
}

func (e *testEnv) user(t *testing.T, username string) *models.User {
	t.Helper()

	now := time.Now().UTC()
	u := &models.User{
		ID:           uuid.NewString(),
		Fullname:     username + " test",
		Username:     username,
		PasswordHash: "hash",
		Gender:       models.GenderMale,
		ProfilePic:   models.DefaultProfilePic(username, models.GenderMale),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	require.NoError(t, e.users.Create(context.Background(), u))
	return u
}

func (e *testEnv) befriend(t *testing.T, a, b *models.User) {
	t.Helper()
	ctx := context.Background()

	fr, err := e.friendships.SendRequest(ctx, a.ID, &models.SendFriendRequestRequest{ReceiverID: b.ID})
	require.NoError(t, err)
	_, err = e.friendships.AcceptRequest(ctx, b.ID, &models.RespondFriendRequestRequest{RequestID: fr.ID})
	require.NoError(t, err)
}

// attachment, upload dizinine gerçek bir PDF yazar.
func (e *testEnv) attachment(t *testing.T, name string) *models.Attachment {
	t.Helper()

	content := "%PDF-1.4"
	header := &multipart.FileHeader{
		Filename: name,
		Header:   textproto.MIMEHeader{"Content-Type": {"application/pdf"}},
		Size:     int64(len(content)),
	}
	att, err := e.uploads.Save(strings.NewReader(content), header, UploadAttachment)
	require.NoError(t, err)
	require.FileExists(t, e.uploadPath(att.URL))
	return att
}

func (e *testEnv) uploadPath(url string) string {
	return filepath.Join(e.uploadDir, strings.TrimPrefix(url, UploadURLPrefix))
}

func text(body string) *models.SendMessageInput {
	return &models.SendMessageInput{Body: body}
}
