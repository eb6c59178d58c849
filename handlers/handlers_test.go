package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/database"
	"github.com/akinalp/sohbet/handlers"
	"github.com/akinalp/sohbet/middleware"
	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg/cache"
	"github.com/akinalp/sohbet/pkg/email"
	"github.com/akinalp/sohbet/pkg/ratelimit"
	"github.com/akinalp/sohbet/repository"
	"github.com/akinalp/sohbet/services"
	"github.com/akinalp/sohbet/ws"
)

type nopPublisher struct{}

func (nopPublisher) BroadcastToUser(string, ws.Event) {}
func (nopPublisher) BroadcastToUsers([]string, ws.Event) {}
func (nopPublisher) IsUserOnline(string) bool { return false }
func (nopPublisher) GetOnlineUserIDs() []string { return nil }

type testServer struct {
	router        *mux.Router
	friendships   services.FriendshipService
	relationships services.RelationshipService
	uploadDir     string
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
	Details map[string]any  `json:"details"`
}

func newTestServer(t *testing.T, loginAttempts, messageCount int) *testServer {
	t.Helper()
	ctx := context.Background()

	db, err := database.New(ctx, database.MemoryPath, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gate := cache.New[string, bool](time.Minute, time.Minute)
	loginLimiter := ratelimit.NewLoginLimiter(loginAttempts, time.Minute)
	messageLimiter := ratelimit.NewMessageLimiter(messageCount, time.Minute, time.Minute)
	t.Cleanup(func() {
		gate.Close()
		loginLimiter.Close()
		messageLimiter.Close()
	})

	hub := nopPublisher{}
	users := repository.NewSQLiteUserRepo(db.Conn)
	sessions := repository.NewSQLiteSessionRepo(db.Conn)
	friends := repository.NewSQLiteFriendshipRepo(db.Conn)
	convs := repository.NewSQLiteConversationRepo(db.Conn)
	groups := repository.NewSQLiteGroupRepo(db.Conn)
	messages := repository.NewSQLiteMessageRepo(db.Conn)
	reactions := repository.NewSQLiteReactionRepo(db.Conn)

	uploadDir := t.TempDir()
	uploads := services.NewUploadService(uploadDir, 1<<20, zap.NewNop())
	auth := services.NewAuthService(users, sessions, uploads, "handler-test-secret-handler-test", time.Hour)
	resets := services.NewPasswordResetService(users, repository.NewSQLiteResetTokenRepo(db.Conn), sessions,
		email.NoopSender{}, zap.NewNop())
	presence := services.NewPresenceService(users, friends, hub)
	relationships := services.NewRelationshipService(db.Conn, repository.NewSQLiteBlockRepo(db.Conn), users, uploads, gate)
	conversations := services.NewConversationService(convs, messages)
	friendships := services.NewFriendshipService(friends, users, relationships, conversations, hub)
	messaging := services.NewMessageService(db.Conn, messages, reactions, users, convs, groups,
		relationships, conversations, uploads, hub)
	groupSvc := services.NewGroupService(db.Conn, groups, messages, friends, users, relationships, uploads, hub)
	calls := services.NewCallService(repository.NewSQLiteCallLogRepo(db.Conn), users, relationships, hub,
		config.LiveKitConfig{})

	authH := handlers.NewAuthHandler(auth, resets, presence, uploads, loginLimiter, false, 1<<20)
	messageH := handlers.NewMessageHandler(messaging, conversations, uploads, messageLimiter, 1<<20)
	groupH := handlers.NewGroupHandler(groupSvc, messaging, uploads, messageLimiter, 1<<20)
	callH := handlers.NewCallHandler(calls)
	healthH := handlers.NewHealthHandler(db.Conn)

	router := mux.NewRouter()
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", healthH.Check).Methods(http.MethodGet)
	api.HandleFunc("/register", authH.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", authH.Login).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", authH.ForgotPassword).Methods(http.MethodPost)

	p := api.NewRoute().Subrouter()
	p.Use(middleware.NewAuthMiddleware(auth, handlers.AuthCookieName).Require)
	p.HandleFunc("/logout", authH.Logout).Methods(http.MethodDelete)
	p.HandleFunc("/get-user", authH.GetUser).Methods(http.MethodGet)
	p.HandleFunc("/message/{id}", messageH.Send).Methods(http.MethodPost)
	p.HandleFunc("/message/{id}", messageH.History).Methods(http.MethodGet)
	p.HandleFunc("/conversations", messageH.Inbox).Methods(http.MethodGet)
	p.HandleFunc("/create/group", groupH.Create).Methods(http.MethodPost)
	p.HandleFunc("/calls/{receiverId}/token", callH.Token).Methods(http.MethodPost)

	return &testServer{router: router, friendships: friendships, relationships: relationships, uploadDir: uploadDir}
}

func (s *testServer) do(t *testing.T, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return rec, env
}

func jsonRequest(t *testing.T, method, path, token string, body any) *http.Request {
	t.Helper()

	var r io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, r)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return req
}

type registered struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

func (s *testServer) register(t *testing.T, username string) registered {
	t.Helper()

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/register", "", map[string]string{
		"fullname":         "Test " + username,
		"username":         username,
		"password":         "secret1",
		"confirm_password": "secret1",
		"gender":           "male",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var out registered
	require.NoError(t, json.Unmarshal(env.Data, &out))
	return out
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)

	rec, env := s.do(t, jsonRequest(t, http.MethodGet, "/api/health", "", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, env.Success)
}

func TestRegisterSetsCookieAndAuthenticates(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/register", "", map[string]string{
		"fullname": "Alice", "username": "alice", "password": "secret1",
		"confirm_password": "secret1", "gender": "female",
	}))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == handlers.AuthCookieName {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	require.True(t, cookie.HttpOnly)

	// Cookie ile
	req := jsonRequest(t, http.MethodGet, "/api/get-user", "", nil)
	req.AddCookie(&http.Cookie{Name: handlers.AuthCookieName, Value: cookie.Value})
	rec, env = s.do(t, req)
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var me models.User
	require.NoError(t, json.Unmarshal(env.Data, &me))
	require.Equal(t, "alice", me.Username)

	// Token yok
	rec, _ = s.do(t, jsonRequest(t, http.MethodGet, "/api/get-user", "", nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	// Bozuk header
	req = jsonRequest(t, http.MethodGet, "/api/get-user", "", nil)
	req.Header.Set("Authorization", "Token abc")
	rec, _ = s.do(t, req)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)
	alice := s.register(t, "alice")

	rec, env := s.do(t, jsonRequest(t, http.MethodDelete, "/api/logout", alice.Token, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	rec, _ = s.do(t, jsonRequest(t, http.MethodGet, "/api/get-user", alice.Token, nil))
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 2, 10)
	s.register(t, "alice")

	wrong := map[string]string{"username": "alice", "password": "nope"}
	for range 2 {
		rec, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/login", "", wrong))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	}

	rec, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/login", "", wrong))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestForgotPasswordDoesNotLeakAccounts(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/forgot-password", "",
		map[string]string{"email": "nobody@example.com"}))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
	require.True(t, env.Success)
}

func TestSendMessageJSONAndMultipart(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/message/"+bob.User.ID, alice.Token,
		map[string]string{"message": "selam"}))
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	// Multipart: metin + ek
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", "dosya"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="a.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/message/"+bob.User.ID, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	rec, env = s.do(t, req)
	require.Equal(t, http.StatusCreated, rec.Code, env.Error)

	var msg models.Message
	require.NoError(t, json.Unmarshal(env.Data, &msg))
	require.NotNil(t, msg.Attachment)
	require.Equal(t, "application/pdf", msg.Attachment.MimeType)

	rec, env = s.do(t, jsonRequest(t, http.MethodGet, "/api/message/"+alice.User.ID, bob.Token, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)

	var history []models.Message
	require.NoError(t, json.Unmarshal(env.Data, &history))
	require.Len(t, history, 2)

	rec, env = s.do(t, jsonRequest(t, http.MethodGet, "/api/conversations", bob.Token, nil))
	require.Equal(t, http.StatusOK, rec.Code, env.Error)
}

func pdfForm(t *testing.T, message string) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("message", message))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="a.pdf"`)
	h.Set("Content-Type", "application/pdf")
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.4"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestSendToBlockerDiscardsUpload(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	_, err := s.relationships.Block(context.Background(), bob.User.ID, &models.BlockRequest{UserID: alice.User.ID})
	require.NoError(t, err)

	body, contentType := pdfForm(t, "dosya")
	req := httptest.NewRequest(http.MethodPost, "/api/message/"+bob.User.ID, body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+alice.Token)
	rec, env := s.do(t, req)
	require.Equal(t, http.StatusForbidden, rec.Code, env.Error)

	entries, err := os.ReadDir(s.uploadDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestSendMessageValidationAndRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 2)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	path := "/api/message/" + bob.User.ID

	rec, _ := s.do(t, jsonRequest(t, http.MethodPost, path, alice.Token, map[string]string{"message": "  "}))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPost, path, alice.Token, map[string]string{"message": "bir"}))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, jsonRequest(t, http.MethodPost, path, alice.Token, map[string]string{"message": "iki"}))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))

	// Bilinmeyen alıcı
	rec, _ = s.do(t, jsonRequest(t, http.MethodGet, "/api/message/missing", alice.Token, nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateGroupReportsInvalidMembers(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)
	ctx := context.Background()
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")
	carol := s.register(t, "carol")

	fr, err := s.friendships.SendRequest(ctx, alice.User.ID, &models.SendFriendRequestRequest{ReceiverID: bob.User.ID})
	require.NoError(t, err)
	_, err = s.friendships.AcceptRequest(ctx, bob.User.ID, &models.RespondFriendRequestRequest{RequestID: fr.ID})
	require.NoError(t, err)

	rec, env := s.do(t, jsonRequest(t, http.MethodPost, "/api/create/group", alice.Token, map[string]any{
		"name":    "ekip",
		"members": []string{bob.User.ID, carol.User.ID},
	}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.False(t, env.Success)
	require.Equal(t, []any{carol.User.ID}, env.Details["invalid_members"])
}

func TestCallTokenWithoutLiveKit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, 5, 10)
	alice := s.register(t, "alice")
	bob := s.register(t, "bob")

	rec, _ := s.do(t, jsonRequest(t, http.MethodPost, "/api/calls/"+bob.User.ID+"/token", alice.Token,
		map[string]string{"call_type": "video"}))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
