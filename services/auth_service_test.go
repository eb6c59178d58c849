package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/email"
	"github.com/akinalp/sohbet/repository"
)

const testSecret = "test-secret-test-secret-test-sec"

func newAuth(t *testing.T, env *testEnv) AuthService {
	t.Helper()
	return NewAuthService(
		env.users,
		repository.NewSQLiteSessionRepo(env.db.Conn),
		NewUploadService(t.TempDir(), 1<<20, zap.NewNop()),
		testSecret,
		time.Hour,
	)
}

func register(t *testing.T, auth AuthService, username, mail string) *AuthResult {
	t.Helper()

	res, err := auth.Register(context.Background(), &models.RegisterRequest{
		Fullname:        "Test " + username,
		Username:        username,
		Password:        "secret1",
		ConfirmPassword: "secret1",
		Gender:          models.GenderFemale,
		Email:           mail,
	})
	require.NoError(t, err)
	return res
}

func TestRegisterLoginLogout(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	auth := newAuth(t, env)
	ctx := context.Background()

	res := register(t, auth, "alice", "")
	require.NotEmpty(t, res.Token)
	require.Equal(t, models.DefaultProfilePic("alice", models.GenderFemale), res.User.ProfilePic)

	_, err := auth.Register(ctx, &models.RegisterRequest{
		Fullname: "Other", Username: "alice", Password: "secret1", ConfirmPassword: "secret1", Gender: models.GenderMale,
	})
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)

	_, err = auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "wrong"})
	require.ErrorIs(t, err, pkg.ErrUnauthorized)
	_, err = auth.Login(ctx, &models.LoginRequest{Username: "nobody", Password: "secret1"})
	require.ErrorIs(t, err, pkg.ErrUnauthorized)

	login, err := auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret1"})
	require.NoError(t, err)

	claims, err := auth.ValidateAccessToken(ctx, login.Token)
	require.NoError(t, err)
	require.Equal(t, res.User.ID, claims.UserID)

	_, err = auth.ValidateAccessToken(ctx, login.Token+"x")
	require.ErrorIs(t, err, pkg.ErrUnauthorized)

	// Logout sadece o oturumu kapatır.
	require.NoError(t, auth.Logout(ctx, claims.ID))
	_, err = auth.ValidateAccessToken(ctx, login.Token)
	require.ErrorIs(t, err, pkg.ErrUnauthorized)
	_, err = auth.ValidateAccessToken(ctx, res.Token)
	require.NoError(t, err)
}

func TestUpdateProfileAndPassword(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	auth := newAuth(t, env)
	ctx := context.Background()

	res := register(t, auth, "alice", "alice@example.com")
	register(t, auth, "bob", "")

	_, err := auth.UpdateProfile(ctx, res.User.ID, &models.UpdateProfileRequest{})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	taken := "bob"
	_, err = auth.UpdateProfile(ctx, res.User.ID, &models.UpdateProfileRequest{Username: &taken})
	require.ErrorIs(t, err, pkg.ErrAlreadyExists)

	fullname, clear := "Alice Yılmaz", ""
	user, err := auth.UpdateProfile(ctx, res.User.ID, &models.UpdateProfileRequest{Fullname: &fullname, Email: &clear})
	require.NoError(t, err)
	require.Equal(t, fullname, user.Fullname)
	require.Nil(t, user.Email)
	require.Equal(t, "alice", user.Username)

	err = auth.UpdatePassword(ctx, res.User.ID, &models.UpdatePasswordRequest{OldPassword: "nope12", NewPassword: "secret2"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	require.NoError(t, auth.UpdatePassword(ctx, res.User.ID, &models.UpdatePasswordRequest{OldPassword: "secret1", NewPassword: "secret2"}))

	_, err = auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret2"})
	require.NoError(t, err)

	users, err := auth.ListUsers(ctx, res.User.ID)
	require.NoError(t, err)
	require.Len(t, users, 1)
	require.Equal(t, "bob", users[0].Username)
}

// fakeSender, gönderilen son token'ı saklar.
type fakeSender struct {
	mu    sync.Mutex
	to    string
	token string
	sent  int
}

var _ email.EmailSender = (*fakeSender)(nil)

func (f *fakeSender) SendPasswordReset(_ context.Context, toEmail, token string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.to, f.token = toEmail, token
	f.sent++
	return nil
}

func TestPasswordReset(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	auth := newAuth(t, env)
	ctx := context.Background()

	res := register(t, auth, "alice", "alice@example.com")

	sender := &fakeSender{}
	sessions := repository.NewSQLiteSessionRepo(env.db.Conn)
	resets := NewPasswordResetService(env.users, repository.NewSQLiteResetTokenRepo(env.db.Conn), sessions, sender, zap.NewNop())

	// Kayıtlı olmayan adres: hata yok, e-posta yok.
	wait, err := resets.Forgot(ctx, &models.ForgotPasswordRequest{Email: "nobody@example.com"})
	require.NoError(t, err)
	require.Zero(t, wait)
	require.Zero(t, sender.sent)

	wait, err = resets.Forgot(ctx, &models.ForgotPasswordRequest{Email: "alice@example.com"})
	require.NoError(t, err)
	require.Zero(t, wait)
	require.Equal(t, 1, sender.sent)
	require.Equal(t, "alice@example.com", sender.to)

	wait, err = resets.Forgot(ctx, &models.ForgotPasswordRequest{Email: "alice@example.com"})
	require.NoError(t, err)
	require.Positive(t, wait)
	require.Equal(t, 1, sender.sent)

	err = resets.Reset(ctx, &models.ResetPasswordRequest{Token: "bogus", NewPassword: "secret9"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)

	require.NoError(t, resets.Reset(ctx, &models.ResetPasswordRequest{Token: sender.token, NewPassword: "secret9"}))

	// Token tek kullanımlık, eski oturumlar kapandı.
	err = resets.Reset(ctx, &models.ResetPasswordRequest{Token: sender.token, NewPassword: "secret8"})
	require.ErrorIs(t, err, pkg.ErrBadRequest)
	_, err = auth.ValidateAccessToken(ctx, res.Token)
	require.ErrorIs(t, err, pkg.ErrUnauthorized)

	_, err = auth.Login(ctx, &models.LoginRequest{Username: "alice", Password: "secret9"})
	require.NoError(t, err)
}
