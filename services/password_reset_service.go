package services

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/email"
	"github.com/akinalp/sohbet/repository"
)

const (
	resetTokenTTL      = email.ResetLinkTTLMinutes * time.Minute
	resetEmailCooldown = 90 * time.Second
)

// PasswordResetService, e-posta ile şifre sıfırlama.
//
// Kayıtlı olmayan adres için de aynı yanıt döner. Aynı kullanıcıya
// resetEmailCooldown içinde ikinci e-posta gitmez.
type PasswordResetService interface {
	// Forgot, cooldown aktifse kalan saniyeyi döner, aksi halde 0.
	Forgot(ctx context.Context, req *models.ForgotPasswordRequest) (int, error)
	Reset(ctx context.Context, req *models.ResetPasswordRequest) error
	CleanupExpired(ctx context.Context) (int64, error)
}

type passwordResetService struct {
	userRepo    repository.UserRepository
	resetRepo   repository.PasswordResetRepository
	sessionRepo repository.SessionRepository
	sender      email.EmailSender
	logger      *zap.Logger
}

func NewPasswordResetService(
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	sessionRepo repository.SessionRepository,
	sender email.EmailSender,
	logger *zap.Logger,
) PasswordResetService {
	return &passwordResetService{
		userRepo:    userRepo,
		resetRepo:   resetRepo,
		sessionRepo: sessionRepo,
		sender:      sender,
		logger:      logger.Named("password_reset"),
	}
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func (s *passwordResetService) Forgot(ctx context.Context, req *models.ForgotPasswordRequest) (int, error) {
	if err := req.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return 0, nil
		}
		return 0, err
	}

	now := time.Now().UTC()
	latest, err := s.resetRepo.GetLatestByUserID(ctx, user.ID)
	if err != nil && !errors.Is(err, pkg.ErrNotFound) {
		return 0, err
	}
	if latest != nil {
		if wait := latest.CreatedAt.Add(resetEmailCooldown).Sub(now); wait > 0 {
			return int(wait.Seconds()) + 1, nil
		}
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return 0, fmt.Errorf("failed to generate reset token: %w", err)
	}
	token := hex.EncodeToString(raw)

	// Eski linkler geçersiz olsun.
	if err := s.resetRepo.DeleteByUserID(ctx, user.ID); err != nil {
		return 0, err
	}
	if err := s.resetRepo.Create(ctx, &models.PasswordResetToken{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		TokenHash: hashResetToken(token),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}); err != nil {
		return 0, err
	}

	if err := s.sender.SendPasswordReset(ctx, *user.Email, token); err != nil {
		s.logger.Error("failed to send password reset email", zap.String("user_id", user.ID), zap.Error(err))
		return 0, fmt.Errorf("%w: could not send reset email", pkg.ErrInternal)
	}
	return 0, nil
}

// Reset, token'ı tüketir, şifreyi değiştirir ve kullanıcının tüm oturumlarını kapatır.
func (s *passwordResetService) Reset(ctx context.Context, req *models.ResetPasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	t, err := s.resetRepo.GetByTokenHash(ctx, hashResetToken(req.Token))
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return fmt.Errorf("%w: invalid or expired reset link", pkg.ErrBadRequest)
		}
		return err
	}
	if time.Now().UTC().After(t.ExpiresAt) {
		_ = s.resetRepo.DeleteByUserID(ctx, t.UserID)
		return fmt.Errorf("%w: invalid or expired reset link", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, t.UserID, string(hash), time.Now().UTC()); err != nil {
		return err
	}

	if err := s.resetRepo.DeleteByUserID(ctx, t.UserID); err != nil {
		return err
	}
	return s.sessionRepo.DeleteByUserID(ctx, t.UserID)
}

func (s *passwordResetService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.resetRepo.DeleteExpired(ctx, time.Now().UTC())
}
