// Package services, business logic katmanıdır.
//
// Handler (HTTP) ile Repository (DB) arasında durur. Yetki kontrolleri,
// ilişki kapısı (engel), durum geçişleri ve bildirimler burada yaşar.
// Service'ler http.Request bilmez, SQL çalıştırmaz; repository interface'lerini
// ve ws.EventPublisher'ı kullanır.
package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/repository"
)

const (
	bcryptCost = 12
	jwtIssuer  = "sohbet"
)

// AuthService, kayıt, giriş, oturum ve profil işlemleri.
type AuthService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error)
	Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error)
	Logout(ctx context.Context, sessionID string) error

	// ValidateAccessToken, imzayı ve süresini kontrol eder, ardından oturumun
	// hâlâ var olduğunu doğrular. Logout edilmiş token geçersizdir.
	ValidateAccessToken(ctx context.Context, tokenString string) (*models.TokenClaims, error)

	GetUser(ctx context.Context, userID string) (*models.User, error)
	ListUsers(ctx context.Context, userID string) ([]models.UserSummary, error)
	UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error)
	UpdatePassword(ctx context.Context, userID string, req *models.UpdatePasswordRequest) error
	CleanupExpiredSessions(ctx context.Context) (int64, error)
}

// AuthResult, register/login yanıtı. Token cookie'ye de yazılır.
type AuthResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      *models.User `json:"user"`
}

type authService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	uploads     UploadService
	jwtSecret   []byte
	tokenExpiry time.Duration
}

func NewAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	uploads UploadService,
	jwtSecret string,
	tokenExpiry time.Duration,
) AuthService {
	return &authService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		uploads:     uploads,
		jwtSecret:   []byte(jwtSecret),
		tokenExpiry: tokenExpiry,
	}
}

func (s *authService) Register(ctx context.Context, req *models.RegisterRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	var email *string
	if req.Email != "" {
		email = &req.Email
	}

	now := time.Now().UTC()
	user := &models.User{
		ID:           uuid.NewString(),
		Fullname:     req.Fullname,
		Username:     req.Username,
		PasswordHash: string(hash),
		Gender:       req.Gender,
		ProfilePic:   models.DefaultProfilePic(req.Username, req.Gender),
		Email:        email,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err // ErrAlreadyExists olabilir
	}

	return s.issueToken(ctx, user)
}

func (s *authService) Login(ctx context.Context, req *models.LoginRequest) (*AuthResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, fmt.Errorf("%w: invalid username or password", pkg.ErrUnauthorized)
	}

	return s.issueToken(ctx, user)
}

// Logout, oturumu siler. Oturum zaten yoksa hata değil.
func (s *authService) Logout(ctx context.Context, sessionID string) error {
	return s.sessionRepo.DeleteByID(ctx, sessionID)
}

func (s *authService) ValidateAccessToken(ctx context.Context, tokenString string) (*models.TokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &models.TokenClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	}, jwt.WithIssuer(jwtIssuer))
	if err != nil {
		return nil, fmt.Errorf("%w: invalid token", pkg.ErrUnauthorized)
	}

	claims, ok := token.Claims.(*models.TokenClaims)
	if !ok || !token.Valid || claims.ID == "" {
		return nil, fmt.Errorf("%w: invalid token claims", pkg.ErrUnauthorized)
	}

	session, err := s.sessionRepo.GetByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, pkg.ErrNotFound) {
			return nil, fmt.Errorf("%w: session expired", pkg.ErrUnauthorized)
		}
		return nil, err
	}
	if session.UserID != claims.UserID || time.Now().After(session.ExpiresAt) {
		return nil, fmt.Errorf("%w: session expired", pkg.ErrUnauthorized)
	}

	return claims, nil
}

func (s *authService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	return s.userRepo.GetByID(ctx, userID)
}

// ListUsers, kullanıcının kendisi hariç herkesi döner (kenar çubuğu).
func (s *authService) ListUsers(ctx context.Context, userID string) ([]models.UserSummary, error) {
	return s.userRepo.ListExcept(ctx, userID)
}

// UpdateProfile, sadece gönderilen alanları değiştirir.
// Yeni profil resmi kaydedilirse eski yerel dosya silinir.
func (s *authService) UpdateProfile(ctx context.Context, userID string, req *models.UpdateProfileRequest) (*models.User, error) {
	if req.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", pkg.ErrBadRequest)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	oldPic := user.ProfilePic

	if req.Fullname != nil {
		user.Fullname = *req.Fullname
	}
	if req.Username != nil {
		user.Username = *req.Username
	}
	if req.Gender != nil {
		user.Gender = *req.Gender
	}
	if req.Email != nil {
		if *req.Email == "" {
			user.Email = nil
		} else {
			user.Email = req.Email
		}
	}
	if req.ProfilePic != nil {
		user.ProfilePic = *req.ProfilePic
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}

	if req.ProfilePic != nil && oldPic != user.ProfilePic {
		s.uploads.Remove(oldPic)
	}
	return user, nil
}

func (s *authService) UpdatePassword(ctx context.Context, userID string, req *models.UpdatePasswordRequest) error {
	if err := req.Validate(); err != nil {
		return fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.OldPassword)); err != nil {
		return fmt.Errorf("%w: current password is incorrect", pkg.ErrBadRequest)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	return s.userRepo.UpdatePassword(ctx, userID, string(hash), time.Now().UTC())
}

func (s *authService) CleanupExpiredSessions(ctx context.Context) (int64, error) {
	return s.sessionRepo.DeleteExpired(ctx, time.Now().UTC())
}

// issueToken, yeni bir oturum açar ve jti = session ID olan access token imzalar.
func (s *authService) issueToken(ctx context.Context, user *models.User) (*AuthResult, error) {
	now := time.Now().UTC()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokenExpiry),
		CreatedAt: now,
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		return nil, err
	}

	claims := &models.TokenClaims{
		UserID:   user.ID,
		Username: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        session.ID,
			Subject:   user.ID,
			Issuer:    jwtIssuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(session.ExpiresAt),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.jwtSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	return &AuthResult{Token: signed, ExpiresAt: session.ExpiresAt, User: user}, nil
}
