// Package main — Service katmanı başlatma.
//
// Sıralama: relationships ve conversations, onları kullanan friendship,
// message ve group service'lerinden önce oluşturulur.
package main

import (
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/pkg/cache"
	"github.com/akinalp/sohbet/pkg/email"
	"github.com/akinalp/sohbet/pkg/ratelimit"
	"github.com/akinalp/sohbet/services"
	"github.com/akinalp/sohbet/ws"
)

// Services, tüm service instance'larını tutan container struct.
type Services struct {
	Auth          services.AuthService
	PasswordReset services.PasswordResetService
	Presence      services.PresenceService
	Upload        services.UploadService
	Relationship  services.RelationshipService
	Conversation  services.ConversationService
	Friendship    services.FriendshipService
	Message       services.MessageService
	Group         services.GroupService
	Reaction      services.ReactionService
	Call          services.CallService

	LoginLimiter   *ratelimit.Limiter
	MessageLimiter *ratelimit.Limiter
	InteractGate   *cache.TTLCache[string, bool]
}

func initServices(db *sql.DB, repos *Repositories, hub *ws.Hub, cfg *config.Config, logger *zap.Logger) *Services {
	// E-posta: Resend key yoksa gönderim yapılmaz, reset token yine üretilir.
	var sender email.EmailSender = email.NoopSender{}
	if cfg.Email.ResendAPIKey != "" {
		sender = email.NewResendSender(cfg.Email.ResendAPIKey, cfg.Email.FromAddress, cfg.Email.AppURL)
	} else {
		logger.Warn("RESEND_API_KEY not set, password reset emails are disabled")
	}

	// Engel durumu 30 sn cache'lenir; Block/Unblock kendi çiftini hemen siler.
	gate := cache.New[string, bool](30*time.Second, time.Minute)

	upload := services.NewUploadService(cfg.Upload.Dir, cfg.Upload.MaxSize, logger)
	relationships := services.NewRelationshipService(db, repos.Block, repos.User, upload, gate)
	conversations := services.NewConversationService(repos.Conversation, repos.Message)

	return &Services{
		Auth:          services.NewAuthService(repos.User, repos.Session, upload, cfg.JWT.Secret, cfg.JWT.Expiry()),
		PasswordReset: services.NewPasswordResetService(repos.User, repos.ResetToken, repos.Session, sender, logger),
		Presence:      services.NewPresenceService(repos.User, repos.Friendship, hub),
		Upload:        upload,
		Relationship:  relationships,
		Conversation:  conversations,
		Friendship:    services.NewFriendshipService(repos.Friendship, repos.User, relationships, conversations, hub),
		Message: services.NewMessageService(db, repos.Message, repos.Reaction, repos.User, repos.Conversation,
			repos.Group, relationships, conversations, upload, hub),
		Group:    services.NewGroupService(db, repos.Group, repos.Message, repos.Friendship, repos.User, relationships, upload, hub),
		Reaction: services.NewReactionService(repos.Reaction, repos.Message, repos.Conversation, repos.Group, hub),
		Call:     services.NewCallService(repos.CallLog, repos.User, relationships, hub, cfg.LiveKit),

		LoginLimiter: ratelimit.NewLoginLimiter(cfg.RateLimit.LoginAttempts, cfg.RateLimit.LoginWindow),
		MessageLimiter: ratelimit.NewMessageLimiter(cfg.RateLimit.MessageCount, cfg.RateLimit.MessageWindow,
			cfg.RateLimit.MessageCooldown),
		InteractGate: gate,
	}
}

// Close, arka plan temizlik goroutine'lerini durdurur.
func (s *Services) Close() {
	s.LoginLimiter.Close()
	s.MessageLimiter.Close()
	s.InteractGate.Close()
}
