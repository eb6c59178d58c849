// Package main — Handler katmanı başlatma.
package main

import (
	"database/sql"

	"github.com/akinalp/sohbet/config"
	"github.com/akinalp/sohbet/handlers"
	"github.com/akinalp/sohbet/ws"
)

// Handlers, tüm handler instance'larını tutan container struct.
type Handlers struct {
	Auth       *handlers.AuthHandler
	Friendship *handlers.FriendshipHandler
	Block      *handlers.BlockHandler
	Message    *handlers.MessageHandler
	Group      *handlers.GroupHandler
	Reaction   *handlers.ReactionHandler
	Call       *handlers.CallHandler
	Health     *handlers.HealthHandler
	WS         *ws.Handler
}

func initHandlers(db *sql.DB, svcs *Services, hub *ws.Hub, cfg *config.Config) *Handlers {
	maxUpload := cfg.Upload.MaxSize

	return &Handlers{
		Auth: handlers.NewAuthHandler(svcs.Auth, svcs.PasswordReset, svcs.Presence, svcs.Upload,
			svcs.LoginLimiter, cfg.JWT.CookieSecure, maxUpload),
		Friendship: handlers.NewFriendshipHandler(svcs.Friendship),
		Block:      handlers.NewBlockHandler(svcs.Relationship),
		Message: handlers.NewMessageHandler(svcs.Message, svcs.Conversation, svcs.Upload,
			svcs.MessageLimiter, maxUpload),
		Group: handlers.NewGroupHandler(svcs.Group, svcs.Message, svcs.Upload,
			svcs.MessageLimiter, maxUpload),
		Reaction: handlers.NewReactionHandler(svcs.Reaction),
		Call:     handlers.NewCallHandler(svcs.Call),
		Health:   handlers.NewHealthHandler(db),
		WS:       ws.NewHandler(hub, svcs.Auth, handlers.AuthCookieName, cfg.Server.CORSOrigins),
	}
}
