// Package main — HTTP route registration.
package main

import (
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/akinalp/sohbet/handlers"
	"github.com/akinalp/sohbet/middleware"
	"github.com/akinalp/sohbet/services"
)

// initRoutes, tüm endpoint'leri router'a bağlar.
//
// Literal path'ler parametrik olanlardan önce kaydedilir:
// "/calls/history" → "/calls/{receiverId}" öncesinde.
func initRoutes(router *mux.Router, h *Handlers, authService services.AuthService, uploadDir string) {
	authMw := middleware.NewAuthMiddleware(authService, handlers.AuthCookieName)

	api := router.PathPrefix("/api").Subrouter()

	// ─── Public ───
	api.HandleFunc("/health", h.Health.Check).Methods(http.MethodGet)
	api.HandleFunc("/register", h.Auth.Register).Methods(http.MethodPost)
	api.HandleFunc("/login", h.Auth.Login).Methods(http.MethodPost)
	api.HandleFunc("/forgot-password", h.Auth.ForgotPassword).Methods(http.MethodPost)
	api.HandleFunc("/reset-password", h.Auth.ResetPassword).Methods(http.MethodPost)
	api.PathPrefix("/uploads/").Handler(uploadsHandler(uploadDir)).Methods(http.MethodGet)

	// ─── Protected ───
	p := api.NewRoute().Subrouter()
	p.Use(authMw.Require)

	// Auth & profil
	p.HandleFunc("/logout", h.Auth.Logout).Methods(http.MethodDelete)
	p.HandleFunc("/get-user", h.Auth.GetUser).Methods(http.MethodGet)
	p.HandleFunc("/users", h.Auth.ListUsers).Methods(http.MethodGet)
	p.HandleFunc("/update-profile", h.Auth.UpdateProfile).Methods(http.MethodPatch)
	p.HandleFunc("/update-password", h.Auth.UpdatePassword).Methods(http.MethodPatch)

	// Mesajlar
	p.HandleFunc("/conversations", h.Message.Inbox).Methods(http.MethodGet)
	p.HandleFunc("/conversation/{conversationId}/status", h.Message.UpdateConversationStatus).Methods(http.MethodPatch)
	p.HandleFunc("/message/{messageId}/status", h.Message.UpdateStatus).Methods(http.MethodPatch)
	p.HandleFunc("/message/{id}", h.Message.Send).Methods(http.MethodPost)
	p.HandleFunc("/message/{id}", h.Message.History).Methods(http.MethodGet)
	p.HandleFunc("/message/{messageId}", h.Message.Edit).Methods(http.MethodPatch)
	p.HandleFunc("/message/{messageId}", h.Message.Delete).Methods(http.MethodDelete)

	// Arkadaşlık & engel
	p.HandleFunc("/friends/request", h.Friendship.SendRequest).Methods(http.MethodPost)
	p.HandleFunc("/friends/accept", h.Friendship.AcceptRequest).Methods(http.MethodPatch)
	p.HandleFunc("/friends/reject", h.Friendship.RejectRequest).Methods(http.MethodPatch)
	p.HandleFunc("/friends/requests/sent", h.Friendship.ListOutgoing).Methods(http.MethodGet)
	p.HandleFunc("/friends/requests", h.Friendship.ListIncoming).Methods(http.MethodGet)
	p.HandleFunc("/friends", h.Friendship.ListFriends).Methods(http.MethodGet)
	p.HandleFunc("/friends/{userId}", h.Friendship.RemoveFriend).Methods(http.MethodDelete)
	p.HandleFunc("/block", h.Block.Block).Methods(http.MethodPost)
	p.HandleFunc("/unblock", h.Block.Unblock).Methods(http.MethodPost)
	p.HandleFunc("/list/block", h.Block.List).Methods(http.MethodGet)

	// Gruplar
	p.HandleFunc("/create/group", h.Group.Create).Methods(http.MethodPost)
	p.HandleFunc("/add/member/{groupId}", h.Group.AddMember).Methods(http.MethodPost)
	p.HandleFunc("/remove/member/{groupId}", h.Group.RemoveMember).Methods(http.MethodPost)
	p.HandleFunc("/leave/{groupId}", h.Group.Leave).Methods(http.MethodDelete)
	p.HandleFunc("/groups", h.Group.List).Methods(http.MethodGet)
	p.HandleFunc("/group/{groupId}/messages", h.Group.Messages).Methods(http.MethodGet)
	p.HandleFunc("/group/{groupId}/messages", h.Group.SendMessage).Methods(http.MethodPost)
	p.HandleFunc("/group/{groupId}", h.Group.Update).Methods(http.MethodPut)
	p.HandleFunc("/group/{groupId}", h.Group.Delete).Methods(http.MethodDelete)

	// Aramalar
	p.HandleFunc("/calls/history", h.Call.History).Methods(http.MethodGet)
	p.HandleFunc("/calls/history/{id}", h.Call.HistoryWith).Methods(http.MethodGet)
	p.HandleFunc("/calls/{receiverId}/token", h.Call.Token).Methods(http.MethodPost)
	p.HandleFunc("/calls/{receiverId}", h.Call.Log).Methods(http.MethodPost)

	// Reaction'lar
	p.HandleFunc("/reactions", h.Reaction.Add).Methods(http.MethodPost)
	p.HandleFunc("/reactions/message/{messageId}", h.Reaction.ListByMessage).Methods(http.MethodGet)
	p.HandleFunc("/reactions/{id}", h.Reaction.Remove).Methods(http.MethodDelete)

	// WebSocket: token query parametresinden ya da cookie'den, handler kendisi doğrular.
	router.HandleFunc("/ws", h.WS.HandleConnection).Methods(http.MethodGet)
}

// uploadsHandler, sadece düz dosya isimlerini servis eder; alt dizinler 404.
func uploadsHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.StripPrefix(services.UploadURLPrefix, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.ContainsAny(r.URL.Path, `/\`) {
			http.NotFound(w, r)
			return
		}
		files.ServeHTTP(w, r)
	}))
}
