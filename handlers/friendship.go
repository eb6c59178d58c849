// FriendshipHandler ve BlockHandler: arkadaşlık ve engel endpoint'leri.
//
//	POST   /api/friends/request        → SendRequest
//	PATCH  /api/friends/accept         → AcceptRequest
//	PATCH  /api/friends/reject         → RejectRequest
//	GET    /api/friends/requests       → ListIncoming
//	GET    /api/friends/requests/sent  → ListOutgoing
//	GET    /api/friends                → ListFriends
//	DELETE /api/friends/{userId}       → RemoveFriend
//	POST   /api/block, /api/unblock, GET /api/list/block

package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/services"
)

type FriendshipHandler struct {
	friendService services.FriendshipService
}

func NewFriendshipHandler(friendService services.FriendshipService) *FriendshipHandler {
	return &FriendshipHandler{friendService: friendService}
}

func (h *FriendshipHandler) SendRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.SendFriendRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.friendService.SendRequest(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, result)
}

func (h *FriendshipHandler) AcceptRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.RespondFriendRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.friendService.AcceptRequest(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

func (h *FriendshipHandler) RejectRequest(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.RespondFriendRequestRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.friendService.RejectRequest(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "friend request rejected"})
}

func (h *FriendshipHandler) ListIncoming(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.friendService.ListIncoming(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, requests)
}

func (h *FriendshipHandler) ListOutgoing(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	requests, err := h.friendService.ListOutgoing(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, requests)
}

func (h *FriendshipHandler) ListFriends(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	friends, err := h.friendService.ListFriends(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, friends)
}

func (h *FriendshipHandler) RemoveFriend(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.friendService.RemoveFriend(r.Context(), user.ID, mux.Vars(r)["userId"]); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "friend removed"})
}

type BlockHandler struct {
	relationships services.RelationshipService
}

func NewBlockHandler(relationships services.RelationshipService) *BlockHandler {
	return &BlockHandler{relationships: relationships}
}

// Block godoc
// POST /api/block
// Body: { "user_id": "...", "reason": "..." }
// Arkadaşlık isteği blocked olur, DM konuşması silinir.
func (h *BlockHandler) Block(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.BlockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	block, err := h.relationships.Block(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, block)
}

func (h *BlockHandler) Unblock(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UnblockRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.relationships.Unblock(r.Context(), user.ID, &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "user unblocked"})
}

func (h *BlockHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	blocked, err := h.relationships.ListBlocked(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, blocked)
}
