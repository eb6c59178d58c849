package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/services"
)

type ReactionHandler struct {
	reactionService services.ReactionService
}

func NewReactionHandler(reactionService services.ReactionService) *ReactionHandler {
	return &ReactionHandler{reactionService: reactionService}
}

// Add godoc
// POST /api/reactions
func (h *ReactionHandler) Add(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.AddReactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reaction, err := h.reactionService.Add(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, reaction)
}

// Remove godoc
// DELETE /api/reactions/{id}
func (h *ReactionHandler) Remove(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.reactionService.Remove(r.Context(), user.ID, mux.Vars(r)["id"]); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "reaction removed"})
}

// ListByMessage godoc
// GET /api/reactions/message/{messageId}
func (h *ReactionHandler) ListByMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	reactions, err := h.reactionService.ListByMessage(r.Context(), user.ID, mux.Vars(r)["messageId"])
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, reactions)
}
