package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/services"
)

// CallHandler, arama kayıtları ve LiveKit token'ı.
type CallHandler struct {
	callService services.CallService
}

func NewCallHandler(callService services.CallService) *CallHandler {
	return &CallHandler{callService: callService}
}

// Log godoc
// POST /api/calls/{receiverId}
func (h *CallHandler) Log(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateCallLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	call, err := h.callService.Log(r.Context(), user.ID, mux.Vars(r)["receiverId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, call)
}

// History godoc
// GET /api/calls/history
func (h *CallHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	calls, err := h.callService.History(r.Context(), user.ID)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, calls)
}

// HistoryWith godoc
// GET /api/calls/history/{id}
func (h *CallHandler) HistoryWith(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	calls, err := h.callService.HistoryWith(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, calls)
}

// Token godoc
// POST /api/calls/{receiverId}/token
// Body: { "call_type": "voice" | "video" }
func (h *CallHandler) Token(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CallTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	token, err := h.callService.Token(r.Context(), user.ID, mux.Vars(r)["receiverId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, token)
}
