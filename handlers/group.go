package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/ratelimit"
	"github.com/akinalp/sohbet/services"
)

// GroupHandler, grup yönetimi ve grup mesajları.
type GroupHandler struct {
	groupService   services.GroupService
	messageService services.MessageService
	uploads        services.UploadService
	limiter        *ratelimit.Limiter
	maxUploadSize  int64
}

func NewGroupHandler(
	groupService services.GroupService,
	messageService services.MessageService,
	uploads services.UploadService,
	limiter *ratelimit.Limiter,
	maxUploadSize int64,
) *GroupHandler {
	return &GroupHandler{
		groupService:   groupService,
		messageService: messageService,
		uploads:        uploads,
		limiter:        limiter,
		maxUploadSize:  maxUploadSize,
	}
}

// Create godoc
// POST /api/create/group
// Arkadaş olmayan üyeler 400 yanıtının details.invalid_members alanında döner.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.CreateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.groupService.Create(r.Context(), user.ID, &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, group)
}

func (h *GroupHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.groupService.AddMember(r.Context(), user.ID, mux.Vars(r)["groupId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, group)
}

func (h *GroupHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.MemberRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.groupService.RemoveMember(r.Context(), user.ID, mux.Vars(r)["groupId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Leave(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Leave(r.Context(), user.ID, mux.Vars(r)["groupId"]); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "left the group"})
}

// Update godoc
// PUT /api/group/{groupId}
// Body: { "name"?: "...", "new_admin_id"?: "..." }
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateGroupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	group, err := h.groupService.Update(r.Context(), user.ID, mux.Vars(r)["groupId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, group)
}

func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	if err := h.groupService.Delete(r.Context(), user.ID, mux.Vars(r)["groupId"]); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "group deleted"})
}

// List godoc
// GET /api/groups?page=1&limit=10
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := h.groupService.List(r.Context(), user.ID, pageFromQuery(r, 10))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// Messages godoc
// GET /api/group/{groupId}/messages?page=1&limit=20
// Yeniden eskiye. Sayfadaki başkalarının mesajları okundu olarak işaretlenir.
func (h *GroupHandler) Messages(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := h.messageService.GroupMessages(r.Context(), user.ID, mux.Vars(r)["groupId"], pageFromQuery(r, 20))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}

// SendMessage godoc
// POST /api/group/{groupId}/messages
func (h *GroupHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}
	if !allowSend(w, h.limiter, user.ID) {
		return
	}

	in, uploaded, ok := messageInput(w, r, h.uploads, h.maxUploadSize)
	if !ok {
		return
	}

	msg, err := h.messageService.SendToGroup(r.Context(), user.ID, mux.Vars(r)["groupId"], in)
	if err != nil {
		if uploaded != "" {
			h.uploads.Remove(uploaded)
		}
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}
