package handlers

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/akinalp/sohbet/models"
	"github.com/akinalp/sohbet/pkg"
	"github.com/akinalp/sohbet/pkg/ratelimit"
	"github.com/akinalp/sohbet/services"
)

// MessageHandler, DM mesajları ve gelen kutusu.
type MessageHandler struct {
	messageService services.MessageService
	convService    services.ConversationService
	uploads        services.UploadService
	limiter        *ratelimit.Limiter
	maxUploadSize  int64
}

func NewMessageHandler(
	messageService services.MessageService,
	convService services.ConversationService,
	uploads services.UploadService,
	limiter *ratelimit.Limiter,
	maxUploadSize int64,
) *MessageHandler {
	return &MessageHandler{
		messageService: messageService,
		convService:    convService,
		uploads:        uploads,
		limiter:        limiter,
		maxUploadSize:  maxUploadSize,
	}
}

// messageInput, gönderim isteğini okur. Multipart ise "message" alanı ve
// "file" dosyası, değilse JSON {message}. Dosya kaydedildiyse URL'i döner;
// sonraki adım başarısız olursa çağıran onu silmelidir.
func messageInput(w http.ResponseWriter, r *http.Request, uploads services.UploadService, maxSize int64) (*models.SendMessageInput, string, bool) {
	if !isMultipart(r) {
		var body struct {
			Message string `json:"message"`
		}
		if !decodeJSON(w, r, &body) {
			return nil, "", false
		}
		return &models.SendMessageInput{Body: body.Message}, "", true
	}

	if err := r.ParseMultipartForm(maxSize); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "failed to parse multipart form")
		return nil, "", false
	}

	in := &models.SendMessageInput{Body: r.FormValue("message")}

	file, header, err := r.FormFile("file")
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return in, "", true
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, "invalid file")
		return nil, "", false
	}
	defer file.Close()

	att, err := uploads.Save(file, header, services.UploadAttachment)
	if err != nil {
		pkg.Error(w, err)
		return nil, "", false
	}
	in.Attachment = att
	return in, att.URL, true
}

// allowSend, mesaj hız sınırını uygular; aşıldıysa 429 yazar.
func allowSend(w http.ResponseWriter, limiter *ratelimit.Limiter, userID string) bool {
	if limiter == nil || limiter.Allow(userID) {
		return true
	}
	tooManyRequests(w, limiter, userID, "you are sending messages too fast")
	return false
}

// Send godoc
// POST /api/message/{id}
func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
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

	msg, err := h.messageService.Send(r.Context(), user.ID, mux.Vars(r)["id"], in)
	if err != nil {
		if uploaded != "" {
			h.uploads.Remove(uploaded)
		}
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusCreated, msg)
}

// History godoc
// GET /api/message/{id}
func (h *MessageHandler) History(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	messages, err := h.messageService.History(r.Context(), user.ID, mux.Vars(r)["id"])
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, messages)
}

// Edit godoc
// PATCH /api/message/{messageId}
func (h *MessageHandler) Edit(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.EditMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.Edit(r.Context(), user.ID, mux.Vars(r)["messageId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// Delete godoc
// DELETE /api/message/{messageId}
// Body: { "delete_for": "me" | "all" }
func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.DeleteMessageRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.messageService.Delete(r.Context(), user.ID, mux.Vars(r)["messageId"], &req); err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]string{"message": "message deleted"})
}

// UpdateStatus godoc
// PATCH /api/message/{messageId}/status
func (h *MessageHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	msg, err := h.messageService.UpdateStatus(r.Context(), user.ID, mux.Vars(r)["messageId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, msg)
}

// UpdateConversationStatus godoc
// PATCH /api/conversation/{conversationId}/status
func (h *MessageHandler) UpdateConversationStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req models.UpdateStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	updated, err := h.messageService.UpdateConversationStatus(r.Context(), user.ID, mux.Vars(r)["conversationId"], &req)
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, map[string]int{"updated": updated})
}

// Inbox godoc
// GET /api/conversations?page=1&limit=20
func (h *MessageHandler) Inbox(w http.ResponseWriter, r *http.Request) {
	user, ok := currentUser(w, r)
	if !ok {
		return
	}

	page, err := h.convService.Inbox(r.Context(), user.ID, pageFromQuery(r, 20))
	if err != nil {
		pkg.Error(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, page)
}
