package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trusthire/internal/models"
	"trusthire/internal/services"
)

type MessageHandler struct {
	Responder
	MessageService *services.MessageService
}

func (h *MessageHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	projectID, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid project ID")
		return
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	msg, err := h.MessageService.Send(r.Context(), projectID, userID, req.Text)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, msg)
}

func (h *MessageHandler) GetMessagesForProject(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	projectID, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid project ID")
		return
	}

	var afterID int64
	if raw := r.URL.Query().Get("after_id"); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			h.BadRequest(w, "Invalid after_id")
			return
		}
		afterID = v
	}

	messages, err := h.MessageService.List(r.Context(), projectID, userID, afterID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if messages == nil {
		messages = []models.Message{}
	}
	h.JSON(w, http.StatusOK, messages)
}
