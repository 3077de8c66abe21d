package handlers

import (
	"encoding/json"
	"net/http"

	"trusthire/internal/models"
	"trusthire/internal/services"
)

type WithdrawalHandler struct {
	Responder
	Service *services.WithdrawalService
}

func (h *WithdrawalHandler) Request(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	var req models.WithdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	wd, err := h.Service.Request(r.Context(), userID, role, req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, wd)
}

func (h *WithdrawalHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	list, err := h.Service.List(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if list == nil {
		list = []models.Withdrawal{}
	}
	h.JSON(w, http.StatusOK, list)
}
