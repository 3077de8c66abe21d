package handlers

import (
	"encoding/json"
	"net/http"

	"trusthire/internal/models"
	"trusthire/internal/services"
)

type UserHandler struct {
	Responder
	Service *services.UserService
}

func (h *UserHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var req models.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	user, err := h.Service.SignUp(r.Context(), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	tokens, err := h.Service.CreateSession(r.Context(), user)
	if err != nil {
		h.Error(w, r, err)
		return
	}

	h.JSON(w, http.StatusCreated, map[string]interface{}{
		"user":   user,
		"tokens": tokens,
	})
}

func (h *UserHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var req models.SignInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	tokens, err := h.Service.SignIn(r.Context(), req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, tokens)
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	user, err := h.Service.GetUserByID(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, user)
}

func (h *UserHandler) UpdateFCMToken(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	var req struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}
	if err := h.Service.UpdateFCMToken(r.Context(), userID, req.Token); err != nil {
		h.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
