package handlers

import (
	"encoding/json"
	"net/http"

	"trusthire/internal/models"
	"trusthire/internal/services"
)

type ProjectHandler struct {
	Responder
	Service *services.ProjectService
}

func (h *ProjectHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	projects, err := h.Service.ListMine(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	h.JSON(w, http.StatusOK, projects)
}

// projectRequest resolves the caller and the :id path parameter.
func (h *ProjectHandler) projectRequest(w http.ResponseWriter, r *http.Request) (int, int, bool) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return 0, 0, false
	}
	id, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid project ID")
		return 0, 0, false
	}
	return id, userID, true
}

func (h *ProjectHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	p, err := h.Service.Get(r.Context(), id, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) Agree(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	p, err := h.Service.Agree(r.Context(), id, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) CompleteStage(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}
	index, ok := intParam(r, "index")
	if !ok {
		h.BadRequest(w, "Invalid stage index")
		return
	}

	p, err := h.Service.CompleteStage(r.Context(), id, index, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) UploadDeliverable(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}
	index, ok := intParam(r, "index")
	if !ok {
		h.BadRequest(w, "Invalid stage index")
		return
	}

	file, err := readUploadedFile(w, r, "file", "deliverable")
	if err != nil {
		h.BadRequest(w, err.Error())
		return
	}

	p, err := h.Service.UploadDeliverable(r.Context(), id, index, userID, file.Name, file.ContentType, file.Data)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, p)
}

func (h *ProjectHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	txs, err := h.Service.ListTransactions(r.Context(), id, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	h.JSON(w, http.StatusOK, txs)
}

func (h *ProjectHandler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	txs, err := h.Service.ListMyTransactions(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	h.JSON(w, http.StatusOK, txs)
}

// FreelancerFeedback lists the reviews a freelancer received, newest first.
func (h *ProjectHandler) FreelancerFeedback(w http.ResponseWriter, r *http.Request) {
	freelancerID, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid user ID")
		return
	}

	feedback, err := h.Service.FreelancerFeedback(r.Context(), freelancerID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if feedback == nil {
		feedback = []models.Feedback{}
	}
	h.JSON(w, http.StatusOK, feedback)
}

func (h *ProjectHandler) Rate(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	var req struct {
		Rating  int    `json:"rating"`
		Comment string `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	fb, err := h.Service.Rate(r.Context(), id, userID, req.Rating, req.Comment)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, fb)
}

func (h *ProjectHandler) CallInfo(w http.ResponseWriter, r *http.Request) {
	id, userID, ok := h.projectRequest(w, r)
	if !ok {
		return
	}

	info, err := h.Service.CallInfo(r.Context(), id, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, info)
}
