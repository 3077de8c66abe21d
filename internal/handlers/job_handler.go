package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"trusthire/internal/models"
	"trusthire/internal/services"
)

type JobHandler struct {
	Responder
	Service *services.JobService
}

func (h *JobHandler) CreateJob(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	var req models.CreateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	job, err := h.Service.CreateJob(r.Context(), userID, role, req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, job)
}

func (h *JobHandler) ListOpenJobs(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, err := strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	jobs, err := h.Service.ListOpenJobs(r.Context(), q.Get("category"), limit, offset)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	h.JSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) ListMyJobs(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	jobs, err := h.Service.ListMyJobs(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if jobs == nil {
		jobs = []models.Job{}
	}
	h.JSON(w, http.StatusOK, jobs)
}

func (h *JobHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	id, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid job ID")
		return
	}

	job, err := h.Service.GetJob(r.Context(), id)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, job)
}

func (h *JobHandler) CloseJob(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	id, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid job ID")
		return
	}

	if err := h.Service.CloseJob(r.Context(), id, userID); err != nil {
		h.Error(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
