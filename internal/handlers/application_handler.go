package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"trusthire/internal/models"
	"trusthire/internal/services"
)

type ApplicationHandler struct {
	Responder
	Service *services.ApplicationService
}

// decodeOptional decodes a JSON body that clients may omit entirely.
func decodeOptional(r *http.Request, v interface{}) error {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	jobID, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid job ID")
		return
	}

	var req models.ApplyRequest
	if err := decodeOptional(r, &req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	app, err := h.Service.Apply(r.Context(), userID, role, jobID, req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	jobID, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid job ID")
		return
	}

	apps, err := h.Service.ListForJob(r.Context(), jobID, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	h.JSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}

	apps, err := h.Service.ListMine(r.Context(), userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	if apps == nil {
		apps = []models.Application{}
	}
	h.JSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandler) Reject(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	id, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid application ID")
		return
	}

	app, err := h.Service.Reject(r.Context(), id, userID)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusOK, app)
}

func (h *ApplicationHandler) Hire(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := currentUser(r)
	if !ok {
		h.Unauthorized(w)
		return
	}
	id, ok := intParam(r, "id")
	if !ok {
		h.BadRequest(w, "Invalid application ID")
		return
	}

	var req models.HireRequest
	if err := decodeOptional(r, &req); err != nil {
		h.BadRequest(w, "Invalid request body")
		return
	}

	project, err := h.Service.Hire(r.Context(), id, userID, req)
	if err != nil {
		h.Error(w, r, err)
		return
	}
	h.JSON(w, http.StatusCreated, project)
}
