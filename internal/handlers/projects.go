package handlers

import (
	"net/http"
	"strings"

	"procurement/internal/access"
	"procurement/internal/idgen"
	"procurement/models"
)

type createProjectRequest struct {
	Name        string       `json:"name"`
	Description *string      `json:"description"`
	Location    *string      `json:"location"`
	Deadline    *models.Date `json:"deadline"`
}

// CreateProjectHandler создаёт проект, владелец берётся из токена
func (h *Handler) CreateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		h.fail(w, r, badRequest("Project name is required"))
		return
	}
	if err := h.authorize(r, access.ResourceProject, access.ActionCreate, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}

	project := &models.Project{
		CustomID:    idgen.Project(),
		Name:        req.Name,
		Description: req.Description,
		Location:    req.Location,
		Deadline:    req.Deadline,
		OwnerID:     caller(r).ID,
	}
	if err := h.Store.CreateProject(r.Context(), project); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, envelope{"message": "Project created successfully", "project": project})
}

// GetProjectsHandler только проекты вызывающего, включая админа
func (h *Handler) GetProjectsHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.authorize(r, access.ResourceProject, access.ActionList, access.Subject{}); err != nil {
		h.fail(w, r, err)
		return
	}
	projects, err := h.Store.GetProjectsByOwner(r.Context(), caller(r).ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Projects retrieved successfully", "projects": projects})
}

// loadProject достаёт проект и проверяет правило для действия
func (h *Handler) loadProject(r *http.Request, param string, act access.Action) (*models.Project, error) {
	id, err := parseID(r, param)
	if err != nil {
		return nil, err
	}
	project, err := h.Store.GetProject(r.Context(), id)
	if err != nil {
		return nil, lookupErr(err, "Project")
	}
	if err := h.authorize(r, access.ResourceProject, act, access.Subject{Project: project}); err != nil {
		return nil, err
	}
	return project, nil
}

func (h *Handler) GetProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := h.loadProject(r, "id", access.ActionRead)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Project retrieved successfully", "project": project})
}

func (h *Handler) UpdateProjectHandler(w http.ResponseWriter, r *http.Request) {
	var patch models.ProjectPatch
	if err := decodeJSON(w, r, &patch); err != nil {
		h.fail(w, r, err)
		return
	}
	if err := checkPatch(patch); err != nil {
		h.fail(w, r, err)
		return
	}
	project, err := h.loadProject(r, "id", access.ActionUpdate)
	if err != nil {
		h.fail(w, r, err)
		return
	}

	updated, err := h.Store.UpdateProject(r.Context(), project.ID, patch)
	if err != nil {
		h.fail(w, r, lookupErr(err, "Project"))
		return
	}
	writeJSON(w, http.StatusOK, envelope{"message": "Project updated successfully", "project": updated})
}

func (h *Handler) DeleteProjectHandler(w http.ResponseWriter, r *http.Request) {
	project, err := h.loadProject(r, "id", access.ActionDelete)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if _, err := h.Store.DeleteProject(r.Context(), project.ID); err != nil {
		h.fail(w, r, lookupErr(err, "Project"))
		return
	}
	writeMessage(w, http.StatusOK, "Project deleted successfully")
}
