package handler

import (
	"log/slog"
	"net/http"

	"playdrive/internal/domain/models"
	"playdrive/internal/domain/services"
	"playdrive/internal/httputil"
)

// FolderHandler handles folder HTTP requests
type FolderHandler struct {
	drive  services.DriveService
	logger *slog.Logger
}

// NewFolderHandler creates a new folder handler
func NewFolderHandler(drive services.DriveService, logger *slog.Logger) *FolderHandler {
	return &FolderHandler{
		drive:  drive,
		logger: logger,
	}
}

// CreateFolderRequest is the POST /api/folders body.
type CreateFolderRequest struct {
	Name     string `json:"name"`
	FolderID string `json:"folderId"`
}

// CreateFolder creates a new folder
// POST /api/folders
// Returns 201 if created, 409 if the name is taken in the parent
func (h *FolderHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	folder, err := models.NewFolder(userID, req.Name, req.FolderID)
	if err != nil {
		handleError(w, err)
		return
	}

	created, _, err := h.drive.CreateOne(r.Context(), folder)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, created)
}

// GetFolderFamily retrieves a folder with its breadcrumb ancestors and
// direct children
// GET /api/folders/{id}
// The alias "root" and the literal owner ID both resolve to the root folder.
func (h *FolderHandler) GetFolderFamily(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folder ID is required")
		return
	}

	family, err := h.drive.FolderFamily(r.Context(), userID, id)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, family)
}
