package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"playdrive/internal/domain/models"
	"playdrive/internal/domain/repositories"
	"playdrive/internal/domain/services"
	"playdrive/internal/httputil"
)

// NodeHandler handles node HTTP requests
type NodeHandler struct {
	drive  services.DriveService
	logger *slog.Logger
}

// NewNodeHandler creates a new node handler
func NewNodeHandler(drive services.DriveService, logger *slog.Logger) *NodeHandler {
	return &NodeHandler{
		drive:  drive,
		logger: logger,
	}
}

// FindNodes lists the caller's nodes, optionally filtered
// GET /api/nodes?folderId=&kind=&name=
func (h *NodeHandler) FindNodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	query := r.URL.Query()
	filter := repositories.NodeFilter{
		OwnerID: userID,
		Kind:    models.NodeKind(query.Get("kind")),
		Name:    query.Get("name"),
	}
	if folderID := query.Get("folderId"); folderID != "" {
		filter.ParentID = models.ResolveFolderID(userID, folderID)
	}

	nodes, err := h.drive.FindNodes(r.Context(), filter)
	if err != nil {
		handleError(w, err)
		return
	}
	if nodes == nil {
		nodes = []models.Node{}
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// UpdateNodeRequest is the PATCH body. Optional fields distinguish absent
// from null: null is rejected, absent means "leave unchanged".
type UpdateNodeRequest struct {
	FolderID httputil.OptionalString `json:"folderId"`
	Name     httputil.OptionalString `json:"name"`
}

// UpdateNode renames and/or moves a single node
// PATCH /api/nodes/{id}
func (h *NodeHandler) UpdateNode(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	if id == "" {
		httputil.RespondError(w, http.StatusBadRequest, "node ID is required")
		return
	}

	var req UpdateNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if (req.FolderID.Present && req.FolderID.Value == nil) ||
		(req.Name.Present && req.Name.Value == nil) {
		httputil.RespondError(w, http.StatusBadRequest, "folderId and name cannot be null")
		return
	}

	node, _, err := h.drive.UpdateOne(r.Context(), userID, id, req.FolderID.Value, req.Name.Value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNodes deletes nodes and their subtrees
// DELETE /api/nodes?ids=a,b,c
func (h *NodeHandler) DeleteNodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	ids := splitIDs(r.URL.Query()["ids"])
	if len(ids) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "ids query parameter is required")
		return
	}

	deleted, _, err := h.drive.DeleteMany(r.Context(), userID, ids)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"deleted": deleted})
}

// MoveNodesRequest is the PUT /api/folders/move body.
type MoveNodesRequest struct {
	Nodes    []string `json:"nodes"`
	FolderID string   `json:"folderId"`
}

// MoveNodes moves a batch of nodes into one destination folder
// PUT /api/folders/move
func (h *NodeHandler) MoveNodes(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req MoveNodesRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Nodes) == 0 {
		httputil.RespondError(w, http.StatusBadRequest, "nodes is required")
		return
	}
	if req.FolderID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "folderId is required")
		return
	}

	moved, _, err := h.drive.MoveMany(r.Context(), userID, req.Nodes, req.FolderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]int64{"moved": moved})
}

// CreateLeafRequest is the POST /api/leaves body.
type CreateLeafRequest struct {
	Name     string              `json:"name"`
	FolderID string              `json:"folderId"`
	Metadata models.LeafMetadata `json:"metadata"`
}

// CreateLeaf creates a leaf node
// POST /api/leaves
// Returns 201 if created, 409 if the name is taken in the folder
func (h *NodeHandler) CreateLeaf(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	var req CreateLeafRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	leaf, err := models.NewLeaf(userID, req.Name, req.FolderID, req.Metadata)
	if err != nil {
		handleError(w, err)
		return
	}

	created, _, err := h.drive.CreateOne(r.Context(), leaf)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, created)
}

// HealthCheck reports service liveness
// GET /health
func (h *NodeHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func splitIDs(params []string) []string {
	var ids []string
	for _, param := range params {
		for _, id := range strings.Split(param, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}
