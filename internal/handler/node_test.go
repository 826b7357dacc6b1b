package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"playdrive/internal/domain"
	"playdrive/internal/domain/models"
	"playdrive/internal/domain/repositories"
	"playdrive/internal/httputil"
)

// stubDrive lets each test pin the service's behavior per operation.
type stubDrive struct {
	createOne    func(ctx context.Context, node *models.Node) (*models.Node, []models.FolderChange, error)
	updateOne    func(ctx context.Context, ownerID, nodeID string, folderID, name *string) (*models.Node, []models.FolderChange, error)
	moveMany     func(ctx context.Context, ownerID string, ids []string, folderID string) (int64, []models.FolderChange, error)
	deleteMany   func(ctx context.Context, ownerID string, ids []string) (int64, []models.FolderChange, error)
	listFolder   func(ctx context.Context, ownerID, folderID string) (*models.FolderChange, error)
	folderFamily func(ctx context.Context, ownerID, folderID string) (*models.FolderFamily, error)
	findNodes    func(ctx context.Context, filter repositories.NodeFilter) ([]models.Node, error)
}

func (s *stubDrive) CreateOne(ctx context.Context, node *models.Node) (*models.Node, []models.FolderChange, error) {
	return s.createOne(ctx, node)
}

func (s *stubDrive) UpdateOne(ctx context.Context, ownerID, nodeID string, folderID, name *string) (*models.Node, []models.FolderChange, error) {
	return s.updateOne(ctx, ownerID, nodeID, folderID, name)
}

func (s *stubDrive) MoveMany(ctx context.Context, ownerID string, ids []string, folderID string) (int64, []models.FolderChange, error) {
	return s.moveMany(ctx, ownerID, ids, folderID)
}

func (s *stubDrive) DeleteMany(ctx context.Context, ownerID string, ids []string) (int64, []models.FolderChange, error) {
	return s.deleteMany(ctx, ownerID, ids)
}

func (s *stubDrive) ListFolder(ctx context.Context, ownerID, folderID string) (*models.FolderChange, error) {
	return s.listFolder(ctx, ownerID, folderID)
}

func (s *stubDrive) FolderFamily(ctx context.Context, ownerID, folderID string) (*models.FolderFamily, error) {
	return s.folderFamily(ctx, ownerID, folderID)
}

func (s *stubDrive) FindNodes(ctx context.Context, filter repositories.NodeFilter) ([]models.Node, error) {
	return s.findNodes(ctx, filter)
}

func (s *stubDrive) EnsureRoot(ctx context.Context, ownerID string) error {
	return nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// serve routes the request through the real mux patterns with an
// authenticated user in the context.
func serve(t *testing.T, pattern string, h http.HandlerFunc, r *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, h)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httputil.WithUserID(r, "owner-1"))
	return rec
}

func TestCreateFolderReturnsCreated(t *testing.T) {
	drive := &stubDrive{
		createOne: func(_ context.Context, node *models.Node) (*models.Node, []models.FolderChange, error) {
			if node.OwnerID != "owner-1" || node.Kind != models.KindFolder {
				t.Errorf("unexpected node passed to the service: %+v", node)
			}
			return node, nil, nil
		},
	}
	h := NewFolderHandler(drive, discardLogger())

	req := httptest.NewRequest("POST", "/api/folders", strings.NewReader(`{"name":"Movies","folderId":"root"}`))
	rec := serve(t, "POST /api/folders", h.CreateFolder, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created models.Node
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if created.Name != "Movies" || created.ParentID != "owner-1" {
		t.Errorf("unexpected created node: %+v", created)
	}
}

func TestCreateFolderNameConflict(t *testing.T) {
	drive := &stubDrive{
		createOne: func(_ context.Context, node *models.Node) (*models.Node, []models.FolderChange, error) {
			return nil, nil, &domain.NameConflictError{Name: node.Name, FolderID: node.ParentID}
		},
	}
	h := NewFolderHandler(drive, discardLogger())

	req := httptest.NewRequest("POST", "/api/folders", strings.NewReader(`{"name":"Movies","folderId":"root"}`))
	rec := serve(t, "POST /api/folders", h.CreateFolder, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var problem map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &problem); err != nil {
		t.Fatalf("invalid problem body: %v", err)
	}
	if problem["name"] != "Movies" || problem["folderId"] != "owner-1" {
		t.Errorf("conflict response should carry name and folder, got %v", problem)
	}
}

func TestCreateFolderRejectsEmptyName(t *testing.T) {
	h := NewFolderHandler(&stubDrive{}, discardLogger())

	req := httptest.NewRequest("POST", "/api/folders", strings.NewReader(`{"name":"","folderId":"root"}`))
	rec := serve(t, "POST /api/folders", h.CreateFolder, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestUpdateNodeRejectsNullFields(t *testing.T) {
	h := NewNodeHandler(&stubDrive{}, discardLogger())

	req := httptest.NewRequest("PATCH", "/api/nodes/n1", strings.NewReader(`{"name":null}`))
	rec := serve(t, "PATCH /api/nodes/{id}", h.UpdateNode, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for a null field, got %d", rec.Code)
	}
}

func TestUpdateNodeLoopMapsTo422(t *testing.T) {
	drive := &stubDrive{
		updateOne: func(_ context.Context, _, _ string, _, _ *string) (*models.Node, []models.FolderChange, error) {
			return nil, nil, domain.ErrFolderLoop
		},
	}
	h := NewNodeHandler(drive, discardLogger())

	req := httptest.NewRequest("PATCH", "/api/nodes/n1", strings.NewReader(`{"folderId":"n2"}`))
	rec := serve(t, "PATCH /api/nodes/{id}", h.UpdateNode, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a folder loop, got %d", rec.Code)
	}
}

func TestUpdateNodePassesTriStateFields(t *testing.T) {
	var gotFolder, gotName *string
	drive := &stubDrive{
		updateOne: func(_ context.Context, ownerID, nodeID string, folderID, name *string) (*models.Node, []models.FolderChange, error) {
			gotFolder, gotName = folderID, name
			return &models.Node{ID: nodeID, OwnerID: ownerID}, nil, nil
		},
	}
	h := NewNodeHandler(drive, discardLogger())

	req := httptest.NewRequest("PATCH", "/api/nodes/n1", strings.NewReader(`{"name":"renamed"}`))
	rec := serve(t, "PATCH /api/nodes/{id}", h.UpdateNode, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotFolder != nil {
		t.Error("absent folderId must stay nil")
	}
	if gotName == nil || *gotName != "renamed" {
		t.Errorf("expected name pointer to \"renamed\", got %v", gotName)
	}
}

func TestDeleteNodesParsesIDList(t *testing.T) {
	var gotIDs []string
	drive := &stubDrive{
		deleteMany: func(_ context.Context, _ string, ids []string) (int64, []models.FolderChange, error) {
			gotIDs = ids
			return int64(len(ids)), nil, nil
		},
	}
	h := NewNodeHandler(drive, discardLogger())

	req := httptest.NewRequest("DELETE", "/api/nodes?ids=a,b&ids=c", nil)
	rec := serve(t, "DELETE /api/nodes", h.DeleteNodes, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if len(gotIDs) != 3 {
		t.Errorf("expected 3 ids from comma and repeat forms, got %v", gotIDs)
	}

	var body map[string]int64
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if body["deleted"] != 3 {
		t.Errorf("expected deleted=3, got %v", body)
	}
}

func TestDeleteNodesRequiresIDs(t *testing.T) {
	h := NewNodeHandler(&stubDrive{}, discardLogger())

	req := httptest.NewRequest("DELETE", "/api/nodes", nil)
	rec := serve(t, "DELETE /api/nodes", h.DeleteNodes, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without ids, got %d", rec.Code)
	}
}

func TestMoveNodesReadOnlyMapsTo422(t *testing.T) {
	drive := &stubDrive{
		moveMany: func(_ context.Context, _ string, _ []string, _ string) (int64, []models.FolderChange, error) {
			return 0, nil, domain.ErrReadOnly
		},
	}
	h := NewNodeHandler(drive, discardLogger())

	req := httptest.NewRequest("PUT", "/api/folders/move", strings.NewReader(`{"nodes":["owner-1"],"folderId":"f1"}`))
	rec := serve(t, "PUT /api/folders/move", h.MoveNodes, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a read-only target, got %d", rec.Code)
	}
}

func TestGetFolderFamilyNotFound(t *testing.T) {
	drive := &stubDrive{
		folderFamily: func(_ context.Context, _, folderID string) (*models.FolderFamily, error) {
			return nil, domain.ErrNotFound
		},
	}
	h := NewFolderHandler(drive, discardLogger())

	req := httptest.NewRequest("GET", "/api/folders/missing", nil)
	rec := serve(t, "GET /api/folders/{id}", h.GetFolderFamily, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestFindNodesReturnsEmptyArray(t *testing.T) {
	drive := &stubDrive{
		findNodes: func(_ context.Context, filter repositories.NodeFilter) ([]models.Node, error) {
			if filter.OwnerID != "owner-1" {
				t.Errorf("filter must be scoped to the caller, got %q", filter.OwnerID)
			}
			return nil, nil
		},
	}
	h := NewNodeHandler(drive, discardLogger())

	req := httptest.NewRequest("GET", "/api/nodes", nil)
	rec := serve(t, "GET /api/nodes", h.FindNodes, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("an empty result must serialize as [], got %s", body)
	}
}

func TestUnauthenticatedRequestIsRejected(t *testing.T) {
	h := NewNodeHandler(&stubDrive{}, discardLogger())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/nodes", h.FindNodes)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/nodes", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without a user in context, got %d", rec.Code)
	}
}
