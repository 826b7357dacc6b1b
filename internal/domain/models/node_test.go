package models

import (
	"errors"
	"strings"
	"testing"

	"playdrive/internal/domain"
)

func TestResolveFolderID(t *testing.T) {
	tests := []struct {
		name     string
		folderID string
		want     string
	}{
		{name: "alias resolves to owner", folderID: "root", want: "owner-1"},
		{name: "empty resolves to owner", folderID: "", want: "owner-1"},
		{name: "concrete id passes through", folderID: "folder-9", want: "folder-9"},
		{name: "owner id passes through", folderID: "owner-1", want: "owner-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveFolderID("owner-1", tt.folderID); got != tt.want {
				t.Errorf("ResolveFolderID(owner-1, %q) = %q, want %q", tt.folderID, got, tt.want)
			}
		})
	}
}

func TestIsRoot(t *testing.T) {
	tests := []struct {
		name string
		id   string
		want bool
	}{
		{name: "owner id is root", id: "owner-1", want: true},
		{name: "alias is root", id: "root", want: true},
		{name: "ordinary folder is not", id: "folder-9", want: false},
		{name: "another owner's id is not", id: "owner-2", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRoot("owner-1", tt.id); got != tt.want {
				t.Errorf("IsRoot(owner-1, %q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestValidateName(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "plain name", input: "Movies", wantErr: false},
		{name: "empty name", input: "", wantErr: true},
		{name: "max length name", input: strings.Repeat("a", MaxNodeNameLength), wantErr: false},
		{name: "over-long name", input: strings.Repeat("a", MaxNodeNameLength+1), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateName(tt.input)
			if tt.wantErr && !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected ErrValidation, got %v", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewLeafNameFallsBackToPlayID(t *testing.T) {
	leaf, err := NewLeaf("owner-1", "", "root", LeafMetadata{PlayID: "play-42"})
	if err != nil {
		t.Fatalf("NewLeaf failed: %v", err)
	}
	if leaf.Name != "play-42" {
		t.Errorf("expected the play id as fallback name, got %q", leaf.Name)
	}
	if leaf.ParentID != "owner-1" {
		t.Errorf("expected the root alias to resolve to the owner, got %q", leaf.ParentID)
	}
	if leaf.Kind != KindLeaf || leaf.Metadata == nil {
		t.Errorf("leaf shape wrong: %+v", leaf)
	}

	if _, err := NewLeaf("owner-1", "", "root", LeafMetadata{}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("a leaf with no name and no play id must fail validation, got %v", err)
	}
}

func TestNewRootFolder(t *testing.T) {
	root := NewRootFolder("owner-1")
	if root.ID != "owner-1" {
		t.Errorf("root id must equal the owner id, got %q", root.ID)
	}
	if root.ParentID != RootFolderAlias {
		t.Errorf("root parent must be the alias, got %q", root.ParentID)
	}
	if root.Kind != KindFolder {
		t.Errorf("root must be a folder, got %q", root.Kind)
	}
}

func TestNodePatchIsZero(t *testing.T) {
	if !(NodePatch{}).IsZero() {
		t.Error("empty patch should be zero")
	}
	name := "x"
	if (NodePatch{Name: &name}).IsZero() {
		t.Error("patch with a name is not zero")
	}
}
