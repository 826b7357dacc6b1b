package models

// FolderChange is the per-folder change-set published after a mutation and
// returned by synchronous folder listings. Both paths share this one shape so
// a client that receives a change for a folder can trust that re-listing the
// folder yields exactly Children.
type FolderChange struct {
	OwnerID  string `json:"userId"`
	FolderID string `json:"folderId"`
	Children []Node `json:"children"`
}

// FolderFamily is a folder together with its breadcrumb context: every
// folder-kind ancestor up to the root, and the folder's direct children.
type FolderFamily struct {
	ID        string         `json:"id"`
	ParentID  string         `json:"folderId"`
	Name      string         `json:"name"`
	Ancestors []FamilyMember `json:"ancestors"`
	Children  []Node         `json:"children"`
}

// FamilyMember is the reduced node projection used for breadcrumbs.
type FamilyMember struct {
	ID       string `json:"id"`
	ParentID string `json:"folderId"`
	Name     string `json:"name"`
}
