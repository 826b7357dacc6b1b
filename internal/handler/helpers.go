package handler

import (
	"errors"
	"net/http"

	"playdrive/internal/domain"
	"playdrive/internal/httputil"
)

// handleError converts domain errors to HTTP responses
func handleError(w http.ResponseWriter, err error) {
	var conflictErr *domain.NameConflictError

	switch {
	case errors.Is(err, domain.ErrValidation):
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		httputil.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrUnauthorized):
		httputil.RespondError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrReadOnly):
		httputil.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, domain.ErrFolderLoop):
		httputil.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &conflictErr):
		httputil.RespondErrorWithExtras(w, http.StatusConflict, conflictErr.Error(), map[string]interface{}{
			"name":     conflictErr.Name,
			"folderId": conflictErr.FolderID,
		})
	default:
		httputil.RespondError(w, http.StatusInternalServerError, "internal server error")
	}
}

// requireUserID pulls the authenticated owner from the request context.
// The auth middleware guarantees it is set on every /api route; an empty
// value means the route was wired without the middleware.
func requireUserID(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := httputil.GetUserID(r)
	if userID == "" {
		httputil.RespondError(w, http.StatusUnauthorized, "missing authentication")
		return "", false
	}
	return userID, true
}
