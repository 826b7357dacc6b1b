package domain

import (
	"errors"
	"fmt"
	"net/http"
)

// HTTPError defines errors that can be mapped to HTTP status codes.
// Implementing this interface keeps the handler layer free of per-kind switches.
type HTTPError interface {
	error
	StatusCode() int
}

// Sentinel errors - use with errors.Is()
var (
	// ErrReadOnly indicates an attempted mutation of an owner's root folder.
	ErrReadOnly = errors.New("root folder is read-only")

	// ErrFolderLoop indicates a mutation that would make a node its own
	// ancestor or descendant.
	ErrFolderLoop = errors.New("a folder cannot contain itself")

	// ErrNotFound indicates the target node is missing or not owned by the caller.
	ErrNotFound = errors.New("node not found")

	ErrValidation   = errors.New("validation failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// NameConflictError reports a duplicate name within a folder on create.
type NameConflictError struct {
	Name     string
	FolderID string
}

func (e *NameConflictError) Error() string {
	return fmt.Sprintf("a node named %q already exists in folder %q", e.Name, e.FolderID)
}

// StatusCode implements the HTTPError interface
func (e *NameConflictError) StatusCode() int { return http.StatusConflict }

// InternalError wraps a node store failure without exposing driver detail
// beyond its message.
type InternalError struct {
	Op  string
	Err error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *InternalError) Unwrap() error { return e.Err }

// StatusCode implements the HTTPError interface
func (e *InternalError) StatusCode() int { return http.StatusInternalServerError }

// Internal wraps err as an InternalError unless it already carries a domain
// meaning the caller should see unchanged.
func Internal(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrReadOnly) ||
		errors.Is(err, ErrFolderLoop) || errors.Is(err, ErrValidation) {
		return err
	}
	var conflict *NameConflictError
	if errors.As(err, &conflict) {
		return err
	}
	return &InternalError{Op: op, Err: err}
}
