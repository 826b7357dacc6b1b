package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// DriveClaims are the JWT claims accepted by the auth middleware. The subject
// is the owner id every drive operation is scoped by.
type DriveClaims struct {
	jwt.RegisteredClaims
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}
