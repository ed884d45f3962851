package port

import "github.com/google/uuid"

// TokenVerifier validates a bearer token and returns the requester it identifies.
type TokenVerifier interface {
	Verify(token string) (uuid.UUID, error)
}
