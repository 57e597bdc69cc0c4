package ports

import (
	"context"

	"github.com/aretw0/ouvidoria/pkg/domain"
)

// SessionStore defines the interface for persisting in-progress conversations,
// keyed by conversant identity.
type SessionStore interface {
	// Save persists the session for a given conversant.
	Save(ctx context.Context, conversantID string, session *domain.Session) error

	// Load retrieves the session for a given conversant.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, conversantID string) (*domain.Session, error)

	// Delete removes the session for a given conversant.
	// Deleting a missing session is not an error.
	Delete(ctx context.Context, conversantID string) error

	// List returns the identities of all conversants with a session.
	List(ctx context.Context) ([]string, error)
}
