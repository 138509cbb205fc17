package contact

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DocumentStrategy reads the address stored on the user document itself.
// Second in the resolution order: the fallback when the identity provider
// has no profile for the user.
type DocumentStrategy struct {
	pool *pgxpool.Pool
}

// NewDocumentStrategy creates a user-document strategy over the pool.
func NewDocumentStrategy(pool *pgxpool.Pool) *DocumentStrategy {
	return &DocumentStrategy{pool: pool}
}

// Name implements Strategy.
func (s *DocumentStrategy) Name() string { return "user-document" }

// Resolve reads the email and display name columns of the users row.
func (s *DocumentStrategy) Resolve(ctx context.Context, userID string) (Contact, error) {
	var c Contact
	err := s.pool.QueryRow(ctx, "contact_by_user", userID).Scan(&c.Address, &c.DisplayName)
	if errors.Is(err, pgx.ErrNoRows) {
		return Contact{}, fmt.Errorf("no user document for %s", userID)
	}
	if err != nil {
		return Contact{}, fmt.Errorf("read user document %s: %w", userID, err)
	}
	return c, nil
}
