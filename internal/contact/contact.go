// Package contact resolves a user identity to a deliverable address.
//
// Resolution is an explicit ordered list of named strategies tried in
// sequence: the identity provider's profile first, then the stored user
// document. An unresolvable user is skipped by the scanner; it never
// fails a run.
package contact

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrNotResolvable is returned when every strategy fails to produce an
// address for a user.
var ErrNotResolvable = errors.New("contact: no address resolvable")

// Contact is a deliverable address for one user.
type Contact struct {
	Address     string `json:"address"`
	DisplayName string `json:"display_name,omitempty"`
}

// Strategy is one named way of mapping a user ID to a contact.
type Strategy interface {
	Name() string
	Resolve(ctx context.Context, userID string) (Contact, error)
}

// Resolver tries its strategies in order and caches hits so the daily scan
// does not hammer the identity provider for every prescription owner.
type Resolver struct {
	strategies []Strategy
	cache      *ttlCache
	logger     *slog.Logger
}

// NewResolver creates a resolver over the given strategies, tried in the
// order supplied. cacheTTL <= 0 disables caching.
func NewResolver(logger *slog.Logger, cacheTTL time.Duration, strategies ...Strategy) *Resolver {
	return &Resolver{
		strategies: strategies,
		cache:      newTTLCache(cacheTTL),
		logger:     logger,
	}
}

// Resolve returns the first contact any strategy produces, or
// ErrNotResolvable when none does.
func (r *Resolver) Resolve(ctx context.Context, userID string) (Contact, error) {
	if c, ok := r.cache.get(userID); ok {
		return c, nil
	}

	for _, s := range r.strategies {
		c, err := s.Resolve(ctx, userID)
		if err != nil {
			r.logger.Debug("Contact strategy missed",
				"strategy", s.Name(), "user_id", userID, "error", err)
			continue
		}
		if c.Address == "" {
			continue
		}
		r.cache.set(userID, c)
		return c, nil
	}
	return Contact{}, ErrNotResolvable
}
