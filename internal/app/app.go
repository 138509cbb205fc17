// Package app maps configuration onto the concrete notification, ledger,
// and contact backends. Shared by cmd/api and cmd/scan so both binaries
// wire the same pipeline from the same settings.
package app

import (
	"log/slog"

	"github.com/dosewatch/dosewatch/internal/config"
	"github.com/dosewatch/dosewatch/internal/contact"
	"github.com/dosewatch/dosewatch/internal/db"
	"github.com/dosewatch/dosewatch/internal/notify"
)

// NewDispatcher selects the outbound notification backend.
func NewDispatcher(cfg *config.Config, logger *slog.Logger) notify.Dispatcher {
	switch cfg.DispatchBackend {
	case config.DispatchAMQP:
		queue := cfg.AMQPQueue
		if queue == "" {
			queue = notify.DefaultQueue
		}
		return notify.NewAMQPDispatcher(cfg.AMQPURL, queue, logger)
	case config.DispatchWebhook:
		return notify.NewWebhookDispatcher(cfg.WebhookURL, logger)
	default:
		return notify.NewLogDispatcher(logger)
	}
}

// NewLedger selects the idempotency ledger backend. The returned close
// func is nil for backends with nothing to release.
func NewLedger(cfg *config.Config, pool *db.Pool) (notify.Ledger, func(), error) {
	switch cfg.LedgerBackend {
	case config.LedgerRedis:
		l, err := notify.NewRedisLedger(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.LedgerTTL)
		if err != nil {
			return nil, nil, err
		}
		return l, func() { _ = l.Close() }, nil
	case config.LedgerMemory:
		return notify.NewMemoryLedger(), nil, nil
	default:
		return notify.NewPGLedger(pool.Pool), nil, nil
	}
}

// NewContactResolver assembles the ordered contact strategies. The
// identity-provider profile lookup goes first when configured; the user
// document in Postgres is always the fallback.
func NewContactResolver(cfg *config.Config, pool *db.Pool, logger *slog.Logger) *contact.Resolver {
	strategies := make([]contact.Strategy, 0, 2)
	if cfg.IdentityProviderURL != "" {
		strategies = append(strategies, contact.NewProfileStrategy(cfg.IdentityProviderURL, cfg.IdentityProviderToken))
	}
	strategies = append(strategies, contact.NewDocumentStrategy(pool.Pool))
	return contact.NewResolver(logger, cfg.ContactCacheTTL, strategies...)
}
