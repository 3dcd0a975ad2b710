// Package transfer exports the catalog into checksummed payloads and imports them back
// with duplicate detection and a chosen conflict strategy.
package transfer

import (
	"log/slog"
	"time"

	"github.com/iudanet/catalogkeeper/internal/catalog"
)

// Engine handles export, validation and import of catalog payloads
type Engine struct {
	store  *catalog.Store
	now    func() time.Time
	logger *slog.Logger
}

// Option configures an Engine
type Option func(*Engine)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates a new import/export engine over the catalog store
func New(store *catalog.Store, opts ...Option) *Engine {
	e := &Engine{
		store:  store,
		now:    time.Now,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}
