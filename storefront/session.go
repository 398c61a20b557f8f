// Package storefront composes the catalog, filter, product cards and cart of one
// pharmacy browsing session.
package storefront

import (
	"time"

	"github.com/google/uuid"

	"pharmacy/config"
)

// Session is the immutable per-visit context handed to the storefront.
type Session struct {
	ID              uuid.UUID
	StartedAt       time.Time
	Currency        string
	DefaultImageURL string
	AddedIndicator  time.Duration
}

// NewSession starts a session with display settings from cfg.
func NewSession(cfg config.StorefrontConfig) Session {
	return Session{
		ID:              uuid.New(),
		StartedAt:       time.Now(),
		Currency:        cfg.Currency,
		DefaultImageURL: cfg.DefaultImageURL,
		AddedIndicator:  cfg.AddedIndicator,
	}
}
