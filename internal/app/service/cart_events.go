package service

import (
	"github.com/ikkim/storefront/internal/app/model"
)

type CartEventType string

const (
	CartEventAdded   CartEventType = "added"
	CartEventUpdated CartEventType = "updated"
	CartEventRemoved CartEventType = "removed"
	CartEventCleared CartEventType = "cleared"
)

// CartEvent is delivered to subscribers after every cart mutation.
type CartEvent struct {
	Type       CartEventType
	Version    uint64 // increases by one per mutation of the store
	CartItemID string
	Lines      []model.CartLine
	Totals     model.CartTotals
}

// Subscriber receives cart events with increasing versions. It runs on the
// mutating goroutine after the store lock is released and must not block for
// long or mutate the same store. Under concurrent mutations an event that is
// older than one already delivered is skipped.
type Subscriber func(CartEvent)
