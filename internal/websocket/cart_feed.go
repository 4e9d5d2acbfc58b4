package websocket

import (
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
)

const (
	FeedTypeCartUpdated  = "cart_updated"
	FeedTypeCartSnapshot = "cart_snapshot"
)

// CartFeedEvent is pushed to a session's connections after every cart mutation.
// Clients keep the cart with the highest version.
type CartFeedEvent struct {
	Type       string         `json:"type"`
	Version    uint64         `json:"version"`
	Event      string         `json:"event,omitempty"`
	CartItemID string         `json:"cart_item_id,omitempty"`
	Cart       model.CartView `json:"cart"`
}

// PublishCartEvents returns a session hook that forwards the new store's
// events to the hub.
func PublishCartEvents(hub *Hub) service.SessionHook {
	return func(sessionID string, store *service.CartStore) {
		store.Subscribe(func(ev service.CartEvent) {
			if !hub.IsSessionOnline(sessionID) {
				return
			}
			hub.SendToSession(sessionID, CartFeedEvent{
				Type:       FeedTypeCartUpdated,
				Version:    ev.Version,
				Event:      string(ev.Type),
				CartItemID: ev.CartItemID,
				Cart:       model.NewCartView(ev.Lines, ev.Totals),
			})
		})
	}
}

// NewSnapshotEvent builds the message sent on connect and on sync.
func NewSnapshotEvent(cart service.CartSnapshot) CartFeedEvent {
	return CartFeedEvent{
		Type:    FeedTypeCartSnapshot,
		Version: cart.Version,
		Cart:    model.NewCartView(cart.Lines, cart.Totals),
	}
}
