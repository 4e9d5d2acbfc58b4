package service

import (
	"context"
	"errors"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/pkg/logger"
)

// CartSnapshot is a cart's lines together with their totals.
type CartSnapshot struct {
	Lines  []model.CartLine
	Totals model.CartTotals
	// Version is the store version the lines were read at. Only GetCart
	// sets it.
	Version uint64
}

// CartService is the request-facing cart API. It resolves the session's
// CartStore and looks products up in the catalog before adding them.
type CartService interface {
	GetCart(ctx context.Context, sessionID string) CartSnapshot
	AddToCart(ctx context.Context, sessionID string, productID, quantity int) (CartSnapshot, error)
	UpdateCartItem(ctx context.Context, sessionID, cartItemID string, quantity int) CartSnapshot
	RemoveFromCart(ctx context.Context, sessionID, cartItemID string) CartSnapshot
	ClearCart(ctx context.Context, sessionID string) CartSnapshot
}

type cartService struct {
	sessions *CartSessions
	catalog  CatalogService
}

func NewCartService(sessions *CartSessions, catalog CatalogService) CartService {
	return &cartService{
		sessions: sessions,
		catalog:  catalog,
	}
}

func (s *cartService) GetCart(ctx context.Context, sessionID string) CartSnapshot {
	store := s.sessions.Get(ctx, sessionID)
	lines, version := store.Snapshot()
	cart := snapshot(lines, store)
	cart.Version = version
	return cart
}

func (s *cartService) AddToCart(ctx context.Context, sessionID string, productID, quantity int) (CartSnapshot, error) {
	store := s.sessions.Get(ctx, sessionID)

	product, err := s.catalog.Product(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			logger.Warn("Cannot add to cart: product not found", map[string]interface{}{
				"session_id": sessionID,
				"product_id": productID,
			})
		} else {
			logger.Error("Failed to look up product for cart", err, map[string]interface{}{
				"session_id": sessionID,
				"product_id": productID,
			})
		}
		return snapshot(store.Lines(), store), err
	}

	return snapshot(store.AddItem(ctx, *product, quantity), store), nil
}

func (s *cartService) UpdateCartItem(ctx context.Context, sessionID, cartItemID string, quantity int) CartSnapshot {
	store := s.sessions.Get(ctx, sessionID)
	return snapshot(store.UpdateQuantity(ctx, cartItemID, quantity), store)
}

func (s *cartService) RemoveFromCart(ctx context.Context, sessionID, cartItemID string) CartSnapshot {
	store := s.sessions.Get(ctx, sessionID)
	return snapshot(store.RemoveItem(ctx, cartItemID), store)
}

func (s *cartService) ClearCart(ctx context.Context, sessionID string) CartSnapshot {
	store := s.sessions.Get(ctx, sessionID)
	return snapshot(store.Clear(ctx), store)
}

func snapshot(lines []model.CartLine, store *CartStore) CartSnapshot {
	return CartSnapshot{
		Lines:  lines,
		Totals: ComputeTotals(lines, store.taxRate),
	}
}
