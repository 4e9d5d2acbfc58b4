package service

import (
	"context"
	"testing"

	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/storage"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCartServiceTest(t *testing.T) CartService {
	t.Helper()
	source := &fakeCatalog{results: []catalogResult{{products: []model.Product{backpack, tshirt}}}}
	catalog := NewCatalogService(source)
	require.NoError(t, catalog.Refresh(context.Background()))

	sessions := NewCartSessions(storage.NewMemoryStore(), "cart", DefaultTaxRate, NewSequenceGenerator("line"))
	return NewCartService(sessions, catalog)
}

func TestCartService_AddToCart(t *testing.T) {
	svc := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "s1", backpack.ID, 2)
	require.NoError(t, err)
	cart, err := svc.AddToCart(ctx, "s1", tshirt.ID, 1)
	require.NoError(t, err)

	require.Len(t, cart.Lines, 2)
	assert.True(t, cart.Totals.GrandTotal.Equal(decimal.RequireFromString("28.05")))
	assert.Equal(t, 3, cart.Totals.ItemCount)
}

func TestCartService_AddToCart_UnknownProduct(t *testing.T) {
	svc := setupCartServiceTest(t)

	cart, err := svc.AddToCart(context.Background(), "s1", 999, 1)
	assert.ErrorIs(t, err, ErrProductNotFound)
	assert.Len(t, cart.Lines, 0)
	assert.True(t, cart.Totals.Subtotal.IsZero())
}

func TestCartService_UpdateRemoveClear(t *testing.T) {
	svc := setupCartServiceTest(t)
	ctx := context.Background()

	cart, err := svc.AddToCart(ctx, "s1", backpack.ID, 1)
	require.NoError(t, err)
	id := cart.Lines[0].CartItemID

	cart = svc.UpdateCartItem(ctx, "s1", id, 4)
	assert.Equal(t, 4, cart.Lines[0].Quantity)

	cart = svc.UpdateCartItem(ctx, "s1", "unknown", 9)
	assert.Equal(t, 4, cart.Lines[0].Quantity)

	cart = svc.RemoveFromCart(ctx, "s1", id)
	assert.Len(t, cart.Lines, 0)

	_, err = svc.AddToCart(ctx, "s1", tshirt.ID, 1)
	require.NoError(t, err)
	cart = svc.ClearCart(ctx, "s1")
	assert.Len(t, cart.Lines, 0)
	assert.Len(t, svc.GetCart(ctx, "s1").Lines, 0)
}

func TestCartService_SessionsAreIsolated(t *testing.T) {
	svc := setupCartServiceTest(t)
	ctx := context.Background()

	_, err := svc.AddToCart(ctx, "s1", backpack.ID, 1)
	require.NoError(t, err)

	assert.Len(t, svc.GetCart(ctx, "s1").Lines, 1)
	assert.Len(t, svc.GetCart(ctx, "s2").Lines, 0)
}

func TestCartService_GetCartReportsVersion(t *testing.T) {
	svc := setupCartServiceTest(t)
	ctx := context.Background()

	assert.Equal(t, uint64(0), svc.GetCart(ctx, "s1").Version)

	_, err := svc.AddToCart(ctx, "s1", backpack.ID, 1)
	require.NoError(t, err)
	_, err = svc.AddToCart(ctx, "s1", backpack.ID, 1)
	require.NoError(t, err)

	assert.Equal(t, uint64(2), svc.GetCart(ctx, "s1").Version)
}
