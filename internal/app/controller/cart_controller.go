package controller

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
	apperrors "github.com/ikkim/storefront/internal/errors"
	"github.com/ikkim/storefront/internal/export"
	"github.com/ikkim/storefront/internal/middleware"
)

type CartController struct {
	cartService service.CartService
}

func NewCartController(cartService service.CartService) *CartController {
	return &CartController{
		cartService: cartService,
	}
}

// Quantities are loosely typed so that "2", 2 and 2.0 are all accepted.
type AddToCartRequest struct {
	ProductID interface{} `json:"product_id"`
	Quantity  interface{} `json:"quantity"`
}

type UpdateCartRequest struct {
	Quantity interface{} `json:"quantity"`
}

// GetCart returns the session's cart with totals
// GET /api/v1/cart
func (ctrl *CartController) GetCart(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	cart := ctrl.cartService.GetCart(c.Request.Context(), sessionID)
	respondWithCart(c, http.StatusOK, cart)
}

// AddToCart adds a catalog product, merging into an existing line
// POST /api/v1/cart
func (ctrl *CartController) AddToCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	var req AddToCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add to cart request", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	productID, ok := service.ParseProductID(req.ProductID)
	if !ok {
		apperrors.RespondWithValidationError(c, map[string]string{
			"product_id": "must be a positive integer",
		})
		return
	}

	quantity, ok := service.NormalizeQuantity(req.Quantity)
	if !ok {
		// absent or non-numeric quantity adds a single unit
		quantity = 1
	}

	cart, err := ctrl.cartService.AddToCart(c.Request.Context(), sessionID, productID, quantity)
	if err != nil {
		if !errors.Is(err, service.ErrProductNotFound) {
			log.Error("Failed to add item to cart", err, map[string]interface{}{
				"session_id": sessionID,
				"product_id": productID,
			})
		}
		apperrors.RespondWithParsedError(c, err, "product")
		return
	}

	log.Info("Item added to cart successfully", map[string]interface{}{
		"session_id": sessionID,
		"product_id": productID,
		"quantity":   quantity,
	})
	respondWithCart(c, http.StatusOK, cart)
}

// UpdateCartItem sets a line's quantity; zero or less removes it
// PUT /api/v1/cart/:cart_item_id
func (ctrl *CartController) UpdateCartItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := requireSession(c)
	if !ok {
		return
	}
	cartItemID := c.Param("cart_item_id")

	var req UpdateCartRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid cart update request", map[string]interface{}{
			"session_id":   sessionID,
			"cart_item_id": cartItemID,
			"error":        err.Error(),
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidInput, "Invalid request body")
		return
	}

	quantity, ok := service.NormalizeQuantity(req.Quantity)
	if !ok {
		log.Debug("Ignoring non-numeric quantity update", map[string]interface{}{
			"session_id":   sessionID,
			"cart_item_id": cartItemID,
		})
		respondWithCart(c, http.StatusOK, ctrl.cartService.GetCart(c.Request.Context(), sessionID))
		return
	}

	cart := ctrl.cartService.UpdateCartItem(c.Request.Context(), sessionID, cartItemID, quantity)
	respondWithCart(c, http.StatusOK, cart)
}

// RemoveFromCart deletes a line; removing an absent line is not an error
// DELETE /api/v1/cart/:cart_item_id
func (ctrl *CartController) RemoveFromCart(c *gin.Context) {
	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	cart := ctrl.cartService.RemoveFromCart(c.Request.Context(), sessionID, c.Param("cart_item_id"))
	respondWithCart(c, http.StatusOK, cart)
}

// ClearCart empties the cart
// DELETE /api/v1/cart
func (ctrl *CartController) ClearCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	cart := ctrl.cartService.ClearCart(c.Request.Context(), sessionID)
	log.Info("Cart cleared", map[string]interface{}{
		"session_id": sessionID,
	})
	respondWithCart(c, http.StatusOK, cart)
}

// ExportCart downloads the cart as an xlsx workbook
// GET /api/v1/cart/export
func (ctrl *CartController) ExportCart(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	cart := ctrl.cartService.GetCart(c.Request.Context(), sessionID)
	data, err := export.CartBytes(cart.Lines, cart.Totals)
	if err != nil {
		log.Error("Failed to export cart", err, map[string]interface{}{
			"session_id": sessionID,
		})
		apperrors.RespondWithError(c, http.StatusInternalServerError, apperrors.CartExportFailed, "Could not export the cart. Please try again later")
		return
	}

	filename := fmt.Sprintf("cart-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, export.ContentType, data)
}

func requireSession(c *gin.Context) (string, bool) {
	sessionID, ok := middleware.GetSessionID(c)
	if !ok {
		middleware.GetLoggerFromContext(c).Warn("Cart request without session", map[string]interface{}{
			"path": c.Request.URL.Path,
		})
		apperrors.BadRequest(c, apperrors.SessionMissing, "No cart session")
		return "", false
	}
	return sessionID, true
}

func respondWithCart(c *gin.Context, status int, cart service.CartSnapshot) {
	c.JSON(status, gin.H{
		"cart": model.NewCartView(cart.Lines, cart.Totals),
	})
}
