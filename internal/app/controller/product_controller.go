package controller

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/internal/app/model"
	"github.com/ikkim/storefront/internal/app/service"
	apperrors "github.com/ikkim/storefront/internal/errors"
	"github.com/ikkim/storefront/internal/middleware"
)

const (
	catalogStatusOK          = "ok"
	catalogStatusUnavailable = "unavailable"
)

type ProductController struct {
	catalogService service.CatalogService
}

func NewProductController(catalogService service.CatalogService) *ProductController {
	return &ProductController{
		catalogService: catalogService,
	}
}

// ListProducts returns the filtered catalog. A catalog outage yields an
// empty list with status "unavailable" rather than an error.
// GET /api/v1/products?search=&category=
func (ctrl *ProductController) ListProducts(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	search := strings.TrimSpace(c.Query("search"))
	category := c.DefaultQuery("category", model.CategoryAll)

	products, err := ctrl.catalogService.List(c.Request.Context(), search, category)
	if err != nil {
		log.Warn("Catalog unavailable, returning empty product list", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusOK, gin.H{
			"products": []model.Product{},
			"count":    0,
			"status":   catalogStatusUnavailable,
		})
		return
	}

	log.Info("Products fetched successfully", map[string]interface{}{
		"search":   search,
		"category": category,
		"count":    len(products),
	})

	c.JSON(http.StatusOK, gin.H{
		"products": products,
		"count":    len(products),
		"status":   catalogStatusOK,
	})
}

// GetCategories lists catalog categories, prefixed by the "all" sentinel
// GET /api/v1/products/categories
func (ctrl *ProductController) GetCategories(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	categories, err := ctrl.catalogService.Categories(c.Request.Context())
	if err != nil {
		log.Warn("Catalog unavailable, returning no categories", map[string]interface{}{
			"error": err.Error(),
		})
		c.JSON(http.StatusOK, gin.H{
			"categories": []string{model.CategoryAll},
			"status":     catalogStatusUnavailable,
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"categories": append([]string{model.CategoryAll}, categories...),
		"status":     catalogStatusOK,
	})
}

// GetProductByID returns a product by ID
// GET /api/v1/products/:id
func (ctrl *ProductController) GetProductByID(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		log.Warn("Invalid product ID format", map[string]interface{}{
			"product_id": idStr,
		})
		apperrors.BadRequest(c, apperrors.ValidationInvalidID, "Invalid product ID")
		return
	}

	product, err := ctrl.catalogService.Product(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			log.Warn("Product not found", map[string]interface{}{
				"product_id": id,
			})
		} else {
			log.Error("Failed to fetch product", err, map[string]interface{}{
				"product_id": id,
			})
		}
		apperrors.RespondWithParsedError(c, err, "product")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"product": product,
	})
}
