package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/config"
	"github.com/ikkim/storefront/internal/app/controller"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/middleware"
)

type Router struct {
	productController  *controller.ProductController
	cartController     *controller.CartController
	cartFeedController *controller.CartFeedController
	sessionMiddleware  *middleware.SessionMiddleware
	catalogService     service.CatalogService
	config             *config.Config
}

func NewRouter(
	productController *controller.ProductController,
	cartController *controller.CartController,
	cartFeedController *controller.CartFeedController,
	sessionMiddleware *middleware.SessionMiddleware,
	catalogService service.CatalogService,
	cfg *config.Config,
) *Router {
	return &Router{
		productController:  productController,
		cartController:     cartController,
		cartFeedController: cartFeedController,
		sessionMiddleware:  sessionMiddleware,
		catalogService:     catalogService,
		config:             cfg,
	}
}

func (r *Router) Setup() *gin.Engine {
	gin.SetMode(r.config.Server.GinMode)

	router := gin.New()

	router.Use(gin.Recovery())
	router.Use(middleware.LoggingMiddleware())
	router.Use(corsMiddleware(r.config.CORS.AllowedOrigins))

	router.GET("/health", r.health)

	v1 := router.Group("/api/v1")
	{
		products := v1.Group("/products")
		{
			products.GET("", r.productController.ListProducts)
			products.GET("/categories", r.productController.GetCategories)
			products.GET("/:id", r.productController.GetProductByID)
		}

		cart := v1.Group("/cart")
		cart.Use(r.sessionMiddleware.Attach())
		{
			cart.GET("", r.cartController.GetCart)
			cart.POST("", r.cartController.AddToCart)
			cart.DELETE("", r.cartController.ClearCart)
			cart.GET("/export", r.cartController.ExportCart)
			cart.GET("/ws", r.cartFeedController.HandleWebSocket)
			cart.PUT("/:cart_item_id", r.cartController.UpdateCartItem)
			cart.DELETE("/:cart_item_id", r.cartController.RemoveFromCart)
		}
	}

	return router
}

func (r *Router) health(c *gin.Context) {
	status := r.catalogService.Status()
	catalogState := "ok"
	if !status.Available {
		catalogState = "unavailable"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"message": "storefront API is running",
		"catalog": gin.H{
			"status":        catalogState,
			"product_count": status.ProductCount,
			"last_refresh":  status.LastRefresh,
			"last_error":    status.LastError,
		},
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		allowed := false
		for _, allowedOrigin := range allowedOrigins {
			if origin == allowedOrigin || allowedOrigin == "*" {
				allowed = true
				break
			}
		}

		if allowed {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}

		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, X-Session-Token, X-Request-ID, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Expose-Headers", "X-Session-Token, X-Request-ID, Content-Disposition")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
