package controller

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/ikkim/storefront/internal/app/service"
	"github.com/ikkim/storefront/internal/middleware"
	ws "github.com/ikkim/storefront/internal/websocket"
)

type CartFeedController struct {
	cartService service.CartService
	hub         *ws.Hub
	upgrader    websocket.Upgrader
}

// NewCartFeedController accepts upgrades from allowedOrigins; "*" allows any
// origin and requests without an Origin header are always accepted.
func NewCartFeedController(cartService service.CartService, hub *ws.Hub, allowedOrigins []string) *CartFeedController {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	return &CartFeedController{
		cartService: cartService,
		hub:         hub,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || allowed["*"] || allowed[origin]
			},
		},
	}
}

// HandleWebSocket streams cart change events for the caller's session.
// The first message is a snapshot of the current cart.
// GET /api/v1/cart/ws
func (ctrl *CartFeedController) HandleWebSocket(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	sessionID, ok := requireSession(c)
	if !ok {
		return
	}

	conn, err := ctrl.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Warn("Failed to upgrade to WebSocket", map[string]interface{}{
			"session_id": sessionID,
			"error":      err.Error(),
		})
		return
	}

	client := ws.NewClient(ctrl.hub, ws.NewConn(conn), sessionID)

	// the client is not shared yet, so the snapshot can go straight into its queue
	snapshot := ws.NewSnapshotEvent(ctrl.cartService.GetCart(c.Request.Context(), sessionID))
	if data, err := json.Marshal(snapshot); err == nil {
		client.Send <- data
	}

	ctrl.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()

	log.Info("WebSocket connection established", map[string]interface{}{
		"session_id": sessionID,
	})
}
