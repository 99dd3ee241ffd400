package events

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/renthive/rental-app/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// HandleWebSocket upgrades the request and keeps the connection registered
// on the hub until the client goes away. The auth middleware has already
// validated the token and set user_id/role.
func HandleWebSocket(c *gin.Context) {
	userID, ok := c.Get("user_id")
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	role := c.GetString("role")

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("websocket upgrade failed: %v", err)
		return
	}

	RegisterClient(conn, userID.(uint), role)
	defer UnregisterClient(conn)

	// Drain client frames; the hub only pushes, so anything other than
	// a clean ping/pong just keeps the connection alive.
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
