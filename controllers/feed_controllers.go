package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/yeremiapane/mess-management/feed"
	"github.com/yeremiapane/mess-management/utils"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// FeedHandler upgrade koneksi ke websocket untuk live feed dashboard.
// Auth sudah lewat middleware (token di query string untuk websocket).
func FeedHandler(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		utils.ErrorLogger.Printf("Failed to upgrade websocket: %v", err)
		return
	}

	messID := c.GetUint("mess_id")
	feed.RegisterClient(conn, messID)
	utils.InfoLogger.Printf("Feed client connected for mess %d", messID)

	// Read loop hanya untuk mendeteksi close dari client
	go func() {
		defer feed.UnregisterClient(conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
	}()
}
