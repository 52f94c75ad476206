package handler

import (
	"log"
	"net/http"

	"blockfix/backend/internal/events"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Allows connections from any origin. Lock down in production.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeEventFeed upgrades the connection and streams complaint events to the
// dashboard until the client disconnects.
func (h *Handler) ServeEventFeed(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Failed to upgrade connection"})
		return
	}

	sub := &events.Subscriber{Send: make(chan events.Event, 64)}
	h.Hub.RegisterCh <- sub

	// Reader: only to detect the client going away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				h.Hub.UnregisterCh <- sub
				return
			}
		}
	}()

	for event := range sub.Send {
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Event feed client dropped: %v", err)
			break
		}
	}
	conn.Close()
}
