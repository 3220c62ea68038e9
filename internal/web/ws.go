package web

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Session auth already ran; the API serves non-browser clients too.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleBoardSocket attaches a websocket client to the board's change feed
// and broadcast channel.
func (s *server) handleBoardSocket(c *gin.Context) {
	s.serveSocket(c, realtime.BoardChannel(c.Param("id")))
}

// handlePresenceSocket attaches a websocket client to the board's presence
// channel.
func (s *server) handlePresenceSocket(c *gin.Context) {
	s.serveSocket(c, realtime.PresenceChannelName(c.Param("id")))
}

func (s *server) serveSocket(c *gin.Context, channelName string) {
	boardID := c.Param("id")
	if _, ok := s.membership(c, boardID); !ok {
		return
	}
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade already wrote the error response.
		log.Printf("web: websocket upgrade for board %s: %v", boardID, err)
		return
	}
	realtime.ServeConn(s.hub, channelName, conn)
}
