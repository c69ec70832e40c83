package server

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/edibez/cryptoagent/pkg/types"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// handleWS answers one question per text frame until the client goes away.
func (a *App) handleWS(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("[ws] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("[ws] read error: %v", err)
			}
			return
		}

		var q types.WSQuestion
		if err := json.Unmarshal(data, &q); err != nil || q.Input == "" {
			if err := conn.WriteJSON(types.WSAnswer{Error: ErrInputRequired.Error()}); err != nil {
				return
			}
			continue
		}

		reply := types.WSAnswer{Input: q.Input}
		if answer, err := a.Ask(ctx, q.Input); err != nil {
			reply.Error = err.Error()
		} else {
			reply.Answer = answer
		}
		if err := conn.WriteJSON(reply); err != nil {
			log.Printf("[ws] write error: %v", err)
			return
		}
	}
}
