package stream

import (
	"encoding/json"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// SnapshotFunc returns the current state of a session, sent to a client as
// its first message so it does not wait for the next event.
type SnapshotFunc func(sessionID string) (any, bool)

type snapshotMessage struct {
	Type     string `json:"type"`
	Snapshot any    `json:"snapshot"`
}

func RegisterRoutes(r fiber.Router, hub *Hub, snapshot SnapshotFunc) {
	r.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		return c.Next()
	})

	r.Get("/ws/:sessionID", websocket.New(func(c *websocket.Conn) {
		sessionID := c.Params("sessionID")
		client := hub.Register(sessionID)
		defer hub.Unregister(client)

		if snapshot != nil {
			if snap, ok := snapshot(sessionID); ok {
				if msg, err := json.Marshal(snapshotMessage{Type: "snapshot", Snapshot: snap}); err == nil {
					if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
						return
					}
				}
			}
		}

		done := make(chan struct{})
		go func() {
			defer close(done)
			for msg := range client.Send {
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					return
				}
			}
		}()

		for {
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
		hub.Unregister(client)
		<-done
	}))
}
