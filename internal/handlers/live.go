package handlers

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"tiffin/internal/services/live"
	"tiffin/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

const ssePingInterval = 25 * time.Second

type LiveHandler struct {
	registry *live.Registry
}

func NewLiveHandler(registry *live.Registry) *LiveHandler {
	return &LiveHandler{registry: registry}
}

// Stream pushes delivery and wallet events to the client over SSE. The
// periodic ping doubles as the heartbeat that keeps the subscription from
// being evicted.
func (h *LiveHandler) Stream(c *fiber.Ctx) error {
	claims, err := extractUserClaims(c)
	if err != nil {
		return utils.Unauthorized(c, "invalid claims")
	}
	userID := claims.UserID

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	sub := h.registry.Subscribe(userID)

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer sub.Close()

		ping := time.NewTicker(ssePingInterval)
		defer ping.Stop()

		for {
			select {
			case event, open := <-sub.Events():
				if !open {
					return
				}
				payload, err := json.Marshal(event)
				if err != nil {
					log.Printf("Failed to encode live event for user %d: %v", userID, err)
					continue
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, payload)
				if err := w.Flush(); err != nil {
					return
				}
			case <-ping.C:
				fmt.Fprint(w, ": ping\n\n")
				if err := w.Flush(); err != nil {
					return
				}
				h.registry.Heartbeat(sub)
			}
		}
	}))

	return nil
}
