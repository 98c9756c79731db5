package httpapi

import (
	"bufio"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/salesdesk/internal/server/notify"
	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

func writeEvent(w *bufio.Writer, ev notify.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}

// events streams notifications as text/event-stream until the client goes
// away or the hub is closed. A failed flush is how a disconnect shows up.
func (s *HTTPServer) events(c *fiber.Ctx) error {
	ch, unsubscribe := s.svc.Events.Subscribe()

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	ctx := c.UserContext()
	heartbeat := s.heartbeat

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer unsubscribe()

		ticker := time.NewTicker(heartbeat)
		defer ticker.Stop()

		if _, err := w.WriteString(": connected\n\n"); err != nil || w.Flush() != nil {
			return
		}

		for {
			select {
			case ev, ok := <-ch:
				if !ok {
					return
				}
				if err := writeEvent(w, ev); err != nil {
					s.logger.Debug(ctx, "event stream closed", "error", err)
					return
				}
			case <-ticker.C:
				if _, err := w.WriteString(": ping\n\n"); err != nil || w.Flush() != nil {
					return
				}
			}
		}
	}))

	return nil
}
