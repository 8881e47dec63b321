package controller

import (
	"encoding/json"
	"fmt"

	"github.com/gin-gonic/gin"
)

// sseHeaders sets the response headers an SSE stream needs: no buffering,
// no caching, and a content type that tells the client to keep the
// connection open and parse incoming "data: " frames.
func sseHeaders(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
}

// writeSSEEvent frames payload as a single "data: <json>\n\n" event and
// flushes it immediately so the client sees it without buffering delay.
func writeSSEEvent(c *gin.Context, payload any) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("controller: marshal sse event: %w", err)
	}
	if _, err := fmt.Fprintf(c.Writer, "data: %s\n\n", b); err != nil {
		return err
	}
	c.Writer.Flush()
	return nil
}

// writeSSEDone writes the terminal "data: [DONE]\n\n" sentinel.
func writeSSEDone(c *gin.Context) {
	fmt.Fprint(c.Writer, "data: [DONE]\n\n")
	c.Writer.Flush()
}
