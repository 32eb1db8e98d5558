// Copyright (c) 2026 Kevin Zang (kevinzang). All rights reserved.
// Use of this source code is governed by the MIT License.
//
// MediaConv - 媒体文件格式转换服务

package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const heartbeatInterval = 30 * time.Second

// Events GET /api/v1/conversions/:id/events
//
// Streams progress and the terminal outcome as server-sent events. The
// stream ends when the conversion finishes or the client disconnects.
func (h *Handler) Events(c *gin.Context) {
	id := c.Param("id")

	events, cancel, err := h.store.Subscribe(id)
	if err != nil {
		errResp(c, http.StatusNotFound, "Unknown conversion ID", err.Error())
		return
	}
	defer cancel()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		errResp(c, http.StatusInternalServerError, "Streaming not supported", "")
		return
	}

	heartbeat := time.NewTicker(heartbeatInterval)
	defer heartbeat.Stop()

	for {
		select {
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(c.Writer, "data: %s\n\n", data)
			flusher.Flush()
		case <-heartbeat.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: heartbeat\n\n")
			flusher.Flush()
		case <-c.Request.Context().Done():
			return
		}
	}
}
