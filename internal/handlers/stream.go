// Copyright (c) 2026 OrenGen
// Licensed under MIT — See LICENSE for terms.
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/orengenio/OrenGen-2nd-Edition-sub003/internal/diagnostic"
)

const (
	streamWriteTimeout = 10 * time.Second
	streamMessageStep  = "step"
	streamMessageFinal = "result"
)

// streamMessage is one websocket frame. Step frames carry the transition;
// the final frame carries the whole diagnosis.
type streamMessage struct {
	Type string                 `json:"type"`
	Seq  int                    `json:"seq"`
	Step *diagnostic.StepResult `json:"step,omitempty"`
	*diagnosis
}

type StreamHandler struct {
	diagnose *DiagnoseHandler
	upgrader *websocket.Upgrader
}

func NewStreamHandler(d *DiagnoseHandler, checkOrigin func(r *http.Request) bool) *StreamHandler {
	upgrader := &websocket.Upgrader{
		HandshakeTimeout: 10 * time.Second,
		CheckOrigin:      checkOrigin,
	}
	if upgrader.CheckOrigin == nil {
		upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	return &StreamHandler{diagnose: d, upgrader: upgrader}
}

// Stream runs one diagnostic and pushes every step transition to the client
// as it happens, then the final result. Closing the socket cancels the run
// at the next step boundary.
func (h *StreamHandler) Stream(c *gin.Context) {
	target, err := diagnostic.NewTarget(c.Query("domain"), c.Query("selector"))
	if err != nil {
		respondBadRequest(c, targetError(err))
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		slog.Warn("WebSocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		// Drain control frames; any read error means the client is gone.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				cancel()
				return
			}
		}
	}()

	seq := 0
	send := func(msg streamMessage) bool {
		seq++
		msg.Seq = seq
		_ = conn.SetWriteDeadline(time.Now().Add(streamWriteTimeout))
		if err := conn.WriteJSON(msg); err != nil {
			cancel()
			return false
		}
		return true
	}

	report, err := h.diagnose.Chain.RunObserved(ctx, target, func(s diagnostic.StepResult) {
		if ctx.Err() == nil {
			send(streamMessage{Type: streamMessageStep, Step: &s})
		}
	})
	if err != nil {
		slog.Info("Diagnostic stream closed early", "domain", target.Domain, "error", err)
		return
	}

	h.diagnose.save(ctx, report)
	d := newDiagnosis(report)
	if send(streamMessage{Type: streamMessageFinal, diagnosis: &d}) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, "done"),
			time.Now().Add(time.Second))
	}
}
