// internal/handler/link_stream_handler.go
package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"link-service/internal/protocol"
	"link-service/internal/service"
)

const (
	streamWriteWait = 10 * time.Second
	streamCloseWait = time.Second
)

// StreamLink bridges an open link to a websocket
// @Summary Stream link traffic
// @Description Upgrade to a websocket carrying raw link bytes. Every chunk received on the link is sent as a binary message, and every client message is written to the link.
// @Tags Links
// @Param link_id path string true "Link ID or name"
// @Success 101 "Switching protocols"
// @Failure 404 {object} utils.APIResponse "Link not found"
// @Failure 409 {object} utils.APIResponse "Link not open or already streaming"
// @Router /links/{link_id}/stream [get]
func (h *LinkHandler) StreamLink(c *gin.Context) {
	stream, err := h.linkService.AttachStream(c.Request.Context(), c.Param("link_id"))
	if err != nil {
		h.respondError(c, "Failed to attach stream", err)
		return
	}
	defer stream.Close()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer conn.Close()

	logger := h.logger.With(
		zap.String("link", stream.Link.Name),
		zap.String("remote_addr", c.Request.RemoteAddr),
	)
	logger.Info("Link stream client connected")

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	pumpDone := make(chan struct{})
	go func() {
		defer close(pumpDone)
		h.pumpLinkToClient(ctx, cancel, conn, stream, logger)
	}()

	h.pumpClientToLink(ctx, conn, stream, logger)
	cancel()
	<-pumpDone

	logger.Info("Link stream client disconnected")
}

// pumpClientToLink writes every client message to the link until the client
// goes away or the link stops accepting writes
func (h *LinkHandler) pumpClientToLink(ctx context.Context, conn *websocket.Conn, stream *service.LinkStream, logger *zap.Logger) {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil && websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logger.Warn("WebSocket read error", zap.Error(err))
			}
			return
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}

		if err := stream.Write(ctx, message); err != nil {
			if errors.Is(err, protocol.ErrNoRemote) {
				logger.Debug("Dropping client message, no peer heard yet", zap.Int("bytes", len(message)))
				continue
			}
			logger.Warn("Link write failed", zap.Error(err))
			return
		}
	}
}

// pumpLinkToClient forwards link data to the client. It owns every data
// write on conn. When the link fails it sends a close frame and cancels ctx.
func (h *LinkHandler) pumpLinkToClient(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, stream *service.LinkStream, logger *zap.Logger) {
	for {
		data, err := stream.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if protocol.IsTimeout(err) {
				continue
			}

			logger.Info("Link read ended, closing stream", zap.Error(err))
			closeMessage := websocket.FormatCloseMessage(websocket.CloseGoingAway, "link closed")
			conn.WriteControl(websocket.CloseMessage, closeMessage, time.Now().Add(streamWriteWait))
			// Unblock the client reader if the peer never answers the close
			conn.SetReadDeadline(time.Now().Add(streamCloseWait))
			cancel()
			return
		}
		if len(data) == 0 {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteMessage(websocket.BinaryMessage, data); err != nil {
			logger.Warn("WebSocket write error", zap.Error(err))
			conn.SetReadDeadline(time.Now())
			cancel()
			return
		}
	}
}
