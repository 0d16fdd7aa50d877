// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/realtime"
)

const streamWriteTimeout = 5 * time.Second

// TallySubscriber hands out live tally subscriptions
type TallySubscriber interface {
	Subscribe(categoryID string) (*realtime.Subscription, error)
}

// CategoryFinder checks that a category exists
type CategoryFinder interface {
	Category(ctx context.Context, id string) (models.Category, error)
}

type StreamHandler struct {
	tallies        TallySubscriber
	categories     CategoryFinder
	originPatterns []string
}

// NewStreamHandler creates the WebSocket tally handler. originPatterns is
// passed to the upgrader; empty means same-origin only.
func NewStreamHandler(tallies TallySubscriber, categories CategoryFinder, originPatterns []string) *StreamHandler {
	return &StreamHandler{tallies: tallies, categories: categories, originPatterns: originPatterns}
}

// StreamTally handles GET /categories/{id}/tally/stream
// Upgrades to a WebSocket and writes one JSON TallySnapshot per push
func (h *StreamHandler) StreamTally(w http.ResponseWriter, r *http.Request) {
	categoryID := r.PathValue("id")

	if _, err := h.categories.Category(r.Context(), categoryID); err != nil {
		if errors.Is(err, catalog.ErrNotFound) {
			middleware.ErrorResponse(w, http.StatusNotFound, "Category not found")
			return
		}
		writeError(w, errors.Join(models.ErrUnavailable, err), "find category")
		return
	}

	sub, err := h.tallies.Subscribe(categoryID)
	if err != nil {
		if errors.Is(err, realtime.ErrClosed) {
			err = errors.Join(models.ErrUnavailable, err)
		}
		writeError(w, err, "subscribe tally")
		return
	}
	defer sub.Close()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		slog.Warn("websocket upgrade failed", "error", err, "category_id", categoryID)
		return
	}
	defer conn.CloseNow()

	// CloseRead discards client frames and cancels ctx when the peer goes away.
	ctx := conn.CloseRead(r.Context())

	slog.Info("tally stream opened", "category_id", categoryID)
	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "closed")
			return
		case snap, ok := <-sub.C:
			if !ok {
				conn.Close(websocket.StatusGoingAway, "server shutting down")
				return
			}
			writeCtx, cancel := context.WithTimeout(ctx, streamWriteTimeout)
			err := wsjson.Write(writeCtx, conn, snap)
			cancel()
			if err != nil {
				slog.Debug("tally stream write failed", "error", err, "category_id", categoryID)
				return
			}
		}
	}
}
