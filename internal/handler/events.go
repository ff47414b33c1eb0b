package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourorg/storeplane/internal/domain"
)

// StatusEvent is one message on the store event stream.
type StatusEvent struct {
	StoreID string    `json:"store_id"`
	Status  string    `json:"status"`
	URL     string    `json:"url,omitempty"`
	At      time.Time `json:"at"`
}

// EventsHandler streams store status changes over a WebSocket. Status is
// polled from the repository; the connection closes once the store reaches a
// terminal state or disappears.
type EventsHandler struct {
	storeRepo      domain.StoreRepository
	logger         *slog.Logger
	allowedOrigins []string
	pollInterval   time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(storeRepo domain.StoreRepository, logger *slog.Logger, allowedOrigins []string) *EventsHandler {
	return &EventsHandler{
		storeRepo:      storeRepo,
		logger:         logger,
		allowedOrigins: allowedOrigins,
		pollInterval:   2 * time.Second,
	}
}

// upgrader is initialized per-request to use instance's allowed origins
func (h *EventsHandler) getUpgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" {
				// Allow requests with no origin (e.g., non-browser clients)
				return true
			}
			for _, allowed := range h.allowedOrigins {
				if origin == allowed {
					return true
				}
			}
			h.logger.Warn("websocket origin rejected", slog.String("origin", origin))
			return false
		},
	}
}

// ServeHTTP handles GET /ws/stores/{id}/events requests
func (h *EventsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	storeID := r.PathValue("id")
	if storeID == "" {
		http.Error(w, "store id required", http.StatusBadRequest)
		return
	}

	upgrader := h.getUpgrader()
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer ws.Close()

	ctx := r.Context()
	ticker := time.NewTicker(h.pollInterval)
	defer ticker.Stop()

	var lastStatus domain.StoreStatus

	for {
		store, err := h.storeRepo.GetByID(ctx, storeID)
		if err != nil {
			if errors.Is(err, domain.ErrStoreNotFound) {
				// Either the store never existed or deletion just finished;
				// tell the client and hang up.
				h.writeEvent(ws, StatusEvent{StoreID: storeID, Status: "DELETED", At: time.Now().UTC()})
				return
			}
			h.logger.Error("failed to poll store status",
				slog.String("store_id", storeID),
				slog.String("error", err.Error()),
			)
			return
		}

		if store.Status != lastStatus {
			lastStatus = store.Status
			if err := h.writeEvent(ws, StatusEvent{
				StoreID: store.ID,
				Status:  string(store.Status),
				URL:     store.URL,
				At:      time.Now().UTC(),
			}); err != nil {
				return
			}
			if store.Status == domain.StatusReady || store.Status == domain.StatusFailed {
				return
			}
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (h *EventsHandler) writeEvent(ws *websocket.Conn, event StatusEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	ws.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return ws.WriteMessage(websocket.TextMessage, payload)
}
