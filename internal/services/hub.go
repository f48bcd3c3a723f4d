package services

import (
	"context"
	"sync"
	"time"

	"keep-backend-go/internal/models"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// hubWriteTimeout bounds each push so one stalled client cannot hold up the
// other subscribers.
const hubWriteTimeout = 5 * time.Second

// TheftEvent is pushed to the owner of the reported asset.
type TheftEvent struct {
	OwnerID string             `json:"-"`
	Report  models.TheftReport `json:"report"`
}

// TheftHub fans new theft reports out to the websocket connections of the
// asset owner.
type TheftHub struct {
	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]bool
	ch      chan TheftEvent
	log     *zap.Logger

	writeTimeout time.Duration
}

func NewTheftHub(logger *zap.Logger) *TheftHub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TheftHub{
		clients: map[string]map[*websocket.Conn]bool{},
		ch:      make(chan TheftEvent, 16),
		log:     logger.Named("theft_hub"),

		writeTimeout: hubWriteTimeout,
	}
}

func (h *TheftHub) Run(ctx context.Context) {
	for {
		select {
		case event := <-h.ch:
			for _, conn := range h.connections(event.OwnerID) {
				if err := h.write(conn, event); err != nil {
					h.log.Debug("theft event write failed", zap.String("owner", event.OwnerID), zap.Error(err))
					h.Remove(event.OwnerID, conn)
					_ = conn.Close()
				}
			}
		case <-ctx.Done():
			return
		}
	}
}

func (h *TheftHub) write(conn *websocket.Conn, event TheftEvent) error {
	if err := conn.SetWriteDeadline(time.Now().Add(h.writeTimeout)); err != nil {
		return err
	}
	return conn.WriteJSON(event)
}

// Publish drops the event when the hub is backed up.
func (h *TheftHub) Publish(event TheftEvent) {
	select {
	case h.ch <- event:
	default:
		h.log.Warn("theft event dropped", zap.String("owner", event.OwnerID))
	}
}

func (h *TheftHub) Add(ownerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[ownerID] == nil {
		h.clients[ownerID] = map[*websocket.Conn]bool{}
	}
	h.clients[ownerID][conn] = true
}

func (h *TheftHub) Remove(ownerID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients[ownerID], conn)
	if len(h.clients[ownerID]) == 0 {
		delete(h.clients, ownerID)
	}
}

func (h *TheftHub) Subscribers(ownerID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients[ownerID])
}

func (h *TheftHub) connections(ownerID string) []*websocket.Conn {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns := make([]*websocket.Conn, 0, len(h.clients[ownerID]))
	for conn := range h.clients[ownerID] {
		conns = append(conns, conn)
	}
	return conns
}
