package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"keep-backend-go/internal/models"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTheftHubDeliversToOwnerOnly(t *testing.T) {
	hub := NewTheftHub(nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		owner := r.URL.Query().Get("owner")
		hub.Add(owner, conn)
		defer hub.Remove(owner, conn)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer server.Close()

	dial := func(owner string) *websocket.Conn {
		url := "ws" + strings.TrimPrefix(server.URL, "http") + "/?owner=" + owner
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		return conn
	}
	ownerConn := dial(ownerID)
	defer ownerConn.Close()
	otherConn := dial(otherID)
	defer otherConn.Close()

	require.Eventually(t, func() bool {
		return hub.Subscribers(ownerID) == 1 && hub.Subscribers(otherID) == 1
	}, 2*time.Second, 10*time.Millisecond)

	hub.Publish(TheftEvent{OwnerID: ownerID, Report: models.TheftReport{ID: "report-1", AssetID: assetID}})

	var event TheftEvent
	require.NoError(t, ownerConn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, ownerConn.ReadJSON(&event))
	assert.Equal(t, "report-1", event.Report.ID)

	require.NoError(t, otherConn.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := otherConn.ReadMessage()
	assert.Error(t, err)
}

func TestTheftHubPublishDoesNotBlock(t *testing.T) {
	hub := NewTheftHub(nil)
	for i := 0; i < 100; i++ {
		hub.Publish(TheftEvent{OwnerID: ownerID})
	}
	assert.Len(t, hub.ch, cap(hub.ch))
}

func TestTheftHubDropsClientPastWriteDeadline(t *testing.T) {
	hub := NewTheftHub(nil)
	// an already expired deadline makes every write time out
	hub.writeTimeout = -time.Second
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		hub.Add(ownerID, conn)
	}))
	defer server.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return hub.Subscribers(ownerID) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.Publish(TheftEvent{OwnerID: ownerID, Report: models.TheftReport{ID: "report-1", AssetID: assetID}})

	require.Eventually(t, func() bool { return hub.Subscribers(ownerID) == 0 }, 2*time.Second, 10*time.Millisecond)
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err, "timed out write must not deliver the event")
}
