package handler

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

func TestWebSocketBroadcast(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	manager := NewWebSocketManager(zerolog.Nop())
	go manager.Start(ctx)

	r := gin.New()
	r.GET("/ws", NewWebSocketHandler(manager).HandleWebSocket)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return manager.ClientCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	manager.BroadcastGateEvent(domain.GateEventNotification{
		EventID:           "evt-1",
		Status:            domain.StatusAwaitingReview,
		Decision:          domain.DecisionManualReview,
		RequiresUserInput: true,
	})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, message, err := conn.ReadMessage()
	require.NoError(t, err)

	var got domain.GateEventNotification
	require.NoError(t, json.Unmarshal(message, &got))
	assert.Equal(t, "evt-1", got.EventID)
	assert.True(t, got.RequiresUserInput)

	conn.Close()
	assert.Eventually(t, func() bool { return manager.ClientCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestBroadcastDropsWhenBufferFull(t *testing.T) {
	manager := NewWebSocketManager(zerolog.Nop())
	for i := 0; i < broadcastBuffer+5; i++ {
		manager.BroadcastGateEvent(domain.GateEventNotification{EventID: "evt"})
	}
	assert.Len(t, manager.broadcast, broadcastBuffer)
}
