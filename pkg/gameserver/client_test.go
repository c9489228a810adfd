// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package gameserver

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeServer answers check_player with online=true for names starting with "on"
// and records warp requests.
func fakeServer(t *testing.T, warps chan<- WarpPlayers) *httptest.Server {
	t.Helper()
	upgrader := websocket.Upgrader{}
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var head inbound
			_ = json.Unmarshal(data, &head)
			switch head.Type {
			case TypeCheckPlayer:
				var req CheckPlayer
				_ = json.Unmarshal(data, &req)
				reply, _ := json.Marshal(map[string]any{
					"type":   TypePlayerStatus,
					"ign":    req.IGN,
					"online": strings.HasPrefix(req.IGN, "on"),
				})
				_ = conn.WriteMessage(websocket.TextMessage, reply)
			case TypeWarpPlayers:
				var req WarpPlayers
				_ = json.Unmarshal(data, &req)
				warps <- req
				reply, _ := json.Marshal(map[string]any{"type": TypeWarpSuccess, "gameId": req.GameID})
				_ = conn.WriteMessage(websocket.TextMessage, reply)
			}
		}
	}))
}

func TestClient_CheckPlayerOnlineAndWarp(t *testing.T) {
	t.Parallel()

	warps := make(chan WarpPlayers, 1)
	server := fakeServer(t, warps)
	defer server.Close()

	handler := newRecordingHandler()
	client := NewClient("ws"+strings.TrimPrefix(server.URL, "http"), NewDispatcher(handler, nil))
	require.NoError(t, client.Connect(context.Background()))
	defer client.Shutdown()

	done := make(chan error, 1)
	go func() { done <- client.Run(testScope()) }()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	online, err := client.CheckPlayerOnline(ctx, "onlineSteve")
	require.NoError(t, err)
	assert.True(t, online)

	online, err = client.CheckPlayerOnline(ctx, "Alex")
	require.NoError(t, err)
	assert.False(t, online)

	require.NoError(t, client.Send(ctx, NewWarpPlayers(5, "Aquarius", true, []string{"a"}, []string{"b"})))
	select {
	case got := <-warps:
		assert.Equal(t, "5", got.GameID)
		assert.Equal(t, []string{"a"}, got.Team1.Players)
	case <-ctx.Done():
		t.Fatal("warp request never reached the server")
	}

	require.Eventually(t, func() bool {
		handler.mu.Lock()
		defer handler.mu.Unlock()
		return handler.warps[5] == WarpSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	client.Shutdown()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after Shutdown")
	}
}

func TestClient_SendWithoutConnection(t *testing.T) {
	t.Parallel()

	client := NewClient("ws://127.0.0.1:1", nil)
	assert.Error(t, client.Send(context.Background(), CheckPlayer{Type: TypeCheckPlayer}))

	client.Shutdown()
	assert.ErrorIs(t, client.Send(context.Background(), CheckPlayer{}), ErrClientIsShuttingDown)
}
