// Copyright (c) 2025 AccelByte Inc. All Rights Reserved.
// This is licensed software from AccelByte Inc, for limitations
// and restrictions contact your company contract manager.

package gameserver

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rotisserie/eris"

	"github.com/rbwleague/matchcoordinator/pkg/envelope"
)

var ErrClientIsShuttingDown = errors.New("game server client is shutting down")

const (
	defaultWriteTimeout = 10 * time.Second
	reconnectDelay      = 2 * time.Second
	maxConnectAttempts  = 5
)

// Channel is the outbound side of the game server link.
type Channel interface {
	Send(ctx context.Context, msg any) error
	// CheckPlayerOnline asks whether the in-game name is currently connected.
	CheckPlayerOnline(ctx context.Context, ign string) (bool, error)
}

// Client is a websocket link to the game server bridge. Inbound messages other
// than player status answers are handed to the Dispatcher.
type Client struct {
	url        string
	dispatcher *Dispatcher

	connectMutex sync.Mutex
	conn         *websocket.Conn
	didShutdown  bool

	writeMutex sync.Mutex

	statusMutex sync.Mutex
	waiters     map[string][]chan bool
}

var _ Channel = (*Client)(nil)

func NewClient(url string, dispatcher *Dispatcher) *Client {
	return &Client{
		url:        url,
		dispatcher: dispatcher,
		waiters:    make(map[string][]chan bool),
	}
}

// Connect dials the server, retrying a few times before giving up.
func (c *Client) Connect(ctx context.Context) error {
	return c.connectWithRetry(ctx)
}

func (c *Client) connectWithRetry(ctx context.Context) error {
	var err error
	for tries := 1; tries <= maxConnectAttempts; tries++ {
		if err = c.establishConnection(ctx); err == nil {
			return nil
		}
		if errors.Is(err, ErrClientIsShuttingDown) {
			return err
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(reconnectDelay):
		}
	}
	return eris.Wrapf(err, "failed to connect after %d attempts", maxConnectAttempts)
}

func (c *Client) establishConnection(ctx context.Context) error {
	c.connectMutex.Lock()
	defer c.connectMutex.Unlock()
	if c.didShutdown {
		return ErrClientIsShuttingDown
	}

	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, c.url, nil) //nolint:bodyclose // no need.
	if err != nil {
		return eris.Wrap(err, "websocket dial failed")
	}
	c.conn = conn
	return nil
}

func (c *Client) connection() (*websocket.Conn, error) {
	c.connectMutex.Lock()
	defer c.connectMutex.Unlock()
	if c.didShutdown {
		return nil, ErrClientIsShuttingDown
	}
	if c.conn == nil {
		return nil, eris.New("game server is not connected")
	}
	return c.conn, nil
}

func (c *Client) Send(ctx context.Context, msg any) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return eris.Wrap(err, "encode message")
	}
	conn, err := c.connection()
	if err != nil {
		return err
	}

	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultWriteTimeout)
	}

	c.writeMutex.Lock()
	defer c.writeMutex.Unlock()
	_ = conn.SetWriteDeadline(deadline)
	if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return eris.Wrap(err, "write to game server")
	}
	return nil
}

func (c *Client) CheckPlayerOnline(ctx context.Context, ign string) (bool, error) {
	key := strings.ToLower(ign)
	answer := make(chan bool, 1)

	c.statusMutex.Lock()
	c.waiters[key] = append(c.waiters[key], answer)
	c.statusMutex.Unlock()
	defer c.dropWaiter(key, answer)

	if err := c.Send(ctx, CheckPlayer{Type: TypeCheckPlayer, IGN: ign}); err != nil {
		return false, err
	}

	select {
	case online := <-answer:
		return online, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (c *Client) dropWaiter(key string, answer chan bool) {
	c.statusMutex.Lock()
	defer c.statusMutex.Unlock()
	list := c.waiters[key]
	for i, ch := range list {
		if ch == answer {
			list = append(list[:i], list[i+1:]...)
			break
		}
	}
	if len(list) == 0 {
		delete(c.waiters, key)
	} else {
		c.waiters[key] = list
	}
}

// resolveStatus answers every pending check for the name.
func (c *Client) resolveStatus(p playerStatusPayload) {
	key := strings.ToLower(p.IGN)
	c.statusMutex.Lock()
	list := c.waiters[key]
	delete(c.waiters, key)
	c.statusMutex.Unlock()

	for _, ch := range list {
		select {
		case ch <- p.Online:
		default:
		}
	}
}

// Run reads until Shutdown, reconnecting when the socket drops.
// It is meant to be called in a goroutine.
func (c *Client) Run(scope *envelope.Scope) error {
	for {
		conn, err := c.connection()
		if errors.Is(err, ErrClientIsShuttingDown) {
			return nil
		}
		if err == nil {
			err = c.readLoop(scope, conn)
		}
		if c.isShutdown() {
			return nil
		}
		scope.Log.WithError(err).Warn("[gameserver] connection lost, reconnecting")
		if err := c.connectWithRetry(scope.Ctx); err != nil {
			if errors.Is(err, ErrClientIsShuttingDown) {
				return nil
			}
			return eris.Wrap(err, "failed to reestablish a websocket connection")
		}
	}
}

func (c *Client) readLoop(scope *envelope.Scope, conn *websocket.Conn) error {
	for {
		messageType, message, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if messageType != websocket.TextMessage {
			continue
		}
		c.handle(scope, message)
	}
}

func (c *Client) handle(scope *envelope.Scope, message []byte) {
	var head inbound
	if err := json.Unmarshal(message, &head); err != nil {
		scope.Log.WithError(err).Warn("[gameserver] unreadable message")
		return
	}
	if head.Type == TypePlayerStatus {
		var p playerStatusPayload
		if err := json.Unmarshal(message, &p); err != nil {
			scope.Log.WithError(err).Warn("[gameserver] unreadable player_status")
			return
		}
		c.resolveStatus(p)
		return
	}
	if c.dispatcher == nil {
		return
	}
	// handlers may block on storage and guild calls, keep the socket drained
	go func() {
		child := envelope.ChildScopeFromRemoteScope(scope.Ctx, "gameserver."+head.Type)
		defer child.Finish()
		if err := c.dispatcher.Dispatch(child, message); err != nil {
			child.Log.WithError(err).Warnf("[gameserver] could not dispatch %s", head.Type)
		}
	}()
}

func (c *Client) isShutdown() bool {
	c.connectMutex.Lock()
	defer c.connectMutex.Unlock()
	return c.didShutdown
}

func (c *Client) Shutdown() {
	c.connectMutex.Lock()
	defer c.connectMutex.Unlock()
	if c.didShutdown {
		return
	}
	c.didShutdown = true
	if c.conn != nil {
		_ = c.conn.Close()
	}
}
