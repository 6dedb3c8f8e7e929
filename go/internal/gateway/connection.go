package gateway

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/game"
	"github.com/mcdev12/quizlive/go/internal/gameerr"
)

var ErrConnectionClosed = errors.New("connection closed")

// Connection is one websocket client. It implements game.Conn: the session
// pushes events through Send and the write pump delivers them.
type Connection struct {
	id      string
	gameID  string
	session *game.Session
	manager *ConnectionManager
	conn    *websocket.Conn

	send      chan []byte
	closed    chan struct{}
	closeOnce sync.Once

	mu          sync.RWMutex
	watcherID   string
	connectedAt time.Time
}

func (c *Connection) ID() string { return c.id }

func (c *Connection) WatcherID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.watcherID
}

func (c *Connection) setWatcherID(id string) {
	c.mu.Lock()
	c.watcherID = id
	c.mu.Unlock()
}

// Send queues ev for delivery. It never blocks; a full queue returns
// gameerr.ErrBacklogFull.
func (c *Connection) Send(ev game.Event) error {
	data, err := encodeEvent(ev)
	if err != nil {
		return err
	}
	return c.enqueue(data)
}

func (c *Connection) enqueue(data []byte) error {
	select {
	case <-c.closed:
		return ErrConnectionClosed
	default:
	}

	select {
	case c.send <- data:
		return nil
	default:
		return gameerr.ErrBacklogFull
	}
}

// Close asks the write pump to flush queued messages and close the socket
// with a normal close frame. It is safe to call more than once.
func (c *Connection) Close() {
	c.closeOnce.Do(func() {
		close(c.closed)
	})
}

func (c *Connection) sendError(err error) {
	if sendErr := c.Send(errorEvent(c.gameID, err)); sendErr != nil {
		log.Debug().
			Err(sendErr).
			Str("connection_id", c.id).
			Msg("failed to send error to client")
	}
}

// call runs fn against the session with the command timeout.
func (c *Connection) call(fn func(ctx context.Context) error) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.manager.config.CommandTimeout)
	defer cancel()
	return fn(ctx)
}

func (c *Connection) writePump() {
	config := c.manager.config
	ticker := time.NewTicker(config.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to write message to WebSocket")
				c.Close()
				return
			}

		case <-ticker.C:
			if err := c.write(websocket.PingMessage, nil); err != nil {
				log.Error().
					Err(err).
					Str("connection_id", c.id).
					Msg("failed to send ping")
				c.Close()
				return
			}

		case <-c.closed:
			c.flush()
			c.write(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// flush writes whatever is still queued without waiting for more.
func (c *Connection) flush() {
	for {
		select {
		case message := <-c.send:
			if err := c.write(websocket.TextMessage, message); err != nil {
				return
			}
		default:
			return
		}
	}
}

func (c *Connection) write(messageType int, data []byte) error {
	c.conn.SetWriteDeadline(time.Now().Add(c.manager.config.WriteTimeout))
	return c.conn.WriteMessage(messageType, data)
}

func (c *Connection) readPump(watcherID string) {
	defer func() {
		c.detach()
		c.manager.unregisterConnection(c)
		c.Close()
	}()

	config := c.manager.config
	if config.MaxMessageSize > 0 {
		c.conn.SetReadLimit(config.MaxMessageSize)
	}
	c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
		return nil
	})

	if watcherID != "" {
		err := c.call(func(ctx context.Context) error {
			return c.session.Reconnect(ctx, watcherID, c)
		})
		if err != nil {
			log.Info().
				Err(err).
				Str("connection_id", c.id).
				Str("watcher_id", watcherID).
				Msg("reconnect rejected")
			c.sendError(err)
			return
		}
		c.setWatcherID(watcherID)
	}

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn().
					Err(err).
					Str("connection_id", c.id).
					Msg("unexpected WebSocket close error")
			}
			return
		}

		if leave := c.handleClientMessage(message); leave {
			return
		}
		c.conn.SetReadDeadline(time.Now().Add(config.ReadTimeout))
	}
}

// detach tells the session this connection is gone. The session ignores it
// when the participant has already been rebound elsewhere.
func (c *Connection) detach() {
	watcherID := c.WatcherID()
	if watcherID == "" {
		return
	}
	err := c.call(func(ctx context.Context) error {
		return c.session.Disconnect(ctx, watcherID, c)
	})
	if err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.id).
			Str("watcher_id", watcherID).
			Msg("disconnect not applied")
	}
}

// handleClientMessage applies one client message and reports whether the
// client asked to leave.
func (c *Connection) handleClientMessage(raw []byte) bool {
	msg, err := decodeMessage(raw)
	if err != nil {
		c.sendError(err)
		return false
	}
	if msg.Type == MessageLeave {
		return true
	}

	if err := c.dispatch(msg); err != nil {
		log.Debug().
			Err(err).
			Str("connection_id", c.id).
			Str("watcher_id", c.WatcherID()).
			Str("message_type", string(msg.Type)).
			Msg("client message rejected")
		c.sendError(err)
	}
	return false
}

func (c *Connection) dispatch(msg ClientMessage) error {
	if msg.Type == MessageJoin {
		return c.join(msg)
	}

	watcherID := c.WatcherID()
	if watcherID == "" {
		return gameerr.ErrNotJoined
	}

	switch msg.Type {
	case MessageAnswer:
		var data AnswerData
		if err := decodeData(msg, &data); err != nil {
			return err
		}
		return c.call(func(ctx context.Context) error {
			return c.session.SubmitAnswer(ctx, watcherID, data.SlideIndex, data.Value)
		})

	case MessageHost:
		var cmd game.HostCommand
		if err := decodeData(msg, &cmd); err != nil {
			return err
		}
		return c.call(func(ctx context.Context) error {
			return c.session.Host(ctx, watcherID, cmd)
		})

	case MessageTeammates:
		var data TeammatesData
		if err := decodeData(msg, &data); err != nil {
			return err
		}
		return c.call(func(ctx context.Context) error {
			return c.session.SetTeammates(ctx, watcherID, data.Nicknames)
		})

	default:
		return gameerr.Withf(gameerr.ErrMalformedMessage, "unknown message type %q", msg.Type)
	}
}

func (c *Connection) join(msg ClientMessage) error {
	if c.WatcherID() != "" {
		return gameerr.ErrAlreadyJoined
	}
	var data JoinData
	if err := decodeData(msg, &data); err != nil {
		return err
	}
	return c.call(func(ctx context.Context) error {
		id, err := c.session.Join(ctx, data.Nickname, c)
		if err != nil {
			return err
		}
		c.setWatcherID(id)
		return nil
	})
}
