package gateway

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/mcdev12/quizlive/go/internal/game"
)

// ConnectionManager upgrades websocket requests and keeps track of the open
// connections of every game.
type ConnectionManager struct {
	gameConnections map[string]map[*Connection]bool
	mu              sync.RWMutex

	upgrader websocket.Upgrader
	config   ConnectionConfig
}

// ConnectionConfig holds configuration for WebSocket connections
type ConnectionConfig struct {
	WriteTimeout    time.Duration
	ReadTimeout     time.Duration
	PingInterval    time.Duration
	MaxMessageSize  int64
	ReadBufferSize  int
	WriteBufferSize int
	// SendBuffer is how many outbound messages a connection may queue
	// before it is considered too slow and dropped.
	SendBuffer     int
	CommandTimeout time.Duration
	CheckOrigin    func(r *http.Request) bool
}

// ConnectionStats is a point-in-time count of open connections.
type ConnectionStats struct {
	TotalConnections int            `json:"total_connections"`
	ActiveGames      int            `json:"active_games"`
	GameConnections  map[string]int `json:"game_connections"`
}

func DefaultConnectionConfig() ConnectionConfig {
	return ConnectionConfig{
		WriteTimeout:    10 * time.Second,
		ReadTimeout:     60 * time.Second,
		PingInterval:    30 * time.Second,
		MaxMessageSize:  8192,
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		SendBuffer:      256,
		CommandTimeout:  5 * time.Second,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
	}
}

func NewConnectionManager(config ConnectionConfig) *ConnectionManager {
	defaults := DefaultConnectionConfig()
	if config.WriteTimeout <= 0 {
		config.WriteTimeout = defaults.WriteTimeout
	}
	if config.ReadTimeout <= 0 {
		config.ReadTimeout = defaults.ReadTimeout
	}
	if config.PingInterval <= 0 {
		config.PingInterval = defaults.PingInterval
	}
	if config.SendBuffer <= 0 {
		config.SendBuffer = defaults.SendBuffer
	}
	if config.CommandTimeout <= 0 {
		config.CommandTimeout = defaults.CommandTimeout
	}
	if config.CheckOrigin == nil {
		config.CheckOrigin = defaults.CheckOrigin
	}

	return &ConnectionManager{
		gameConnections: make(map[string]map[*Connection]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.ReadBufferSize,
			WriteBufferSize: config.WriteBufferSize,
			CheckOrigin:     config.CheckOrigin,
		},
		config: config,
	}
}

// UpgradeConnection upgrades the request to a websocket bound to session and
// starts its pumps. With a non-empty watcherID the connection takes over
// that participant; otherwise it waits for a join message.
func (cm *ConnectionManager) UpgradeConnection(w http.ResponseWriter, r *http.Request, session *game.Session, watcherID string) (*Connection, error) {
	ws, err := cm.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to upgrade connection: %w", err)
	}

	connection := &Connection{
		id:          uuid.New().String(),
		gameID:      session.ID(),
		session:     session,
		manager:     cm,
		conn:        ws,
		send:        make(chan []byte, cm.config.SendBuffer),
		closed:      make(chan struct{}),
		connectedAt: time.Now(),
	}

	cm.registerConnection(connection)

	go connection.writePump()
	go connection.readPump(watcherID)

	log.Info().
		Str("connection_id", connection.id).
		Str("game_id", connection.gameID).
		Str("watcher_id", watcherID).
		Msg("WebSocket connection established")

	return connection, nil
}

func (cm *ConnectionManager) registerConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	if cm.gameConnections[conn.gameID] == nil {
		cm.gameConnections[conn.gameID] = make(map[*Connection]bool)
	}
	cm.gameConnections[conn.gameID][conn] = true

	log.Debug().
		Str("connection_id", conn.id).
		Str("game_id", conn.gameID).
		Int("total_connections", len(cm.gameConnections[conn.gameID])).
		Msg("connection registered")
}

func (cm *ConnectionManager) unregisterConnection(conn *Connection) {
	cm.mu.Lock()
	defer cm.mu.Unlock()

	connections, exists := cm.gameConnections[conn.gameID]
	if !exists {
		return
	}
	if _, exists := connections[conn]; !exists {
		return
	}
	delete(connections, conn)
	if len(connections) == 0 {
		delete(cm.gameConnections, conn.gameID)
	}

	log.Info().
		Str("connection_id", conn.id).
		Str("watcher_id", conn.WatcherID()).
		Str("game_id", conn.gameID).
		Dur("connected_for", time.Since(conn.connectedAt)).
		Msg("connection unregistered")
}

// CloseAll closes every open connection.
func (cm *ConnectionManager) CloseAll() {
	cm.mu.RLock()
	var all []*Connection
	for _, connections := range cm.gameConnections {
		for conn := range connections {
			all = append(all, conn)
		}
	}
	cm.mu.RUnlock()

	for _, conn := range all {
		conn.Close()
	}
}

func (cm *ConnectionManager) Stats() ConnectionStats {
	cm.mu.RLock()
	defer cm.mu.RUnlock()

	stats := ConnectionStats{
		ActiveGames:     len(cm.gameConnections),
		GameConnections: make(map[string]int, len(cm.gameConnections)),
	}
	for gameID, connections := range cm.gameConnections {
		stats.TotalConnections += len(connections)
		stats.GameConnections[gameID] = len(connections)
	}
	return stats
}
