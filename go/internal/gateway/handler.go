package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"

	"github.com/mcdev12/quizlive/go/internal/gameerr"
	"github.com/mcdev12/quizlive/go/internal/lifecycle"
	"github.com/mcdev12/quizlive/go/internal/registry"
)

// Lifecycle reports the state of the lifecycle event pipeline.
type Lifecycle interface {
	Stats() lifecycle.Stats
	Health() lifecycle.HealthStatus
}

// Handler serves the HTTP and websocket API of the game server.
type Handler struct {
	registry    *registry.Registry
	connections *ConnectionManager
	lifecycle   Lifecycle
}

// NewHandler builds the handler. lifecycle may be nil.
func NewHandler(reg *registry.Registry, connections *ConnectionManager, lifecycle Lifecycle) *Handler {
	return &Handler{
		registry:    reg,
		connections: connections,
		lifecycle:   lifecycle,
	}
}

func (h *Handler) RegisterRoutes(r gin.IRouter) {
	r.POST("/add", h.CreateGame)
	r.GET("/alive/:game_id", h.Alive)
	r.GET("/games/:game_id/state", h.GameState)
	r.GET("/games/:game_id/qr", h.JoinQR)
	r.GET("/watch/:game_id", h.Watch)
	r.GET("/health", h.Health)
	r.GET("/ws/stats", h.Stats)
}

// CreateGame handles POST /add
func (h *Handler) CreateGame(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, gameerr.Wrap(gameerr.ErrConfigInvalid, err))
		return
	}

	gameID, hostID, err := h.registry.Create(req.Config, req.Options)
	if err != nil {
		writeError(c, err)
		return
	}

	log.Info().
		Str("game_id", gameID).
		Str("title", req.Config.Title).
		Int("slides", len(req.Config.Slides)).
		Msg("game created")

	c.JSON(http.StatusOK, CreateResponse{GameID: gameID, WatcherID: hostID})
}

// Alive handles GET /alive/:game_id
func (h *Handler) Alive(c *gin.Context) {
	c.JSON(http.StatusOK, h.registry.IsAlive(c.Param("game_id")))
}

// GameState handles GET /games/:game_id/state
func (h *Handler) GameState(c *gin.Context) {
	session, ok := h.registry.Lookup(c.Param("game_id"))
	if !ok {
		writeError(c, gameerr.ErrGameNotFound)
		return
	}

	state, err := session.State(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// JoinQR handles GET /games/:game_id/qr with a PNG QR code of the game's
// websocket URL, for showing on the host's screen.
func (h *Handler) JoinQR(c *gin.Context) {
	session, ok := h.registry.Lookup(c.Param("game_id"))
	if !ok {
		writeError(c, gameerr.ErrGameNotFound)
		return
	}

	png, err := qrcode.Encode(watchURL(c.Request, session.ID()), qrcode.Medium, qrSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

// Watch handles GET /watch/:game_id and upgrades to a websocket. A
// watcher_id query parameter resumes an existing participant.
func (h *Handler) Watch(c *gin.Context) {
	gameID := c.Param("game_id")
	session, ok := h.registry.Lookup(gameID)
	if !ok {
		writeError(c, gameerr.ErrGameNotFound)
		return
	}
	if !h.registry.IsAlive(gameID) {
		writeError(c, gameerr.ErrGameExpired)
		return
	}

	watcherID := c.Query("watcher_id")
	if _, err := h.connections.UpgradeConnection(c.Writer, c.Request, session, watcherID); err != nil {
		// The upgrader has already written an HTTP error response.
		log.Error().
			Err(err).
			Str("game_id", session.ID()).
			Str("watcher_id", watcherID).
			Msg("failed to upgrade WebSocket connection")
	}
}

// Health handles GET /health. It fails with 503 when lifecycle events are
// not being delivered.
func (h *Handler) Health(c *gin.Context) {
	resp := gin.H{"ok": true, "time": time.Now().UTC()}
	status := http.StatusOK
	if h.lifecycle != nil {
		health := h.lifecycle.Health()
		resp["lifecycle"] = health
		if !health.Healthy {
			resp["ok"] = false
			status = http.StatusServiceUnavailable
		}
	}
	c.JSON(status, resp)
}

// Stats handles GET /ws/stats
func (h *Handler) Stats(c *gin.Context) {
	resp := gin.H{
		"connections": h.connections.Stats(),
		"games":       h.registry.Stats(),
	}
	if h.lifecycle != nil {
		resp["lifecycle"] = h.lifecycle.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

const qrSize = 320

// watchURL derives the public websocket URL of a game from the request,
// honouring X-Forwarded-Proto behind a proxy.
func watchURL(r *http.Request, gameID string) string {
	scheme := "ws"
	if r.TLS != nil {
		scheme = "wss"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto == "https" {
		scheme = "wss"
	}
	return fmt.Sprintf("%s://%s/watch/%s", scheme, r.Host, gameID)
}

func writeError(c *gin.Context, err error) {
	e := gameerr.From(err)
	status := statusFor(e)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("request failed")
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: e})
}

func statusFor(err error) int {
	var e *gameerr.Error
	if !errors.As(err, &e) {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case gameerr.KindValidation:
		return http.StatusBadRequest
	case gameerr.KindNotFound:
		return http.StatusNotFound
	case gameerr.KindState, gameerr.KindConflict:
		return http.StatusConflict
	case gameerr.KindResource:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
