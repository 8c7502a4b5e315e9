// Package server exposes the REST and socket surface of the game
// core: room bookkeeping, command ingestion and the push channel.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	socketio "github.com/googollee/go-socket.io"
	"github.com/rs/zerolog"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/shirtdown/shirtdown/internal/comms"
	"github.com/shirtdown/shirtdown/internal/config"
	"github.com/shirtdown/shirtdown/internal/game"
	"github.com/shirtdown/shirtdown/internal/game/ranker"
	"github.com/shirtdown/shirtdown/internal/game/tko"
)

type Server struct {
	cfg      config.Config
	registry *game.Registry
	comm     *comms.Communicator
	log      zerolog.Logger
}

func New(cfg config.Config, registry *game.Registry, comm *comms.Communicator, logger zerolog.Logger) *Server {
	return &Server{cfg: cfg, registry: registry, comm: comm, log: logger}
}

// newGame builds a game instance of the requested type.
func (s *Server) newGame(gameType game.GameType) (game.Game, error) {
	switch gameType {
	case game.GameTypeTKO:
		g := tko.New(s.comm, s.log)
		g.SetTurnSeconds(s.cfg.TurnSeconds)
		return g, nil
	case game.GameTypeRanker:
		g := ranker.New(s.comm, s.log)
		g.SetTurnSeconds(s.cfg.TurnSeconds)
		return g, nil
	default:
		return nil, game.ErrUnknownGameType
	}
}

// Router assembles the gin engine with all routes and the socket
// endpoint mounted.
func (s *Server) Router() (*gin.Engine, *socketio.Server) {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestLogger())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true, "time": time.Now().UTC()})
	})

	api := r.Group("/api")
	api.POST("/room", s.createRoom)
	api.POST("/room/:code/join", s.joinRoom)
	api.POST("/room/:code/presenter", s.addPresenter)
	api.POST("/room/:code/start", s.startRoom)
	api.POST("/room/:code/command", s.command)
	api.GET("/room/:code/qr", s.joinQR)

	io := s.mountSocket(r)
	return r, io
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		path := c.Request.URL.Path
		if len(path) >= 10 && path[:10] == "/socket.io" {
			return
		}
		s.log.Info().
			Str("path", path).
			Int("status", c.Writer.Status()).
			Dur("dur", time.Since(start)).
			Msg("http")
	}
}

type createRoomRequest struct {
	GameType game.GameType `json:"gameType"`
}

func (s *Server) createRoom(c *gin.Context) {
	req := createRoomRequest{GameType: game.GameTypeTKO}
	if c.Request.ContentLength > 0 {
		if err := c.BindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
			return
		}
	}

	g, err := s.newGame(req.GameType)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_game_type"})
		return
	}
	if err := s.registry.Add(g); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "room_code_collision"})
		return
	}
	presenter := g.AddPresenter(true)
	c.JSON(http.StatusOK, gin.H{"roomCode": g.Code(), "presenter": presenter})
}

type joinRequest struct {
	Name string `json:"name"`
}

func (s *Server) joinRoom(c *gin.Context) {
	g, ok := s.lookup(c)
	if !ok {
		return
	}
	var req joinRequest
	if err := c.BindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_name"})
		return
	}
	if existing := g.PlayerByName(req.Name); existing != nil {
		// Same name rejoining keeps the same identity.
		c.JSON(http.StatusOK, gin.H{"player": existing})
		return
	}
	c.JSON(http.StatusOK, gin.H{"player": g.AddPlayer(req.Name)})
}

func (s *Server) addPresenter(c *gin.Context) {
	g, ok := s.lookup(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"presenter": g.AddPresenter(false)})
}

func (s *Server) startRoom(c *gin.Context) {
	g, ok := s.lookup(c)
	if !ok {
		return
	}
	// Orchestration outlives the request, so it must not inherit the
	// request context.
	err := s.registry.Start(context.Background(), g.Code())
	switch {
	case errors.Is(err, game.ErrGameStarted):
		c.JSON(http.StatusConflict, gin.H{"error": "already_started"})
	case err != nil:
		c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
	default:
		c.JSON(http.StatusOK, gin.H{"started": true})
	}
}

func (s *Server) command(c *gin.Context) {
	g, ok := s.lookup(c)
	if !ok {
		return
	}
	var cmd game.Command
	if err := c.BindJSON(&cmd); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_command"})
		return
	}
	if !g.HasPlayerID(cmd.SourcePlayerID) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not_in_room"})
		return
	}
	instruction, err := g.Input(cmd)
	if err != nil {
		// Unknown command types and dangling references are protocol
		// desyncs, not recoverable runtime conditions.
		s.log.Error().Err(err).Str("room", g.Code()).Msg("command rejected")
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"instruction": instruction})
}

// joinQR serves a QR code pointing players at the join page.
func (s *Server) joinQR(c *gin.Context) {
	g, ok := s.lookup(c)
	if !ok {
		return
	}
	url := s.cfg.PublicBaseURL + "/join/" + g.Code()
	png, err := qrcode.Encode(url, qrcode.Medium, 256)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "qr_failed"})
		return
	}
	c.Data(http.StatusOK, "image/png", png)
}

func (s *Server) lookup(c *gin.Context) (game.Game, bool) {
	g, err := s.registry.Get(c.Param("code"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room_not_found"})
		return nil, false
	}
	return g, true
}

// mountSocket attaches the socket.io endpoint clients use for pushes.
// A client announces who it is with a single "register" event carrying
// its participant id; the communicator replays missed payloads.
func (s *Server) mountSocket(r *gin.Engine) *socketio.Server {
	io := socketio.NewServer(nil)

	io.OnConnect("/", func(conn socketio.Conn) error {
		conn.SetContext("")
		s.log.Info().Str("sid", conn.ID()).Msg("socket connected")
		return nil
	})

	io.OnEvent("/", "register", func(conn socketio.Conn, clientID string) {
		conn.SetContext(clientID)
		s.comm.Register(clientID, conn)
	})

	io.OnDisconnect("/", func(conn socketio.Conn, reason string) {
		if clientID, ok := conn.Context().(string); ok && clientID != "" {
			s.comm.Unregister(clientID, conn)
		}
	})

	go func() {
		if err := io.Serve(); err != nil {
			s.log.Error().Err(err).Msg("socket server")
		}
	}()

	r.GET("/socket.io/*any", gin.WrapH(io))
	r.POST("/socket.io/*any", gin.WrapH(io))
	return io
}
