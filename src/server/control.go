package server

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"portfolio-runner/src/interfaces"
	"portfolio-runner/src/logger"
	"portfolio-runner/src/models"
	"portfolio-runner/src/utils"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// ControlServer
// -----------------------------------------------------------------------------

type ControlServer struct {
	Config  *models.MConfig
	Logger  *logger.Logger
	Ring    *utils.LogRing
	Journal interfaces.IJournal
	engine  *gin.Engine

	// WebSocket clients
	clients    map[*Client]struct{}
	broadcast  chan *models.MStatusUpdate // Strongly typed and Buffered Queue
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	// Local cache
	restarter    interfaces.IRestarter
	latestStatus models.MProcessStatus
	startedAt    time.Time
	stateMutex   sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewControlServer(cfg *models.MConfig, log *logger.Logger, ring *utils.LogRing, journal interfaces.IJournal) *ControlServer {
	// Set Gin mode
	if cfg.LogLevel != "DEBUG" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &ControlServer{
		Config:  cfg,
		Logger:  log,
		Ring:    ring,
		Journal: journal,
		engine:  gin.Default(),
		clients: make(map[*Client]struct{}),
		// Buffered channel to prevent lock/blocking
		// Queue size of 256 ensures we can handle bursts of log lines
		broadcast:    make(chan *models.MStatusUpdate, 256),
		register:     make(chan *Client),
		unregister:   make(chan *Client),
		done:         make(chan struct{}),
		latestStatus: models.MProcessStatus{State: models.StateStopped},
		startedAt:    time.Now(),
	}

	// Add CORS Middleware
	s.engine.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	})

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

// SetRestarter wires the launcher in after construction (the launcher needs
// the server as its exchanger first)
func (s *ControlServer) SetRestarter(r interfaces.IRestarter) {
	s.stateMutex.Lock()
	s.restarter = r
	s.stateMutex.Unlock()
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *ControlServer) setupRoutes() {
	// REST API endpoints
	s.engine.GET("/api/health", s.getHealth)
	s.engine.GET("/api/status", s.getStatus)
	s.engine.GET("/api/config", s.getConfig)
	s.engine.GET("/api/logs", s.getLogs)
	s.engine.GET("/api/events", s.getEvents)
	s.engine.POST("/api/restart", s.postRestart)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

func (s *ControlServer) Start() error {
	addr := fmt.Sprintf("%s:%d", s.Config.Host, s.Config.Port)
	s.Logger.Info("Starting control server on %s", addr)

	go s.handleWebsockets()

	return s.engine.Run(addr)
}

// -----------------------------------------------------------------------------

// Stop ends the hub loop and disconnects every client. The channels stay
// open so late publishers cannot panic; the buffered broadcast absorbs them.
func (s *ControlServer) Stop() error {
	close(s.done)
	return nil
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *ControlServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	connections := len(s.clients)
	state := s.latestStatus.State
	s.stateMutex.RUnlock()

	c.JSON(200, gin.H{
		"status":         "ok",
		"app_state":      state,
		"connections":    connections,
		"uptime_seconds": int64(time.Since(s.startedAt).Seconds()),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlServer) getStatus(c *gin.Context) {
	s.stateMutex.RLock()
	defer s.stateMutex.RUnlock()

	c.JSON(200, s.latestStatus)
}

// -----------------------------------------------------------------------------

// getConfig returns a secrets-free summary of the runner configuration
func (s *ControlServer) getConfig(c *gin.Context) {
	c.JSON(200, gin.H{
		"name":          s.Config.Name,
		"entrypoint":    s.Config.App.Entrypoint,
		"flask_env":     s.Config.App.FlaskEnv,
		"config_path":   s.Config.App.ConfigPath,
		"templates_dir": s.Config.App.TemplatesDir,
		"venv_dir":      s.Config.Bootstrap.VenvDir,
		"watch_enabled": s.Config.Watch.Enabled,
	})
}

// -----------------------------------------------------------------------------

func (s *ControlServer) getLogs(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 100)
	c.JSON(200, gin.H{
		"lines": s.Ring.GetLatest(limit),
	})
}

// -----------------------------------------------------------------------------

func (s *ControlServer) getEvents(c *gin.Context) {
	limit := parseIntQuery(c, "limit", 50)

	events, err := s.Journal.RecentEvents(limit)
	if err != nil {
		s.Logger.Error("Failed to read journal: %v", err)
		c.JSON(500, gin.H{"error": "journal unavailable"})
		return
	}

	c.JSON(200, gin.H{"events": events})
}

// -----------------------------------------------------------------------------

func (s *ControlServer) postRestart(c *gin.Context) {
	s.stateMutex.RLock()
	restarter := s.restarter
	s.stateMutex.RUnlock()

	if restarter == nil {
		c.JSON(503, gin.H{"error": "launcher not ready"})
		return
	}

	if err := restarter.Restart("api request"); err != nil {
		c.JSON(409, gin.H{"error": err.Error()})
		return
	}

	c.JSON(200, gin.H{"status": "restarting"})
}
