package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"jpx-history/src/analysis"
	"jpx-history/src/interfaces"
	"jpx-history/src/logger"
	"jpx-history/src/models"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------
// APIServer
// -----------------------------------------------------------------------------

var _ interfaces.IDataExchanger = (*APIServer)(nil)

type APIServer struct {
	Config   *models.MConfig
	Store    interfaces.IStore
	Analysis *analysis.AnalysisFacade
	Logger   *logger.Logger

	// Status reports the last finished batch, if any.
	Status func() (models.MBatchSummary, bool)

	engine *gin.Engine
	http   *http.Server

	// WebSocket clients
	clients    map[*wsClient]struct{}
	clientsMu  sync.RWMutex
	broadcast  chan *models.MProgressEvent
	register   chan *wsClient
	unregister chan *wsClient
	quit       chan struct{}
	stopOnce   sync.Once

	// Last event seen, replayed to new clients
	latestEvent *models.MProgressEvent
	latestFrame []byte
	stateMutex  sync.RWMutex
}

// -----------------------------------------------------------------------------
// Constructor
// -----------------------------------------------------------------------------

func NewAPIServer(cfg *models.MConfig, store interfaces.IStore, facade *analysis.AnalysisFacade, log *logger.Logger) *APIServer {
	// Set Gin mode
	if !strings.EqualFold(cfg.LogLevel, "DEBUG") {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &APIServer{
		Config:   cfg,
		Store:    store,
		Analysis: facade,
		Logger:   log,
		Status:   func() (models.MBatchSummary, bool) { return models.MBatchSummary{}, false },
		engine:   gin.New(),
		clients:  make(map[*wsClient]struct{}),
		// Buffered so a running batch never waits on slow clients
		broadcast:  make(chan *models.MProgressEvent, 256),
		register:   make(chan *wsClient),
		unregister: make(chan *wsClient),
		quit:       make(chan struct{}),
	}

	s.engine.Use(gin.Recovery(), s.requestLogger(), s.cors())
	s.http = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// setup web routes
	s.setupRoutes()
	return s
}

// -----------------------------------------------------------------------------

func (s *APIServer) cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if strings.HasPrefix(origin, "http://127.0.0.1:") || strings.HasPrefix(origin, "http://localhost:") {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
		}
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Accept, Origin, Cache-Control")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (s *APIServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.Logger.Debug("%s %s -> %d (%v)", c.Request.Method, c.Request.URL.Path, c.Writer.Status(), time.Since(start))
	}
}

// -----------------------------------------------------------------------------
// Route Setup
// -----------------------------------------------------------------------------

func (s *APIServer) setupRoutes() {
	api := s.engine.Group("/api")
	api.GET("/health", s.getHealth)
	api.GET("/master", s.getMaster)
	api.GET("/symbols", s.getSymbols)
	api.GET("/history/:code", s.getHistory)
	api.GET("/history/:code/summary", s.getHistorySummary)

	// WebSocket endpoint
	s.engine.GET("/ws", s.handleWebSocket)
}

// Handler exposes the router, mainly for tests.
func (s *APIServer) Handler() http.Handler {
	return s.engine
}

// -----------------------------------------------------------------------------
// Server Lifecycle
// -----------------------------------------------------------------------------

// Start serves until Stop is called.
func (s *APIServer) Start() error {
	s.Logger.Info("Starting server on %s", s.http.Addr)

	go s.handleWebsockets()

	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// -----------------------------------------------------------------------------

func (s *APIServer) Stop() error {
	var err error
	s.stopOnce.Do(func() {
		close(s.quit)
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		err = s.http.Shutdown(ctx)
	})
	return err
}

// -----------------------------------------------------------------------------
// Route Handlers
// -----------------------------------------------------------------------------

func (s *APIServer) getHealth(c *gin.Context) {
	s.stateMutex.RLock()
	var latest int64
	if s.latestEvent != nil {
		latest = s.latestEvent.Timestamp
	}
	s.stateMutex.RUnlock()

	resp := gin.H{
		"status":        "ok",
		"connections":   s.Connections(),
		"latest_update": latest,
		"last_batch":    nil,
	}
	if summary, ok := s.Status(); ok {
		summary.Outcomes = nil
		resp["last_batch"] = summary
		if summary.Aborted {
			resp["status"] = "degraded"
		}
	}
	c.JSON(http.StatusOK, resp)
}

// -----------------------------------------------------------------------------

func (s *APIServer) getMaster(c *gin.Context) {
	var market models.Market
	if m := c.Query("market"); m != "" {
		parsed, err := models.ParseMarket(m)
		if err != nil {
			badRequest(c, err)
			return
		}
		market = parsed
	}

	symbols, err := s.Store.LoadMaster()
	if err != nil {
		s.Logger.Warning("master unavailable: %v", err)
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "master not built yet"})
		return
	}

	if market != "" {
		filtered := symbols[:0:0]
		for _, sym := range symbols {
			if sym.Market == market {
				filtered = append(filtered, sym)
			}
		}
		symbols = filtered
	}
	c.JSON(http.StatusOK, gin.H{"count": len(symbols), "symbols": symbols})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getSymbols(c *gin.Context) {
	codes, err := s.Store.ListHistoryCodes()
	if err != nil {
		serverError(c, err)
		return
	}
	if codes == nil {
		codes = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(codes), "codes": codes})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHistory(c *gin.Context) {
	code := c.Param("code")
	rows, ok := s.loadWindow(c, code)
	if !ok {
		return
	}

	tf, err := analysis.ParseTimeframe(c.Query("tf"))
	if err != nil {
		badRequest(c, err)
		return
	}

	rows = s.Analysis.Resample(rows, tf)
	c.JSON(http.StatusOK, gin.H{
		"code":      code,
		"timeframe": tf,
		"count":     len(rows),
		"rows":      rows,
	})
}

// -----------------------------------------------------------------------------

func (s *APIServer) getHistorySummary(c *gin.Context) {
	code := c.Param("code")
	rows, ok := s.loadWindow(c, code)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, s.Analysis.Summarize(code, rows))
}

// loadWindow reads the stored series of code restricted to the from/to query.
// It writes the error response itself and returns ok=false on failure.
func (s *APIServer) loadWindow(c *gin.Context, code string) ([]models.MHistoryRow, bool) {
	from, err := dateQuery(c, "from")
	if err != nil {
		badRequest(c, err)
		return nil, false
	}
	to, err := dateQuery(c, "to")
	if err != nil {
		badRequest(c, err)
		return nil, false
	}

	rows, found, err := s.Store.LoadHistory(code)
	if err != nil {
		serverError(c, err)
		return nil, false
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no history for %s", code)})
		return nil, false
	}
	return s.Analysis.Window(rows, from, to), true
}
