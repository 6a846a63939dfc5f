// Package server exposes the flow engine over HTTP.
//
// Routes:
//
//	POST /v1/runs       execute a graph document, streaming NDJSON events
//	GET  /v1/runs       list recorded run ids
//	GET  /v1/runs/:id   recorded outputs of one run
//	GET  /healthz       liveness
//	GET  /metrics       Prometheus metrics, when a handler is configured
package server

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/randalmurphal/nodeflow/pkg/nodeflow"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/graphfile"
	"github.com/randalmurphal/nodeflow/pkg/nodeflow/runlog"
)

// RunIDHeader carries the run id on requests (optional) and responses.
const RunIDHeader = "X-Run-ID"

// maxGraphBytes bounds the request body of POST /v1/runs.
const maxGraphBytes = 4 << 20

// Server serves the HTTP API.
type Server struct {
	engine  *nodeflow.Engine
	store   runlog.Store
	logger  *slog.Logger
	metrics http.Handler
	router  *gin.Engine
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for requests and run log failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithMetricsHandler mounts h on GET /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(s *Server) { s.metrics = h }
}

// New creates a Server. Runs are recorded in store.
func New(engine *nodeflow.Engine, store runlog.Store, opts ...Option) *Server {
	s := &Server{
		engine: engine,
		store:  store,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = s.routes()
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(s.logger))

	r.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		r.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := r.Group("/v1")
	v1.POST("/runs", s.handleCreateRun)
	v1.GET("/runs", s.handleListRuns)
	v1.GET("/runs/:id", s.handleGetRun)
	return r
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Float64("duration_ms", float64(time.Since(start).Microseconds())/1000.0),
		)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleCreateRun(c *gin.Context) {
	body, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxGraphBytes))
	if err != nil {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": err.Error()})
		return
	}
	doc, err := graphfile.Parse(body, graphfile.FormatJSON)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	runID := c.GetHeader(RunIDHeader)
	if runID == "" {
		runID = uuid.NewString()
	}
	if infos, err := s.store.List(runID); err == nil && len(infos) > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "run id already used: " + runID})
		return
	}

	c.Header(RunIDHeader, runID)
	c.Header("Content-Type", "application/x-ndjson")
	c.Status(http.StatusOK)

	stream := newEventStream(c.Writer, s.logger)
	rec := runlog.NewRecorder(s.store, s.logger)

	res, err := s.engine.ExecuteFlow(c.Request.Context(), doc.Plan(),
		nodeflow.WithRunID(runID),
		nodeflow.WithObserver(rec),
		nodeflow.WithObserver(stream),
	)
	stream.finish(runID, res, err)
}

func (s *Server) handleListRuns(c *gin.Context) {
	runs, err := s.store.Runs()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	if runs == nil {
		runs = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func (s *Server) handleGetRun(c *gin.Context) {
	run, err := runlog.LoadRun(s.store, c.Param("id"))
	switch {
	case errors.Is(err, runlog.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case err != nil:
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusOK, run)
	}
}
