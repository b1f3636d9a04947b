// Package server exposes the assistant over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spigell/jobboard-assistant/internal/ai"
	"github.com/spigell/jobboard-assistant/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	loggerKey       = "logger"

	genericFailure  = "failed to process AI request"
	invalidPayload  = "invalid request payload"
	defaultMaxBytes = 10 << 20
)

// Config holds the HTTP settings.
type Config struct {
	CORSOrigins       []string
	MinimumMatchScore int
	MaxUploadBytes    int64
}

// Server routes requests to the assistant. A nil assistant keeps the server
// up while every AI action fails with a generic error.
type Server struct {
	cfg       Config
	assistant ai.Assistant
	logger    *zap.Logger
	schemas   payloadSchemas
	actions   map[string]action
	engine    *gin.Engine
}

// response is the envelope returned by the action endpoints.
type response struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func New(cfg Config, assistant ai.Assistant, log *zap.Logger) (*Server, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = defaultMaxBytes
	}

	schemas, err := loadSchemas()
	if err != nil {
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		assistant: assistant,
		logger:    log,
		schemas:   schemas,
	}
	s.actions = s.registerActions()
	s.engine = s.routes()

	return s, nil
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(s.accessLog())
	r.Use(cors.New(s.corsConfig()))

	api := r.Group("/api/v1")
	{
		api.GET("/health", s.health)
		api.POST("/ai", s.handleAction)
		api.POST("/resumes/parse", s.parseResumeFile)
	}

	return r
}

func (s *Server) corsConfig() cors.Config {
	config := cors.DefaultConfig()
	if len(s.cfg.CORSOrigins) == 0 {
		config.AllowAllOrigins = true
	} else {
		config.AllowOrigins = s.cfg.CORSOrigins
	}
	config.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader}
	config.ExposeHeaders = []string{requestIDHeader}
	return config
}

// requestID tags every request with an id and a logger carrying it.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Header(requestIDHeader, id)
		c.Set(loggerKey, logger.WithRequest(s.logger, id, ""))
		c.Next()
	}
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		s.requestLogger(c).Info("http request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
		)
	}
}

func (s *Server) requestLogger(c *gin.Context) *zap.Logger {
	if value, ok := c.Get(loggerKey); ok {
		if log, ok := value.(*zap.Logger); ok {
			return log
		}
	}
	return s.logger
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "ok",
		"ai":     s.assistant != nil,
	})
}

func fail(c *gin.Context, status int, message string) {
	c.JSON(status, response{Success: false, Error: message})
}

func succeed(c *gin.Context, data any) {
	c.JSON(http.StatusOK, response{Success: true, Data: data})
}
