// Package server wires the coach into the HTTP surface: the two API routes,
// CORS for the browser front-end, and static file serving.
package server

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"LifeCoach/internal/coach"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/static"
	"github.com/gin-gonic/gin"
)

type Server struct {
	coach  *coach.Coach
	logger *slog.Logger
}

// New builds the gin engine. staticDir may be empty to disable the static
// front-end.
func New(c *coach.Coach, logger *slog.Logger, staticDir string) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{coach: c, logger: logger}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(requestLogger(logger))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowAllOrigins = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	corsCfg.OptionsResponseStatusCode = http.StatusOK
	router.Use(cors.New(corsCfg))

	if staticDir != "" {
		router.Use(static.Serve("/", static.LocalFile(staticDir, false)))
	}

	api := router.Group("/api")
	api.POST("/chat", s.handleChat)
	api.POST("/check-cognitive", s.handleCheckCognitive)

	return router
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Emotional  string `json:"emotional"`
	Transition string `json:"transition"`
	Cognitive  string `json:"cognitive"`
	SessionID  string `json:"sessionId"`
}

type checkCognitiveRequest struct {
	SessionID string `json:"sessionId"`
}

func (s *Server) handleChat(c *gin.Context) {
	var req chatRequest
	// Unparseable JSON is deliberately a 400, like a missing message; 500 is
	// reserved for panics caught by the recovery middleware.
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid JSON body"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "message is required"})
		return
	}

	reply := s.coach.HandleChat(c.Request.Context(), req.Message)

	c.JSON(http.StatusOK, chatResponse{
		Emotional:  reply.Emotional,
		Transition: reply.Transition,
		Cognitive:  reply.Cognitive,
		SessionID:  reply.SessionID,
	})
}

func (s *Server) handleCheckCognitive(c *gin.Context) {
	var req checkCognitiveRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.SessionID) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sessionId is required"})
		return
	}

	text, ok := s.coach.HandlePoll(req.SessionID)
	if !ok {
		// Not ready yet; the client should poll again.
		c.JSON(http.StatusOK, gin.H{"cognitive": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"cognitive": text})
}

// requestLogger logs every request with latency.
func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
