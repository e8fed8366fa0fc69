// Package server exposes the chat relay over HTTP and WebSocket.
package server

import (
	"context"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/vishrut/portfolio-chat/internal/relay"
	"github.com/vishrut/portfolio-chat/internal/relevance"
	"github.com/vishrut/portfolio-chat/internal/store"
)

const (
	headerRequestID = "X-Request-ID"
	headerSessionID = "X-Session-ID"
	ctxLogger       = "logger"
)

type Options struct {
	// Chat answers the structured endpoint, Stream the text and WebSocket ones.
	Chat      *relay.Relay
	Stream    *relay.Relay
	Advisory  *relevance.Classifier
	Knowledge relay.KnowledgeSource
	Sessions  *store.MemoryStore
	Log       *logrus.Logger
	Origins   []string
}

type Server struct {
	chat      *relay.Relay
	stream    *relay.Relay
	advisory  *relevance.Classifier
	knowledge relay.KnowledgeSource
	sessions  *store.MemoryStore
	log       *logrus.Logger
	origins   []string
	started   time.Time
}

func New(opts Options) *Server {
	if opts.Stream == nil {
		opts.Stream = opts.Chat
	}
	if opts.Advisory == nil {
		opts.Advisory = relevance.New(relevance.Advisory())
	}
	if opts.Sessions == nil {
		opts.Sessions = store.NewMemoryStore(0, nil)
	}
	if opts.Log == nil {
		opts.Log = logrus.StandardLogger()
	}
	return &Server{
		chat:      opts.Chat,
		stream:    opts.Stream,
		advisory:  opts.Advisory,
		knowledge: opts.Knowledge,
		sessions:  opts.Sessions,
		log:       opts.Log,
		origins:   opts.Origins,
		started:   time.Now(),
	}
}

func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(s.requestID())
	r.Use(s.requestLogger())
	r.Use(cors.New(s.corsConfig()))

	r.GET("/health", s.handleHealth)
	r.GET("/ws/chat", s.handleWebSocket)

	api := r.Group("/api")
	api.GET("/model", s.handleModel)
	api.GET("/knowledge", s.handleKnowledge)
	api.POST("/relevance", s.handleRelevance)
	api.POST("/chat", s.handleChat)
	api.POST("/chat/stream", s.handleChatStream)
	api.DELETE("/sessions/:id", s.handleResetSession)

	return r
}

// SweepSessions drops expired sessions every interval until ctx is done.
func (s *Server) SweepSessions(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			left := s.sessions.Sweep()
			s.log.WithField("sessions", left).Debug("swept expired sessions")
		}
	}
}

func (s *Server) corsConfig() cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept", headerRequestID, headerSessionID}
	cfg.ExposeHeaders = []string{headerRequestID, headerSessionID}
	cfg.MaxAge = 12 * time.Hour
	if s.allowAllOrigins() {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = s.origins
	}
	return cfg
}

func (s *Server) allowAllOrigins() bool {
	if len(s.origins) == 0 {
		return true
	}
	for _, o := range s.origins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (s *Server) allowOrigin(origin string) bool {
	if origin == "" || s.allowAllOrigins() {
		return true
	}
	for _, o := range s.origins {
		if o == origin {
			return true
		}
	}
	return false
}

func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if id == "" {
			id = uuid.New().String()
		}
		c.Header(headerRequestID, id)
		c.Set(ctxLogger, s.log.WithField("request_id", id))
		c.Next()
	}
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger(c).WithFields(logrus.Fields{
			"method":  c.Request.Method,
			"path":    c.Request.URL.Path,
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Info("request")
	}
}

// logger returns the request-scoped entry set by the requestID middleware.
func logger(c *gin.Context) *logrus.Entry {
	if v, ok := c.Get(ctxLogger); ok {
		if e, ok := v.(*logrus.Entry); ok {
			return e
		}
	}
	return logrus.NewEntry(logrus.StandardLogger())
}
