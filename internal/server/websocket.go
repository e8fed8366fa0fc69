package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/vishrut/portfolio-chat/internal"
)

// Frame is one server message on /ws/chat.
type Frame struct {
	Type      string `json:"type"` // delta, done, error
	Content   string `json:"content,omitempty"`
	SessionID string `json:"session_id,omitempty"`

	// IsRelevant is set on done frames only.
	IsRelevant *bool `json:"isRelevant,omitempty"`
}

func (s *Server) upgrader() *websocket.Upgrader {
	return &websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			return s.allowOrigin(r.Header.Get("Origin"))
		},
	}
}

// handleWebSocket serves one chat turn per inbound ChatRequest frame until
// the client disconnects. Turns on one connection are handled in order.
func (s *Server) handleWebSocket(c *gin.Context) {
	conn, err := s.upgrader().Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logger(c).WithError(err).Warn("websocket upgrade failed")
		return
	}
	defer conn.Close()
	log := logger(c)

	for {
		var req internal.ChatRequest
		if err := conn.ReadJSON(&req); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.WithError(err).Debug("websocket read ended")
			}
			return
		}

		conv, err := s.resolve(req)
		if err != nil {
			if werr := conn.WriteJSON(Frame{Type: "error", Content: err.Error()}); werr != nil {
				return
			}
			continue
		}

		var reply strings.Builder
		res, err := s.stream.Stream(c.Request.Context(), conv.messages, func(delta string) error {
			reply.WriteString(delta)
			return conn.WriteJSON(Frame{Type: "delta", Content: delta})
		})
		if err != nil {
			log.WithError(err).WithField("session_id", conv.id).Error("websocket turn failed")
			if werr := conn.WriteJSON(Frame{Type: "error", Content: failureMessage, SessionID: conv.id}); werr != nil {
				return
			}
			continue
		}

		s.remember(conv, reply.String())
		if err := conn.WriteJSON(Frame{Type: "done", SessionID: conv.id, IsRelevant: &res.IsRelevant}); err != nil {
			return
		}
	}
}
