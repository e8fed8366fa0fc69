package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/vishrut/portfolio-chat/internal"
	"github.com/vishrut/portfolio-chat/internal/knowledge"
	"github.com/vishrut/portfolio-chat/internal/store"
)

// failureMessage is all the visitor sees when the upstream call fails.
const failureMessage = "Sorry, I couldn't generate a response right now. Please try again in a moment."

var errBadConversation = errors.New("messages must end with a non-empty user message")

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"ok":     true,
		"uptime": time.Since(s.started).Round(time.Second).String(),
	})
}

func (s *Server) handleModel(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"model": s.chat.Model()})
}

func (s *Server) handleKnowledge(c *gin.Context) {
	kb := s.knowledge.Get()
	c.JSON(http.StatusOK, gin.H{
		"counts": gin.H{
			"projects": len(kb.Projects),
			"media":    len(kb.Media),
			"timeline": len(kb.Timeline),
		},
		"summary": knowledge.Summarize(kb),
	})
}

func (s *Server) handleRelevance(c *gin.Context) {
	var req internal.RelevanceCheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query is required"})
		return
	}
	res := s.advisory.Classify(req.Query, nil)
	c.JSON(http.StatusOK, internal.RelevanceCheckResponse{
		IsRelevant: res.IsRelevant,
		Confidence: res.Confidence,
		Reason:     res.Reason,
	})
}

func (s *Server) handleChat(c *gin.Context) {
	conv, err := s.conversation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, msgs := conv.id, conv.messages

	resp, err := s.chat.Respond(c.Request.Context(), msgs)
	if err != nil {
		logger(c).WithError(err).WithField("session_id", id).Error("chat failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": failureMessage})
		return
	}

	s.remember(conv, resp.Content)
	resp.SessionID = id
	c.Header(headerSessionID, id)
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleChatStream(c *gin.Context) {
	conv, err := s.conversation(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	id, msgs := conv.id, conv.messages

	c.Header(headerSessionID, id)
	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")

	var reply strings.Builder
	_, err = s.stream.Stream(c.Request.Context(), msgs, func(delta string) error {
		reply.WriteString(delta)
		if _, err := c.Writer.WriteString(delta); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		logger(c).WithError(err).WithField("session_id", id).Error("chat stream failed")
		if reply.Len() == 0 {
			c.String(http.StatusInternalServerError, failureMessage)
		}
		return
	}
	s.remember(conv, reply.String())
}

func (s *Server) handleResetSession(c *gin.Context) {
	s.sessions.Reset(c.Param("id"))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// conversation is one resolved chat request.
type conversation struct {
	id       string
	messages []internal.Message
	// continued is set when a single new turn extends a stored session.
	continued bool
}

// conversation binds the request body and resolves its session.
func (s *Server) conversation(c *gin.Context) (conversation, error) {
	var req internal.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return conversation{}, errors.New("invalid JSON body")
	}
	return s.resolve(req)
}

// resolve picks the conversation for a request. A full history from the
// caller wins; a single new turn with a known session continues it.
func (s *Server) resolve(req internal.ChatRequest) (conversation, error) {
	if len(req.Messages) == 0 {
		return conversation{}, errBadConversation
	}
	last := req.Messages[len(req.Messages)-1]
	if last.Role != internal.RoleUser || strings.TrimSpace(last.Content) == "" {
		return conversation{}, errBadConversation
	}
	for _, m := range req.Messages {
		if m.Role != internal.RoleUser && m.Role != internal.RoleAssistant {
			return conversation{}, errors.New("role must be user or assistant")
		}
	}

	conv := conversation{id: req.SessionID, messages: req.Messages}
	if conv.id == "" {
		conv.id = store.NewSessionID()
	}
	if len(req.Messages) == 1 {
		if prior := s.sessions.History(conv.id); len(prior) > 0 {
			conv.messages = append(prior, last)
			conv.continued = true
		}
	}
	return conv, nil
}

// remember stores the answered turn under the conversation's session.
func (s *Server) remember(conv conversation, reply string) {
	answer := internal.Message{Role: internal.RoleAssistant, Content: reply}
	if conv.continued {
		s.sessions.Append(conv.id, conv.messages[len(conv.messages)-1], answer)
		return
	}
	msgs := make([]internal.Message, 0, len(conv.messages)+1)
	msgs = append(msgs, conv.messages...)
	s.sessions.Replace(conv.id, append(msgs, answer))
}
