package httpserver

import (
	"net/http"

	"farmisian/internal/chat"
	"github.com/gin-gonic/gin"
)

type chatResponse struct {
	chat.Snapshot
	QuickReplies []chat.QuickReply `json:"quickReplies"`
}

type chatMessageRequest struct {
	Text string `json:"text"`
}

func newChatResponse(s chat.Snapshot) chatResponse {
	if s.Messages == nil {
		s.Messages = []chat.Message{}
	}
	return chatResponse{Snapshot: s, QuickReplies: chat.QuickReplies()}
}

func (h *handlers) openChat(c *gin.Context) {
	snap := h.deps.ChatSvc.Open(c.Request.Context(), sessionID(c), currentUser(c))
	c.JSON(http.StatusOK, newChatResponse(snap))
}

func (h *handlers) sendChat(c *gin.Context) {
	var req chatMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid message body")
		return
	}
	snap, accepted := h.deps.ChatSvc.Send(c.Request.Context(), sessionID(c), req.Text, currentUser(c))
	if !accepted {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "message text is empty"})
		return
	}
	c.JSON(http.StatusAccepted, newChatResponse(snap))
}

func (h *handlers) quickReply(c *gin.Context) {
	snap, accepted := h.deps.ChatSvc.QuickReply(c.Request.Context(), sessionID(c), c.Param("action"), currentUser(c))
	if !accepted {
		c.JSON(http.StatusNotFound, errorResponse{Error: "unknown quick reply"})
		return
	}
	c.JSON(http.StatusAccepted, newChatResponse(snap))
}

// resetChat ends the conversation and drops replies still being composed.
func (h *handlers) resetChat(c *gin.Context) {
	h.deps.ChatSvc.Reset(sessionID(c))
	c.Status(http.StatusNoContent)
}
