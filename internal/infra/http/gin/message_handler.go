package ginserver

import (
	"errors"
	"log/slog"
	"net/http"

	gin "github.com/gin-gonic/gin"

	messagesvc "stayhub/internal/app/services/messages"
	domainmessages "stayhub/internal/domain/messages"
	domainuser "stayhub/internal/domain/user"
)

type MessageHTTP interface {
	Send(c *gin.Context)
	Inbox(c *gin.Context)
}

type MessageHandler struct {
	Service *messagesvc.Service
	Logger  *slog.Logger
}

type sendMessageRequest struct {
	RecipientID string `json:"recipient_id"`
	Body        string `json:"body"`
}

func (h MessageHandler) Send(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	var req sendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	msg, err := h.Service.Send(c.Request.Context(), messagesvc.SendParams{
		SenderID:    domainuser.ID(p.ID),
		RecipientID: domainuser.ID(req.RecipientID),
		Body:        req.Body,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newMessageResponse(msg))
}

func (h MessageHandler) Inbox(c *gin.Context) {
	p, ok := requireAuth(c)
	if !ok {
		return
	}
	items, err := h.Service.Inbox(c.Request.Context(), domainuser.ID(p.ID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	out := make([]messageResponse, 0, len(items))
	for _, m := range items {
		out = append(out, newMessageResponse(m))
	}
	c.JSON(http.StatusOK, gin.H{"messages": out, "count": len(out)})
}

func (h MessageHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domainuser.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "recipient not found"})
	case errors.Is(err, domainmessages.ErrBodyRequired),
		errors.Is(err, domainmessages.ErrRecipientRequired),
		errors.Is(err, domainmessages.ErrSelfMessage):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		if h.Logger != nil {
			h.Logger.Error("message operation failed", "error", err)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

var _ MessageHTTP = (*MessageHandler)(nil)
