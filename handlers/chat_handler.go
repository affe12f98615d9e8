package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Novicer18/lexadvisor/llm"
	"github.com/Novicer18/lexadvisor/middleware"
	"github.com/Novicer18/lexadvisor/models"
	"github.com/Novicer18/lexadvisor/service"
)

// ChatHandler handles HTTP requests for conversations and chat streaming
type ChatHandler struct {
	chatService *service.ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(chatService *service.ChatService) *ChatHandler {
	return &ChatHandler{chatService: chatService}
}

// ListConversations handles GET /api/conversations
func (h *ChatHandler) ListConversations(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	conversations, err := h.chatService.ListConversations(c.Request.Context(), ident.UserID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "LIST_FAILED",
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    conversations,
	})
}

// ListMessages handles GET /api/conversations/:id/messages
func (h *ChatHandler) ListMessages(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid conversation ID format",
			},
		})
		return
	}

	messages, err := h.chatService.ListMessages(c.Request.Context(), conversationID, ident.UserID)
	if err != nil {
		status, code := conversationErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    messages,
	})
}

// DeleteConversation handles DELETE /api/conversations/:id
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	conversationID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_ID",
				"message": "Invalid conversation ID format",
			},
		})
		return
	}

	if err := h.chatService.DeleteConversation(c.Request.Context(), conversationID, ident.UserID); err != nil {
		status, code := conversationErrorStatus(err)
		c.JSON(status, gin.H{
			"success": false,
			"error": gin.H{
				"code":    code,
				"message": err.Error(),
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true})
}

// SendMessageRequest represents the request body for sending a chat message
type SendMessageRequest struct {
	Content        string  `json:"content" binding:"required"`
	ConversationID *string `json:"conversation_id"`
	Domain         *string `json:"domain"`
}

// SendMessage handles POST /api/chat. The response is a chunked text stream of
// assistant deltas, terminated by the exchange result on a trailer line.
func (h *ChatHandler) SendMessage(c *gin.Context) {
	ident := middleware.IdentityFrom(c)

	var req SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	serviceReq := service.SendMessageRequest{
		UserID:  ident.UserID,
		Content: req.Content,
	}

	if req.ConversationID != nil {
		conversationID, err := uuid.Parse(*req.ConversationID)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_ID",
					"message": "Invalid conversation ID format",
				},
			})
			return
		}
		serviceReq.ConversationID = &conversationID
	}

	if req.Domain != nil {
		domain := models.Domain(*req.Domain)
		if !domain.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "INVALID_DOMAIN",
					"message": "Unknown legal domain",
				},
			})
			return
		}
		serviceReq.Domain = &domain
	}

	c.Header("Content-Type", "text/plain; charset=utf-8")
	c.Header("Cache-Control", "no-cache")
	c.Header("Transfer-Encoding", "chunked")

	snapshots := make(chan string)
	outcome := make(chan sendOutcome, 1)

	go func() {
		result, err := h.chatService.SendMessage(c.Request.Context(), serviceReq, func(accumulated string) {
			select {
			case snapshots <- accumulated:
			case <-c.Request.Context().Done():
			}
		})
		outcome <- sendOutcome{result: result, err: err}
		close(snapshots)
	}()

	// The parser emits full accumulated snapshots; the client receives only
	// the new suffix of each so the transcript renders incrementally.
	sent := 0
	c.Stream(func(w io.Writer) bool {
		select {
		case accumulated, ok := <-snapshots:
			if !ok {
				_, _ = io.WriteString(w, exchangeTrailer(<-outcome))
				return false
			}
			if len(accumulated) > sent {
				_, _ = io.WriteString(w, accumulated[sent:])
				sent = len(accumulated)
			}
			return true

		case <-c.Request.Context().Done():
			return false
		}
	})
}

type sendOutcome struct {
	result *service.SendMessageResult
	err    error
}

// exchangeTrailer renders the final line of a chat stream: the exchange result
// as JSON on success (so the client learns the conversation ID and citations),
// or the user-facing failure text.
func exchangeTrailer(out sendOutcome) string {
	if out.err != nil {
		return "\n" + llm.UserMessage(out.err)
	}
	payload, err := json.Marshal(out.result)
	if err != nil {
		return ""
	}
	return "\n" + string(payload)
}

func conversationErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrConversationNotFound):
		return http.StatusNotFound, "CONVERSATION_NOT_FOUND"
	case errors.Is(err, service.ErrNotConversationOwner):
		return http.StatusForbidden, "NOT_OWNER"
	default:
		return http.StatusInternalServerError, "INTERNAL_ERROR"
	}
}
