package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type createConversationRequest struct {
	UserID int64 `json:"userId" binding:"required"`
}

type sendMessageRequest struct {
	Content string `json:"content" binding:"required"`
}

type markReadRequest struct {
	MessageIDs []int64 `json:"messageIds"`
}

// paging reads limit/offset query parameters with sane bounds.
func paging(c *gin.Context) (limit, offset int) {
	limit = defaultPageSize
	if v, err := strconv.Atoi(c.Query("limit")); err == nil && v > 0 {
		limit = v
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if v, err := strconv.Atoi(c.Query("offset")); err == nil && v > 0 {
		offset = v
	}
	return limit, offset
}

func (s *Server) handleGetOrCreateConversation(chat ChatAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createConversationRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "userId is required")
			return
		}

		conv, err := chat.GetOrCreateConversation(c.Request.Context(), callerID(c), req.UserID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, conv)
	}
}

func (s *Server) handleListConversations(chat ChatAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, offset := paging(c)
		out, err := chat.ListConversations(c.Request.Context(), callerID(c), limit, offset)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleHistory(chat ChatAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		limit, offset := paging(c)
		msgs, err := chat.History(c.Request.Context(), callerID(c), id, limit, offset)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, msgs)
	}
}

func (s *Server) handleSendMessage(chat ChatAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req sendMessageRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "content is required")
			return
		}

		msg, err := chat.SendMessage(c.Request.Context(), callerID(c), id, req.Content)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, msg)
	}
}

func (s *Server) handleMarkRead(chat ChatAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req markReadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "malformed body")
			return
		}

		flipped, err := chat.MarkRead(c.Request.Context(), callerID(c), id, req.MessageIDs)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"messageIds": flipped})
	}
}

func (s *Server) handleUnreadCount(chat ChatAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		n, err := chat.UnreadCount(c.Request.Context(), callerID(c), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"unread": n})
	}
}
