package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type sendRequestBody struct {
	ReceiverID int64 `json:"receiverId" binding:"required"`
}

func (s *Server) handleSendRequest(connections ConnectionAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req sendRequestBody
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "receiverId is required")
			return
		}

		out, err := connections.SendRequest(c.Request.Context(), callerID(c), req.ReceiverID)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, out)
	}
}

func (s *Server) handleListPending(connections ConnectionAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := connections.ListPendingRequests(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleAcceptRequest(connections ConnectionAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		conn, err := connections.AcceptRequest(c.Request.Context(), callerID(c), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, conn)
	}
}

func (s *Server) handleRejectRequest(connections ConnectionAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := connections.RejectRequest(c.Request.Context(), callerID(c), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleListConnections(connections ConnectionAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := connections.ListConnections(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}
