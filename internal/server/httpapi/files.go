package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type confirmUploadRequest struct {
	StorageKey  string `json:"storageKey" binding:"required"`
	FileName    string `json:"fileName"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

func (s *Server) handleRequestUpload(files FileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		up, err := files.RequestUpload(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"storageKey": up.StorageKey,
			"uploadUrl":  up.URL,
		})
	}
}

func (s *Server) handleConfirmUpload(files FileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req confirmUploadRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "storageKey is required")
			return
		}

		f, err := files.ConfirmUpload(c.Request.Context(), callerID(c), req.StorageKey, req.FileName, req.ContentType, req.Size)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, f)
	}
}

func (s *Server) handleListFiles(files FileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := files.ListFiles(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleDownloadURL(files FileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		url, err := files.GetDownloadURL(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"url": url})
	}
}

func (s *Server) handleDeleteFile(files FileAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := files.DeleteFile(c.Request.Context(), callerID(c), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
