package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type updateTaskStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (s *Server) handleListRoadmaps(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := roadmaps.ListRoadmaps(c.Request.Context())
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleGetRoadmap(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		detail, err := roadmaps.GetRoadmap(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"roadmap": detail.Roadmap,
			"tasks":   detail.Tasks,
		})
	}
}

func (s *Server) handleStartRoadmap(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		progress, err := roadmaps.StartRoadmap(c.Request.Context(), callerID(c), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, progressResponse(progress))
	}
}

func (s *Server) handleListStarted(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := roadmaps.ListStarted(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, out)
	}
}

func (s *Server) handleGetProgress(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		progress, err := roadmaps.GetProgress(c.Request.Context(), callerID(c), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, progressResponse(progress))
	}
}

func (s *Server) handleUpdateTaskStatus(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		taskID, ok := pathID(c, "taskId")
		if !ok {
			return
		}
		var req updateTaskStatusRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "status is required")
			return
		}

		progress, err := roadmaps.UpdateTaskStatus(c.Request.Context(), callerID(c), id, taskID, req.Status)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, progressResponse(progress))
	}
}
