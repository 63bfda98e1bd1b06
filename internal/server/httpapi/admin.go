package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/samber/lo"

	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/users"
	"devfolio/internal/server/services"
)

type setActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}

type setRoleRequest struct {
	Role string `json:"role" binding:"required"`
}

type createRoadmapRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Tasks       []struct {
		Title       string `json:"title" binding:"required"`
		Description string `json:"description"`
	} `json:"tasks"`
}

func progressResponse(p *services.Progress) gin.H {
	return gin.H{
		"userRoadmap": p.UserRoadmap,
		"tasks":       p.Tasks,
		"percent":     p.Percent,
	}
}

// handleSearchUsers filters accounts by optional name, username, role, and
// active query parameters.
func (s *Server) handleSearchUsers(userAPI UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var f users.Filter

		if v := c.Query("name"); v != "" {
			f.Name = &v
		}
		if v := c.Query("username"); v != "" {
			f.Username = &v
		}
		if v := c.Query("role"); v != "" {
			f.Role = &v
		}
		if v := c.Query("active"); v != "" {
			active, err := strconv.ParseBool(v)
			if err != nil {
				abortBadRequest(c, "invalid active filter")
				return
			}
			f.Active = &active
		}
		f.Limit, f.Offset = paging(c)

		out, err := userAPI.SearchUsers(c.Request.Context(), f)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, lo.Map(out, func(u *models.User, _ int) userResponse {
			return userToResponse(u)
		}))
	}
}

func (s *Server) handleSetUserActive(userAPI UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req setActiveRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.Active == nil {
			abortBadRequest(c, "active is required")
			return
		}
		if err := userAPI.SetUserActive(c.Request.Context(), id, *req.Active); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleSetUserRole(userAPI UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req setRoleRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "role is required")
			return
		}
		if err := userAPI.SetUserRole(c.Request.Context(), id, req.Role); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleCreateRoadmap(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoadmapRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "title is required")
			return
		}

		var tasks []*models.RoadmapTask
		for _, t := range req.Tasks {
			tasks = append(tasks, &models.RoadmapTask{
				Title:       t.Title,
				Description: t.Description,
			})
		}

		detail, err := roadmaps.CreateRoadmap(c.Request.Context(), &models.SkillRoadmap{
			Title:       req.Title,
			Description: req.Description,
			Category:    req.Category,
		}, tasks)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"roadmap": detail.Roadmap,
			"tasks":   detail.Tasks,
		})
	}
}

func (s *Server) handleDeleteRoadmap(roadmaps RoadmapAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := roadmaps.DeleteRoadmap(c.Request.Context(), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
