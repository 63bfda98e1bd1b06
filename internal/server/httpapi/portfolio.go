package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"devfolio/internal/server/models"
)

type projectRequest struct {
	Title       string  `json:"title" binding:"required"`
	Description string  `json:"description"`
	RepoURL     *string `json:"repoUrl"`
	LiveURL     *string `json:"liveUrl"`
	ImageKey    *string `json:"imageKey"`
}

type skillRequest struct {
	Name  string `json:"name" binding:"required"`
	Level string `json:"level"`
}

func (s *Server) handleCreateProject(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "title is required")
			return
		}

		p, err := portfolio.CreateProject(c.Request.Context(), &models.Project{
			UserID:      callerID(c),
			Title:       req.Title,
			Description: req.Description,
			RepoURL:     req.RepoURL,
			LiveURL:     req.LiveURL,
			ImageKey:    req.ImageKey,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, p)
	}
}

func (s *Server) handleListProjects(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		projects, err := portfolio.ListProjects(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, projects)
	}
}

func (s *Server) handleUpdateProject(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		var req projectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "title is required")
			return
		}

		p, err := portfolio.UpdateProject(c.Request.Context(), callerID(c), &models.Project{
			ID:          id,
			Title:       req.Title,
			Description: req.Description,
			RepoURL:     req.RepoURL,
			LiveURL:     req.LiveURL,
			ImageKey:    req.ImageKey,
		})
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, p)
	}
}

func (s *Server) handleDeleteProject(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := portfolio.DeleteProject(c.Request.Context(), callerID(c), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func (s *Server) handleAddSkill(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req skillRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "name is required")
			return
		}

		skill, err := portfolio.AddSkill(c.Request.Context(), callerID(c), req.Name, req.Level)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, skill)
	}
}

func (s *Server) handleListSkills(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		skills, err := portfolio.ListSkills(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, skills)
	}
}

func (s *Server) handleRemoveSkill(portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}
		if err := portfolio.RemoveSkill(c.Request.Context(), callerID(c), id); err != nil {
			abortWithError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
