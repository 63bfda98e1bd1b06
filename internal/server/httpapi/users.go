package httpapi

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devfolio/internal/server/models"
)

type userResponse struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Username  *string   `json:"username,omitempty"`
	Provider  *string   `json:"provider,omitempty"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

// userToResponse strips credentials before a user leaves the server.
func userToResponse(u *models.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		Username:  u.Username,
		Provider:  u.Provider,
		Role:      u.Role,
		Active:    u.Active,
		CreatedAt: u.CreatedAt,
	}
}

type updateProfileRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type profileResponse struct {
	User     userResponse      `json:"user"`
	Projects []*models.Project `json:"projects"`
	Skills   []*models.Skill   `json:"skills"`
}

func (s *Server) handleGetMe(users UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		u, err := users.GetUser(c.Request.Context(), callerID(c))
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, userToResponse(u))
	}
}

func (s *Server) handleUpdateMe(users UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req updateProfileRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "malformed body")
			return
		}

		u, err := users.UpdateProfile(c.Request.Context(), callerID(c), req.FirstName, req.LastName)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, userToResponse(u))
	}
}

// handleGetProfile returns the public profile: the user plus their portfolio.
func (s *Server) handleGetProfile(users UserAPI, portfolio PortfolioAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := pathID(c, "id")
		if !ok {
			return
		}

		u, err := users.GetUser(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}

		projects, err := portfolio.ListProjects(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}
		skills, err := portfolio.ListSkills(c.Request.Context(), id)
		if err != nil {
			abortWithError(c, err)
			return
		}

		c.JSON(http.StatusOK, profileResponse{
			User:     userToResponse(u),
			Projects: projects,
			Skills:   skills,
		})
	}
}
