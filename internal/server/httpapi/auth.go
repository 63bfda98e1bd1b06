package httpapi

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"devfolio/internal/server/services"
)

type registerRequest struct {
	Username  string `json:"username" binding:"required"`
	Password  string `json:"password" binding:"required"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type oauthLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func tokenPairToResponse(p *services.TokenPair) tokenPairResponse {
	return tokenPairResponse{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}

func (s *Server) handleRegister(users UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req registerRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "username and password are required")
			return
		}

		u, err := users.RegisterLocal(c.Request.Context(), req.Username, req.Password, req.FirstName, req.LastName)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusCreated, userToResponse(u))
	}
}

func (s *Server) handleLogin(users UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req loginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "username and password are required")
			return
		}

		pair, err := users.LoginLocal(c.Request.Context(), req.Username, req.Password)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, tokenPairToResponse(pair))
	}
}

func (s *Server) handleOAuthLogin(users UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req oauthLoginRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "idToken is required")
			return
		}

		pair, err := users.LoginFederated(c.Request.Context(), req.IDToken)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, tokenPairToResponse(pair))
	}
}

func (s *Server) handleRefresh(users UserAPI) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortBadRequest(c, "refreshToken is required")
			return
		}

		pair, err := users.RefreshToken(c.Request.Context(), req.RefreshToken)
		if err != nil {
			abortWithError(c, err)
			return
		}
		c.JSON(http.StatusOK, tokenPairToResponse(pair))
	}
}

// pathID parses the named int64 path parameter, defaulting to the "id" key.
func pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortBadRequest(c, "invalid id")
		return 0, false
	}
	return id, true
}
