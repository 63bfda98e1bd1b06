package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"devfolio/internal/logging"
	"devfolio/internal/server/models"
	"devfolio/internal/server/repositories/users"
	"devfolio/internal/server/services"
)

// Service surfaces the handlers depend on. Implemented by the concrete
// services; tests provide stubs.

type UserAPI interface {
	RegisterLocal(ctx context.Context, username, password, firstName, lastName string) (*models.User, error)
	LoginLocal(ctx context.Context, username, password string) (*services.TokenPair, error)
	LoginFederated(ctx context.Context, rawIDToken string) (*services.TokenPair, error)
	RefreshToken(ctx context.Context, refreshToken string) (*services.TokenPair, error)
	GetUser(ctx context.Context, id int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, firstName, lastName string) (*models.User, error)
	SearchUsers(ctx context.Context, f users.Filter) ([]*models.User, error)
	SetUserActive(ctx context.Context, id int64, active bool) error
	SetUserRole(ctx context.Context, id int64, role string) error
}

type PortfolioAPI interface {
	CreateProject(ctx context.Context, p *models.Project) (*models.Project, error)
	GetProject(ctx context.Context, id int64) (*models.Project, error)
	ListProjects(ctx context.Context, userID int64) ([]*models.Project, error)
	UpdateProject(ctx context.Context, callerID int64, p *models.Project) (*models.Project, error)
	DeleteProject(ctx context.Context, callerID, id int64) error
	AddSkill(ctx context.Context, userID int64, name, level string) (*models.Skill, error)
	ListSkills(ctx context.Context, userID int64) ([]*models.Skill, error)
	RemoveSkill(ctx context.Context, callerID, id int64) error
}

type ConnectionAPI interface {
	SendRequest(ctx context.Context, senderID, receiverID int64) (*models.ConnectionRequest, error)
	AcceptRequest(ctx context.Context, callerID, requestID int64) (*models.Connection, error)
	RejectRequest(ctx context.Context, callerID, requestID int64) error
	ListPendingRequests(ctx context.Context, callerID int64) ([]*models.ConnectionRequest, error)
	ListConnections(ctx context.Context, callerID int64) ([]*models.Connection, error)
}

type ChatAPI interface {
	GetOrCreateConversation(ctx context.Context, callerID, otherID int64) (*models.Conversation, error)
	ListConversations(ctx context.Context, callerID int64, limit, offset int) ([]*models.Conversation, error)
	SendMessage(ctx context.Context, senderID, conversationID int64, content string) (*models.Message, error)
	History(ctx context.Context, callerID, conversationID int64, limit, offset int) ([]*models.Message, error)
	MarkRead(ctx context.Context, callerID, conversationID int64, ids []int64) ([]int64, error)
	UnreadCount(ctx context.Context, callerID, conversationID int64) (int, error)
}

type RoadmapAPI interface {
	CreateRoadmap(ctx context.Context, rm *models.SkillRoadmap, tasks []*models.RoadmapTask) (*services.RoadmapDetail, error)
	ListRoadmaps(ctx context.Context) ([]*models.SkillRoadmap, error)
	GetRoadmap(ctx context.Context, id int64) (*services.RoadmapDetail, error)
	DeleteRoadmap(ctx context.Context, id int64) error
	StartRoadmap(ctx context.Context, userID, roadmapID int64) (*services.Progress, error)
	ListStarted(ctx context.Context, userID int64) ([]*models.UserRoadmap, error)
	GetProgress(ctx context.Context, callerID, userRoadmapID int64) (*services.Progress, error)
	UpdateTaskStatus(ctx context.Context, callerID, userRoadmapID, taskID int64, status string) (*services.Progress, error)
}

type FileAPI interface {
	RequestUpload(ctx context.Context) (*services.Upload, error)
	ConfirmUpload(ctx context.Context, ownerID int64, storageKey, fileName, contentType string, size int64) (*models.FileObject, error)
	GetDownloadURL(ctx context.Context, fileID int64) (string, error)
	ListFiles(ctx context.Context, ownerID int64) ([]*models.FileObject, error)
	DeleteFile(ctx context.Context, callerID, fileID int64) error
}

// Services bundles the service layer for route registration.
type Services struct {
	Users       UserAPI
	Portfolio   PortfolioAPI
	Connections ConnectionAPI
	Chat        ChatAPI
	Roadmaps    RoadmapAPI
	Files       FileAPI
}

// Server is the HTTP front of the application.
type Server struct {
	engine *gin.Engine
	http   *http.Server
	logger logging.Logger
}

// NewServer wires routes and middleware. socketHandler serves GET /ws; pass
// nil to run without the realtime layer (tests).
func NewServer(addr string, jwtSecret []byte, svc Services, socketHandler gin.HandlerFunc, logger logging.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		engine: engine,
		http: &http.Server{
			Addr:              addr,
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger,
	}

	engine.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := engine.Group("/api")

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/register", s.handleRegister(svc.Users))
		authGroup.POST("/login", s.handleLogin(svc.Users))
		authGroup.POST("/oauth", s.handleOAuthLogin(svc.Users))
		authGroup.POST("/refresh", s.handleRefresh(svc.Users))
	}

	private := api.Group("")
	private.Use(authMiddleware(jwtSecret))
	{
		private.GET("/users/me", s.handleGetMe(svc.Users))
		private.PUT("/users/me", s.handleUpdateMe(svc.Users))
		private.GET("/users/:id", s.handleGetProfile(svc.Users, svc.Portfolio))

		private.POST("/projects", s.handleCreateProject(svc.Portfolio))
		private.GET("/users/:id/projects", s.handleListProjects(svc.Portfolio))
		private.PUT("/projects/:id", s.handleUpdateProject(svc.Portfolio))
		private.DELETE("/projects/:id", s.handleDeleteProject(svc.Portfolio))

		private.POST("/skills", s.handleAddSkill(svc.Portfolio))
		private.GET("/users/:id/skills", s.handleListSkills(svc.Portfolio))
		private.DELETE("/skills/:id", s.handleRemoveSkill(svc.Portfolio))

		private.POST("/connections/requests", s.handleSendRequest(svc.Connections))
		private.GET("/connections/requests", s.handleListPending(svc.Connections))
		private.POST("/connections/requests/:id/accept", s.handleAcceptRequest(svc.Connections))
		private.POST("/connections/requests/:id/reject", s.handleRejectRequest(svc.Connections))
		private.GET("/connections", s.handleListConnections(svc.Connections))

		private.POST("/conversations", s.handleGetOrCreateConversation(svc.Chat))
		private.GET("/conversations", s.handleListConversations(svc.Chat))
		private.GET("/conversations/:id/messages", s.handleHistory(svc.Chat))
		private.POST("/conversations/:id/messages", s.handleSendMessage(svc.Chat))
		private.POST("/conversations/:id/read", s.handleMarkRead(svc.Chat))
		private.GET("/conversations/:id/unread", s.handleUnreadCount(svc.Chat))

		private.POST("/files/uploads", s.handleRequestUpload(svc.Files))
		private.POST("/files", s.handleConfirmUpload(svc.Files))
		private.GET("/files", s.handleListFiles(svc.Files))
		private.GET("/files/:id/url", s.handleDownloadURL(svc.Files))
		private.DELETE("/files/:id", s.handleDeleteFile(svc.Files))

		private.GET("/roadmaps", s.handleListRoadmaps(svc.Roadmaps))
		private.GET("/roadmaps/:id", s.handleGetRoadmap(svc.Roadmaps))
		private.POST("/roadmaps/:id/start", s.handleStartRoadmap(svc.Roadmaps))
		private.GET("/me/roadmaps", s.handleListStarted(svc.Roadmaps))
		private.GET("/me/roadmaps/:id", s.handleGetProgress(svc.Roadmaps))
		private.PUT("/me/roadmaps/:id/tasks/:taskId", s.handleUpdateTaskStatus(svc.Roadmaps))
	}

	admin := api.Group("/admin")
	admin.Use(authMiddleware(jwtSecret), requireAdmin())
	{
		admin.GET("/users", s.handleSearchUsers(svc.Users))
		admin.PUT("/users/:id/active", s.handleSetUserActive(svc.Users))
		admin.PUT("/users/:id/role", s.handleSetUserRole(svc.Users))
		admin.POST("/roadmaps", s.handleCreateRoadmap(svc.Roadmaps))
		admin.DELETE("/roadmaps/:id", s.handleDeleteRoadmap(svc.Roadmaps))
	}

	if socketHandler != nil {
		engine.GET("/ws", authlessWrap(socketHandler))
	}

	return s
}

// authlessWrap exists to make explicit that /ws authenticates in-band via the
// authenticate event, not through the HTTP middleware.
func authlessWrap(h gin.HandlerFunc) gin.HandlerFunc { return h }

// Engine exposes the underlying router for tests.
func (s *Server) Engine() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.logger.Info(context.Background(), "http server listening", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
