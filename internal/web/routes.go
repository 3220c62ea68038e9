package web

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
)

// registerRoutes sets up all routes on the Gin router.
func (s *server) registerRoutes(router *gin.Engine) {
	requireUser := auth.RequireUser(s.sessions, s.db)

	// Pages.
	router.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusSeeOther, "/dashboard")
	})
	router.GET("/login", s.handleLoginPage)

	pages := router.Group("", requireUser)
	pages.GET("/dashboard", s.handleDashboardPage)

	// Public auth endpoints.
	api := router.Group("/api")
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout)

	// Authenticated API.
	authed := api.Group("", requireUser)
	authed.GET("/auth/me", s.handleMe)

	authed.GET("/boards", s.handleListBoards)
	authed.POST("/boards", s.handleCreateBoard)
	authed.GET("/boards/:id", s.handleGetBoard)
	authed.PATCH("/boards/:id", s.handleUpdateBoard)
	authed.DELETE("/boards/:id", s.handleDeleteBoard)
	authed.GET("/boards/:id/tree", s.handleBoardTree)

	authed.GET("/boards/:id/members", s.handleListMembers)
	authed.POST("/boards/:id/members", s.handleAddMember)
	authed.DELETE("/boards/:id/members/:userID", s.handleRemoveMember)

	authed.GET("/boards/:id/labels", s.handleListLabels)
	authed.POST("/boards/:id/labels", s.handleCreateLabel)
	authed.DELETE("/labels/:id", s.handleDeleteLabel)

	authed.POST("/boards/:id/columns", s.handleCreateColumn)
	authed.PATCH("/columns/:id", s.handleRenameColumn)
	authed.DELETE("/columns/:id", s.handleDeleteColumn)

	authed.POST("/columns/:id/cards", s.handleCreateCard)
	authed.GET("/cards/:id", s.handleGetCard)
	authed.PATCH("/cards/:id", s.handleUpdateCard)
	authed.DELETE("/cards/:id", s.handleDeleteCard)
	authed.POST("/cards/:id/move", s.handleMoveCard)
	authed.POST("/cards/:id/labels/:labelID", s.handleAssignLabel)
	authed.DELETE("/cards/:id/labels/:labelID", s.handleUnassignLabel)

	authed.GET("/notifications", s.handleListNotifications)
	authed.GET("/notifications/unread_count", s.handleUnreadCount)
	authed.POST("/notifications/:id/read", s.handleMarkRead)
	authed.POST("/notifications/read_all", s.handleMarkAllRead)

	// Realtime websocket endpoints.
	ws := router.Group("/ws", requireUser)
	ws.GET("/boards/:id", s.handleBoardSocket)
	ws.GET("/boards/:id/presence", s.handlePresenceSocket)

	// Admin API and event stream.
	admin := api.Group("/admin", requireUser, auth.RequireSiteAdmin())
	admin.GET("/stats", s.handleAdminStats)
	admin.GET("/boards", s.handleAdminBoards)
	admin.GET("/connected", s.handleAdminConnected)
	admin.GET("/activity", s.handleAdminActivity)

	adminPages := router.Group("/admin", requireUser, auth.RequireSiteAdmin())
	adminPages.GET("/events", s.handleAdminEvents)
}
