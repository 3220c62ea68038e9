package web

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
)

func (s *server) handleListNotifications(c *gin.Context) {
	profile := auth.CurrentProfile(c)
	unreadOnly := c.Query("unread") == "1" || c.Query("unread") == "true"
	limit, _ := strconv.Atoi(c.Query("limit"))

	rows, err := s.notifier.ListForUser(c.Request.Context(), profile.ID, unreadOnly, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list notifications"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

func (s *server) handleUnreadCount(c *gin.Context) {
	profile := auth.CurrentProfile(c)
	count, err := s.notifier.UnreadCount(c.Request.Context(), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count notifications"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread": count})
}

func (s *server) handleMarkRead(c *gin.Context) {
	profile := auth.CurrentProfile(c)
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}
	if err := s.notifier.MarkRead(c.Request.Context(), profile.ID, uint(id)); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not found"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleMarkAllRead(c *gin.Context) {
	profile := auth.CurrentProfile(c)
	if err := s.notifier.MarkAllRead(c.Request.Context(), profile.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark notifications read"})
		return
	}
	c.Status(http.StatusNoContent)
}
