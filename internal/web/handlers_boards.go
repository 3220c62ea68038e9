package web

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// membership loads the caller's membership on a board. A missing membership
// renders as 404 so non-members can't probe which boards exist.
func (s *server) membership(c *gin.Context, boardID string) (*models.BoardMember, bool) {
	profile := auth.CurrentProfile(c)
	member, err := s.store.Member(c.Request.Context(), boardID, profile.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "board not found"})
		} else {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "lookup failed"})
		}
		return nil, false
	}
	return member, true
}

func (s *server) handleListBoards(c *gin.Context) {
	profile := auth.CurrentProfile(c)
	boards, err := s.store.ListBoards(c.Request.Context(), profile.ID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list boards"})
		return
	}
	c.JSON(http.StatusOK, boards)
}

type boardRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
}

func (s *server) handleCreateBoard(c *gin.Context) {
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile := auth.CurrentProfile(c)
	board, err := s.store.CreateBoard(c.Request.Context(), profile.ID, req.Title, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create board"})
		return
	}
	s.audit.BoardCreated(profile.ID, board.ID, board.Title)
	c.JSON(http.StatusCreated, board)
}

func (s *server) handleGetBoard(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.membership(c, boardID); !ok {
		return
	}
	board, err := s.store.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}
	c.JSON(http.StatusOK, board)
}

func (s *server) handleUpdateBoard(c *gin.Context) {
	boardID := c.Param("id")
	member, ok := s.membership(c, boardID)
	if !ok {
		return
	}
	if !member.CanManageBoard() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	var req boardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	before, err := s.store.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}
	board, err := s.store.UpdateBoard(c.Request.Context(), boardID, req.Title, req.Description)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update board"})
		return
	}
	profile := auth.CurrentProfile(c)
	s.audit.BoardUpdated(profile.ID, board.ID, board.Title,
		map[string]string{"title": before.Title, "description": before.Description},
		map[string]string{"title": board.Title, "description": board.Description})
	c.JSON(http.StatusOK, board)
}

func (s *server) handleDeleteBoard(c *gin.Context) {
	boardID := c.Param("id")
	member, ok := s.membership(c, boardID)
	if !ok {
		return
	}
	if member.Role != models.RoleOwner {
		c.JSON(http.StatusForbidden, gin.H{"error": "only the owner can delete a board"})
		return
	}
	board, err := s.store.GetBoard(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "board not found"})
		return
	}
	if err := s.store.DeleteBoard(c.Request.Context(), boardID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete board"})
		return
	}
	profile := auth.CurrentProfile(c)
	s.audit.BoardDeleted(profile.ID, board.ID, board.Title)
	c.Status(http.StatusNoContent)
}

func (s *server) handleBoardTree(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.membership(c, boardID); !ok {
		return
	}
	columns, err := s.store.BoardTree(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load board"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"board_id": boardID, "columns": columns})
}

func (s *server) handleListMembers(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.membership(c, boardID); !ok {
		return
	}
	members, err := s.store.ListMembers(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list members"})
		return
	}
	c.JSON(http.StatusOK, members)
}

type addMemberRequest struct {
	UserID string `json:"user_id" binding:"required"`
	Role   string `json:"role"`
}

func (s *server) handleAddMember(c *gin.Context) {
	boardID := c.Param("id")
	member, ok := s.membership(c, boardID)
	if !ok {
		return
	}
	if !member.CanManageBoard() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	var req addMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Role == "" {
		req.Role = models.RoleMember
	}
	if req.Role == models.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ownership is not assignable"})
		return
	}

	var joined models.Profile
	if err := s.db.WithContext(c.Request.Context()).First(&joined, "id = ?", req.UserID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	if err := s.store.AddMember(c.Request.Context(), boardID, req.UserID, req.Role); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "could not add member"})
		return
	}

	profile := auth.CurrentProfile(c)
	board, _ := s.store.GetBoard(c.Request.Context(), boardID)
	s.audit.UserJoinedBoard(profile.ID, joined.ID, joined.FullName, boardID)
	if board != nil {
		s.notifier.NotifyBoardChange(c.Request.Context(), joined.ID, profile.FullName,
			"added you to", board.Title, boardID)
	}
	c.Status(http.StatusCreated)
}

func (s *server) handleRemoveMember(c *gin.Context) {
	boardID := c.Param("id")
	userID := c.Param("userID")
	member, ok := s.membership(c, boardID)
	if !ok {
		return
	}
	// Members may leave on their own; removing others needs a manager role.
	profile := auth.CurrentProfile(c)
	if userID != profile.ID && !member.CanManageBoard() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	target, err := s.store.Member(c.Request.Context(), boardID, userID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "member not found"})
		return
	}
	if target.Role == models.RoleOwner {
		c.JSON(http.StatusBadRequest, gin.H{"error": "the owner cannot be removed"})
		return
	}
	if err := s.store.RemoveMember(c.Request.Context(), boardID, userID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not remove member"})
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *server) handleListLabels(c *gin.Context) {
	boardID := c.Param("id")
	if _, ok := s.membership(c, boardID); !ok {
		return
	}
	labels, err := s.store.ListLabels(c.Request.Context(), boardID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list labels"})
		return
	}
	c.JSON(http.StatusOK, labels)
}

type labelRequest struct {
	Name  string `json:"name" binding:"required"`
	Color string `json:"color"`
}

func (s *server) handleCreateLabel(c *gin.Context) {
	boardID := c.Param("id")
	member, ok := s.membership(c, boardID)
	if !ok {
		return
	}
	if !member.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	var req labelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	label, err := s.store.CreateLabel(c.Request.Context(), boardID, req.Name, req.Color)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create label"})
		return
	}
	c.JSON(http.StatusCreated, label)
}

func (s *server) handleDeleteLabel(c *gin.Context) {
	label, err := s.store.GetLabel(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "label not found"})
		return
	}
	member, ok := s.membership(c, label.BoardID)
	if !ok {
		return
	}
	if !member.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	if err := s.store.DeleteLabel(c.Request.Context(), label.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete label"})
		return
	}
	c.Status(http.StatusNoContent)
}
