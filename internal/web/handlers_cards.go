package web

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PRANJALBANSALJI/Kanban/internal/auth"
	"github.com/PRANJALBANSALJI/Kanban/internal/models"
	"github.com/PRANJALBANSALJI/Kanban/internal/store"
)

// editableColumn resolves a column and checks the caller may edit its board.
func (s *server) editableColumn(c *gin.Context, columnID string) (*models.Column, bool) {
	column, err := s.store.GetColumn(c.Request.Context(), columnID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "column not found"})
		return nil, false
	}
	member, ok := s.membership(c, column.BoardID)
	if !ok {
		return nil, false
	}
	if !member.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return nil, false
	}
	return column, true
}

// editableCard resolves a card with its column and checks edit access.
func (s *server) editableCard(c *gin.Context, cardID string) (*models.Card, *models.Column, bool) {
	card, err := s.store.GetCard(c.Request.Context(), cardID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return nil, nil, false
	}
	column, ok := s.editableColumn(c, card.ColumnID)
	if !ok {
		return nil, nil, false
	}
	return card, column, true
}

type columnRequest struct {
	Title string `json:"title" binding:"required"`
}

func (s *server) handleCreateColumn(c *gin.Context) {
	boardID := c.Param("id")
	member, ok := s.membership(c, boardID)
	if !ok {
		return
	}
	if !member.CanEdit() {
		c.JSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
		return
	}
	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	column, err := s.store.CreateColumn(c.Request.Context(), boardID, req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create column"})
		return
	}
	profile := auth.CurrentProfile(c)
	s.audit.ColumnCreated(profile.ID, column.ID, column.Title, boardID)
	c.JSON(http.StatusCreated, column)
}

func (s *server) handleRenameColumn(c *gin.Context) {
	if _, ok := s.editableColumn(c, c.Param("id")); !ok {
		return
	}
	var req columnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	column, err := s.store.RenameColumn(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not rename column"})
		return
	}
	c.JSON(http.StatusOK, column)
}

func (s *server) handleDeleteColumn(c *gin.Context) {
	if _, ok := s.editableColumn(c, c.Param("id")); !ok {
		return
	}
	if err := s.store.DeleteColumn(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete column"})
		return
	}
	c.Status(http.StatusNoContent)
}

type cardRequest struct {
	Title       string     `json:"title" binding:"required"`
	Description string     `json:"description"`
	AssigneeID  *string    `json:"assignee_id"`
	DueDate     *time.Time `json:"due_date"`
}

func (s *server) handleCreateCard(c *gin.Context) {
	column, ok := s.editableColumn(c, c.Param("id"))
	if !ok {
		return
	}
	var req cardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile := auth.CurrentProfile(c)
	card, err := s.store.CreateCard(c.Request.Context(), column.ID, profile.ID, store.CardDraft{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		DueDate:     req.DueDate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create card"})
		return
	}
	s.audit.CardCreated(profile.ID, card.ID, card.Title, column.BoardID, column.ID)
	if card.AssigneeID != nil && *card.AssigneeID != profile.ID {
		s.notifier.NotifyAssignment(c.Request.Context(), *card.AssigneeID, profile.FullName,
			card.Title, column.BoardID, card.ID)
	}
	c.JSON(http.StatusCreated, card)
}

func (s *server) handleGetCard(c *gin.Context) {
	card, err := s.store.GetCard(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	column, err := s.store.GetColumn(c.Request.Context(), card.ColumnID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "card not found"})
		return
	}
	if _, ok := s.membership(c, column.BoardID); !ok {
		return
	}
	c.JSON(http.StatusOK, card)
}

type cardUpdateRequest struct {
	Title        *string    `json:"title"`
	Description  *string    `json:"description"`
	AssigneeID   *string    `json:"assignee_id"`
	DueDate      *time.Time `json:"due_date"`
	ClearDueDate bool       `json:"clear_due_date"`
}

func (s *server) handleUpdateCard(c *gin.Context) {
	before, column, ok := s.editableCard(c, c.Param("id"))
	if !ok {
		return
	}
	var req cardUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	card, err := s.store.UpdateCard(c.Request.Context(), before.ID, store.CardChanges{
		Title:        req.Title,
		Description:  req.Description,
		AssigneeID:   req.AssigneeID,
		DueDate:      req.DueDate,
		ClearDueDate: req.ClearDueDate,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not update card"})
		return
	}

	profile := auth.CurrentProfile(c)
	s.audit.CardUpdated(profile.ID, card.ID, card.Title, column.BoardID,
		map[string]any{"title": before.Title, "assignee_id": before.AssigneeID},
		map[string]any{"title": card.Title, "assignee_id": card.AssigneeID})

	// A freshly assigned user gets notified; reassigning to yourself doesn't.
	if card.AssigneeID != nil && *card.AssigneeID != profile.ID &&
		(before.AssigneeID == nil || *before.AssigneeID != *card.AssigneeID) {
		s.notifier.NotifyAssignment(c.Request.Context(), *card.AssigneeID, profile.FullName,
			card.Title, column.BoardID, card.ID)
	}
	c.JSON(http.StatusOK, card)
}

func (s *server) handleDeleteCard(c *gin.Context) {
	card, column, ok := s.editableCard(c, c.Param("id"))
	if !ok {
		return
	}
	if err := s.store.DeleteCard(c.Request.Context(), card.ID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not delete card"})
		return
	}
	profile := auth.CurrentProfile(c)
	s.audit.CardDeleted(profile.ID, card.ID, card.Title, column.BoardID)
	c.Status(http.StatusNoContent)
}

type moveRequest struct {
	ColumnID string `json:"column_id" binding:"required"`
	Position int    `json:"position"`
}

func (s *server) handleMoveCard(c *gin.Context) {
	card, fromColumn, ok := s.editableCard(c, c.Param("id"))
	if !ok {
		return
	}
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	moved, err := s.store.MoveCard(c.Request.Context(), card.ID, req.ColumnID, req.Position)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not move card"})
		return
	}
	profile := auth.CurrentProfile(c)
	s.audit.CardMoved(profile.ID, moved.ID, moved.Title, fromColumn.BoardID, fromColumn.ID, moved.ColumnID)
	c.JSON(http.StatusOK, moved)
}

func (s *server) handleAssignLabel(c *gin.Context) {
	card, column, ok := s.editableCard(c, c.Param("id"))
	if !ok {
		return
	}
	label, err := s.store.GetLabel(c.Request.Context(), c.Param("labelID"))
	if err != nil || label.BoardID != column.BoardID {
		c.JSON(http.StatusNotFound, gin.H{"error": "label not found"})
		return
	}
	if err := s.store.AssignLabel(c.Request.Context(), card.ID, label.ID); err != nil {
		c.JSON(http.StatusConflict, gin.H{"error": "label already assigned"})
		return
	}
	c.Status(http.StatusCreated)
}

func (s *server) handleUnassignLabel(c *gin.Context) {
	card, _, ok := s.editableCard(c, c.Param("id"))
	if !ok {
		return
	}
	if err := s.store.UnassignLabel(c.Request.Context(), card.ID, c.Param("labelID")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not unassign label"})
		return
	}
	c.Status(http.StatusNoContent)
}
