package web

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// handleAdminStats returns site-wide totals for the admin overview.
func (s *server) handleAdminStats(c *gin.Context) {
	db := s.db.WithContext(c.Request.Context())

	var users, boards, cards int64
	if err := db.Model(&models.Profile{}).Count(&users).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load stats"})
		return
	}
	db.Model(&models.Board{}).Count(&boards)
	db.Model(&models.Card{}).Count(&cards)

	c.JSON(http.StatusOK, gin.H{
		"users":     users,
		"boards":    boards,
		"cards":     cards,
		"connected": s.hub.ConnectedCount(),
	})
}

// adminBoardRow holds board data for the admin list.
type adminBoardRow struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	OwnerID     string    `json:"owner_id"`
	MemberCount int64     `json:"member_count"`
	CardCount   int64     `json:"card_count"`
	CreatedAt   time.Time `json:"created_at"`
}

// handleAdminBoards lists every board with member and card counts.
func (s *server) handleAdminBoards(c *gin.Context) {
	db := s.db.WithContext(c.Request.Context())

	var boards []models.Board
	if err := db.Order("created_at DESC").Find(&boards).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list boards"})
		return
	}

	rows := make([]adminBoardRow, len(boards))
	for i, b := range boards {
		rows[i] = adminBoardRow{
			ID:        b.ID,
			Title:     b.Title,
			OwnerID:   b.OwnerID,
			CreatedAt: b.CreatedAt,
		}
		db.Model(&models.BoardMember{}).Where("board_id = ?", b.ID).Count(&rows[i].MemberCount)
		db.Model(&models.Card{}).
			Joins("JOIN columns ON columns.id = cards.column_id").
			Where("columns.board_id = ?", b.ID).
			Count(&rows[i].CardCount)
	}
	c.JSON(http.StatusOK, rows)
}

// handleAdminConnected lists current realtime participants across channels.
func (s *server) handleAdminConnected(c *gin.Context) {
	c.JSON(http.StatusOK, s.hub.Participants())
}

// handleAdminActivity returns the most recent audit entries.
func (s *server) handleAdminActivity(c *gin.Context) {
	var rows []models.AuditLog
	err := s.db.WithContext(c.Request.Context()).
		Order("id DESC").Limit(50).Find(&rows).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load activity"})
		return
	}
	c.JSON(http.StatusOK, rows)
}

// activityEvent holds data for an activity SSE event.
type activityEvent struct {
	ID         uint   `json:"id"`
	UserID     string `json:"user_id"`
	Action     string `json:"action"`
	EntityType string `json:"entity_type"`
	EntityName string `json:"entity_name"`
	BoardID    string `json:"board_id,omitempty"`
}

// handleAdminEvents streams new audit entries to the admin UI over SSE.
func (s *server) handleAdminEvents(c *gin.Context) {
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	// Send connected event.
	writeSSE(c.Writer, "connected", map[string]string{"type": "connected"})
	c.Writer.Flush()

	// Only stream entries created after the client attached.
	var lastSeenID uint
	var latest models.AuditLog
	if err := s.db.Order("id DESC").Limit(1).First(&latest).Error; err == nil {
		lastSeenID = latest.ID
	}

	ctx := c.Request.Context()
	ticker := time.NewTicker(3 * time.Second)
	heartbeat := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			writeSSE(c.Writer, "heartbeat", map[string]string{
				"timestamp": time.Now().UTC().Format(time.RFC3339),
			})
			c.Writer.Flush()
		case <-ticker.C:
			var entries []models.AuditLog
			s.db.Where("id > ?", lastSeenID).Order("id ASC").Find(&entries)
			if len(entries) == 0 {
				continue
			}
			lastSeenID = entries[len(entries)-1].ID

			for _, entry := range entries {
				writeSSE(c.Writer, "activity", activityEvent{
					ID:         entry.ID,
					UserID:     entry.UserID,
					Action:     entry.Action,
					EntityType: entry.EntityType,
					EntityName: entry.EntityName,
					BoardID:    entry.BoardID,
				})
			}
			c.Writer.Flush()
		}
	}
}

// writeSSE writes a single SSE event to the writer.
func writeSSE(w io.Writer, event string, data any) {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return
	}
	fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, string(jsonData))
}
