// Package notify delivers in-app notifications and optional Slack
// webhook fan-out. Like the audit trail, delivery is best-effort:
// a failed notification is logged and never fails the action that
// triggered it.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/slack-go/slack"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// Notification types.
const (
	TypeAssignment  = "assignment"
	TypeMention     = "mention"
	TypeBoardChange = "board_change"
	TypeDueDate     = "due_date"
)

// webhookFunc posts a message to a Slack incoming webhook. Swappable in tests.
type webhookFunc func(ctx context.Context, url string, msg *slack.WebhookMessage) error

// Notifier writes notifications and mirrors them to Slack when a
// webhook URL is configured.
type Notifier struct {
	db          *gorm.DB
	webhookURL  string
	postWebhook webhookFunc
}

// New creates a Notifier. webhookURL may be empty to disable Slack fan-out.
func New(db *gorm.DB, webhookURL string) *Notifier {
	return &Notifier{
		db:          db,
		webhookURL:  webhookURL,
		postWebhook: slack.PostWebhookContext,
	}
}

// Create writes one notification for userID. Best-effort.
func (n *Notifier) Create(ctx context.Context, userID, typ, title, message, boardID, cardID string, data any) {
	if n == nil || n.db == nil || userID == "" {
		return
	}
	row := models.Notification{
		UserID:  userID,
		Type:    typ,
		Title:   title,
		Message: message,
		BoardID: boardID,
		CardID:  cardID,
		Data:    toJSON(data),
	}
	if err := n.db.WithContext(ctx).Create(&row).Error; err != nil {
		log.Printf("notify: write %s for %s: %v", typ, userID, err)
		return
	}
	n.fanOut(ctx, title, message)
}

// fanOut mirrors a notification to the configured Slack webhook.
func (n *Notifier) fanOut(ctx context.Context, title, message string) {
	if n.webhookURL == "" {
		return
	}
	msg := &slack.WebhookMessage{Text: fmt.Sprintf("*%s*\n%s", title, message)}
	if err := n.postWebhook(ctx, n.webhookURL, msg); err != nil {
		log.Printf("notify: slack webhook: %v", err)
	}
}

// NotifyAssignment tells userID they were assigned a card.
func (n *Notifier) NotifyAssignment(ctx context.Context, userID, assignerName, cardTitle, boardID, cardID string) {
	n.Create(ctx, userID, TypeAssignment,
		"New card assignment",
		fmt.Sprintf("%s assigned you to %q", assignerName, cardTitle),
		boardID, cardID, map[string]string{"assigner": assignerName})
}

// NotifyMention tells userID they were mentioned on a card.
func (n *Notifier) NotifyMention(ctx context.Context, userID, authorName, cardTitle, boardID, cardID string) {
	n.Create(ctx, userID, TypeMention,
		"You were mentioned",
		fmt.Sprintf("%s mentioned you on %q", authorName, cardTitle),
		boardID, cardID, map[string]string{"author": authorName})
}

// NotifyBoardChange tells userID about activity on a board they belong to.
func (n *Notifier) NotifyBoardChange(ctx context.Context, userID, actorName, action, boardTitle, boardID string) {
	n.Create(ctx, userID, TypeBoardChange,
		"Board updated",
		fmt.Sprintf("%s %s on %q", actorName, action, boardTitle),
		boardID, "", map[string]string{"actor": actorName, "action": action})
}

// NotifyDueDate tells userID a card they are assigned to is due soon.
func (n *Notifier) NotifyDueDate(ctx context.Context, userID, cardTitle, boardID, cardID string) {
	n.Create(ctx, userID, TypeDueDate,
		"Card due soon",
		fmt.Sprintf("%q is due within 24 hours", cardTitle),
		boardID, cardID, nil)
}

// ListForUser returns userID's notifications, newest first.
func (n *Notifier) ListForUser(ctx context.Context, userID string, unreadOnly bool, limit int) ([]models.Notification, error) {
	if limit <= 0 {
		limit = 50
	}
	q := n.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Limit(limit)
	if unreadOnly {
		q = q.Where("read = ?", false)
	}
	var rows []models.Notification
	if err := q.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("notify: list for %s: %w", userID, err)
	}
	return rows, nil
}

// UnreadCount returns the number of unread notifications for userID.
func (n *Notifier) UnreadCount(ctx context.Context, userID string) (int64, error) {
	var count int64
	err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Count(&count).Error
	if err != nil {
		return 0, fmt.Errorf("notify: unread count for %s: %w", userID, err)
	}
	return count, nil
}

// MarkRead marks a single notification read. The user scoping prevents
// marking another user's notification.
func (n *Notifier) MarkRead(ctx context.Context, userID string, id uint) error {
	res := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Update("read", true)
	if res.Error != nil {
		return fmt.Errorf("notify: mark read %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("notify: notification %d not found", id)
	}
	return nil
}

// MarkAllRead marks every unread notification read for userID.
func (n *Notifier) MarkAllRead(ctx context.Context, userID string) error {
	err := n.db.WithContext(ctx).Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", userID, false).Update("read", true).Error
	if err != nil {
		return fmt.Errorf("notify: mark all read for %s: %w", userID, err)
	}
	return nil
}

func toJSON(v any) string {
	if v == nil {
		return ""
	}
	data, err := json.Marshal(v)
	if err != nil {
		log.Printf("notify: marshal data: %v", err)
		return ""
	}
	return string(data)
}
