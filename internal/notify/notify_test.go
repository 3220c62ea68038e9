package notify

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/slack-go/slack"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&models.Notification{}, &models.Column{}, &models.Card{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func TestCreateWritesNotification(t *testing.T) {
	db := newTestDB(t)
	n := New(db, "")

	n.Create(context.Background(), "user-1", TypeAssignment, "New card assignment",
		"Dana assigned you to \"Ship it\"", "board-1", "card-1",
		map[string]string{"assigner": "Dana"})

	rows, err := n.ListForUser(context.Background(), "user-1", false, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	if rows[0].Type != TypeAssignment || rows[0].CardID != "card-1" || rows[0].Read {
		t.Fatalf("unexpected notification: %+v", rows[0])
	}

	var data map[string]string
	if err := json.Unmarshal([]byte(rows[0].Data), &data); err != nil {
		t.Fatalf("data not json: %v", err)
	}
	if data["assigner"] != "Dana" {
		t.Fatalf("data = %v", data)
	}
}

func TestCreateFansOutToSlack(t *testing.T) {
	db := newTestDB(t)
	n := New(db, "https://hooks.slack.example/T000/B000/xyz")

	var posted *slack.WebhookMessage
	n.postWebhook = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		posted = msg
		return nil
	}

	n.NotifyMention(context.Background(), "user-1", "Dana", "Ship it", "board-1", "card-1")

	if posted == nil {
		t.Fatal("webhook was not invoked")
	}
	if posted.Text == "" {
		t.Fatal("webhook message is empty")
	}
}

func TestCreateSkipsFanOutWithoutWebhook(t *testing.T) {
	db := newTestDB(t)
	n := New(db, "")
	n.postWebhook = func(ctx context.Context, url string, msg *slack.WebhookMessage) error {
		t.Fatal("webhook invoked without a configured URL")
		return nil
	}

	n.NotifyBoardChange(context.Background(), "user-1", "Dana", "renamed a column", "Launch Plan", "board-1")
}

func TestMarkReadScopedToUser(t *testing.T) {
	db := newTestDB(t)
	n := New(db, "")
	ctx := context.Background()

	n.Create(ctx, "user-1", TypeBoardChange, "Board updated", "msg", "board-1", "", nil)
	rows, _ := n.ListForUser(ctx, "user-1", false, 0)
	if len(rows) != 1 {
		t.Fatalf("expected 1 notification, got %d", len(rows))
	}
	id := rows[0].ID

	if err := n.MarkRead(ctx, "user-2", id); err == nil {
		t.Fatal("expected error marking another user's notification")
	}
	if err := n.MarkRead(ctx, "user-1", id); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := n.UnreadCount(ctx, "user-1")
	if err != nil {
		t.Fatalf("unread count: %v", err)
	}
	if unread != 0 {
		t.Fatalf("unread = %d, want 0", unread)
	}
}

func TestMarkAllRead(t *testing.T) {
	db := newTestDB(t)
	n := New(db, "")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		n.Create(ctx, "user-1", TypeBoardChange, "Board updated", "msg", "board-1", "", nil)
	}
	n.Create(ctx, "user-2", TypeBoardChange, "Board updated", "msg", "board-1", "", nil)

	if err := n.MarkAllRead(ctx, "user-1"); err != nil {
		t.Fatalf("mark all read: %v", err)
	}

	unread, _ := n.UnreadCount(ctx, "user-1")
	if unread != 0 {
		t.Fatalf("user-1 unread = %d, want 0", unread)
	}
	otherUnread, _ := n.UnreadCount(ctx, "user-2")
	if otherUnread != 1 {
		t.Fatalf("user-2 unread = %d, want 1", otherUnread)
	}
}

func TestListUnreadOnly(t *testing.T) {
	db := newTestDB(t)
	n := New(db, "")
	ctx := context.Background()

	n.Create(ctx, "user-1", TypeBoardChange, "first", "msg", "board-1", "", nil)
	n.Create(ctx, "user-1", TypeBoardChange, "second", "msg", "board-1", "", nil)
	rows, _ := n.ListForUser(ctx, "user-1", false, 0)
	if err := n.MarkRead(ctx, "user-1", rows[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}

	unread, err := n.ListForUser(ctx, "user-1", true, 0)
	if err != nil {
		t.Fatalf("list unread: %v", err)
	}
	if len(unread) != 1 {
		t.Fatalf("expected 1 unread, got %d", len(unread))
	}
}

func seedDueCard(t *testing.T, db *gorm.DB, id string, due time.Time, assignee string) {
	t.Helper()
	assigneePtr := &assignee
	if assignee == "" {
		assigneePtr = nil
	}
	card := models.Card{
		ID:        id,
		ColumnID:  "col-1",
		Title:     "Card " + id,
		DueDate:   &due,
		CreatedBy: "user-1",
	}
	card.AssigneeID = assigneePtr
	if err := db.Create(&card).Error; err != nil {
		t.Fatalf("seed card: %v", err)
	}
}

func TestSweepRemindsOnce(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&models.Column{ID: "col-1", BoardID: "board-1", Title: "Doing"}).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}

	seedDueCard(t, db, "card-due", time.Now().Add(2*time.Hour), "user-9")
	seedDueCard(t, db, "card-far", time.Now().Add(72*time.Hour), "user-9")
	seedDueCard(t, db, "card-unassigned", time.Now().Add(2*time.Hour), "")

	n := New(db, "")
	r := NewReminders(db, n)
	ctx := context.Background()

	sent, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}

	rows, _ := n.ListForUser(ctx, "user-9", false, 0)
	if len(rows) != 1 || rows[0].Type != TypeDueDate || rows[0].CardID != "card-due" {
		t.Fatalf("unexpected notifications: %+v", rows)
	}
	if rows[0].BoardID != "board-1" {
		t.Fatalf("board id = %q", rows[0].BoardID)
	}

	var card models.Card
	if err := db.First(&card, "id = ?", "card-due").Error; err != nil {
		t.Fatalf("reload card: %v", err)
	}
	if card.ReminderSentAt == nil {
		t.Fatal("reminder timestamp not stamped")
	}

	// A second pass finds nothing new.
	sent, err = r.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if sent != 0 {
		t.Fatalf("second sweep sent = %d, want 0", sent)
	}
}

func TestSweepRemindsAgainAfterDueDateChange(t *testing.T) {
	db := newTestDB(t)
	if err := db.Create(&models.Column{ID: "col-1", BoardID: "board-1", Title: "Doing"}).Error; err != nil {
		t.Fatalf("seed column: %v", err)
	}
	seedDueCard(t, db, "card-due", time.Now().Add(2*time.Hour), "user-9")

	n := New(db, "")
	r := NewReminders(db, n)
	ctx := context.Background()

	if _, err := r.Sweep(ctx); err != nil {
		t.Fatalf("sweep: %v", err)
	}

	// Editing the due date clears the stamp, re-arming the reminder.
	newDue := time.Now().Add(3 * time.Hour)
	err := db.Model(&models.Card{}).Where("id = ?", "card-due").
		Updates(map[string]any{"due_date": newDue, "reminder_sent_at": nil}).Error
	if err != nil {
		t.Fatalf("update due date: %v", err)
	}

	sent, err := r.Sweep(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if sent != 1 {
		t.Fatalf("sent = %d, want 1", sent)
	}
}
