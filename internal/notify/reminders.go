package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// dueWindow is how far ahead the sweep looks for upcoming due dates.
const dueWindow = 24 * time.Hour

// Reminders periodically scans for cards due soon and notifies their
// assignees. Each card is reminded at most once per due date: the sweep
// stamps ReminderSentAt, and editing the due date clears it again.
type Reminders struct {
	db       *gorm.DB
	notifier *Notifier
}

// NewReminders creates a due-date reminder sweeper.
func NewReminders(db *gorm.DB, notifier *Notifier) *Reminders {
	return &Reminders{db: db, notifier: notifier}
}

// Run schedules the sweep with the given cron expression ("@hourly",
// "0 9 * * *", ...) and blocks until ctx is cancelled.
func (r *Reminders) Run(ctx context.Context, schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if n, err := r.Sweep(ctx); err != nil {
			log.Printf("notify: reminder sweep: %v", err)
		} else if n > 0 {
			log.Printf("notify: sent %d due-date reminders", n)
		}
	})
	if err != nil {
		return fmt.Errorf("notify: schedule %q: %w", schedule, err)
	}
	c.Start()
	<-ctx.Done()
	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

// Sweep runs one pass and returns the number of reminders sent.
func (r *Reminders) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(dueWindow)

	var due []models.Card
	err := r.db.WithContext(ctx).
		Where("due_date IS NOT NULL AND due_date <= ?", cutoff).
		Where("reminder_sent_at IS NULL").
		Where("assignee_id IS NOT NULL AND assignee_id <> ''").
		Find(&due).Error
	if err != nil {
		return 0, fmt.Errorf("notify: find due cards: %w", err)
	}

	sent := 0
	for i := range due {
		card := &due[i]

		var col models.Column
		if err := r.db.WithContext(ctx).Select("board_id").First(&col, "id = ?", card.ColumnID).Error; err != nil {
			log.Printf("notify: reminder for card %s: column lookup: %v", card.ID, err)
			continue
		}

		// Stamp before notifying so a crash mid-sweep cannot double-send.
		now := time.Now()
		res := r.db.WithContext(ctx).Model(&models.Card{}).
			Where("id = ? AND reminder_sent_at IS NULL", card.ID).
			Update("reminder_sent_at", now)
		if res.Error != nil {
			log.Printf("notify: reminder for card %s: stamp: %v", card.ID, res.Error)
			continue
		}
		if res.RowsAffected == 0 {
			// Another instance of the sweep got there first.
			continue
		}

		r.notifier.NotifyDueDate(ctx, *card.AssigneeID, card.Title, col.BoardID, card.ID)
		sent++
	}
	return sent, nil
}
