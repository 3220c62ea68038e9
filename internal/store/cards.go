package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
	"github.com/PRANJALBANSALJI/Kanban/internal/realtime"
)

// CardDraft holds the fields for a new card.
type CardDraft struct {
	Title       string
	Description string
	AssigneeID  *string
	DueDate     *time.Time
}

// CardChanges holds optional field updates for a card. Nil fields are left
// untouched; a non-nil empty AssigneeID clears the assignee.
type CardChanges struct {
	Title        *string
	Description  *string
	AssigneeID   *string
	DueDate      *time.Time
	ClearDueDate bool
}

// CreateCard appends a card to a column: its position is the current card
// count of that column, keeping the sequence dense.
func (s *Store) CreateCard(ctx context.Context, columnID, createdBy string, draft CardDraft) (*models.Card, error) {
	card := models.Card{
		ID:          uuid.NewString(),
		ColumnID:    columnID,
		Title:       draft.Title,
		Description: draft.Description,
		AssigneeID:  draft.AssigneeID,
		DueDate:     draft.DueDate,
		CreatedBy:   createdBy,
	}
	var boardID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		boardID, err = boardIDForColumn(tx, columnID)
		if err != nil {
			return err
		}
		var count int64
		if err := tx.Model(&models.Card{}).Where("column_id = ?", columnID).Count(&count).Error; err != nil {
			return err
		}
		card.Position = int(count)
		return tx.Create(&card).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: create card in column %s: %w", columnID, err)
	}
	s.emitChange(realtime.TableCards, realtime.ChangeInsert, boardID, nil, card)
	return &card, nil
}

// GetCard returns a card by id.
func (s *Store) GetCard(ctx context.Context, cardID string) (*models.Card, error) {
	var card models.Card
	if err := s.db.WithContext(ctx).First(&card, "id = ?", cardID).Error; err != nil {
		return nil, fmt.Errorf("store: get card %s: %w", cardID, err)
	}
	return &card, nil
}

// UpdateCard applies field changes by primary key. Position and column are
// never touched here; moves go through MoveCard.
func (s *Store) UpdateCard(ctx context.Context, cardID string, changes CardChanges) (*models.Card, error) {
	var before models.Card
	if err := s.db.WithContext(ctx).First(&before, "id = ?", cardID).Error; err != nil {
		return nil, fmt.Errorf("store: update card %s: %w", cardID, err)
	}

	updates := map[string]any{"updated_at": time.Now()}
	if changes.Title != nil {
		updates["title"] = *changes.Title
	}
	if changes.Description != nil {
		updates["description"] = *changes.Description
	}
	if changes.AssigneeID != nil {
		if *changes.AssigneeID == "" {
			updates["assignee_id"] = nil
		} else {
			updates["assignee_id"] = *changes.AssigneeID
		}
	}
	if changes.ClearDueDate {
		updates["due_date"] = nil
		updates["reminder_sent_at"] = nil
	} else if changes.DueDate != nil {
		updates["due_date"] = *changes.DueDate
		updates["reminder_sent_at"] = nil
	}

	if err := s.db.WithContext(ctx).Model(&models.Card{}).Where("id = ?", cardID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("store: update card %s: %w", cardID, err)
	}

	after, err := s.GetCard(ctx, cardID)
	if err != nil {
		return nil, err
	}
	boardID, _ := s.boardIDForCard(ctx, after)
	s.emitChange(realtime.TableCards, realtime.ChangeUpdate, boardID, before, after)
	return after, nil
}

// DeleteCard removes a card and renumbers its column so positions stay dense.
func (s *Store) DeleteCard(ctx context.Context, cardID string) error {
	var card models.Card
	var boardID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&card, "id = ?", cardID).Error; err != nil {
			return err
		}
		var err error
		boardID, err = boardIDForColumn(tx, card.ColumnID)
		if err != nil {
			return err
		}
		if err := tx.Where("card_id = ?", cardID).Delete(&models.CardLabel{}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.Card{}, "id = ?", cardID).Error; err != nil {
			return err
		}
		return renumberCards(tx, card.ColumnID)
	})
	if err != nil {
		return fmt.Errorf("store: delete card %s: %w", cardID, err)
	}
	s.emitChange(realtime.TableCards, realtime.ChangeDelete, boardID, card, nil)
	return nil
}

// MoveCard atomically reassigns a card's column and position: one update
// keyed by card id, then a renumber of the destination and (if different)
// source columns in the same transaction so the dense-position invariant
// holds in the store, not just in clients' memory.
func (s *Store) MoveCard(ctx context.Context, cardID, toColumnID string, position int) (*models.Card, error) {
	var before, after models.Card
	var boardID string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&before, "id = ?", cardID).Error; err != nil {
			return err
		}

		fromBoard, err := boardIDForColumn(tx, before.ColumnID)
		if err != nil {
			return err
		}
		toBoard, err := boardIDForColumn(tx, toColumnID)
		if err != nil {
			return err
		}
		if fromBoard != toBoard {
			return fmt.Errorf("columns belong to different boards")
		}
		boardID = toBoard

		updates := map[string]any{
			"column_id":  toColumnID,
			"position":   position,
			"updated_at": time.Now(),
		}
		if err := tx.Model(&models.Card{}).Where("id = ?", cardID).Updates(updates).Error; err != nil {
			return err
		}

		if err := renumberCardsWithPinned(tx, toColumnID, cardID, position); err != nil {
			return err
		}
		if before.ColumnID != toColumnID {
			if err := renumberCards(tx, before.ColumnID); err != nil {
				return err
			}
		}
		return tx.First(&after, "id = ?", cardID).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: move card %s to column %s: %w", cardID, toColumnID, err)
	}
	s.emitChange(realtime.TableCards, realtime.ChangeUpdate, boardID, before, after)
	return &after, nil
}

// renumberCards rewrites a column's card positions as 0..n-1 in the current
// order.
func renumberCards(tx *gorm.DB, columnID string) error {
	var cards []models.Card
	if err := tx.Where("column_id = ?", columnID).Order("position ASC, created_at ASC").Find(&cards).Error; err != nil {
		return err
	}
	for i, card := range cards {
		if card.Position == i {
			continue
		}
		if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

// renumberCardsWithPinned renumbers a column while keeping the pinned card
// at the requested index (clamped to the column's size), so an
// insert-before drop lands exactly where the client computed it.
func renumberCardsWithPinned(tx *gorm.DB, columnID, pinnedID string, index int) error {
	var cards []models.Card
	if err := tx.Where("column_id = ? AND id != ?", columnID, pinnedID).
		Order("position ASC, created_at ASC").Find(&cards).Error; err != nil {
		return err
	}
	var pinned models.Card
	if err := tx.First(&pinned, "id = ?", pinnedID).Error; err != nil {
		return err
	}
	if index < 0 {
		index = 0
	}
	if index > len(cards) {
		index = len(cards)
	}
	ordered := make([]models.Card, 0, len(cards)+1)
	ordered = append(ordered, cards[:index]...)
	ordered = append(ordered, pinned)
	ordered = append(ordered, cards[index:]...)
	for i, card := range ordered {
		if card.Position == i {
			continue
		}
		if err := tx.Model(&models.Card{}).Where("id = ?", card.ID).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}

// boardIDForColumn resolves the owning board for a column.
func boardIDForColumn(tx *gorm.DB, columnID string) (string, error) {
	var column models.Column
	if err := tx.Select("board_id").First(&column, "id = ?", columnID).Error; err != nil {
		return "", err
	}
	return column.BoardID, nil
}

func (s *Store) boardIDForCard(ctx context.Context, card *models.Card) (string, error) {
	return boardIDForColumn(s.db.WithContext(ctx), card.ColumnID)
}
