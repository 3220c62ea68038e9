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

// BoardTree returns the full ordered column/card tree for a board: columns
// by position, cards by position within each column, labels preloaded.
func (s *Store) BoardTree(ctx context.Context, boardID string) ([]models.Column, error) {
	var columns []models.Column
	err := s.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("position ASC").
		Preload("Cards", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC, created_at ASC")
		}).
		Preload("Cards.CardLabels.Label").
		Preload("Cards.Assignee").
		Find(&columns).Error
	if err != nil {
		return nil, fmt.Errorf("store: board tree %s: %w", boardID, err)
	}
	return columns, nil
}

// GetColumn fetches a column by primary key.
func (s *Store) GetColumn(ctx context.Context, columnID string) (*models.Column, error) {
	var column models.Column
	if err := s.db.WithContext(ctx).First(&column, "id = ?", columnID).Error; err != nil {
		return nil, fmt.Errorf("store: get column %s: %w", columnID, err)
	}
	return &column, nil
}

// CreateColumn appends a column to the board: its position is the current
// column count, keeping the sequence dense.
func (s *Store) CreateColumn(ctx context.Context, boardID, title string) (*models.Column, error) {
	column := models.Column{
		ID:      uuid.NewString(),
		BoardID: boardID,
		Title:   title,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.Column{}).Where("board_id = ?", boardID).Count(&count).Error; err != nil {
			return err
		}
		column.Position = int(count)
		return tx.Create(&column).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: create column on board %s: %w", boardID, err)
	}
	s.emitChange(realtime.TableColumns, realtime.ChangeInsert, boardID, nil, column)
	return &column, nil
}

// RenameColumn updates a column's title by primary key.
func (s *Store) RenameColumn(ctx context.Context, columnID, title string) (*models.Column, error) {
	var before models.Column
	if err := s.db.WithContext(ctx).First(&before, "id = ?", columnID).Error; err != nil {
		return nil, fmt.Errorf("store: rename column %s: %w", columnID, err)
	}
	updates := map[string]any{"title": title, "updated_at": time.Now()}
	if err := s.db.WithContext(ctx).Model(&models.Column{}).Where("id = ?", columnID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("store: rename column %s: %w", columnID, err)
	}
	after := before
	after.Title = title
	s.emitChange(realtime.TableColumns, realtime.ChangeUpdate, before.BoardID, before, after)
	return &after, nil
}

// DeleteColumn removes a column with its cards and renumbers the board's
// remaining columns so positions stay dense.
func (s *Store) DeleteColumn(ctx context.Context, columnID string) error {
	var column models.Column
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&column, "id = ?", columnID).Error; err != nil {
			return err
		}
		var cardIDs []string
		if err := tx.Model(&models.Card{}).Where("column_id = ?", columnID).Pluck("id", &cardIDs).Error; err != nil {
			return err
		}
		if len(cardIDs) > 0 {
			if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardLabel{}).Error; err != nil {
				return err
			}
			if err := tx.Where("column_id = ?", columnID).Delete(&models.Card{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Delete(&models.Column{}, "id = ?", columnID).Error; err != nil {
			return err
		}
		return renumberColumns(tx, column.BoardID)
	})
	if err != nil {
		return fmt.Errorf("store: delete column %s: %w", columnID, err)
	}
	s.emitChange(realtime.TableColumns, realtime.ChangeDelete, column.BoardID, column, nil)
	return nil
}

// renumberColumns rewrites the board's column positions as 0..n-1 in the
// current order.
func renumberColumns(tx *gorm.DB, boardID string) error {
	var columns []models.Column
	if err := tx.Where("board_id = ?", boardID).Order("position ASC, created_at ASC").Find(&columns).Error; err != nil {
		return err
	}
	for i, col := range columns {
		if col.Position == i {
			continue
		}
		if err := tx.Model(&models.Column{}).Where("id = ?", col.ID).Update("position", i).Error; err != nil {
			return err
		}
	}
	return nil
}
