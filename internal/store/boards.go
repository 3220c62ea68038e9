package store

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// CreateBoard inserts a board and enrolls the owner as a member with the
// owner role.
func (s *Store) CreateBoard(ctx context.Context, ownerID, title, description string) (*models.Board, error) {
	board := models.Board{
		ID:          uuid.NewString(),
		Title:       title,
		Description: description,
		OwnerID:     ownerID,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&board).Error; err != nil {
			return err
		}
		member := models.BoardMember{
			BoardID: board.ID,
			UserID:  ownerID,
			Role:    models.RoleOwner,
		}
		return tx.Create(&member).Error
	})
	if err != nil {
		return nil, fmt.Errorf("store: create board: %w", err)
	}
	return &board, nil
}

// GetBoard returns a board by id.
func (s *Store) GetBoard(ctx context.Context, boardID string) (*models.Board, error) {
	var board models.Board
	if err := s.db.WithContext(ctx).First(&board, "id = ?", boardID).Error; err != nil {
		return nil, fmt.Errorf("store: get board %s: %w", boardID, err)
	}
	return &board, nil
}

// ListBoards returns every board the user is a member of, newest first.
func (s *Store) ListBoards(ctx context.Context, userID string) ([]models.Board, error) {
	var boards []models.Board
	err := s.db.WithContext(ctx).
		Joins("JOIN board_members ON board_members.board_id = boards.id").
		Where("board_members.user_id = ?", userID).
		Order("boards.created_at DESC").
		Find(&boards).Error
	if err != nil {
		return nil, fmt.Errorf("store: list boards for %s: %w", userID, err)
	}
	return boards, nil
}

// UpdateBoard updates a board's title and description by primary key.
func (s *Store) UpdateBoard(ctx context.Context, boardID, title, description string) (*models.Board, error) {
	updates := map[string]any{
		"title":       title,
		"description": description,
		"updated_at":  time.Now(),
	}
	if err := s.db.WithContext(ctx).Model(&models.Board{}).Where("id = ?", boardID).Updates(updates).Error; err != nil {
		return nil, fmt.Errorf("store: update board %s: %w", boardID, err)
	}
	return s.GetBoard(ctx, boardID)
}

// DeleteBoard removes a board and everything it owns.
func (s *Store) DeleteBoard(ctx context.Context, boardID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var columnIDs []string
		if err := tx.Model(&models.Column{}).Where("board_id = ?", boardID).Pluck("id", &columnIDs).Error; err != nil {
			return err
		}
		if len(columnIDs) > 0 {
			var cardIDs []string
			if err := tx.Model(&models.Card{}).Where("column_id IN ?", columnIDs).Pluck("id", &cardIDs).Error; err != nil {
				return err
			}
			if len(cardIDs) > 0 {
				if err := tx.Where("card_id IN ?", cardIDs).Delete(&models.CardLabel{}).Error; err != nil {
					return err
				}
			}
			if err := tx.Where("column_id IN ?", columnIDs).Delete(&models.Card{}).Error; err != nil {
				return err
			}
		}
		for _, m := range []any{&models.Column{}, &models.Label{}, &models.BoardMember{}} {
			if err := tx.Where("board_id = ?", boardID).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Board{}, "id = ?", boardID).Error
	})
	if err != nil {
		return fmt.Errorf("store: delete board %s: %w", boardID, err)
	}
	return nil
}

// Member returns the membership row for a user on a board, or
// gorm.ErrRecordNotFound wrapped if the user is not a member.
func (s *Store) Member(ctx context.Context, boardID, userID string) (*models.BoardMember, error) {
	var member models.BoardMember
	err := s.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		First(&member).Error
	if err != nil {
		return nil, fmt.Errorf("store: member %s on board %s: %w", userID, boardID, err)
	}
	return &member, nil
}

// AddMember enrolls a user on a board with the given role.
func (s *Store) AddMember(ctx context.Context, boardID, userID, role string) error {
	member := models.BoardMember{BoardID: boardID, UserID: userID, Role: role}
	if err := s.db.WithContext(ctx).Create(&member).Error; err != nil {
		return fmt.Errorf("store: add member %s to board %s: %w", userID, boardID, err)
	}
	return nil
}

// RemoveMember drops a user's membership.
func (s *Store) RemoveMember(ctx context.Context, boardID, userID string) error {
	err := s.db.WithContext(ctx).
		Where("board_id = ? AND user_id = ?", boardID, userID).
		Delete(&models.BoardMember{}).Error
	if err != nil {
		return fmt.Errorf("store: remove member %s from board %s: %w", userID, boardID, err)
	}
	return nil
}

// ListMembers returns all memberships for a board with profiles preloaded.
func (s *Store) ListMembers(ctx context.Context, boardID string) ([]models.BoardMember, error) {
	var members []models.BoardMember
	err := s.db.WithContext(ctx).
		Preload("Profile").
		Where("board_id = ?", boardID).
		Order("created_at ASC").
		Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("store: list members for board %s: %w", boardID, err)
	}
	return members, nil
}
