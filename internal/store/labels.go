package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/PRANJALBANSALJI/Kanban/internal/models"
)

// CreateLabel inserts a label on a board.
func (s *Store) CreateLabel(ctx context.Context, boardID, name, color string) (*models.Label, error) {
	label := models.Label{
		ID:      uuid.NewString(),
		BoardID: boardID,
		Name:    name,
		Color:   color,
	}
	if err := s.db.WithContext(ctx).Create(&label).Error; err != nil {
		return nil, fmt.Errorf("store: create label on board %s: %w", boardID, err)
	}
	return &label, nil
}

// GetLabel fetches a label by primary key.
func (s *Store) GetLabel(ctx context.Context, labelID string) (*models.Label, error) {
	var label models.Label
	if err := s.db.WithContext(ctx).First(&label, "id = ?", labelID).Error; err != nil {
		return nil, fmt.Errorf("store: get label %s: %w", labelID, err)
	}
	return &label, nil
}

// ListLabels returns a board's labels by name.
func (s *Store) ListLabels(ctx context.Context, boardID string) ([]models.Label, error) {
	var labels []models.Label
	err := s.db.WithContext(ctx).
		Where("board_id = ?", boardID).
		Order("name ASC").
		Find(&labels).Error
	if err != nil {
		return nil, fmt.Errorf("store: list labels for board %s: %w", boardID, err)
	}
	return labels, nil
}

// DeleteLabel removes a label and its card associations.
func (s *Store) DeleteLabel(ctx context.Context, labelID string) error {
	if err := s.db.WithContext(ctx).Where("label_id = ?", labelID).Delete(&models.CardLabel{}).Error; err != nil {
		return fmt.Errorf("store: delete label %s: %w", labelID, err)
	}
	if err := s.db.WithContext(ctx).Delete(&models.Label{}, "id = ?", labelID).Error; err != nil {
		return fmt.Errorf("store: delete label %s: %w", labelID, err)
	}
	return nil
}

// AssignLabel attaches a label to a card. Assigning twice is an error from
// the primary key; callers treat it as already-assigned.
func (s *Store) AssignLabel(ctx context.Context, cardID, labelID string) error {
	link := models.CardLabel{CardID: cardID, LabelID: labelID}
	if err := s.db.WithContext(ctx).Create(&link).Error; err != nil {
		return fmt.Errorf("store: assign label %s to card %s: %w", labelID, cardID, err)
	}
	return nil
}

// UnassignLabel detaches a label from a card.
func (s *Store) UnassignLabel(ctx context.Context, cardID, labelID string) error {
	err := s.db.WithContext(ctx).
		Where("card_id = ? AND label_id = ?", cardID, labelID).
		Delete(&models.CardLabel{}).Error
	if err != nil {
		return fmt.Errorf("store: unassign label %s from card %s: %w", labelID, cardID, err)
	}
	return nil
}
