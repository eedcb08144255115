package content

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

type ContentService[T any, PT Record[T]] struct {
	repository *ContentRepository[T, PT]
}

func (s *ContentService[T, PT]) List(includeInactive bool) ([]*T, error) {
	items, err := s.repository.List(includeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list content: %w", err)
	}

	return items, nil
}

func (s *ContentService[T, PT]) Get(itemID uuid.UUID) (*T, error) {
	item, err := s.repository.GetByID(itemID)
	if err != nil {
		return nil, errors.New("content item not found")
	}

	return item, nil
}

func (s *ContentService[T, PT]) Create(item *T) error {
	if err := s.repository.Create(item); err != nil {
		return fmt.Errorf("failed to create content item: %w", err)
	}

	return nil
}

func (s *ContentService[T, PT]) Update(item *T) error {
	if err := s.repository.Update(item); err != nil {
		return fmt.Errorf("failed to update content item: %w", err)
	}

	return nil
}

func (s *ContentService[T, PT]) Delete(itemID uuid.UUID) error {
	if _, err := s.repository.GetByID(itemID); err != nil {
		return errors.New("content item not found")
	}

	if err := s.repository.Delete(itemID); err != nil {
		return fmt.Errorf("failed to delete content item: %w", err)
	}

	return nil
}
