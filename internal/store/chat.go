package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fdam/assessment-planner/internal/store/model"
)

type Chat interface {
	Append(ctx context.Context, message model.ChatMessage) (*model.ChatMessage, error)
	List(ctx context.Context, assessmentID uuid.UUID) ([]model.ChatMessage, error)
	DeleteByAssessment(ctx context.Context, assessmentID uuid.UUID) error
}

type ChatStore struct {
	db *gorm.DB
}

var _ Chat = (*ChatStore)(nil)

func NewChatStore(db *gorm.DB) Chat {
	return &ChatStore{db: db}
}

func (c *ChatStore) Append(ctx context.Context, message model.ChatMessage) (*model.ChatMessage, error) {
	if err := c.getDB(ctx).Create(&message).Error; err != nil {
		if errors.Is(err, gorm.ErrForeignKeyViolated) {
			return nil, ErrRecordNotFound
		}
		return nil, err
	}
	return &message, nil
}

func (c *ChatStore) List(ctx context.Context, assessmentID uuid.UUID) ([]model.ChatMessage, error) {
	var messages []model.ChatMessage
	result := c.getDB(ctx).
		Where("assessment_id = ?", assessmentID).
		Order("created_at ASC").
		Find(&messages)
	if result.Error != nil {
		return nil, result.Error
	}
	return messages, nil
}

func (c *ChatStore) DeleteByAssessment(ctx context.Context, assessmentID uuid.UUID) error {
	result := c.getDB(ctx).Where("assessment_id = ?", assessmentID).Delete(&model.ChatMessage{})
	if result.Error != nil && !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return result.Error
	}
	return nil
}

func (c *ChatStore) getDB(ctx context.Context) *gorm.DB {
	tx := FromContext(ctx)
	if tx != nil {
		return tx
	}
	return c.db
}
