package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// MessageRepository 站内消息数据访问接口
type MessageRepository interface {
	// BatchCreate 给一批收件人落同一条消息（各自独立一行）
	BatchCreate(ctx context.Context, recipients []string, content string, priority model.MessagePriority, category model.MessageCategory, relatedKey string) error
	// ExistsRelated 某收件人是否已有该 related_key 的消息（提醒查重）
	ExistsRelated(ctx context.Context, recipientNo, relatedKey string) (bool, error)
	ListByRecipient(ctx context.Context, recipientNo string, limit int) ([]model.Message, error)
}

type messageRepo struct {
	db *gorm.DB
}

// NewMessageRepo 创建 MessageRepository 实例
func NewMessageRepo(db *gorm.DB) MessageRepository {
	return &messageRepo{db: db}
}

func (r *messageRepo) BatchCreate(ctx context.Context, recipients []string, content string, priority model.MessagePriority, category model.MessageCategory, relatedKey string) error {
	if len(recipients) == 0 {
		return nil
	}
	now := time.Now()
	msgs := make([]model.Message, 0, len(recipients))
	for _, no := range recipients {
		msgs = append(msgs, model.Message{
			ID:          uuid.New().String(),
			RecipientNo: no,
			Content:     content,
			Priority:    priority,
			Category:    category,
			RelatedKey:  relatedKey,
			CreatedAt:   now,
		})
	}
	return r.db.WithContext(ctx).Create(&msgs).Error
}

func (r *messageRepo) ExistsRelated(ctx context.Context, recipientNo, relatedKey string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Message{}).
		Where("recipient_no = ? AND related_key = ?", recipientNo, relatedKey).
		Count(&count).Error
	return count > 0, err
}

func (r *messageRepo) ListByRecipient(ctx context.Context, recipientNo string, limit int) ([]model.Message, error) {
	var msgs []model.Message
	err := r.db.WithContext(ctx).
		Where("recipient_no = ?", recipientNo).
		Order("created_at DESC").
		Limit(limit).
		Find(&msgs).Error
	return msgs, err
}
