package model

import "time"

// MessagePriority 消息优先级
type MessagePriority string

const (
	PriorityNormal MessagePriority = "normal"
	PriorityHigh   MessagePriority = "high"
)

// MessageCategory 消息类别
type MessageCategory string

const (
	CategoryOfferingClosed MessageCategory = "offering_closed" // 开课失败
	CategoryCatalogFailed  MessageCategory = "catalog_failed"  // 课程提案开课失败
	CategoryClassReminder  MessageCategory = "class_reminder"  // 上课提醒
	CategoryExamReminder   MessageCategory = "exam_reminder"   // 考试提醒
	CategoryForcedOffline  MessageCategory = "forced_offline"  // 空闲强制下线
)

// Message 站内消息 — 对应 messages
// 本引擎只负责在触发事务内落库，投递与已读跟踪由协作方处理。
// RelatedKey 用于提醒类消息的"是否已发"查重，避免额外标志位。
type Message struct {
	ID          string          `gorm:"column:id;type:uuid;primaryKey"                   json:"id"`
	RecipientNo string          `gorm:"column:recipient_no;type:varchar(16);not null"    json:"recipient_no"`
	Content     string          `gorm:"column:content;type:text;not null"                json:"content"`
	Priority    MessagePriority `gorm:"column:priority;type:varchar(16);not null"        json:"priority"`
	Category    MessageCategory `gorm:"column:category;type:varchar(32);not null"        json:"category"`
	RelatedKey  string          `gorm:"column:related_key;type:varchar(128);not null;default:''" json:"related_key"`
	IsRead      bool            `gorm:"column:is_read;not null;default:false"            json:"is_read"`
	CreatedAt   time.Time       `gorm:"column:created_at;not null"                       json:"created_at"`
}

// TableName 指定表名
func (Message) TableName() string { return "messages" }
