package entity

import (
	"time"
)

const (
	SessionOriginAuthenticated = "authenticated"
	SessionOriginWidget        = "anonymous-widget"
)

// DoaChatSession DOA 聊天会话表
type DoaChatSession struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`                      // 主键，自增
	SessionId string    `gorm:"column:session_id;type:varchar(64);uniqueIndex;not null"` // 会话唯一ID（对外使用）
	Origin    string    `gorm:"column:origin;type:varchar(20);not null"`                 // authenticated / anonymous-widget
	Title     string    `gorm:"column:title;type:varchar(64)"`                           // 会话标题（首问截断）
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null"`                // 创建时间
	UpdatedAt time.Time `gorm:"column:updated_at;type:datetime;not null"`                // 更新时间
}

func (DoaChatSession) TableName() string {
	return "doa_chat_session"
}

// DoaChatMessage DOA 聊天消息表
type DoaChatMessage struct {
	Id        int64     `gorm:"column:id;primaryKey;autoIncrement"`                              // 主键，自增
	SessionId string    `gorm:"column:session_id;type:varchar(64);index;not null"`               // 所属会话ID
	Role      string    `gorm:"column:role;type:varchar(16);not null"`                           // 角色：system/user/assistant
	Content   string    `gorm:"column:content;type:mediumtext"`                                  // 消息内容
	CreatedAt time.Time `gorm:"column:created_at;type:datetime;not null;index:idx_session_time"` // 创建时间（历史回放排序用）
}

func (DoaChatMessage) TableName() string {
	return "doa_chat_message"
}

const (
	EventStatusPending   int8 = 0 // 待投递
	EventStatusPublished int8 = 1 // 已投递
	EventStatusFailed    int8 = 2 // 投递失败（待重试）
)

// DoaChatEvent 聊天回合审计事件（outbox）
type DoaChatEvent struct {
	Id          int64      `gorm:"column:id;primaryKey;autoIncrement"`
	EventType   string     `gorm:"column:event_type;type:varchar(32);not null"`       // chat_turn_completed / chat_turn_failed
	SessionId   string     `gorm:"column:session_id;type:varchar(64);index;not null"` // 会话ID
	DedupKey    string     `gorm:"column:dedup_key;type:varchar(128);uniqueIndex"`    // 幂等键
	PayloadJson string     `gorm:"column:payload_json;type:json"`                     // 事件载荷
	Status      int8       `gorm:"column:status;type:tinyint;not null;default:0;index:idx_status_retry"`
	RetryCount  int        `gorm:"column:retry_count;type:int;not null;default:0"`
	NextRetryAt time.Time  `gorm:"column:next_retry_at;type:datetime;index:idx_status_retry"` // 下次可投递时间
	LastError   string     `gorm:"column:last_error;type:varchar(512)"`
	KafkaTopic  string     `gorm:"column:kafka_topic;type:varchar(128)"`
	Partition   int        `gorm:"column:partition;type:int"`
	Offset      int64      `gorm:"column:offset_val;type:bigint"`
	PublishedAt *time.Time `gorm:"column:published_at;type:datetime"`
	CreatedAt   time.Time  `gorm:"column:created_at;type:datetime;not null"`
}

func (DoaChatEvent) TableName() string {
	return "doa_chat_event"
}
