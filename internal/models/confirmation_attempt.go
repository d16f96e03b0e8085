package models

import "time"

// ConfirmationAttempt 电话确认尝试记录（仅追加）
type ConfirmationAttempt struct {
	ID          uint      `gorm:"primarykey" json:"id"`              // 主键
	OrderID     uint      `gorm:"index;not null" json:"order_id"`    // 订单ID
	AttemptedBy uint      `gorm:"index;not null" json:"attempted_by"` // 操作员ID
	Outcome     string    `gorm:"not null" json:"outcome"`           // 结果（no_answer/busy/postponed/confirmed_verbally/refused）
	Note        string    `gorm:"type:text" json:"note,omitempty"`   // 备注
	CreatedAt   time.Time `gorm:"index" json:"created_at"`           // 发生时间
}

// TableName 指定表名
func (ConfirmationAttempt) TableName() string {
	return "confirmation_attempts"
}
