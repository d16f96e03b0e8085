package models

import "time"

// OrderStatusLog 订单状态流转记录（仅追加）
type OrderStatusLog struct {
	ID         uint      `gorm:"primarykey" json:"id"`             // 主键
	OrderID    uint      `gorm:"index;not null" json:"order_id"`   // 订单ID
	FromStatus string    `gorm:"not null" json:"from_status"`      // 原状态（创建时为空）
	ToStatus   string    `gorm:"not null" json:"to_status"`        // 新状态
	ChangedBy  uint      `gorm:"index;not null" json:"changed_by"` // 操作人ID
	CreatedAt  time.Time `gorm:"index" json:"created_at"`          // 发生时间
}

// TableName 指定表名
func (OrderStatusLog) TableName() string {
	return "order_status_logs"
}
