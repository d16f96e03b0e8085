package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment 资金记录（订单结清款 / 退款）
type Payment struct {
	ID         uint           `gorm:"primarykey" json:"id"`                      // 主键
	OrderID    uint           `gorm:"index;not null" json:"order_id"`            // 订单ID
	Kind       string         `gorm:"index;not null" json:"kind"`                // 类型（final/refund）
	Amount     Money          `gorm:"type:decimal(20,2);not null" json:"amount"` // 金额（退款为负值）
	Status     string         `gorm:"index;not null" json:"status"`              // 状态
	RefundOfID *uint          `gorm:"index" json:"refund_of_id,omitempty"`       // 被退款记录ID
	CreatedAt  time.Time      `gorm:"index" json:"created_at"`                   // 创建时间
	UpdatedAt  time.Time      `gorm:"index" json:"updated_at"`                   // 更新时间
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`                            // 软删除时间
}

// TableName 指定表名
func (Payment) TableName() string {
	return "payments"
}
