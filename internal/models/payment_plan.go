package models

import (
	"time"

	"gorm.io/gorm"
)

// PaymentPlan 结算方案（决定佣金比例）
type PaymentPlan struct {
	ID                uint           `gorm:"primarykey" json:"id"`                                          // 主键
	Name              string         `gorm:"uniqueIndex;not null" json:"name"`                              // 方案名称
	CommissionPercent Money          `gorm:"type:decimal(6,2);not null;default:0" json:"commission_percent"` // 佣金比例（百分比）
	IsActive          bool           `gorm:"not null;default:true" json:"is_active"`                        // 是否启用
	CreatedAt         time.Time      `gorm:"index" json:"created_at"`                                       // 创建时间
	UpdatedAt         time.Time      `gorm:"index" json:"updated_at"`                                       // 更新时间
	DeletedAt         gorm.DeletedAt `gorm:"index" json:"-"`                                                // 软删除时间
}

// TableName 指定表名
func (PaymentPlan) TableName() string {
	return "payment_plans"
}
