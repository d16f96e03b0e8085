package models

import "time"

// Commission 订单佣金记录（每单至多一条）
type Commission struct {
	ID            uint      `gorm:"primarykey" json:"id"`                            // 主键
	OrderID       uint      `gorm:"uniqueIndex;not null" json:"order_id"`            // 订单ID
	PaymentPlanID *uint     `gorm:"index" json:"payment_plan_id,omitempty"`          // 结算方案ID
	BaseAmount    Money     `gorm:"type:decimal(20,2);not null" json:"base_amount"`  // 计佣基数
	RatePercent   Money     `gorm:"type:decimal(6,2);not null" json:"rate_percent"`  // 佣金比例（百分比）
	Amount        Money     `gorm:"type:decimal(20,2);not null" json:"amount"`       // 佣金金额
	CreatedAt     time.Time `gorm:"index" json:"created_at"`                         // 创建时间
}

// TableName 指定表名
func (Commission) TableName() string {
	return "commissions"
}
