package models

import (
	"time"

	"gorm.io/gorm"
)

// Order 订单表
type Order struct {
	ID             uint           `gorm:"primarykey" json:"id"`                                        // 主键
	TrackingID     string         `gorm:"uniqueIndex;not null" json:"tracking_id"`                     // 跟踪编号（创建时生成，终身不变）
	ClientID       uint           `gorm:"index;not null" json:"client_id"`                             // 归属客户ID
	CustomerName   string         `gorm:"not null" json:"customer_name"`                               // 收件人姓名
	Mobile1        string         `gorm:"type:varchar(32);not null" json:"mobile_1"`                   // 主联系电话
	Mobile2        string         `gorm:"type:varchar(32)" json:"mobile_2,omitempty"`                  // 备用联系电话
	Address        string         `gorm:"type:text;not null" json:"address"`                           // 收件地址
	WilayaID       int            `gorm:"index;not null" json:"wilaya_id"`                             // 省份编号
	Commune        string         `gorm:"not null" json:"commune"`                                     // 市镇
	Note           string         `gorm:"type:text" json:"note,omitempty"`                             // 备注
	ProductDesc    string         `gorm:"type:text;not null" json:"product_desc"`                      // 商品描述
	DeliveryType   string         `gorm:"not null;default:'home'" json:"delivery_type"`                // 配送方式（home/stopdesk）
	OrderType      string         `gorm:"not null;default:'regular'" json:"order_type"`                // 订单类型（regular/exchange）
	DeclaredAmount Money          `gorm:"type:decimal(20,2);not null;default:0" json:"declared_amount"` // 申报金额（代收款）
	DeliveryFees   Money          `gorm:"type:decimal(20,2);not null;default:0" json:"delivery_fees"`  // 配送费用
	ReturnFees     Money          `gorm:"type:decimal(20,2);not null;default:0" json:"return_fees"`    // 退回费用
	PaymentPlanID  *uint          `gorm:"index" json:"payment_plan_id,omitempty"`                      // 结算方案ID
	Status         string         `gorm:"index;not null" json:"status"`                                // 订单状态
	CourierSynced  bool           `gorm:"index;not null;default:false" json:"courier_synced"`          // 是否已推送快递网关
	CourierReady   bool           `gorm:"not null;default:false" json:"courier_ready"`                 // 是否已在网关标记可发
	CourierMeta    JSON           `gorm:"type:json" json:"courier_meta,omitempty"`                     // 网关最近一次响应快照
	TotalAttempts  int            `gorm:"not null;default:0" json:"total_attempts"`                    // 确认尝试总次数
	LastAttemptAt  *time.Time     `json:"last_attempt_at"`                                             // 最近确认尝试时间
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`                                     // 创建时间
	UpdatedAt      time.Time      `gorm:"index" json:"updated_at"`                                     // 更新时间
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`                                              // 软删除时间

	// 关联
	StatusLogs []OrderStatusLog      `gorm:"foreignKey:OrderID" json:"status_logs,omitempty"` // 状态流转记录
	Attempts   []ConfirmationAttempt `gorm:"foreignKey:OrderID" json:"attempts,omitempty"`    // 确认尝试记录
	Payments   []Payment             `gorm:"foreignKey:OrderID" json:"payments,omitempty"`    // 资金记录
}

// TableName 指定表名
func (Order) TableName() string {
	return "orders"
}
