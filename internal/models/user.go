package models

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表（员工与客户共用）
type User struct {
	ID           uint           `gorm:"primarykey" json:"id"`                 // 主键
	Username     string         `gorm:"uniqueIndex;not null" json:"username"` // 登录名
	PasswordHash string         `gorm:"not null" json:"-"`                    // 密码哈希（不返回给前端）
	Name         string         `gorm:"default:''" json:"name"`               // 姓名
	Phone        string         `gorm:"type:varchar(32)" json:"phone"`        // 联系电话
	Role         string         `gorm:"index;not null" json:"role"`           // 角色（agent/manager）
	IsActive     bool           `gorm:"not null;default:true" json:"is_active"` // 是否启用
	LastLoginAt  *time.Time     `json:"last_login_at"`                        // 最后登录时间
	CreatedAt    time.Time      `gorm:"index" json:"created_at"`              // 创建时间
	UpdatedAt    time.Time      `gorm:"index" json:"updated_at"`              // 更新时间
	DeletedAt    gorm.DeletedAt `gorm:"index" json:"-"`                       // 软删除时间
}

// TableName 指定表名
func (User) TableName() string {
	return "users"
}
