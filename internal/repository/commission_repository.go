package repository

import (
	"errors"

	"github.com/orderdesk/orderdesk/internal/models"

	"gorm.io/gorm"
)

// CommissionRepository 佣金记录数据访问接口
type CommissionRepository interface {
	Create(commission *models.Commission) error
	GetByOrderID(orderID uint) (*models.Commission, error)
	WithTx(tx *gorm.DB) *GormCommissionRepository
}

// GormCommissionRepository GORM 实现
type GormCommissionRepository struct {
	db *gorm.DB
}

// NewCommissionRepository 创建佣金仓库
func NewCommissionRepository(db *gorm.DB) *GormCommissionRepository {
	return &GormCommissionRepository{db: db}
}

// WithTx 绑定事务
func (r *GormCommissionRepository) WithTx(tx *gorm.DB) *GormCommissionRepository {
	if tx == nil {
		return r
	}
	return &GormCommissionRepository{db: tx}
}

// Create 创建佣金记录
func (r *GormCommissionRepository) Create(commission *models.Commission) error {
	return r.db.Create(commission).Error
}

// GetByOrderID 根据订单 ID 获取佣金记录
func (r *GormCommissionRepository) GetByOrderID(orderID uint) (*models.Commission, error) {
	var commission models.Commission
	if err := r.db.Where("order_id = ?", orderID).First(&commission).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &commission, nil
}
