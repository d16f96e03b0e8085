package repository

import (
	"errors"

	"github.com/orderdesk/orderdesk/internal/models"

	"gorm.io/gorm"
)

// PaymentPlanRepository 结算方案数据访问接口
type PaymentPlanRepository interface {
	GetByID(id uint) (*models.PaymentPlan, error)
	ListActive() ([]models.PaymentPlan, error)
}

// GormPaymentPlanRepository GORM 实现
type GormPaymentPlanRepository struct {
	db *gorm.DB
}

// NewPaymentPlanRepository 创建结算方案仓库
func NewPaymentPlanRepository(db *gorm.DB) *GormPaymentPlanRepository {
	return &GormPaymentPlanRepository{db: db}
}

// GetByID 根据 ID 获取结算方案
func (r *GormPaymentPlanRepository) GetByID(id uint) (*models.PaymentPlan, error) {
	var plan models.PaymentPlan
	if err := r.db.First(&plan, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &plan, nil
}

// ListActive 获取启用中的结算方案
func (r *GormPaymentPlanRepository) ListActive() ([]models.PaymentPlan, error) {
	var plans []models.PaymentPlan
	if err := r.db.Where("is_active = ?", true).Order("id asc").Find(&plans).Error; err != nil {
		return nil, err
	}
	return plans, nil
}
