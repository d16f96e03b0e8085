package repository

import (
	"errors"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/models"

	"gorm.io/gorm"
)

// PaymentRepository 资金记录数据访问接口
type PaymentRepository interface {
	Create(payment *models.Payment) error
	GetByID(id uint) (*models.Payment, error)
	List(filter PaymentListFilter) ([]models.Payment, int64, error)
	ListCompletedByOrder(orderID uint) ([]models.Payment, error)
	HasFinalForOrder(orderID uint) (bool, error)
	HasRefundFor(paymentID uint) (bool, error)
	WithTx(tx *gorm.DB) *GormPaymentRepository
}

// GormPaymentRepository GORM 实现
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewPaymentRepository 创建资金记录仓库
func NewPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// WithTx 绑定事务
func (r *GormPaymentRepository) WithTx(tx *gorm.DB) *GormPaymentRepository {
	if tx == nil {
		return r
	}
	return &GormPaymentRepository{db: tx}
}

// Create 创建资金记录
func (r *GormPaymentRepository) Create(payment *models.Payment) error {
	return r.db.Create(payment).Error
}

// GetByID 根据 ID 获取资金记录
func (r *GormPaymentRepository) GetByID(id uint) (*models.Payment, error) {
	var payment models.Payment
	if err := r.db.First(&payment, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &payment, nil
}

// List 资金记录列表
func (r *GormPaymentRepository) List(filter PaymentListFilter) ([]models.Payment, int64, error) {
	var payments []models.Payment
	query := r.db.Model(&models.Payment{})

	if filter.OrderID != 0 {
		query = query.Where("order_id = ?", filter.OrderID)
	}
	if filter.Kind != "" {
		query = query.Where("kind = ?", filter.Kind)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.CreatedFrom != nil {
		query = query.Where("created_at >= ?", *filter.CreatedFrom)
	}
	if filter.CreatedTo != nil {
		query = query.Where("created_at <= ?", *filter.CreatedTo)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query = applyPagination(query, filter.Page, filter.PageSize)
	if err := query.Order("id desc").Find(&payments).Error; err != nil {
		return nil, 0, err
	}
	return payments, total, nil
}

// ListCompletedByOrder 获取订单下已完成的资金记录
func (r *GormPaymentRepository) ListCompletedByOrder(orderID uint) ([]models.Payment, error) {
	var payments []models.Payment
	if err := r.db.
		Where("order_id = ? AND status = ?", orderID, constants.PaymentStatusCompleted).
		Order("id asc").
		Find(&payments).Error; err != nil {
		return nil, err
	}
	return payments, nil
}

// HasFinalForOrder 判断订单是否已有结清款
func (r *GormPaymentRepository) HasFinalForOrder(orderID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Payment{}).
		Where("order_id = ? AND kind = ?", orderID, constants.PaymentKindFinal).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// HasRefundFor 判断资金记录是否已有对应退款
func (r *GormPaymentRepository) HasRefundFor(paymentID uint) (bool, error) {
	var count int64
	if err := r.db.Model(&models.Payment{}).
		Where("refund_of_id = ?", paymentID).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
