package repository

import (
	"errors"
	"time"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/models"

	"gorm.io/gorm"
)

// OrderRepository 订单数据访问接口
type OrderRepository interface {
	Create(order *models.Order) error
	GetByID(id uint) (*models.Order, error)
	GetByTrackingID(trackingID string) (*models.Order, error)
	List(filter OrderListFilter) ([]models.Order, int64, error)
	ListUnsynced(limit int) ([]models.Order, error)
	UpdateStatusCAS(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error)
	MarkCourierSynced(id uint, meta models.JSON) error
	MarkCourierReady(id uint) error
	AppendStatusLog(log *models.OrderStatusLog) error
	AppendAttempt(attempt *models.ConfirmationAttempt) error
	IncrementAttempts(orderID uint, at time.Time) (int, error)
	WithTx(tx *gorm.DB) *GormOrderRepository
}

// GormOrderRepository GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

// NewOrderRepository 创建订单仓库
func NewOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx 绑定事务
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	if tx == nil {
		return r
	}
	return &GormOrderRepository{db: tx}
}

func (r *GormOrderRepository) withDetail(query *gorm.DB) *gorm.DB {
	return query.
		Preload("StatusLogs", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Attempts", func(db *gorm.DB) *gorm.DB { return db.Order("id asc") }).
		Preload("Payments")
}

// Create 创建订单
func (r *GormOrderRepository) Create(order *models.Order) error {
	return r.db.Create(order).Error
}

// GetByID 根据 ID 获取订单（含状态记录与确认尝试）
func (r *GormOrderRepository) GetByID(id uint) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).First(&order, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// GetByTrackingID 根据跟踪编号获取订单
func (r *GormOrderRepository) GetByTrackingID(trackingID string) (*models.Order, error) {
	var order models.Order
	if err := r.withDetail(r.db).Where("tracking_id = ?", trackingID).First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// List 订单列表
func (r *GormOrderRepository) List(filter OrderListFilter) ([]models.Order, int64, error) {
	var orders []models.Order
	query := r.db.Model(&models.Order{})

	if filter.ClientID != 0 {
		query = query.Where("client_id = ?", filter.ClientID)
	}
	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.TrackingID != "" {
		query = query.Where("tracking_id = ?", filter.TrackingID)
	}
	if filter.WilayaID != 0 {
		query = query.Where("wilaya_id = ?", filter.WilayaID)
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
	if err := query.Order("id desc").Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// ListUnsynced 扫描待推送订单（跳过终态，按 ID 升序）
func (r *GormOrderRepository) ListUnsynced(limit int) ([]models.Order, error) {
	var orders []models.Order
	query := r.db.
		Where("courier_synced = ?", false).
		Where("tracking_id <> ''").
		Where("status NOT IN ?", constants.TerminalOrderStatuses).
		Order("id asc")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// UpdateStatusCAS 条件更新状态（仅当目前处于 fromStatus），返回受影响行数
func (r *GormOrderRepository) UpdateStatusCAS(id uint, fromStatus, toStatus string, updates map[string]interface{}) (int64, error) {
	if updates == nil {
		updates = map[string]interface{}{}
	}
	updates["status"] = toStatus
	result := r.db.Model(&models.Order{}).
		Where("id = ? AND status = ?", id, fromStatus).
		Updates(updates)
	return result.RowsAffected, result.Error
}

// MarkCourierSynced 标记订单已推送网关
func (r *GormOrderRepository) MarkCourierSynced(id uint, meta models.JSON) error {
	updates := map[string]interface{}{"courier_synced": true}
	if meta != nil {
		updates["courier_meta"] = meta
	}
	return r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates).Error
}

// MarkCourierReady 标记订单已在网关置为可发
func (r *GormOrderRepository) MarkCourierReady(id uint) error {
	return r.db.Model(&models.Order{}).
		Where("id = ? AND courier_synced = ?", id, true).
		Update("courier_ready", true).Error
}

// AppendStatusLog 追加状态流转记录
func (r *GormOrderRepository) AppendStatusLog(log *models.OrderStatusLog) error {
	return r.db.Create(log).Error
}

// AppendAttempt 追加确认尝试记录
func (r *GormOrderRepository) AppendAttempt(attempt *models.ConfirmationAttempt) error {
	return r.db.Create(attempt).Error
}

// IncrementAttempts 累加尝试计数并返回新值
func (r *GormOrderRepository) IncrementAttempts(orderID uint, at time.Time) (int, error) {
	if err := r.db.Model(&models.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"total_attempts":  gorm.Expr("total_attempts + 1"),
			"last_attempt_at": at,
		}).Error; err != nil {
		return 0, err
	}
	var row struct {
		TotalAttempts int
	}
	if err := r.db.Model(&models.Order{}).
		Select("total_attempts").
		Where("id = ?", orderID).
		Take(&row).Error; err != nil {
		return 0, err
	}
	return row.TotalAttempts, nil
}
