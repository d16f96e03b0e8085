package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"gorm.io/gorm"
)

// OrderService 订单服务。状态只能经由 Transition 变更。
type OrderService struct {
	orderRepo  repository.OrderRepository
	planRepo   repository.PaymentPlanRepository
	dispatcher *Dispatcher
	notifier   Notifier
	syncSvc    *SyncService
}

// NewOrderService 创建订单服务
func NewOrderService(orderRepo repository.OrderRepository, planRepo repository.PaymentPlanRepository, dispatcher *Dispatcher, notifier Notifier, syncSvc *SyncService) *OrderService {
	return &OrderService{
		orderRepo:  orderRepo,
		planRepo:   planRepo,
		dispatcher: dispatcher,
		notifier:   notifier,
		syncSvc:    syncSvc,
	}
}

var allowedTransitions = map[string]map[string]bool{
	constants.OrderStatusPending: {
		constants.OrderStatusConfirmed: true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusConfirmed: {
		constants.OrderStatusShipped:   true,
		constants.OrderStatusCancelled: true,
	},
	constants.OrderStatusShipped: {
		constants.OrderStatusDelivered: true,
		constants.OrderStatusReturned:  true,
	},
}

func isTransitionAllowed(current, target string) bool {
	nexts, ok := allowedTransitions[current]
	if !ok {
		return false
	}
	return nexts[target]
}

// CreateOrderInput 创建订单输入
type CreateOrderInput struct {
	TrackingID     string       `json:"tracking_id"`
	CustomerName   string       `json:"customer_name"`
	Mobile1        string       `json:"mobile_1"`
	Mobile2        string       `json:"mobile_2"`
	Address        string       `json:"address"`
	WilayaID       int          `json:"wilaya_id"`
	Commune        string       `json:"commune"`
	Note           string       `json:"note"`
	ProductDesc    string       `json:"product_desc"`
	DeliveryType   string       `json:"delivery_type"`
	OrderType      string       `json:"order_type"`
	DeclaredAmount models.Money `json:"declared_amount"`
	DeliveryFees   models.Money `json:"delivery_fees"`
	ReturnFees     models.Money `json:"return_fees"`
	PaymentPlanID  *uint        `json:"payment_plan_id"`
}

func (s *OrderService) validateCreate(input *CreateOrderInput) error {
	input.CustomerName = strings.TrimSpace(input.CustomerName)
	input.Mobile1 = strings.TrimSpace(input.Mobile1)
	input.Mobile2 = strings.TrimSpace(input.Mobile2)
	input.Address = strings.TrimSpace(input.Address)
	input.Commune = strings.TrimSpace(input.Commune)
	input.ProductDesc = strings.TrimSpace(input.ProductDesc)

	if input.CustomerName == "" {
		return fmt.Errorf("%w: customer_name is required", ErrOrderValidation)
	}
	if input.Mobile1 == "" && input.Mobile2 == "" {
		return fmt.Errorf("%w: at least one mobile number is required", ErrOrderValidation)
	}
	if input.Address == "" {
		return fmt.Errorf("%w: address is required", ErrOrderValidation)
	}
	if input.ProductDesc == "" {
		return fmt.Errorf("%w: product_desc is required", ErrOrderValidation)
	}
	if input.WilayaID <= 0 {
		return fmt.Errorf("%w: wilaya_id is required", ErrOrderValidation)
	}
	if input.Commune == "" {
		return fmt.Errorf("%w: commune is required", ErrOrderValidation)
	}

	// 主号码为空时提升备用号码
	if input.Mobile1 == "" {
		input.Mobile1 = input.Mobile2
		input.Mobile2 = ""
	}

	switch strings.ToLower(strings.TrimSpace(input.DeliveryType)) {
	case "":
		input.DeliveryType = constants.DeliveryTypeHome
	case constants.DeliveryTypeHome, constants.DeliveryTypeStopdesk:
		input.DeliveryType = strings.ToLower(strings.TrimSpace(input.DeliveryType))
	default:
		return fmt.Errorf("%w: unknown delivery_type", ErrOrderValidation)
	}
	switch strings.ToLower(strings.TrimSpace(input.OrderType)) {
	case "":
		input.OrderType = constants.OrderTypeRegular
	case constants.OrderTypeRegular, constants.OrderTypeExchange:
		input.OrderType = strings.ToLower(strings.TrimSpace(input.OrderType))
	default:
		return fmt.Errorf("%w: unknown order_type", ErrOrderValidation)
	}
	return nil
}

// Create 创建订单（初始 pending，分配跟踪编号，触发确认请求通知）
func (s *OrderService) Create(input CreateOrderInput, clientID uint) (*models.Order, error) {
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}
	if input.PaymentPlanID != nil {
		plan, err := s.planRepo.GetByID(*input.PaymentPlanID)
		if err != nil {
			return nil, err
		}
		if plan == nil || !plan.IsActive {
			return nil, ErrPaymentPlanNotFound
		}
	}

	// 调用方可以带入已有跟踪编号（例如从外部系统迁移），否则现场生成
	trackingID := strings.ToUpper(strings.TrimSpace(input.TrackingID))
	if trackingID != "" {
		existing, err := s.orderRepo.GetByTrackingID(trackingID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: tracking_id already in use", ErrOrderValidation)
		}
	} else {
		trackingID = generateTrackingID()
	}

	order := &models.Order{
		TrackingID:     trackingID,
		ClientID:       clientID,
		CustomerName:   input.CustomerName,
		Mobile1:        input.Mobile1,
		Mobile2:        input.Mobile2,
		Address:        input.Address,
		WilayaID:       input.WilayaID,
		Commune:        input.Commune,
		Note:           input.Note,
		ProductDesc:    input.ProductDesc,
		DeliveryType:   input.DeliveryType,
		OrderType:      input.OrderType,
		DeclaredAmount: input.DeclaredAmount,
		DeliveryFees:   input.DeliveryFees,
		ReturnFees:     input.ReturnFees,
		PaymentPlanID:  input.PaymentPlanID,
		Status:         constants.OrderStatusPending,
	}

	err := models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.Create(order); err != nil {
			return err
		}
		return repo.AppendStatusLog(&models.OrderStatusLog{
			OrderID:    order.ID,
			FromStatus: "",
			ToStatus:   constants.OrderStatusPending,
			ChangedBy:  clientID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_created",
		"order_id", order.ID,
		"tracking_id", order.TrackingID,
		"client_id", clientID,
	)

	// 异步向客户发起确认请求，失败不影响下单
	if s.notifier != nil {
		if err := s.notifier.Notify(order.ID, constants.NotifyKindConfirmRequest, map[string]interface{}{
			"tracking_id": order.TrackingID,
			"mobile":      order.Mobile1,
		}); err != nil {
			logger.Warnw("order_confirm_request_notify_failed", "order_id", order.ID, "error", err)
		}
	}

	return order, nil
}

// Transition 订单状态流转（唯一写状态的路径）
func (s *OrderService) Transition(orderID uint, newStatus string, actorID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}

	oldStatus := order.Status
	if constants.IsTerminalOrderStatus(oldStatus) {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, oldStatus)
	}
	if !isTransitionAllowed(oldStatus, newStatus) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, oldStatus, newStatus)
	}

	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		rows, err := repo.UpdateStatusCAS(order.ID, oldStatus, newStatus, nil)
		if err != nil {
			return err
		}
		if rows == 0 {
			// 另一个请求抢先改了状态
			return ErrConcurrentModification
		}
		return repo.AppendStatusLog(&models.OrderStatusLog{
			OrderID:    order.ID,
			FromStatus: oldStatus,
			ToStatus:   newStatus,
			ChangedBy:  actorID,
		})
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("order_status_changed",
		"order_id", order.ID,
		"from", oldStatus,
		"to", newStatus,
		"actor_id", actorID,
	)

	updated, err := s.orderRepo.GetByID(order.ID)
	if err != nil || updated == nil {
		// 流转已提交，读取失败只影响返回值
		updated = order
		updated.Status = newStatus
	}

	// 提交之后才触发副作用，失败由调度器兜底
	if s.dispatcher != nil {
		s.dispatcher.Dispatch(updated, oldStatus, newStatus)
	}

	return updated, nil
}

// Confirm 确认订单并尽力推送快递网关（推送失败不回滚确认）
func (s *OrderService) Confirm(orderID uint, actorID uint) (*models.Order, error) {
	order, err := s.Transition(orderID, constants.OrderStatusConfirmed, actorID)
	if err != nil {
		return nil, err
	}

	if s.syncSvc != nil {
		if err := s.syncSvc.Sync(context.Background(), order.ID); err != nil {
			logger.Warnw("order_confirm_sync_failed",
				"order_id", order.ID,
				"tracking_id", order.TrackingID,
				"error", err,
			)
		}
	}

	// 返回最新快照（同步可能翻转了推送标记）
	fresh, err := s.orderRepo.GetByID(order.ID)
	if err != nil || fresh == nil {
		return order, nil
	}
	return fresh, nil
}

const trackingAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

func generateTrackingID() string {
	var b strings.Builder
	b.WriteString("TRK-")
	for i := 0; i < 8; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(trackingAlphabet))))
		if err != nil {
			b.WriteByte(trackingAlphabet[0])
			continue
		}
		b.WriteByte(trackingAlphabet[n.Int64()])
	}
	return b.String()
}
