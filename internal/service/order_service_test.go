package service

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// recordingNotifier 记录全部通知调用
type recordingNotifier struct {
	mu    sync.Mutex
	calls []recordedNotify
}

type recordedNotify struct {
	OrderID uint
	Kind    string
	Data    map[string]interface{}
}

func (n *recordingNotifier) Notify(orderID uint, kind string, data map[string]interface{}) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, recordedNotify{OrderID: orderID, Kind: kind, Data: data})
	return nil
}

func (n *recordingNotifier) countKind(kind string) int {
	n.mu.Lock()
	defer n.mu.Unlock()
	count := 0
	for _, call := range n.calls {
		if call.Kind == kind {
			count++
		}
	}
	return count
}

func openServiceTestDB(t *testing.T, name string) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.PaymentPlan{},
		&models.Order{},
		&models.OrderStatusLog{},
		&models.ConfirmationAttempt{},
		&models.Payment{},
		&models.Commission{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	return db
}

func setupOrderServiceTest(t *testing.T) (*OrderService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := openServiceTestDB(t, "order_service_test")
	orderRepo := repository.NewOrderRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	notifier := &recordingNotifier{}
	svc := NewOrderService(orderRepo, planRepo, nil, notifier, nil)
	return svc, db, notifier
}

func validCreateInput() CreateOrderInput {
	return CreateOrderInput{
		CustomerName:   "Amine B.",
		Mobile1:        "0550123456",
		Address:        "Cité 200 logements, Bt 4",
		WilayaID:       16,
		Commune:        "Bab Ezzouar",
		ProductDesc:    "Wireless earphones x1",
		DeclaredAmount: models.NewMoneyFromDecimal(decimal.NewFromInt(3500)),
		DeliveryFees:   models.NewMoneyFromDecimal(decimal.NewFromInt(500)),
	}
}

func TestCreateOrderAssignsTrackingAndPending(t *testing.T) {
	svc, db, notifier := setupOrderServiceTest(t)

	order, err := svc.Create(validCreateInput(), 7)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if !strings.HasPrefix(order.TrackingID, "TRK-") || len(order.TrackingID) != 12 {
		t.Fatalf("tracking id format unexpected: %s", order.TrackingID)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("status want pending got %s", order.Status)
	}
	if order.CourierSynced || order.CourierReady {
		t.Fatalf("new order must not carry courier flags")
	}
	if order.ClientID != 7 {
		t.Fatalf("client id want 7 got %d", order.ClientID)
	}

	var logs []models.OrderStatusLog
	if err := db.Where("order_id = ?", order.ID).Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load status logs failed: %v", err)
	}
	if len(logs) != 1 {
		t.Fatalf("status logs want 1 got %d", len(logs))
	}
	if logs[0].FromStatus != "" || logs[0].ToStatus != constants.OrderStatusPending {
		t.Fatalf("creation log want \"\"->pending got %q->%q", logs[0].FromStatus, logs[0].ToStatus)
	}

	if got := notifier.countKind(constants.NotifyKindConfirmRequest); got != 1 {
		t.Fatalf("confirm request notifications want 1 got %d", got)
	}
}

func TestCreateOrderTrackingIDsDistinct(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		order, err := svc.Create(validCreateInput(), 1)
		if err != nil {
			t.Fatalf("create order %d failed: %v", i, err)
		}
		if seen[order.TrackingID] {
			t.Fatalf("tracking id repeated: %s", order.TrackingID)
		}
		seen[order.TrackingID] = true
	}
}

func TestCreateOrderAcceptsCallerTrackingID(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	input := validCreateInput()
	input.TrackingID = "  trk-mig00001  "
	order, err := svc.Create(input, 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.TrackingID != "TRK-MIG00001" {
		t.Fatalf("caller tracking id not honored: %s", order.TrackingID)
	}

	dup := validCreateInput()
	dup.TrackingID = "TRK-MIG00001"
	if _, err := svc.Create(dup, 1); !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("duplicate tracking id want ErrOrderValidation got %v", err)
	}
}

func TestCreateOrderValidation(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	missingName := validCreateInput()
	missingName.CustomerName = "  "
	if _, err := svc.Create(missingName, 1); !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("missing name want ErrOrderValidation got %v", err)
	}

	noMobile := validCreateInput()
	noMobile.Mobile1 = ""
	if _, err := svc.Create(noMobile, 1); !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("missing mobiles want ErrOrderValidation got %v", err)
	}

	badDelivery := validCreateInput()
	badDelivery.DeliveryType = "pigeon"
	if _, err := svc.Create(badDelivery, 1); !errors.Is(err, ErrOrderValidation) {
		t.Fatalf("bad delivery type want ErrOrderValidation got %v", err)
	}
}

func TestCreateOrderPromotesBackupMobile(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	input := validCreateInput()
	input.Mobile1 = ""
	input.Mobile2 = "0770001122"
	order, err := svc.Create(input, 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Mobile1 != "0770001122" || order.Mobile2 != "" {
		t.Fatalf("mobile promotion failed: %q / %q", order.Mobile1, order.Mobile2)
	}
}

func TestCreateOrderRejectsInactivePlan(t *testing.T) {
	svc, db, _ := setupOrderServiceTest(t)

	plan := models.PaymentPlan{
		Name:              "legacy",
		CommissionPercent: models.NewMoneyFromDecimal(decimal.NewFromFloat(1.5)),
		IsActive:          false,
	}
	if err := db.Create(&plan).Error; err != nil {
		t.Fatalf("create plan failed: %v", err)
	}

	input := validCreateInput()
	input.PaymentPlanID = &plan.ID
	if _, err := svc.Create(input, 1); !errors.Is(err, ErrPaymentPlanNotFound) {
		t.Fatalf("inactive plan want ErrPaymentPlanNotFound got %v", err)
	}
}

func TestTransitionAllowedPath(t *testing.T) {
	svc, db, _ := setupOrderServiceTest(t)

	order, err := svc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	for _, step := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		updated, err := svc.Transition(order.ID, step, 2)
		if err != nil {
			t.Fatalf("transition to %s failed: %v", step, err)
		}
		if updated.Status != step {
			t.Fatalf("status want %s got %s", step, updated.Status)
		}
	}

	var logs []models.OrderStatusLog
	if err := db.Where("order_id = ?", order.ID).Order("id asc").Find(&logs).Error; err != nil {
		t.Fatalf("load status logs failed: %v", err)
	}
	// 创建日志 + 三次流转
	if len(logs) != 4 {
		t.Fatalf("status logs want 4 got %d", len(logs))
	}
	for i := 1; i < len(logs); i++ {
		if logs[i].FromStatus != logs[i-1].ToStatus {
			t.Fatalf("log chain broken at %d: %q -> %q", i, logs[i-1].ToStatus, logs[i].FromStatus)
		}
	}
}

func TestTransitionRejectsInvalid(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	order, err := svc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := svc.Transition(order.ID, constants.OrderStatusDelivered, 2); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending->delivered want ErrInvalidTransition got %v", err)
	}
	if _, err := svc.Transition(order.ID, constants.OrderStatusPending, 2); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("pending->pending want ErrInvalidTransition got %v", err)
	}
	if _, err := svc.Transition(order.ID+1000, constants.OrderStatusConfirmed, 2); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}

func TestTransitionRejectsTerminal(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	order, err := svc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := svc.Transition(order.ID, constants.OrderStatusCancelled, 2); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := svc.Transition(order.ID, constants.OrderStatusConfirmed, 2); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("cancelled order transition want ErrInvalidTransition got %v", err)
	}
}

func TestTransitionDeliveredIsFinal(t *testing.T) {
	svc, db, _ := setupOrderServiceTest(t)

	order, err := svc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	for _, next := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		if _, err := svc.Transition(order.ID, next, 2); err != nil {
			t.Fatalf("transition to %s failed: %v", next, err)
		}
	}

	// 送达后不再接受任何流转，退货必须在 shipped 阶段发起
	if _, err := svc.Transition(order.ID, constants.OrderStatusReturned, 2); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("delivered -> returned want ErrInvalidTransition got %v", err)
	}

	fresh, err := svc.GetOrder(order.ID)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.Status != constants.OrderStatusDelivered {
		t.Fatalf("status want delivered got %s", fresh.Status)
	}
	var count int64
	if err := db.Model(&models.OrderStatusLog{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count status logs failed: %v", err)
	}
	if count != 4 {
		t.Fatalf("status logs want 4 got %d", count)
	}
}

// staleReadOrderRepo 返回过期状态快照，模拟两个请求并发流转同一订单
type staleReadOrderRepo struct {
	*repository.GormOrderRepository
	staleStatus string
}

func (r *staleReadOrderRepo) GetByID(id uint) (*models.Order, error) {
	order, err := r.GormOrderRepository.GetByID(id)
	if err != nil || order == nil {
		return order, err
	}
	copied := *order
	copied.Status = r.staleStatus
	return &copied, nil
}

func TestTransitionConcurrentModification(t *testing.T) {
	_, db, _ := setupOrderServiceTest(t)

	orderRepo := repository.NewOrderRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	base := NewOrderService(orderRepo, planRepo, nil, nil, nil)

	order, err := base.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	// 另一个请求已经抢先确认
	if _, err := base.Transition(order.ID, constants.OrderStatusConfirmed, 2); err != nil {
		t.Fatalf("first transition failed: %v", err)
	}

	stale := &staleReadOrderRepo{GormOrderRepository: orderRepo, staleStatus: constants.OrderStatusPending}
	svc := NewOrderService(stale, planRepo, nil, nil, nil)
	if _, err := svc.Transition(order.ID, constants.OrderStatusCancelled, 3); !errors.Is(err, ErrConcurrentModification) {
		t.Fatalf("stale CAS want ErrConcurrentModification got %v", err)
	}

	fresh, err := orderRepo.GetByID(order.ID)
	if err != nil || fresh == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.Status != constants.OrderStatusConfirmed {
		t.Fatalf("losing request must not change status, got %s", fresh.Status)
	}
}

func TestListOrdersFilters(t *testing.T) {
	svc, _, _ := setupOrderServiceTest(t)

	first, err := svc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	other := validCreateInput()
	other.WilayaID = 31
	if _, err := svc.Create(other, 2); err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	orders, total, err := svc.ListOrders(repository.OrderListFilter{ClientID: 1})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 1 || len(orders) != 1 || orders[0].ID != first.ID {
		t.Fatalf("client filter want single order %d, got total %d", first.ID, total)
	}

	orders, total, err = svc.ListOrders(repository.OrderListFilter{Status: constants.OrderStatusPending})
	if err != nil {
		t.Fatalf("list orders failed: %v", err)
	}
	if total != 2 {
		t.Fatalf("status filter want 2 got %d", total)
	}
	_ = orders
}
