package service

import (
	"testing"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupDispatcherTest(t *testing.T) (*OrderService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := openServiceTestDB(t, "dispatcher_test")
	orderRepo := repository.NewOrderRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	notifier := &recordingNotifier{}
	dispatcher := NewDispatcher(
		NewPaymentService(paymentRepo),
		NewCommissionService(commissionRepo, planRepo),
		notifier,
	)
	svc := NewOrderService(orderRepo, planRepo, dispatcher, notifier, nil)
	return svc, db, notifier
}

func createDeliverableOrder(t *testing.T, svc *OrderService, db *gorm.DB, planPercent string) *models.Order {
	t.Helper()
	input := validCreateInput()
	if planPercent != "" {
		percent, err := models.NewMoneyFromString(planPercent)
		if err != nil {
			t.Fatalf("parse percent failed: %v", err)
		}
		plan := models.PaymentPlan{Name: "plan-" + planPercent, CommissionPercent: percent, IsActive: true}
		if err := db.Create(&plan).Error; err != nil {
			t.Fatalf("create plan failed: %v", err)
		}
		input.PaymentPlanID = &plan.ID
	}
	order, err := svc.Create(input, 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	return order
}

func deliver(t *testing.T, svc *OrderService, orderID uint) {
	t.Helper()
	for _, step := range []string{
		constants.OrderStatusConfirmed,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		if _, err := svc.Transition(orderID, step, 2); err != nil {
			t.Fatalf("transition to %s failed: %v", step, err)
		}
	}
}

func TestDeliveredRecordsFinalPaymentAndCommission(t *testing.T) {
	svc, db, notifier := setupDispatcherTest(t)

	order := createDeliverableOrder(t, svc, db, "2.50")
	deliver(t, svc, order.ID)

	var payments []models.Payment
	if err := db.Where("order_id = ?", order.ID).Find(&payments).Error; err != nil {
		t.Fatalf("load payments failed: %v", err)
	}
	if len(payments) != 1 {
		t.Fatalf("payments want 1 got %d", len(payments))
	}
	if payments[0].Kind != constants.PaymentKindFinal {
		t.Fatalf("payment kind want final got %s", payments[0].Kind)
	}
	// 3500 申报 - 500 配送费
	if payments[0].Amount.String() != "3000.00" {
		t.Fatalf("final amount want 3000.00 got %s", payments[0].Amount.String())
	}

	var commission models.Commission
	if err := db.Where("order_id = ?", order.ID).First(&commission).Error; err != nil {
		t.Fatalf("load commission failed: %v", err)
	}
	// 3500 * 2.5%
	if commission.Amount.String() != "87.50" {
		t.Fatalf("commission want 87.50 got %s", commission.Amount.String())
	}
	if commission.RatePercent.String() != "2.50" {
		t.Fatalf("rate want 2.50 got %s", commission.RatePercent.String())
	}

	// 每次流转都发一条状态通知
	if got := notifier.countKind(constants.NotifyKindStatusUpdate); got != 3 {
		t.Fatalf("status notifications want 3 got %d", got)
	}
}

func TestDeliveredSideEffectsOncePerOrder(t *testing.T) {
	svc, db, _ := setupDispatcherTest(t)

	order := createDeliverableOrder(t, svc, db, "4.00")
	deliver(t, svc, order.ID)

	// 模拟重复派发（副作用服务自身幂等）
	paymentRepo := repository.NewPaymentRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	commissionRepo := repository.NewCommissionRepository(db)
	fresh, err := repository.NewOrderRepository(db).GetByID(order.ID)
	if err != nil || fresh == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	NewDispatcher(
		NewPaymentService(paymentRepo),
		NewCommissionService(commissionRepo, planRepo),
		nil,
	).Dispatch(fresh, constants.OrderStatusShipped, constants.OrderStatusDelivered)

	var paymentCount, commissionCount int64
	if err := db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&paymentCount).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if err := db.Model(&models.Commission{}).Where("order_id = ?", order.ID).Count(&commissionCount).Error; err != nil {
		t.Fatalf("count commissions failed: %v", err)
	}
	if paymentCount != 1 || commissionCount != 1 {
		t.Fatalf("side effects duplicated: payments=%d commissions=%d", paymentCount, commissionCount)
	}
}

func TestCancelledRefundsCompletedPayments(t *testing.T) {
	svc, db, _ := setupDispatcherTest(t)

	order := createDeliverableOrder(t, svc, db, "")
	// 预置一笔已完成收款再取消
	completed := models.Payment{
		OrderID: order.ID,
		Kind:    constants.PaymentKindFinal,
		Amount:  models.NewMoneyFromDecimal(decimal.NewFromInt(3000)),
		Status:  constants.PaymentStatusCompleted,
	}
	if err := db.Create(&completed).Error; err != nil {
		t.Fatalf("create payment failed: %v", err)
	}

	if _, err := svc.Transition(order.ID, constants.OrderStatusCancelled, 2); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	var refunds []models.Payment
	if err := db.Where("order_id = ? AND kind = ?", order.ID, constants.PaymentKindRefund).Find(&refunds).Error; err != nil {
		t.Fatalf("load refunds failed: %v", err)
	}
	if len(refunds) != 1 {
		t.Fatalf("refunds want 1 got %d", len(refunds))
	}
	if refunds[0].Amount.String() != "-3000.00" {
		t.Fatalf("refund amount want -3000.00 got %s", refunds[0].Amount.String())
	}
	if refunds[0].RefundOfID == nil || *refunds[0].RefundOfID != completed.ID {
		t.Fatalf("refund must reference original payment %d", completed.ID)
	}
}

func TestCancelledWithoutPaymentsRefundsNothing(t *testing.T) {
	svc, db, _ := setupDispatcherTest(t)

	order := createDeliverableOrder(t, svc, db, "")
	if _, err := svc.Transition(order.ID, constants.OrderStatusCancelled, 2); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.Payment{}).Where("order_id = ?", order.ID).Count(&count).Error; err != nil {
		t.Fatalf("count payments failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("payments want 0 got %d", count)
	}
}
