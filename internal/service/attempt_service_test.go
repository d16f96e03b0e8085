package service

import (
	"errors"
	"testing"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"gorm.io/gorm"
)

func setupAttemptTest(t *testing.T) (*AttemptService, *OrderService, *gorm.DB, *recordingNotifier) {
	t.Helper()
	db := openServiceTestDB(t, "attempt_service_test")
	orderRepo := repository.NewOrderRepository(db)
	planRepo := repository.NewPaymentPlanRepository(db)
	notifier := &recordingNotifier{}
	attemptSvc := NewAttemptService(orderRepo, notifier)
	orderSvc := NewOrderService(orderRepo, planRepo, nil, nil, nil)
	return attemptSvc, orderSvc, db, notifier
}

func TestLogAttemptAppendsAndCounts(t *testing.T) {
	attemptSvc, orderSvc, db, _ := setupAttemptTest(t)

	order, err := orderSvc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	attempt, err := attemptSvc.Log(order.ID, constants.AttemptOutcomeNoAnswer, "rang twice", 5)
	if err != nil {
		t.Fatalf("log attempt failed: %v", err)
	}
	if attempt.Outcome != constants.AttemptOutcomeNoAnswer || attempt.AttemptedBy != 5 {
		t.Fatalf("attempt fields unexpected: %+v", attempt)
	}

	fresh, err := repository.NewOrderRepository(db).GetByID(order.ID)
	if err != nil || fresh == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if fresh.TotalAttempts != 1 {
		t.Fatalf("total attempts want 1 got %d", fresh.TotalAttempts)
	}
	if fresh.LastAttemptAt == nil {
		t.Fatalf("last attempt time missing")
	}
	if len(fresh.Attempts) != 1 {
		t.Fatalf("attempt rows want 1 got %d", len(fresh.Attempts))
	}
}

func TestLogAttemptCounterMatchesRows(t *testing.T) {
	attemptSvc, orderSvc, db, _ := setupAttemptTest(t)

	order, err := orderSvc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	outcomes := []string{
		constants.AttemptOutcomeNoAnswer,
		constants.AttemptOutcomeBusy,
		constants.AttemptOutcomePostponed,
		constants.AttemptOutcomeConfirmed,
		constants.AttemptOutcomeRefused,
	}
	for _, outcome := range outcomes {
		if _, err := attemptSvc.Log(order.ID, outcome, "", 5); err != nil {
			t.Fatalf("log %s failed: %v", outcome, err)
		}
	}

	var rows int64
	if err := db.Model(&models.ConfirmationAttempt{}).Where("order_id = ?", order.ID).Count(&rows).Error; err != nil {
		t.Fatalf("count attempts failed: %v", err)
	}
	fresh, err := repository.NewOrderRepository(db).GetByID(order.ID)
	if err != nil || fresh == nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if rows != int64(len(outcomes)) || fresh.TotalAttempts != len(outcomes) {
		t.Fatalf("counter drift: rows=%d counter=%d", rows, fresh.TotalAttempts)
	}
}

func TestLogAttemptEscalatesExactlyOnce(t *testing.T) {
	attemptSvc, orderSvc, _, notifier := setupAttemptTest(t)

	order, err := orderSvc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	for i := 0; i < constants.AttemptEscalationThreshold-1; i++ {
		if _, err := attemptSvc.Log(order.ID, constants.AttemptOutcomeNoAnswer, "", 5); err != nil {
			t.Fatalf("log attempt %d failed: %v", i, err)
		}
	}
	if got := notifier.countKind(constants.NotifyKindAttemptEscalation); got != 0 {
		t.Fatalf("escalations before threshold want 0 got %d", got)
	}

	// 第三次命中阈值，恰好升级一次
	if _, err := attemptSvc.Log(order.ID, constants.AttemptOutcomeBusy, "", 5); err != nil {
		t.Fatalf("threshold attempt failed: %v", err)
	}
	if got := notifier.countKind(constants.NotifyKindAttemptEscalation); got != 1 {
		t.Fatalf("escalations at threshold want 1 got %d", got)
	}

	// 越过阈值不再重复升级
	for i := 0; i < 2; i++ {
		if _, err := attemptSvc.Log(order.ID, constants.AttemptOutcomeNoAnswer, "", 5); err != nil {
			t.Fatalf("post-threshold attempt failed: %v", err)
		}
	}
	if got := notifier.countKind(constants.NotifyKindAttemptEscalation); got != 1 {
		t.Fatalf("escalations after threshold want 1 got %d", got)
	}
}

func TestLogAttemptRejectsInvalidOutcome(t *testing.T) {
	attemptSvc, orderSvc, _, _ := setupAttemptTest(t)

	order, err := orderSvc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	if _, err := attemptSvc.Log(order.ID, "hung_up", "", 5); !errors.Is(err, ErrAttemptOutcomeInvalid) {
		t.Fatalf("invalid outcome want ErrAttemptOutcomeInvalid got %v", err)
	}
}

func TestLogAttemptRejectsTerminalOrder(t *testing.T) {
	attemptSvc, orderSvc, _, _ := setupAttemptTest(t)

	order, err := orderSvc.Create(validCreateInput(), 1)
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if _, err := orderSvc.Transition(order.ID, constants.OrderStatusCancelled, 2); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := attemptSvc.Log(order.ID, constants.AttemptOutcomeNoAnswer, "", 5); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("terminal order want ErrInvalidTransition got %v", err)
	}
}

func TestLogAttemptMissingOrder(t *testing.T) {
	attemptSvc, _, _, _ := setupAttemptTest(t)

	if _, err := attemptSvc.Log(12345, constants.AttemptOutcomeNoAnswer, "", 5); !errors.Is(err, ErrOrderNotFound) {
		t.Fatalf("missing order want ErrOrderNotFound got %v", err)
	}
}
