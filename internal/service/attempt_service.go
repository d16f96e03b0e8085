package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"gorm.io/gorm"
)

// AttemptService 电话确认尝试跟踪
type AttemptService struct {
	orderRepo repository.OrderRepository
	notifier  Notifier
	threshold int
}

// NewAttemptService 创建确认尝试服务
func NewAttemptService(orderRepo repository.OrderRepository, notifier Notifier) *AttemptService {
	return &AttemptService{
		orderRepo: orderRepo,
		notifier:  notifier,
		threshold: constants.AttemptEscalationThreshold,
	}
}

var validAttemptOutcomes = map[string]bool{
	constants.AttemptOutcomeNoAnswer:  true,
	constants.AttemptOutcomeBusy:      true,
	constants.AttemptOutcomePostponed: true,
	constants.AttemptOutcomeConfirmed: true,
	constants.AttemptOutcomeRefused:   true,
}

// Log 追加一次确认尝试。与订单状态无关，终态订单除外。
// 计数第一次到达阈值时恰好升级告警一次。
func (s *AttemptService) Log(orderID uint, outcome, note string, actorID uint) (*models.ConfirmationAttempt, error) {
	outcome = strings.ToLower(strings.TrimSpace(outcome))
	if !validAttemptOutcomes[outcome] {
		return nil, fmt.Errorf("%w: %s", ErrAttemptOutcomeInvalid, outcome)
	}

	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	if constants.IsTerminalOrderStatus(order.Status) {
		return nil, fmt.Errorf("%w: %s is terminal", ErrInvalidTransition, order.Status)
	}

	attempt := &models.ConfirmationAttempt{
		OrderID:     order.ID,
		AttemptedBy: actorID,
		Outcome:     outcome,
		Note:        strings.TrimSpace(note),
	}

	var newTotal int
	err = models.DB.Transaction(func(tx *gorm.DB) error {
		repo := s.orderRepo.WithTx(tx)
		if err := repo.AppendAttempt(attempt); err != nil {
			return err
		}
		total, err := repo.IncrementAttempts(order.ID, time.Now())
		if err != nil {
			return err
		}
		newTotal = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Infow("confirmation_attempt_logged",
		"order_id", order.ID,
		"outcome", outcome,
		"actor_id", actorID,
		"total_attempts", newTotal,
	)

	// 恰好在越过阈值那一次升级，后续尝试不再触发
	if newTotal == s.threshold && s.notifier != nil {
		err := s.notifier.Notify(order.ID, constants.NotifyKindAttemptEscalation, map[string]interface{}{
			"tracking_id":    order.TrackingID,
			"total_attempts": newTotal,
		})
		if err != nil {
			logger.Warnw("attempt_escalation_notify_failed", "order_id", order.ID, "error", err)
		} else {
			logger.Warnw("confirmation_attempts_escalated", "order_id", order.ID, "total_attempts", newTotal)
		}
	}

	return attempt, nil
}
