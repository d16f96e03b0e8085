package service

import (
	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
)

// Dispatcher 状态流转副作用调度器。
// 每次成功流转恰好调用一次；所有副作用失败都记录日志并吞掉，
// 绝不反过来影响已提交的状态变更。
type Dispatcher struct {
	paymentSvc    *PaymentService
	commissionSvc *CommissionService
	notifier      Notifier
}

// NewDispatcher 创建副作用调度器
func NewDispatcher(paymentSvc *PaymentService, commissionSvc *CommissionService, notifier Notifier) *Dispatcher {
	return &Dispatcher{
		paymentSvc:    paymentSvc,
		commissionSvc: commissionSvc,
		notifier:      notifier,
	}
}

// Dispatch 按 (oldStatus, newStatus) 触发副作用
func (d *Dispatcher) Dispatch(order *models.Order, oldStatus, newStatus string) {
	if d == nil || order == nil {
		return
	}

	switch newStatus {
	case constants.OrderStatusDelivered:
		if d.paymentSvc != nil {
			if _, err := d.paymentSvc.RecordFinal(order); err != nil {
				logger.Errorw("dispatch_final_payment_failed", "order_id", order.ID, "error", err)
			}
		}
		if d.commissionSvc != nil {
			if _, err := d.commissionSvc.RecordForOrder(order); err != nil {
				logger.Errorw("dispatch_commission_failed", "order_id", order.ID, "error", err)
			}
		}
	case constants.OrderStatusCancelled:
		if d.paymentSvc != nil {
			if _, err := d.paymentSvc.RecordRefunds(order); err != nil {
				logger.Errorw("dispatch_refunds_failed", "order_id", order.ID, "error", err)
			}
		}
	}

	if d.notifier != nil {
		err := d.notifier.Notify(order.ID, constants.NotifyKindStatusUpdate, map[string]interface{}{
			"tracking_id": order.TrackingID,
			"from":        oldStatus,
			"to":          newStatus,
		})
		if err != nil {
			logger.Warnw("dispatch_status_notify_failed", "order_id", order.ID, "error", err)
		}
	}
}
