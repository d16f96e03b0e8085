package service

import (
	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"github.com/shopspring/decimal"
)

// PaymentService 资金记录服务
type PaymentService struct {
	paymentRepo repository.PaymentRepository
}

// NewPaymentService 创建资金记录服务
func NewPaymentService(paymentRepo repository.PaymentRepository) *PaymentService {
	return &PaymentService{paymentRepo: paymentRepo}
}

// RecordFinal 订单妥投后记录结清款。每单至多一条。
func (s *PaymentService) RecordFinal(order *models.Order) (*models.Payment, error) {
	exists, err := s.paymentRepo.HasFinalForOrder(order.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		logger.Debugw("final_payment_already_recorded", "order_id", order.ID)
		return nil, nil
	}

	amount := models.NewMoneyFromDecimal(order.DeclaredAmount.Sub(order.DeliveryFees.Decimal))
	payment := &models.Payment{
		OrderID: order.ID,
		Kind:    constants.PaymentKindFinal,
		Amount:  amount,
		Status:  constants.PaymentStatusCompleted,
	}
	if err := s.paymentRepo.Create(payment); err != nil {
		return nil, err
	}
	logger.Infow("final_payment_recorded",
		"order_id", order.ID,
		"payment_id", payment.ID,
		"amount", payment.Amount.String(),
	)
	return payment, nil
}

// RecordRefunds 订单取消后为每笔已完成款项记录一条负值退款
func (s *PaymentService) RecordRefunds(order *models.Order) ([]models.Payment, error) {
	completed, err := s.paymentRepo.ListCompletedByOrder(order.ID)
	if err != nil {
		return nil, err
	}

	var refunds []models.Payment
	for i := range completed {
		original := completed[i]
		if original.Kind == constants.PaymentKindRefund {
			continue
		}
		refunded, err := s.paymentRepo.HasRefundFor(original.ID)
		if err != nil {
			return nil, err
		}
		if refunded {
			continue
		}

		refundOfID := original.ID
		refund := models.Payment{
			OrderID:    order.ID,
			Kind:       constants.PaymentKindRefund,
			Amount:     models.NewMoneyFromDecimal(original.Amount.Mul(decimal.NewFromInt(-1))),
			Status:     constants.PaymentStatusRefunded,
			RefundOfID: &refundOfID,
		}
		if err := s.paymentRepo.Create(&refund); err != nil {
			return refunds, err
		}
		logger.Infow("refund_recorded",
			"order_id", order.ID,
			"payment_id", refund.ID,
			"refund_of_id", original.ID,
			"amount", refund.Amount.String(),
		)
		refunds = append(refunds, refund)
	}
	return refunds, nil
}
