package service

import (
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"

	"github.com/shopspring/decimal"
)

// CommissionService 佣金服务
type CommissionService struct {
	commissionRepo repository.CommissionRepository
	planRepo       repository.PaymentPlanRepository
}

// NewCommissionService 创建佣金服务
func NewCommissionService(commissionRepo repository.CommissionRepository, planRepo repository.PaymentPlanRepository) *CommissionService {
	return &CommissionService{
		commissionRepo: commissionRepo,
		planRepo:       planRepo,
	}
}

// RecordForOrder 按订单结算方案比例记录佣金。每单至多一条。
func (s *CommissionService) RecordForOrder(order *models.Order) (*models.Commission, error) {
	existing, err := s.commissionRepo.GetByOrderID(order.ID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		logger.Debugw("commission_already_recorded", "order_id", order.ID)
		return existing, nil
	}

	rate := decimal.Zero
	if order.PaymentPlanID != nil {
		plan, err := s.planRepo.GetByID(*order.PaymentPlanID)
		if err != nil {
			return nil, err
		}
		if plan != nil {
			rate = plan.CommissionPercent.Decimal
		}
	}

	base := order.DeclaredAmount.Decimal
	amount := base.Mul(rate).Div(decimal.NewFromInt(100))

	commission := &models.Commission{
		OrderID:       order.ID,
		PaymentPlanID: order.PaymentPlanID,
		BaseAmount:    models.NewMoneyFromDecimal(base),
		RatePercent:   models.NewMoneyFromDecimal(rate),
		Amount:        models.NewMoneyFromDecimal(amount),
	}
	if err := s.commissionRepo.Create(commission); err != nil {
		return nil, err
	}
	logger.Infow("commission_recorded",
		"order_id", order.ID,
		"rate_percent", commission.RatePercent.String(),
		"amount", commission.Amount.String(),
	)
	return commission, nil
}
