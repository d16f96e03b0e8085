package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/orderdesk/orderdesk/internal/constants"
	"github.com/orderdesk/orderdesk/internal/courier"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"
)

// CourierGateway 快递网关依赖
type CourierGateway interface {
	Submit(ctx context.Context, record courier.PackageRecord) (*courier.SubmitResult, error)
	MarkReady(ctx context.Context, trackingID string) error
	ListPackages(ctx context.Context, page int) ([]courier.PackageStatus, error)
	GetPricing(ctx context.Context, wilayaID int) (*courier.Pricing, error)
}

// SyncService 快递同步协调器。保证同一订单不会重复提交，
// 也不会在提交之前被标记可发。重试策略全部在调用方。
type SyncService struct {
	orderRepo repository.OrderRepository
	gateway   CourierGateway
}

// NewSyncService 创建同步协调器
func NewSyncService(orderRepo repository.OrderRepository, gateway CourierGateway) *SyncService {
	return &SyncService{
		orderRepo: orderRepo,
		gateway:   gateway,
	}
}

// Sync 将订单推送到快递网关。已推送的订单直接返回（幂等）。
// 提交失败时不改动任何本地标记，错误原样带回。
func (s *SyncService) Sync(ctx context.Context, orderID uint) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if s.gateway == nil {
		return fmt.Errorf("%w: gateway not configured", ErrCourierSync)
	}

	// 每次都重新读取，避免基于过期快照做幂等判断
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return ErrOrderNotFound
	}
	if order.CourierSynced {
		return nil
	}
	if strings.TrimSpace(order.TrackingID) == "" {
		return ErrMissingTrackingID
	}

	record := buildPackageRecord(order)
	result, err := s.gateway.Submit(ctx, record)
	if err != nil {
		logger.Warnw("courier_submit_failed",
			"order_id", order.ID,
			"tracking_id", order.TrackingID,
			"error", err,
		)
		return fmt.Errorf("%w: %v", ErrCourierSync, err)
	}

	var meta models.JSON
	if result != nil && result.Raw != nil {
		meta = models.JSON(result.Raw)
	}
	if err := s.orderRepo.MarkCourierSynced(order.ID, meta); err != nil {
		return err
	}
	logger.Infow("courier_submitted",
		"order_id", order.ID,
		"tracking_id", order.TrackingID,
	)

	// 已确认的订单顺手标记可发；失败时订单保持已提交未可发
	if order.Status == constants.OrderStatusConfirmed {
		if err := s.gateway.MarkReady(ctx, order.TrackingID); err != nil {
			logger.Warnw("courier_mark_ready_failed",
				"order_id", order.ID,
				"tracking_id", order.TrackingID,
				"error", err,
			)
			return fmt.Errorf("%w: %v", ErrCourierSync, err)
		}
		if err := s.orderRepo.MarkCourierReady(order.ID); err != nil {
			return err
		}
		logger.Infow("courier_marked_ready",
			"order_id", order.ID,
			"tracking_id", order.TrackingID,
		)
	}

	return nil
}

// buildPackageRecord 内部订单转网关载荷
func buildPackageRecord(order *models.Order) courier.PackageRecord {
	confirmed := 0
	if order.Status == constants.OrderStatusConfirmed {
		confirmed = 1
	}
	return courier.PackageRecord{
		Tracking:      order.TrackingID,
		TypeLivraison: courier.DeliveryTypeCode(order.DeliveryType),
		TypeColis:     courier.PackageTypeCode(order.OrderType),
		Confirmee:     confirmed,
		Client:        order.CustomerName,
		MobileA:       order.Mobile1,
		MobileB:       order.Mobile2,
		Adresse:       order.Address,
		IDWilaya:      order.WilayaID,
		Commune:       order.Commune,
		Total:         order.DeclaredAmount.String(),
		Note:          order.Note,
		TProduit:      order.ProductDesc,
		ExternalID:    fmt.Sprintf("%d", order.ID),
	}
}
