package worker

import (
	"context"
	"time"

	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/repository"
	"github.com/orderdesk/orderdesk/internal/service"
)

// ReconcileResult 单轮对账结果
type ReconcileResult struct {
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// Reconciler 对账任务：扫描未推送网关的非终态订单并重试同步。
// 严格串行，逐单间隔固定延迟，避免触发网关限流。
type Reconciler struct {
	orderRepo repository.OrderRepository
	syncSvc   *service.SyncService
	batchSize int
	pace      time.Duration
	interval  time.Duration
}

// NewReconciler 创建对账任务
func NewReconciler(orderRepo repository.OrderRepository, syncSvc *service.SyncService, batchSize int, pace, interval time.Duration) *Reconciler {
	if batchSize <= 0 {
		batchSize = 50
	}
	if pace <= 0 {
		pace = 2 * time.Second
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	return &Reconciler{
		orderRepo: orderRepo,
		syncSvc:   syncSvc,
		batchSize: batchSize,
		pace:      pace,
		interval:  interval,
	}
}

// RunOnce 执行一轮对账。单笔失败只计数，不中断批次。
func (r *Reconciler) RunOnce(ctx context.Context) (ReconcileResult, error) {
	var result ReconcileResult

	orders, err := r.orderRepo.ListUnsynced(r.batchSize)
	if err != nil {
		return result, err
	}
	if len(orders) == 0 {
		return result, nil
	}

	for i := range orders {
		if ctx.Err() != nil {
			return result, ctx.Err()
		}
		order := orders[i]
		if err := r.syncSvc.Sync(ctx, order.ID); err != nil {
			result.Failed++
			logger.Warnw("reconcile_order_sync_failed",
				"order_id", order.ID,
				"tracking_id", order.TrackingID,
				"error", err,
			)
		} else {
			result.Succeeded++
		}

		// 批内逐单限速
		if i < len(orders)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(r.pace):
			}
		}
	}

	logger.Infow("reconcile_batch_done",
		"scanned", len(orders),
		"succeeded", result.Succeeded,
		"failed", result.Failed,
	)
	return result, nil
}

// Run 周期执行对账直到上下文取消
func (r *Reconciler) Run(ctx context.Context) {
	runOnce := func() {
		if _, err := r.RunOnce(ctx); err != nil && ctx.Err() == nil {
			logger.Warnw("reconcile_run_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
