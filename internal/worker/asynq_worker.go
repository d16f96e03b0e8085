package worker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/provider"
	"github.com/orderdesk/orderdesk/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container

	webhookClient *http.Client
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	timeout := 5 * time.Second
	if c != nil && c.Config != nil && c.Config.Notify.TimeoutMS > 0 {
		timeout = time.Duration(c.Config.Notify.TimeoutMS) * time.Millisecond
	}
	return &Consumer{
		Container:     c,
		webhookClient: &http.Client{Timeout: timeout},
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderNotification, c.handleOrderNotification)
}

func (c *Consumer) handleOrderNotification(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_notification_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderNotificationPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_notification_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 || payload.Kind == "" {
		logger.Debugw("worker_order_notification_skip_invalid_payload", "order_id", payload.OrderID, "kind", payload.Kind)
		return nil
	}

	order, err := c.OrderRepo.GetByID(payload.OrderID)
	if err != nil {
		logger.Warnw("worker_order_notification_fetch_order_failed", "order_id", payload.OrderID, "error", err)
		return err
	}
	if order == nil {
		logger.Debugw("worker_order_notification_skip_order_not_found", "order_id", payload.OrderID)
		return nil
	}

	webhookURL := ""
	if c.Config != nil {
		webhookURL = strings.TrimSpace(c.Config.Notify.WebhookURL)
	}
	if webhookURL == "" {
		// 未配置下游，消费掉任务即可
		logger.Debugw("worker_order_notification_skip_no_webhook",
			"order_id", order.ID,
			"kind", payload.Kind,
		)
		return nil
	}

	body, err := json.Marshal(map[string]interface{}{
		"order_id":    order.ID,
		"tracking_id": order.TrackingID,
		"kind":        payload.Kind,
		"status":      order.Status,
		"mobile":      order.Mobile1,
		"data":        payload.Data,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.webhookClient.Do(req)
	if err != nil {
		logger.Warnw("worker_order_notification_webhook_failed",
			"order_id", order.ID,
			"kind", payload.Kind,
			"error", err,
		)
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		logger.Warnw("worker_order_notification_webhook_rejected",
			"order_id", order.ID,
			"kind", payload.Kind,
			"status", resp.StatusCode,
		)
		return fmt.Errorf("notification webhook status %d", resp.StatusCode)
	}

	logger.Infow("worker_order_notification_sent",
		"order_id", order.ID,
		"kind", payload.Kind,
	)
	return nil
}
