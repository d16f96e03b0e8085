package service

import (
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/queue"
)

// Notifier 通知发送依赖。实现只负责投递，不保证送达。
type Notifier interface {
	Notify(orderID uint, kind string, data map[string]interface{}) error
}

// QueueNotifier 基于异步队列的通知投递
type QueueNotifier struct {
	queueClient *queue.Client
}

// NewQueueNotifier 创建队列通知器
func NewQueueNotifier(queueClient *queue.Client) *QueueNotifier {
	return &QueueNotifier{queueClient: queueClient}
}

// Notify 投递通知任务
func (n *QueueNotifier) Notify(orderID uint, kind string, data map[string]interface{}) error {
	if n == nil || n.queueClient == nil {
		return nil
	}
	err := n.queueClient.EnqueueOrderNotification(queue.OrderNotificationPayload{
		OrderID: orderID,
		Kind:    kind,
		Data:    data,
	})
	if err != nil {
		return err
	}
	logger.Debugw("order_notification_enqueued", "order_id", orderID, "kind", kind)
	return nil
}
