package queue

import (
	"encoding/json"

	"github.com/orderdesk/orderdesk/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderNotification 订单通知任务
	TaskOrderNotification = constants.TaskOrderNotification
)

// OrderNotificationPayload 订单通知任务载荷
type OrderNotificationPayload struct {
	OrderID uint                   `json:"order_id"`
	Kind    string                 `json:"kind"`
	Data    map[string]interface{} `json:"data,omitempty"`
}

// NewOrderNotificationTask 创建订单通知任务
func NewOrderNotificationTask(payload OrderNotificationPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderNotification, body), nil
}
