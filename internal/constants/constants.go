package constants

// 订单状态常量
const (
	OrderStatusPending   = "pending"
	OrderStatusConfirmed = "confirmed"
	OrderStatusShipped   = "shipped"
	OrderStatusDelivered = "delivered"
	OrderStatusReturned  = "returned"
	OrderStatusCancelled = "cancelled"
)

// IsTerminalOrderStatus 判断是否终态（终态订单不再允许任何状态流转）
func IsTerminalOrderStatus(status string) bool {
	switch status {
	case OrderStatusDelivered, OrderStatusReturned, OrderStatusCancelled:
		return true
	default:
		return false
	}
}

// TerminalOrderStatuses 全部终态状态
var TerminalOrderStatuses = []string{
	OrderStatusDelivered,
	OrderStatusReturned,
	OrderStatusCancelled,
}

// 配送类型常量
const (
	DeliveryTypeHome     = "home"
	DeliveryTypeStopdesk = "stopdesk"
)

// 订单类型常量
const (
	OrderTypeRegular  = "regular"
	OrderTypeExchange = "exchange"
)

// 支付记录类型常量
const (
	PaymentKindFinal  = "final"
	PaymentKindRefund = "refund"
)

// 支付记录状态常量
const (
	PaymentStatusCompleted = "completed"
	PaymentStatusRefunded  = "refunded"
)

// 确认回访结果常量
const (
	AttemptOutcomeNoAnswer  = "no_answer"
	AttemptOutcomeBusy      = "busy"
	AttemptOutcomePostponed = "postponed"
	AttemptOutcomeConfirmed = "confirmed_verbally"
	AttemptOutcomeRefused   = "refused"
)

// AttemptEscalationThreshold 确认回访升级阈值（达到该次数时触发一次升级通知）
const AttemptEscalationThreshold = 3

// 通知事件常量
const (
	NotifyKindConfirmRequest    = "order_confirm_request"
	NotifyKindStatusUpdate      = "order_status_update"
	NotifyKindAttemptEscalation = "confirmation_escalation"
)

// 员工角色常量（静态角色表，详见 router 中间件）
const (
	StaffRoleAgent   = "agent"
	StaffRoleManager = "manager"
)

// 队列与任务常量
const (
	QueueDefault = "default"

	TaskOrderNotification = "order:notification"
)
