package repository

import "time"

// OrderListFilter 查询订单列表的过滤条件
type OrderListFilter struct {
	Page        int
	PageSize    int
	ClientID    uint
	Status      string
	TrackingID  string
	WilayaID    int
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

// PaymentListFilter 查询资金记录列表的过滤条件
type PaymentListFilter struct {
	Page        int
	PageSize    int
	OrderID     uint
	Kind        string
	Status      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}
