package ops

import (
	"strconv"
	"strings"
	"time"

	"github.com/orderdesk/orderdesk/internal/http/response"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/repository"
	"github.com/orderdesk/orderdesk/internal/service"

	"github.com/gin-gonic/gin"
)

var orderErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, msg: "order not found"},
	{target: service.ErrOrderValidation, code: response.CodeBadRequest, msg: "order validation failed"},
	{target: service.ErrInvalidTransition, code: response.CodeBadRequest, msg: "invalid status transition"},
	{target: service.ErrConcurrentModification, code: response.CodeConflict, msg: "order was modified concurrently, retry"},
	{target: service.ErrAttemptOutcomeInvalid, code: response.CodeBadRequest, msg: "invalid attempt outcome"},
	{target: service.ErrPaymentPlanNotFound, code: response.CodeBadRequest, msg: "payment plan not found or inactive"},
	{target: service.ErrMissingTrackingID, code: response.CodeBadRequest, msg: "order has no tracking id"},
	{target: service.ErrCourierSync, code: response.CodeBadGateway, msg: "courier sync failed"},
}

// CreateOrder 创建订单
func (h *Handler) CreateOrder(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}

	var input service.CreateOrderInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondError(c, response.CodeBadRequest, "invalid request body", err)
		return
	}

	order, err := h.OrderService.Create(input, staffID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order create failed")
		return
	}
	response.Success(c, order)
}

// ListOrders 订单列表
func (h *Handler) ListOrders(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	filter := repository.OrderListFilter{
		Page:       page,
		PageSize:   pageSize,
		Status:     strings.TrimSpace(c.Query("status")),
		TrackingID: strings.TrimSpace(c.Query("tracking_id")),
	}
	if raw := strings.TrimSpace(c.Query("client_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filter.ClientID = uint(parsed)
		}
	}
	if raw := strings.TrimSpace(c.Query("wilaya_id")); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil {
			filter.WilayaID = parsed
		}
	}
	if from, err := parseTimeNullable(strings.TrimSpace(c.Query("created_from"))); err == nil {
		filter.CreatedFrom = from
	}
	if to, err := parseTimeNullable(strings.TrimSpace(c.Query("created_to"))); err == nil {
		filter.CreatedTo = to
	}

	orders, total, err := h.OrderService.ListOrders(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "order list failed", err)
		return
	}
	response.SuccessWithPage(c, orders, response.NewPagination(page, pageSize, total))
}

// GetOrder 订单详情（数字为内部 ID，否则按跟踪编号）
func (h *Handler) GetOrder(c *gin.Context) {
	raw := strings.TrimSpace(c.Param("id"))
	order, err := func() (*models.Order, error) {
		if id, parseErr := strconv.ParseUint(raw, 10, 64); parseErr == nil {
			return h.OrderService.GetOrder(uint(id))
		}
		return h.OrderService.GetOrderByTrackingID(raw)
	}()
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// TransitionRequest 状态流转请求
type TransitionRequest struct {
	Status string `json:"status" binding:"required"`
}

// TransitionOrder 订单状态流转
func (h *Handler) TransitionOrder(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "status is required", err)
		return
	}

	order, err := h.OrderService.Transition(orderID, strings.ToLower(strings.TrimSpace(req.Status)), staffID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order transition failed")
		return
	}
	response.Success(c, order)
}

// ConfirmOrder 确认订单并尽力推送快递网关
func (h *Handler) ConfirmOrder(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	order, err := h.OrderService.Confirm(orderID, staffID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order confirm failed")
		return
	}
	response.Success(c, order)
}

// AttemptRequest 确认尝试请求
type AttemptRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Note    string `json:"note"`
}

// LogAttempt 记录确认尝试
func (h *Handler) LogAttempt(c *gin.Context) {
	staffID, ok := getStaffID(c)
	if !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	var req AttemptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "outcome is required", err)
		return
	}

	attempt, err := h.AttemptService.Log(orderID, req.Outcome, req.Note, staffID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "attempt log failed")
		return
	}
	response.Success(c, attempt)
}

// SyncOrder 手动推送快递网关（错误直接返回给调用方）
func (h *Handler) SyncOrder(c *gin.Context) {
	if _, ok := getStaffID(c); !ok {
		return
	}
	orderID, ok := parseOrderID(c)
	if !ok {
		return
	}

	if err := h.SyncService.Sync(c.Request.Context(), orderID); err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "courier sync failed")
		return
	}

	order, err := h.OrderService.GetOrder(orderID)
	if err != nil {
		respondWithMappedError(c, err, orderErrorRules, response.CodeInternal, "order fetch failed")
		return
	}
	response.Success(c, order)
}

// GetPricing 快递网关报价透传
func (h *Handler) GetPricing(c *gin.Context) {
	wilayaID, err := strconv.Atoi(strings.TrimSpace(c.Param("wilaya")))
	if err != nil || wilayaID <= 0 {
		respondError(c, response.CodeBadRequest, "invalid wilaya id", err)
		return
	}
	if h.CourierGateway == nil {
		respondError(c, response.CodeBadGateway, "courier gateway not configured", nil)
		return
	}

	pricing, err := h.CourierGateway.GetPricing(c.Request.Context(), wilayaID)
	if err != nil {
		respondError(c, response.CodeBadGateway, "pricing fetch failed", err)
		return
	}
	response.Success(c, pricing)
}

func parseOrderID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(strings.TrimSpace(c.Param("id")), 10, 64)
	if err != nil || id == 0 {
		respondError(c, response.CodeBadRequest, "invalid order id", err)
		return 0, false
	}
	return uint(id), true
}

func parseTimeNullable(raw string) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return &t, nil
		}
	}
	return nil, nil
}
