package ops

import "github.com/orderdesk/orderdesk/internal/provider"

// Handler 运营端接口处理器
type Handler struct {
	*provider.Container
}

// New 创建运营端处理器
func New(c *provider.Container) *Handler {
	return &Handler{Container: c}
}
