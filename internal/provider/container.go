package provider

import (
	"github.com/orderdesk/orderdesk/internal/cache"
	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/courier"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/models"
	"github.com/orderdesk/orderdesk/internal/queue"
	"github.com/orderdesk/orderdesk/internal/repository"
	"github.com/orderdesk/orderdesk/internal/service"
)

// Container 依赖注入容器。进程启动时构建一次，之后只读共享。
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client

	// Repositories
	OrderRepo      repository.OrderRepository
	PaymentRepo    repository.PaymentRepository
	CommissionRepo repository.CommissionRepository
	PlanRepo       repository.PaymentPlanRepository
	UserRepo       repository.UserRepository

	// Gateway
	CourierGateway service.CourierGateway

	// Services
	AuthService       *service.AuthService
	Notifier          service.Notifier
	PaymentService    *service.PaymentService
	CommissionService *service.CommissionService
	Dispatcher        *service.Dispatcher
	SyncService       *service.SyncService
	OrderService      *service.OrderService
	AttemptService    *service.AttemptService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
	}

	c.initRepositories()
	c.initGateway()
	c.initServices()

	return c
}

func (c *Container) initRepositories() {
	db := models.DB
	c.OrderRepo = repository.NewOrderRepository(db)
	c.PaymentRepo = repository.NewPaymentRepository(db)
	c.CommissionRepo = repository.NewCommissionRepository(db)
	c.PlanRepo = repository.NewPaymentPlanRepository(db)
	c.UserRepo = repository.NewUserRepository(db)
}

func (c *Container) initGateway() {
	gateway, err := courier.NewClient(courier.Config{
		BaseURL:       c.Config.Courier.BaseURL,
		APIID:         c.Config.Courier.APIID,
		APIToken:      c.Config.Courier.APIToken,
		TimeoutMS:     c.Config.Courier.TimeoutMS,
		RatePerMinute: c.Config.Courier.RatePerMinute,
		Burst:         c.Config.Courier.Burst,
	})
	if err != nil {
		// 未配置网关时只能本地流转，同步与对账会持续失败并记日志
		logger.Warnw("provider_init_courier_gateway_failed", "error", err)
		return
	}
	c.CourierGateway = gateway
}

func (c *Container) initServices() {
	c.AuthService = service.NewAuthService(c.Config, c.UserRepo)
	c.Notifier = service.NewQueueNotifier(c.QueueClient)
	c.PaymentService = service.NewPaymentService(c.PaymentRepo)
	c.CommissionService = service.NewCommissionService(c.CommissionRepo, c.PlanRepo)
	c.Dispatcher = service.NewDispatcher(c.PaymentService, c.CommissionService, c.Notifier)
	c.SyncService = service.NewSyncService(c.OrderRepo, c.CourierGateway)
	c.OrderService = service.NewOrderService(c.OrderRepo, c.PlanRepo, c.Dispatcher, c.Notifier, c.SyncService)
	c.AttemptService = service.NewAttemptService(c.OrderRepo, c.Notifier)
}
