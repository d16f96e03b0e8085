package worker

import (
	"context"
	"errors"
	"time"

	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/queue"

	"github.com/hibiken/asynq"
)

// Service 异步队列服务
type Service struct {
	name       string
	server     *asynq.Server
	mux        *asynq.ServeMux
	consumer   *Consumer
	reconciler *Reconciler
}

// NewService 创建异步队列服务
func NewService(cfg *config.Config, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Queue.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(&cfg.Queue)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)

	var reconciler *Reconciler
	if consumer.Container != nil && consumer.SyncService != nil {
		reconciler = NewReconciler(
			consumer.OrderRepo,
			consumer.SyncService,
			cfg.Reconcile.BatchSize,
			time.Duration(cfg.Reconcile.PaceMS)*time.Millisecond,
			time.Duration(cfg.Reconcile.IntervalSeconds)*time.Second,
		)
	}

	return &Service{
		name:       "worker",
		server:     server,
		mux:        mux,
		consumer:   consumer,
		reconciler: reconciler,
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.reconciler != nil {
		go s.reconciler.Run(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}
