package scheduler

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/GCLiuShang/AcademyDBMS-sub001/config"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/service"
)

// Sweeper 状态扫描调度器
//
// 只负责按固定间隔触发 StatusSweepService，本身不持有任何业务状态。
// 两个扫描各自独立：一个失败不影响另一个的排程。
type Sweeper struct {
	cron   *cron.Cron
	sweep  service.StatusSweepService
	logger *zap.Logger
}

// New 创建 Sweeper 并注册两个扫描任务
func New(cfg config.SchedulerConfig, sweep service.StatusSweepService, logger *zap.Logger) (*Sweeper, error) {
	c := cron.New()

	shortSpec := fmt.Sprintf("@every %s", cfg.SweepInterval)
	if _, err := c.AddFunc(shortSpec, func() {
		sweep.RunShortSweep(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("注册短周期扫描失败: %w", err)
	}

	longSpec := fmt.Sprintf("@every %s", cfg.ReapInterval)
	if _, err := c.AddFunc(longSpec, func() {
		sweep.RunLongSweep(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("注册长周期扫描失败: %w", err)
	}

	return &Sweeper{cron: c, sweep: sweep, logger: logger}, nil
}

// Start 启动调度
func (s *Sweeper) Start() {
	s.cron.Start()
	s.logger.Info("状态扫描调度器已启动")
}

// Stop 停止调度并等待在跑任务结束，随后兜底下线全部在线账号
func (s *Sweeper) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
		s.logger.Warn("等待扫描任务结束超时")
	}
	s.sweep.MarkAllOffline(ctx)
	s.logger.Info("状态扫描调度器已停止")
}
