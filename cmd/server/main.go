package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GCLiuShang/AcademyDBMS-sub001/config"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/ops"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/scheduler"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/service"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/database"
	applogger "github.com/GCLiuShang/AcademyDBMS-sub001/pkg/logger"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("引擎启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
	)

	// 3. 连接数据库
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}

	// 3.1 执行数据库迁移
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 依赖注入: Repository → Service
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, logger)

	// 5. 启动状态扫描调度器
	sweeper, err := scheduler.New(cfg.Scheduler, svc.StatusSweep, logger)
	if err != nil {
		logger.Fatal("初始化状态扫描失败", zap.Error(err))
	}
	sweeper.Start()

	// 6. 运维探针 HTTP 服务器（优雅关闭）
	engine := ops.Setup(cfg, repo, logger)
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("运维 HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 7. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	// 停扫描并兜底下线在线账号
	sweeper.Stop(ctx)

	// 关闭数据库连接
	if closeDB, _ := db.DB(); closeDB != nil {
		closeDB.Close()
	}

	logger.Info("引擎已退出")
}
