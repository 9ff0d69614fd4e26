package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JangWoody/woody-service-back/config"
	"github.com/JangWoody/woody-service-back/internal/api/handler"
	"github.com/JangWoody/woody-service-back/internal/api/middleware"
	"github.com/JangWoody/woody-service-back/internal/api/router"
	"github.com/JangWoody/woody-service-back/internal/repository"
	"github.com/JangWoody/woody-service-back/internal/service"
	"github.com/JangWoody/woody-service-back/pkg/database"
	"github.com/JangWoody/woody-service-back/pkg/jwt"
	"github.com/JangWoody/woody-service-back/pkg/lock"
	applogger "github.com/JangWoody/woody-service-back/pkg/logger"
	"github.com/JangWoody/woody-service-back/pkg/redis"
)

const lockRetryInterval = 50 * time.Millisecond

func main() {
	// 1. 加载配置
	cfg, err := config.Load(os.Getenv("WOODY_CONFIG"))
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

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("timezone", cfg.Booking.Timezone),
		zap.Int("open_hour", cfg.Booking.OpenHour),
		zap.Int("close_hour", cfg.Booking.CloseHour),
	)

	// 3. 连接数据库并执行迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("数据库连接失败", zap.Error(err))
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("获取底层 sql.DB 失败", zap.Error(err))
	}
	if err := database.RunMigrations(sqlDB, logger); err != nil {
		logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 4. 连接 Redis（可选：失败时降级为进程内锁，黑名单与限流关闭）
	rdb, err := redis.NewClient(&cfg.Redis, logger)
	if err != nil {
		logger.Warn("Redis 连接失败，降级运行", zap.Error(err))
		rdb = nil
	}

	var (
		locker    lock.Locker = lock.NewLocal()
		tokens    service.TokenStore
		blacklist middleware.Blacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		tokens, blacklist, limiter = rdb, rdb, rdb
		if cfg.Booking.LockBackend == "redis" {
			locker = rdb.NewSlotLocker(cfg.Booking.LockTTL, lockRetryInterval)
		}
	} else if cfg.Booking.LockBackend == "redis" {
		logger.Warn("Redis 不可用，槽位锁回退为进程内锁")
	}

	// 5. 依赖注入: Repository → Service → Handler
	jwtMgr := jwt.NewManager(&cfg.Auth)
	repo := repository.NewRepository(db)
	svc, err := service.NewService(service.Deps{
		Config: cfg,
		Repo:   repo,
		JWT:    jwtMgr,
		Locker: locker,
		Tokens: tokens,
		Logger: logger,
	})
	if err != nil {
		logger.Fatal("初始化服务失败", zap.Error(err))
	}

	initCtx, initCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := svc.Auth.EnsureCredential(initCtx, cfg.Auth.InitialPassword); err != nil {
		initCancel()
		logger.Fatal("初始化老师密码失败", zap.Error(err))
	}
	initCancel()

	// 6. 定时清理过期的待确认申请
	var scheduler *cron.Cron
	if cfg.Cleanup.Enabled {
		loc, _ := cfg.Booking.Location()
		scheduler = cron.New(cron.WithLocation(loc))
		if _, err := svc.Cleanup.Schedule(scheduler, cfg.Cleanup.Spec); err != nil {
			logger.Fatal("注册清理任务失败", zap.String("spec", cfg.Cleanup.Spec), zap.Error(err))
		}
		scheduler.Start()
		logger.Info("清理任务已启动", zap.String("spec", cfg.Cleanup.Spec))
	}

	// 7. 初始化路由
	h := handler.NewHandler(svc)
	engine := router.Setup(cfg, h, jwtMgr, blacklist, limiter, logger)

	// 8. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP 服务器异常", zap.Error(err))
		}
	}()

	// 9. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	if scheduler != nil {
		<-scheduler.Stop().Done()
	}

	_ = sqlDB.Close()

	if rdb != nil {
		_ = rdb.Close()
	}

	logger.Info("服务器已关闭")
}
