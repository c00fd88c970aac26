// road-auto 道路考试监考分配服务
// 主程序入口

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nextmyth84-stack/road-auto/internal/config"
	"github.com/nextmyth84-stack/road-auto/internal/database"
	"github.com/nextmyth84-stack/road-auto/internal/handler"
	"github.com/nextmyth84-stack/road-auto/internal/metrics"
	"github.com/nextmyth84-stack/road-auto/internal/notify"
	"github.com/nextmyth84-stack/road-auto/internal/repository"
	"github.com/nextmyth84-stack/road-auto/internal/service"
	"github.com/nextmyth84-stack/road-auto/pkg/logger"
	"github.com/nextmyth84-stack/road-auto/pkg/rotation"
	"github.com/nextmyth84-stack/road-auto/pkg/scheduler"
)

// 构建信息（通过 ldflags 注入）
var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}
	logger.Init(cfg.Log)

	fmt.Printf("road-auto 监考分配服务 v%s\n", Version)
	fmt.Printf("Build: %s (%s)\n", BuildTime, GitCommit)
	fmt.Println()

	if err := run(cfg); err != nil {
		logger.WithError(err).Msg("服务异常退出")
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	ctx := context.Background()
	var opts []handler.Option
	var cleanups []func()
	defer func() {
		for i := len(cleanups) - 1; i >= 0; i-- {
			cleanups[i]()
		}
	}()

	// 数据库（运行日志、postgres 轮换存储）
	var db *database.DB
	if cfg.Database.Enabled {
		var err error
		db, err = database.Open(ctx, &cfg.Database)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { db.Close() })
		if err := db.Migrate(ctx); err != nil {
			return err
		}
		opts = append(opts, handler.WithHealthCheck("database", db.Health))
	}

	store, check, closeStore, err := openRotationStore(ctx, cfg, db)
	if err != nil {
		return err
	}
	cleanups = append(cleanups, closeStore)
	if check != nil {
		opts = append(opts, handler.WithHealthCheck("rotation", check))
	}

	engine, err := newEngine(&cfg.Engine)
	if err != nil {
		return err
	}

	var svcOpts []service.Option
	if cfg.Metrics.Enabled {
		m := metrics.New("", cfg.Metrics.Units...)
		svcOpts = append(svcOpts, service.WithMetrics(m))
		opts = append(opts, handler.WithMetrics(m, cfg.Metrics.Path))
	}
	if db != nil {
		runs := repository.NewRunRepository(db)
		svcOpts = append(svcOpts, service.WithRunRecorder(runs))
		opts = append(opts, handler.WithRunLister(runs))
	}
	if cfg.RabbitMQ.Enabled {
		pub, err := notify.DialAMQP(cfg.RabbitMQ)
		if err != nil {
			return err
		}
		cleanups = append(cleanups, func() { pub.Close() })
		svcOpts = append(svcOpts, service.WithPublisher(pub))
	}

	svc := service.NewAllocationService(engine, store, svcOpts...)
	opts = append(opts,
		handler.WithRateLimit(cfg.App.RateLimit),
		handler.WithTimeout(cfg.App.RequestTimeout),
		handler.WithBuildInfo(handler.BuildInfo{Version: Version, BuildTime: BuildTime, GitCommit: GitCommit}),
	)
	h, err := handler.NewHandler(svc, opts...)
	if err != nil {
		return fmt.Errorf("创建处理器失败: %w", err)
	}

	return serve(cfg, h.Routes())
}

// newEngine 按配置创建分配引擎
func newEngine(cfg *config.EngineConfig) (*scheduler.Engine, error) {
	capacity, err := cfg.CapacityOverrides()
	if err != nil {
		return nil, err
	}
	opts := []scheduler.Option{
		scheduler.WithWeights(scheduler.Weights{DutyBump: cfg.DutyBump, CarryBump: cfg.CarryBump}),
		scheduler.WithMaxIterations(cfg.MaxIterations),
		scheduler.WithSeed(cfg.Seed),
	}
	for p, c := range capacity {
		opts = append(opts, scheduler.WithCapacity(p, c))
	}
	return scheduler.NewEngine(opts...)
}

// openRotationStore 按配置选择轮换记忆存储
func openRotationStore(ctx context.Context, cfg *config.Config, db *database.DB) (rotation.Store, handler.HealthCheck, func(), error) {
	noop := func() {}
	switch cfg.Rotation.Backend {
	case config.RotationFile:
		store, err := rotation.NewFileStore(cfg.Rotation.Dir)
		if err != nil {
			return nil, nil, noop, err
		}
		logger.Info().Str("dir", cfg.Rotation.Dir).Msg("轮换记忆使用文件存储")
		return store, nil, noop, nil

	case config.RotationRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			PoolSize: cfg.Redis.PoolSize,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := client.Ping(pingCtx).Err(); err != nil {
			client.Close()
			return nil, nil, noop, fmt.Errorf("连接 Redis 失败: %w", err)
		}
		logger.Info().Str("addr", cfg.Redis.Addr()).Msg("轮换记忆使用 Redis 存储")
		check := func(ctx context.Context) error { return client.Ping(ctx).Err() }
		return rotation.NewRedisStore(client, cfg.Redis.Prefix), check, func() { client.Close() }, nil

	case config.RotationPostgres:
		if db == nil {
			return nil, nil, noop, errors.New("postgres 轮换存储需要启用数据库")
		}
		logger.Info().Msg("轮换记忆使用 Postgres 存储")
		return repository.NewRotationRepository(db), nil, noop, nil

	default:
		logger.Warn().Msg("轮换记忆使用进程内存储，重启后丢失")
		return rotation.NewMemoryStore(), nil, noop, nil
	}
}

func serve(cfg *config.Config, h http.Handler) error {
	port := strconv.Itoa(cfg.App.Port)
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: cfg.App.RequestTimeout + 10*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().
			Str("port", port).
			Str("version", Version).
			Str("env", cfg.App.Env).
			Str("rotation", cfg.Rotation.Backend).
			Msg("服务器启动")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("服务器启动失败: %w", err)
	case <-quit:
	}

	logger.Info().Msg("正在关闭服务器...")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("服务器关闭失败: %w", err)
	}
	logger.Info().Msg("服务器已关闭")
	return nil
}
