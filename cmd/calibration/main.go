package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wyfcoding/optionpricing/internal/calibration/application"
	"github.com/wyfcoding/optionpricing/internal/calibration/domain"
	"github.com/wyfcoding/optionpricing/internal/calibration/infrastructure/messaging"
	persistencemysql "github.com/wyfcoding/optionpricing/internal/calibration/infrastructure/persistence/mysql"
	httphandler "github.com/wyfcoding/optionpricing/internal/calibration/interfaces/http"
	"github.com/wyfcoding/optionpricing/pkg/cache"
	"github.com/wyfcoding/optionpricing/pkg/config"
	"github.com/wyfcoding/optionpricing/pkg/db"
	"github.com/wyfcoding/optionpricing/pkg/logger"
	"github.com/wyfcoding/optionpricing/pkg/metrics"
	"github.com/wyfcoding/optionpricing/pkg/middleware"
	"github.com/wyfcoding/optionpricing/pkg/mq"
	"github.com/wyfcoding/optionpricing/pkg/ratelimit"
)

const eventTopic = "calibration.events"

func main() {
	var confPath string
	flag.StringVar(&confPath, "conf", "configs/calibration.toml", "path to config file")
	flag.Parse()

	// 1. 配置
	cfg, err := config.LoadWithDefaults(confPath)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// 2. 日志
	if err := logger.Init(logger.Config{
		Level:      cfg.Logger.Level,
		Format:     cfg.Logger.Format,
		Output:     cfg.Logger.Output,
		FilePath:   cfg.Logger.FilePath,
		MaxSize:    cfg.Logger.MaxSize,
		MaxBackups: cfg.Logger.MaxBackups,
		MaxAge:     cfg.Logger.MaxAge,
		Compress:   cfg.Logger.Compress,
		WithCaller: cfg.Logger.WithCaller,
	}); err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 3. 数据库
	database, err := db.Init(db.Config{
		Driver:             cfg.Database.Driver,
		DSN:                cfg.Database.DSN,
		MaxOpenConns:       cfg.Database.MaxOpenConns,
		MaxIdleConns:       cfg.Database.MaxIdleConns,
		ConnMaxLifetime:    cfg.Database.ConnMaxLifetime,
		LogEnabled:         cfg.Database.LogEnabled,
		SlowQueryThreshold: cfg.Database.SlowQueryThreshold,
	})
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	if err := database.AutoMigrate(&domain.CalibrationRecord{}, &messaging.OutboxMessage{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	// 4. Redis（限流）
	redisCache, err := cache.New(cache.Config{
		Host:         cfg.Redis.Host,
		Port:         cfg.Redis.Port,
		Password:     cfg.Redis.Password,
		DB:           cfg.Redis.DB,
		MaxPoolSize:  cfg.Redis.MaxPoolSize,
		ConnTimeout:  cfg.Redis.ConnTimeout,
		ReadTimeout:  cfg.Redis.ReadTimeout,
		WriteTimeout: cfg.Redis.WriteTimeout,
	})
	if err != nil {
		log.Fatalf("failed to connect redis: %v", err)
	}
	defer redisCache.Close()

	// 5. Kafka 与 Outbox 中继
	producer, err := mq.NewProducer(mq.KafkaConfig{
		Brokers:      cfg.Kafka.Brokers,
		MaxRetries:   cfg.Kafka.MaxRetries,
		RetryBackoff: cfg.Kafka.RetryBackoff,
	})
	if err != nil {
		log.Fatalf("failed to create kafka producer: %v", err)
	}
	defer producer.Close()

	relay := messaging.NewOutboxRelay(database.DB, producer, eventTopic)
	go func() {
		if err := relay.Run(ctx); err != nil && err != context.Canceled {
			logger.Error(ctx, "outbox relay stopped", "error", err)
		}
	}()

	// 6. 指标
	m := metrics.New(cfg.ServiceName)
	if err := m.Register(); err != nil {
		log.Fatalf("failed to register metrics: %v", err)
	}
	if cfg.Metrics.Enabled {
		if err := metrics.StartHTTPServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			log.Fatalf("failed to start metrics server: %v", err)
		}
	}
	collector := metrics.NewDefaultMetricsCollector(m)

	// 7. 分层组装
	repo := persistencemysql.NewCalibrationRepository(database.DB)
	publisher := messaging.NewOutboxEventPublisher(database.DB)
	svc := application.NewCalibrationService(repo, publisher)
	handler := httphandler.NewCalibrationHandler(svc)

	// 8. HTTP 服务
	limiter := ratelimit.NewRedisRateLimiter(redisCache.GetClient())
	engine := gin.New()
	engine.Use(
		middleware.GinRecoveryMiddleware(),
		middleware.GinLoggingMiddleware(),
		middleware.GinCORSMiddleware(),
		middleware.GinMetricsMiddleware(collector),
		middleware.RateLimitMiddleware(limiter, cfg.RateLimit),
	)
	handler.RegisterRoutes(&engine.RouterGroup)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"service":   cfg.ServiceName,
			"timestamp": time.Now().Unix(),
		})
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler:      engine,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info(ctx, "HTTP server started", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("failed to serve: %v", err)
		}
	}()

	// 9. 优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info(ctx, "shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown failed", "error", err)
	}
	cancel()
}
