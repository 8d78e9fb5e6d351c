package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/anthon-walters/Web-logmonitor/internal/cache"
	"github.com/anthon-walters/Web-logmonitor/internal/config"
	"github.com/anthon-walters/Web-logmonitor/internal/database"
	httpapi "github.com/anthon-walters/Web-logmonitor/internal/http"
	"github.com/anthon-walters/Web-logmonitor/internal/logger"
	"github.com/anthon-walters/Web-logmonitor/internal/mqtt"
	"github.com/anthon-walters/Web-logmonitor/internal/registry"
	"github.com/anthon-walters/Web-logmonitor/internal/repository"
	"github.com/anthon-walters/Web-logmonitor/internal/service"
	"github.com/anthon-walters/Web-logmonitor/internal/ws"
)

func main() {
	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	log, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "web-logmonitor")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	log.Info("Starting web-logmonitor service")

	// 数据库（监控开关存储）
	db, err := database.Connect(context.Background(), &cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Redis（快照缓存）
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer redisClient.Close()

	// 设备注册表：优先 Excel 设备清单，否则 PI_n_IP 环境变量
	var reg *registry.Registry
	if cfg.Registry.ExcelPath != "" {
		reg, err = registry.NewFromExcel(cfg.Registry.ExcelPath, log)
		if err != nil {
			log.Fatal("Failed to load device list",
				zap.String("path", cfg.Registry.ExcelPath),
				zap.Error(err),
			)
		}
	} else {
		reg = registry.NewFromEnv(log)
	}

	// 可选的 MQTT 推送通道
	var publisher service.StatusPublisher
	if cfg.MQTT.Enabled {
		p, err := mqtt.NewPublisher(&cfg.MQTT, log)
		if err != nil {
			log.Error("Failed to connect MQTT publisher, continuing without it", zap.Error(err))
		} else {
			publisher = p
			defer p.Disconnect()
		}
	}

	hub := ws.NewHub(log)
	flagStore := repository.NewMonitorSettingsRepository(db, log)
	kv := cache.NewRedisKVStore(redisClient)

	svc := service.New(cfg, log, reg, flagStore, kv, hub, publisher)

	handler := httpapi.NewAPIHandler(
		httpapi.NewMonitorHandler(svc, cfg.API.Title, log),
		cfg.API.Username, cfg.API.Password, log,
	)
	server := service.NewServer(fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port), handler, log)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 监听系统信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// 采集循环
	go svc.Start(ctx)

	// HTTP 服务器
	errChan := make(chan error, 1)
	go func() {
		if err := server.Start(); err != nil {
			errChan <- err
		}
	}()

	// 等待信号或错误
	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down", zap.String("signal", sig.String()))
	case err := <-errChan:
		log.Error("HTTP server error", zap.Error(err))
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping HTTP server", zap.Error(err))
	}

	log.Info("Service stopped")
}
