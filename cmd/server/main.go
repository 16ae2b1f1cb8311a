package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/hamersu9t/alerting-dashboards-plugin/api/server"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/config"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/database"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/elasticsearch"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/fleet"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/grpc"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/logger"
	"github.com/hamersu9t/alerting-dashboards-plugin/internal/metrics"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"
)

var (
	configFile = flag.String("config", "etc/config.yaml", "Path to configuration file")
	version    = "1.0.0"
)

func main() {
	flag.Parse()

	// 加载配置
	var cfg *config.Config

	// 优先从配置文件加载，如果失败则从环境变量加载
	if _, err := os.Stat(*configFile); err == nil {
		cfg, err = config.LoadFromFile(*configFile)
		if err != nil {
			fmt.Printf("Failed to load config from file: %v\n", err)
			fmt.Println("Falling back to environment variables...")
			cfg = config.Load()
		}
	} else {
		fmt.Println("Config file not found, loading from environment variables...")
		cfg = config.Load()
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志系统
	if err := logger.Init(cfg.Logger); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting alerting fleet service",
		zap.String("version", version),
		zap.String("config_file", *configFile),
		zap.String("monitor_store", cfg.MonitorStore.Backend),
	)

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg)

	esClient, err := elasticsearch.NewClient(cfg.Elasticsearch, cfg.Breaker, m)
	if err != nil {
		logger.Fatal("Failed to initialize Elasticsearch", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var monitors fleet.MonitorStore
	switch cfg.MonitorStore.Backend {
	case "elasticsearch":
		store := elasticsearch.NewMonitorStore(esClient)
		if err := store.CreateIndexTemplate(ctx); err != nil {
			logger.Warn("Failed to create index template", zap.Error(err))
		}
		monitors = store
	default:
		// 初始化数据库
		if err := database.InitDB(database.Config{
			Driver:   cfg.Database.Driver,
			Host:     cfg.Database.Host,
			Port:     cfg.Database.Port,
			User:     cfg.Database.User,
			Password: cfg.Database.Password,
			DBName:   cfg.Database.DBName,
			SSLMode:  cfg.Database.SSLMode,
		}); err != nil {
			logger.Fatal("Failed to initialize database", zap.Error(err))
		}
		logger.Info("Database initialized",
			zap.String("driver", cfg.Database.Driver),
			zap.String("database", cfg.Database.DBName),
		)
		monitors = database.NewMonitorStore(database.GetDB(), m)
	}

	svc := fleet.NewService(monitors, esClient, esClient, fleet.Limits{MaxMonitors: cfg.Fleet.MaxMonitors}, m)

	var wg sync.WaitGroup

	// 启动HTTP服务器
	httpServer := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.HTTPPort),
		Handler: server.NewServer(ctx, svc, cfg, reg).Handler(),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("Starting HTTP server", zap.String("address", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 启动gRPC服务器
	grpcServer := grpc.NewGRPCServer(svc)
	grpcAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.GRPCPort)
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := grpc.StartServer(grpcServer, grpcAddr); err != nil {
			logger.Fatal("gRPC server failed", zap.Error(err))
		}
	}()

	logger.Info("Alerting fleet service is running",
		zap.Int("http_port", cfg.Server.HTTPPort),
		zap.Int("grpc_port", cfg.Server.GRPCPort),
	)

	// 等待信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	logger.Info("Received signal, shutting down...", zap.String("signal", sig.String()))

	// 优雅关闭
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed", zap.Error(err))
	}
	grpcServer.GracefulStop()
	cancel()
	wg.Wait()

	logger.Info("Alerting fleet service stopped")
}
