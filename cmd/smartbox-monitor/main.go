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

	"go.uber.org/zap"

	"github.com/andrewkristofer/SmartBox-IoT/internal/config"
	"github.com/andrewkristofer/SmartBox-IoT/internal/export"
	httpapi "github.com/andrewkristofer/SmartBox-IoT/internal/http"
	"github.com/andrewkristofer/SmartBox-IoT/internal/logger"
	"github.com/andrewkristofer/SmartBox-IoT/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer log.Sync()

	// 3. 创建监控服务
	monitor, err := service.NewMonitorService(cfg, log)
	if err != nil {
		log.Fatal("Failed to create monitor service",
			zap.Error(err),
		)
	}
	defer monitor.Stop()

	// 4. 创建上下文（支持优雅关闭）
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 5. HTTP API
	router := httpapi.NewRouter(log)
	authHandler := httpapi.NewAuthHandler(monitor.Telemetry(), monitor.Sessions(), monitor.Alerts(), log)
	fleetHandler := httpapi.NewFleetHandler(monitor.Telemetry(), monitor.Poller(), monitor.Sessions(), log)
	devicesHandler := httpapi.NewDevicesHandler(monitor.Sessions(), monitor.Visibility(), log)
	alertsHandler := httpapi.NewAlertsHandler(monitor.Alerts(), log)
	exportHandler := httpapi.NewExportHandler(export.NewExporter(monitor.Telemetry()), monitor.Visibility(), log)
	router.RegisterRoutes(authHandler, fleetHandler, devicesHandler, alertsHandler, exportHandler)

	server := &http.Server{
		Addr:    cfg.HTTP.Addr,
		Handler: router,
	}

	// 6. 启动服务（在 goroutine 中）
	serviceErrChan := make(chan error, 2)
	go func() {
		if err := monitor.Start(ctx); err != nil {
			serviceErrChan <- err
		}
	}()
	go func() {
		log.Info("HTTP API listening",
			zap.String("addr", cfg.HTTP.Addr),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serviceErrChan <- err
		}
	}()

	// 7. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		log.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
		cancel()
	case err := <-serviceErrChan:
		log.Fatal("Service error",
			zap.Error(err),
		)
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("HTTP server shutdown failed",
			zap.Error(err),
		)
	}

	log.Info("Fleet monitor stopped")
}
