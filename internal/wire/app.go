package wire

import (
	"context"
	"database/sql"

	"log/slog"

	"github.com/kakaosum/backend/internal/application/ingest"
	"github.com/kakaosum/backend/internal/infrastructure/config"
	applog "github.com/kakaosum/backend/internal/infrastructure/log"
	"github.com/kakaosum/backend/internal/infrastructure/watcher"
	"github.com/kakaosum/backend/internal/interfaces"
)

// App 应用主结构，组合所有服务
type App struct {
	HTTPServer *interfaces.HTTPServer

	importer      *ingest.Importer
	exportWatcher *watcher.ExportWatcher
	db            *sql.DB
	logger        *slog.Logger
}

// NewApp 创建应用实例
func NewApp(
	httpServer *interfaces.HTTPServer,
	importer *ingest.Importer,
	cfg *config.Config,
	db *sql.DB,
) *App {
	logger := applog.NewModuleLogger("app", "main")

	app := &App{
		HTTPServer: httpServer,
		importer:   importer,
		db:         db,
		logger:     logger,
	}

	// 配置了监听目录时，导出文件落盘后自动导入
	if dir := cfg.Import.WatchDir; dir != "" {
		w, err := watcher.NewExportWatcher(dir, ingest.EligibleExport,
			func(ctx context.Context, path string) {
				report := importer.ImportFile(ctx, path, "")
				if report.Err != "" {
					logger.Error("auto import failed", "path", path, "error", report.Err)
				}
			})
		if err != nil {
			logger.Error("Failed to create export watcher", "dir", dir, "error", err)
		} else {
			app.exportWatcher = w
		}
	}

	return app
}

// Start 启动所有服务
func (a *App) Start() error {
	a.logger.Info("Starting kakaosum backend application")

	// 启动导出目录监听
	if a.exportWatcher != nil {
		if err := a.exportWatcher.Start(); err != nil {
			a.logger.Error("Failed to start export watcher",
				"error", err,
			)
		} else {
			a.logger.Info("Export watcher started")
		}
	}

	// 启动 HTTP 服务器（goroutine）
	go func() {
		if err := a.HTTPServer.Start(); err != nil {
			a.logger.Error("Failed to start HTTP server",
				"error", err,
			)
		}
	}()

	a.logger.Info("kakaosum backend application started successfully")

	return nil
}

// Stop 停止所有服务
func (a *App) Stop() error {
	a.logger.Info("Stopping kakaosum backend application")

	// 停止导出目录监听
	if a.exportWatcher != nil {
		a.exportWatcher.Stop()
		a.logger.Info("Export watcher stopped")
	}

	if err := a.HTTPServer.Stop(); err != nil {
		a.logger.Error("Failed to stop HTTP server",
			"error", err,
		)
		return err
	}

	// 关闭数据库连接
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("Failed to close database connection",
				"error", err,
			)
			return err
		}
	}

	a.logger.Info("kakaosum backend application stopped successfully")

	return nil
}
