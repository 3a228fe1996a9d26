// Package watcher 监听导出文件投放目录并触发导入
package watcher

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/kakaosum/backend/internal/infrastructure/log"
)

// debounceDelay 同一文件连续写入事件的防抖间隔
// 카카오톡导出和手动拷贝都会产生多次 WRITE 事件，合并为一次导入
const debounceDelay = 2 * time.Second

// FileHandler 文件就绪回调
type FileHandler func(ctx context.Context, path string)

// Eligibility 文件过滤回调，返回 false 的文件被忽略
type Eligibility func(name string) bool

// ExportWatcher 导出目录监听器
// 只做事件管道：防抖后的文件路径交给回调，导入策略由调用方决定
type ExportWatcher struct {
	dir      string
	handler  FileHandler
	eligible Eligibility
	watcher  *fsnotify.Watcher
	logger   *slog.Logger

	// 防抖定时器，按路径去重
	debounceTimers map[string]*time.Timer
	debounceMu     sync.Mutex

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// NewExportWatcher 创建导出目录监听器
func NewExportWatcher(dir string, eligible Eligibility, handler FileHandler) (*ExportWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ExportWatcher{
		dir:            dir,
		handler:        handler,
		eligible:       eligible,
		watcher:        fsw,
		logger:         log.NewModuleLogger("watcher", "export"),
		debounceTimers: make(map[string]*time.Timer),
		stopCh:         make(chan struct{}),
	}, nil
}

// Start 启动监听
func (w *ExportWatcher) Start() error {
	if err := w.watcher.Add(w.dir); err != nil {
		return err
	}

	w.logger.Info("export watcher started", "dir", w.dir)

	w.wg.Add(1)
	go w.watchLoop()
	return nil
}

// Stop 停止监听并取消未触发的防抖定时器
func (w *ExportWatcher) Stop() {
	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()

	w.debounceMu.Lock()
	for _, timer := range w.debounceTimers {
		timer.Stop()
	}
	w.debounceMu.Unlock()

	w.logger.Info("export watcher stopped")
}

// watchLoop 事件处理循环
func (w *ExportWatcher) watchLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopCh:
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("watch error", "error", err)
		}
	}
}

// handleEvent 处理单个文件事件
// 只关心新建和写入；每个路径独立防抖，最后一次写入后再触发回调
func (w *ExportWatcher) handleEvent(event fsnotify.Event) {
	if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
		return
	}
	if w.eligible != nil && !w.eligible(filepath.Base(event.Name)) {
		return
	}

	w.debounceMu.Lock()
	defer w.debounceMu.Unlock()

	if timer, ok := w.debounceTimers[event.Name]; ok {
		timer.Stop()
	}
	path := event.Name
	w.debounceTimers[path] = time.AfterFunc(debounceDelay, func() {
		w.debounceMu.Lock()
		delete(w.debounceTimers, path)
		w.debounceMu.Unlock()

		w.logger.Info("export file ready", "path", path)
		w.handler(context.Background(), path)
	})
}
