package filewatcher

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"asset-forge/app/config"
	"asset-forge/app/logger"

	"github.com/fsnotify/fsnotify"
)

// Watcher 源目录监控器
//
// 监听全部源目录的文件系统事件，变更经过去抖后只做一件事：
// 通过回调请求提前触发一轮扫描。轮询循环仍然是权威，监控器
// 创建失败时管道退化为纯轮询，行为不变、只是响应慢一拍。
type Watcher struct {
	cfg      *config.Config
	logger   *logger.Logger
	watcher  *fsnotify.Watcher
	onChange func()
	stopCh   chan struct{}
	wg       sync.WaitGroup
	watching bool
	mu       sync.Mutex
}

// New 创建源目录监控器
func New(cfg *config.Config, log *logger.Logger, onChange func()) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("创建文件监控器失败: %w", err)
	}

	return &Watcher{
		cfg:      cfg,
		logger:   log,
		watcher:  fsw,
		onChange: onChange,
		stopCh:   make(chan struct{}),
	}, nil
}

// Start 启动监控
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.watching {
		return fmt.Errorf("文件监控器已经在运行")
	}

	var added int
	for _, root := range w.cfg.SourceRoots() {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			w.logger.Warnf("源目录不存在，跳过监控: %s", root)
			continue
		}
		if err := w.addRecursive(root); err != nil {
			return fmt.Errorf("添加监控目录 %s 失败: %w", root, err)
		}
		added++
	}
	if added == 0 {
		return fmt.Errorf("没有可监控的源目录")
	}

	w.watching = true
	w.wg.Add(1)
	go w.watchLoop()

	w.logger.Infof("源目录监控已启动，共监控 %d 个根目录", added)
	return nil
}

// Stop 停止监控
func (w *Watcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.watching {
		return nil
	}

	close(w.stopCh)
	w.watcher.Close()
	w.wg.Wait()
	w.watching = false

	w.logger.Info("源目录监控已停止")
	return nil
}

// addRecursive 递归添加目录及全部子目录
func (w *Watcher) addRecursive(root string) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(p); err != nil {
			w.logger.Warnf("添加子目录监控失败: %s, 错误: %v", p, err)
		}
		return nil
	})
}

// watchLoop 监控事件循环
//
// 事件只重置去抖定时器，定时器到期后统一触发一次回调，
// 一次保存操作产生的连串事件只会换来一轮扫描。
func (w *Watcher) watchLoop() {
	defer w.wg.Done()

	debounce := time.Duration(w.cfg.Watcher.DebounceMS) * time.Millisecond
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}

	var fire <-chan time.Time
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// 新建目录要补进监控列表
			if event.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := w.addRecursive(event.Name); err != nil {
						w.logger.Warnf("添加新目录监控失败: %s, 错误: %v", event.Name, err)
					}
				}
			}
			fire = time.After(debounce)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Errorf("文件监控器错误: %v", err)

		case <-fire:
			fire = nil
			w.onChange()

		case <-w.stopCh:
			return
		}
	}
}
