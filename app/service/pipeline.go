package service

import (
	"fmt"
	"os"
	"sync"
	"time"

	"asset-forge/app/assetdb"
	"asset-forge/app/config"
	"asset-forge/app/filewatcher"
	"asset-forge/app/importer"
	"asset-forge/app/logger"
	"asset-forge/app/scheduler"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Pipeline 资产导入管道
//
// 把扫描/导入/删除的轮询循环、产物完整性巡检和源目录监控
// 拧在一起，是编辑器会话期间唯一需要长期持有的对象。
type Pipeline struct {
	env     *Env
	sched   *scheduler.Scheduler
	cron    *cron.Cron
	watcher *filewatcher.Watcher

	mu      sync.Mutex
	running bool
}

// NewPipeline 创建导入管道
func NewPipeline(cfg *config.Config, log *logger.Logger, db *gorm.DB) *Pipeline {
	env := &Env{
		Cfg:      cfg,
		Log:      log,
		Records:  assetdb.New(db, log),
		Registry: importer.NewRegistry(),
		Notifier: NewWebhookNotifier(cfg, log),
	}
	return &Pipeline{
		env:   env,
		sched: scheduler.New(cfg.Import.Workers, log),
	}
}

// Env 返回管道运行环境，项目可以借此注册自定义导入器
func (p *Pipeline) Env() *Env {
	return p.env
}

// Scheduler 返回调度器，控制 API 借此读任务快照
func (p *Pipeline) Scheduler() *scheduler.Scheduler {
	return p.sched
}

// Records 返回导入数据库
func (p *Pipeline) Records() *assetdb.Database {
	return p.env.Records
}

// Start 启动管道：加载数据库、起调度循环、挂第一轮扫描
func (p *Pipeline) Start() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.running {
		return nil
	}

	if err := p.env.Records.Load(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.env.Cfg.OutputDir(), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	p.sched.Start()
	p.sched.Add(scheduler.NewAnchor(NewCheckAssetsTask(p.env, false), 0))

	// 产物完整性巡检
	p.cron = cron.New()
	if spec := p.env.Cfg.Import.MaintenanceCron; spec != "" {
		if _, err := p.cron.AddFunc(spec, p.verifyOutputs); err != nil {
			p.env.Log.Warnf("巡检计划配置无效(%s): %v", spec, err)
		}
	}
	p.cron.Start()

	// 源目录监控，失败退化为纯轮询
	if p.env.Cfg.Watcher.Enabled {
		w, err := filewatcher.New(p.env.Cfg, p.env.Log, func() {
			if err := p.TriggerScan(); err != nil {
				p.env.Log.Debugf("监控触发扫描被跳过: %v", err)
			}
		})
		if err == nil {
			err = w.Start()
		}
		if err != nil {
			p.env.Log.Warnf("源目录监控不可用，退化为纯轮询: %v", err)
		} else {
			p.watcher = w
		}
	}

	p.running = true
	p.env.Log.Info("资产导入管道已启动")
	return nil
}

// Stop 停止管道并做最后一次落盘
func (p *Pipeline) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.running {
		return
	}
	p.running = false

	if p.watcher != nil {
		_ = p.watcher.Stop()
	}
	if p.cron != nil {
		p.cron.Stop()
	}
	p.sched.Stop()

	if err := p.env.Records.Save(); err != nil {
		p.env.Log.Errorf("停机落盘失败: %v", err)
	}
	p.env.Log.Info("资产导入管道已停止")
}

// TriggerScan 立即触发一轮扫描
//
// 管道链上任何一环（扫描/导入/删除）还活着就拒绝：导入过程中
// 插入的扫描会看到尚未推进的时间戳，把正在导入的文件再排一遍。
// 被拒绝也没有损失，活着的链环结束后本来就会续期扫描。
func (p *Pipeline) TriggerScan() error {
	for _, name := range []string{TaskNameCheck, TaskNameImport, TaskNameDelete} {
		if p.sched.HasTask(name) {
			return fmt.Errorf("管道任务 %s 仍在进行中", name)
		}
	}
	p.sched.Add(scheduler.NewAnchor(NewCheckAssetsTask(p.env, false), 0))
	return nil
}

// RunOnce 无头模式：扫一轮、导完、删完就返回
func (p *Pipeline) RunOnce() error {
	if err := p.env.Records.Load(); err != nil {
		return err
	}
	if err := os.MkdirAll(p.env.Cfg.OutputDir(), 0755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}

	p.sched.Start()
	p.sched.Add(scheduler.NewAnchor(NewCheckAssetsTask(p.env, true), 0))

	for !p.sched.Idle() {
		time.Sleep(50 * time.Millisecond)
	}
	p.sched.Stop()

	return p.env.Records.Save()
}

// verifyOutputs 产物完整性巡检
//
// 产物丢了的记录把时间戳归零，下一轮扫描自然会重新导入，
// 不在巡检里直接动输出目录。
func (p *Pipeline) verifyOutputs() {
	var repaired int
	for _, rec := range p.env.Records.Snapshot() {
		outs := primaryOutputs(p.env.Cfg, rec.Path)
		missing := false
		for _, out := range outs {
			if _, err := os.Stat(out); os.IsNotExist(err) {
				missing = true
				break
			}
		}
		if missing {
			p.env.Records.MarkForReimport(rec.Path)
			repaired++
		}
	}

	if repaired > 0 {
		p.env.Log.Warnf("完整性巡检发现 %d 个产物丢失，已安排重新导入", repaired)
		if err := p.env.Records.Save(); err != nil {
			p.env.Log.Errorf("巡检后落盘失败: %v", err)
		}
	}
}
