package service

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asset-forge/app/importer"
	"asset-forge/app/scheduler"
)

// ImportAssetsTask 导入任务
//
// 按扫描给出的顺序逐个文件导入。单个文件出错只记日志并继续，
// 对应记录的时间戳不会推进，下一轮扫描会自动重试——源文件修好
// 之后管道自愈。界面上可见、可取消。
type ImportAssetsTask struct {
	env      *Env
	entries  []ImportEntry
	deletes  []string // 同一轮扫描发现的待删除路径，导入结束后接力
	headless bool
}

// NewImportAssetsTask 创建导入任务
func NewImportAssetsTask(env *Env, entries []ImportEntry, deletes []string, headless bool) *ImportAssetsTask {
	return &ImportAssetsTask{env: env, entries: entries, deletes: deletes, headless: headless}
}

func (t *ImportAssetsTask) Name() string      { return TaskNameImport }
func (t *ImportAssetsTask) Cancellable() bool { return true }
func (t *ImportAssetsTask) Visible() bool     { return true }

// Run 执行导入批次
func (t *ImportAssetsTask) Run(ctx *scheduler.Context) []*scheduler.Anchor {
	start := time.Now()
	total := len(t.entries)
	collector := newAssetCollector(t.env, ctx)

	var imported, failed int
	var failures []string
	cancelled := false
	lastSave := time.Now()

	for i, e := range t.entries {
		// 取消按文件粒度检查，已导入部分的记录更新保留
		if ctx.Cancelled() {
			cancelled = true
			t.env.Log.Infof("导入已取消，剩余 %d 个文件留待下轮", total-i)
			break
		}

		ctx.SetProgress(float64(i)/float64(total), e.Path)
		collector.setWindow(float64(i)/float64(total), 1/float64(total))

		if err := t.importFile(e, collector); err != nil {
			if errors.Is(err, importer.ErrCancelled) {
				cancelled = true
				break
			}
			failed++
			failures = append(failures, e.Path)
			t.env.Log.Errorf("导入 %s 失败: %v", e.Path, err)
		} else {
			t.env.Records.MarkAsImported(e.Path, e.Mtime)
			imported++
		}

		// 至少每秒落盘一次，限制 I/O 开销的同时保住已完成的进度
		if time.Since(lastSave) >= t.env.Cfg.CheckpointInterval() {
			if err := t.env.Records.Save(); err != nil {
				// 中间落盘尽力而为，失败不中断批次
				t.env.Log.Warnf("导入中间落盘失败: %v", err)
			}
			lastSave = time.Now()
		}
	}

	// 不管是否取消，批次结束后都无条件落盘一次
	if err := t.env.Records.Save(); err != nil {
		t.env.Log.Errorf("导入结束落盘失败，下个会话可能重做部分导入: %v", err)
	}

	ctx.SetProgress(1, "")
	t.env.Log.Infof("导入结束: 成功 %d，失败 %d，耗时 %v", imported, failed, time.Since(start))

	if t.env.Notifier != nil {
		t.env.Notifier.NotifyImportFinished(ImportSummary{
			Imported:   imported,
			Failed:     failed,
			Cancelled:  cancelled,
			Failures:   failures,
			DurationMS: time.Since(start).Milliseconds(),
			FinishedAt: time.Now(),
		})
	}

	// 管道任务单链推进：有删除批次先接力删除，否则续期下一轮扫描
	if len(t.deletes) > 0 {
		return []*scheduler.Anchor{
			scheduler.NewAnchor(NewDeleteAssetsTask(t.env, t.deletes, t.headless), 0),
		}
	}
	if t.headless {
		return nil
	}
	return []*scheduler.Anchor{
		scheduler.NewAnchor(NewCheckAssetsTask(t.env, false), t.env.Cfg.ScanCooldown()),
	}
}

// importFile 导入单个源文件及其合成资产
func (t *ImportAssetsTask) importFile(e ImportEntry, c *assetCollector) error {
	data, err := os.ReadFile(filepath.Join(e.Root, filepath.FromSlash(e.Path)))
	if err != nil {
		return fmt.Errorf("读取源文件失败: %w", err)
	}

	asset := importer.ImportingAsset{
		ID:   importer.AssetID(e.Path),
		Type: importer.Classify(e.Path),
		Files: []importer.InputFile{{
			Name: e.Path,
			Data: data,
		}},
	}

	if err := t.importAsset(asset, c); err != nil {
		// 失败的导入器可能已经入队了合成资产，必须随本文件一起丢弃
		c.discardPending()
		return err
	}

	// 导入器合成的附加资产走同一套导入机制，可能继续派生
	queue := c.takePending()
	for len(queue) > 0 {
		extra := queue[0]
		queue = queue[1:]
		if err := t.importAsset(extra, c); err != nil {
			c.discardPending()
			return fmt.Errorf("合成资产 %s 导入失败: %w", extra.ID, err)
		}
		queue = append(queue, c.takePending()...)
	}
	return nil
}

// importAsset 按注册顺序尝试导入器，第一个成功的生效
func (t *ImportAssetsTask) importAsset(asset importer.ImportingAsset, c *assetCollector) error {
	imps, err := t.env.Registry.ImportersFor(asset.Type)
	if err != nil {
		return err
	}

	var lastErr error
	for _, imp := range imps {
		err := imp.Import(asset, c)
		if err == nil {
			return nil
		}
		if errors.Is(err, importer.ErrCancelled) {
			return err
		}
		// 失败的尝试入队的合成资产作废，不能混进下一个导入器的结果
		c.discardPending()
		lastErr = err
	}
	return lastErr
}
