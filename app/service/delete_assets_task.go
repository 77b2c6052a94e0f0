package service

import (
	"fmt"
	"os"

	"asset-forge/app/scheduler"
)

// DeleteAssetsTask 删除任务
//
// 清理源文件已消失的资产：先删输出目录里的产物，成功后才删除
// 数据库记录。顺序不能反，先忘记记录会把残留产物变成无主文件。
type DeleteAssetsTask struct {
	env      *Env
	paths    []string
	headless bool
}

// NewDeleteAssetsTask 创建删除任务
func NewDeleteAssetsTask(env *Env, paths []string, headless bool) *DeleteAssetsTask {
	return &DeleteAssetsTask{env: env, paths: paths, headless: headless}
}

func (t *DeleteAssetsTask) Name() string      { return TaskNameDelete }
func (t *DeleteAssetsTask) Cancellable() bool { return false }
func (t *DeleteAssetsTask) Visible() bool     { return true }

// Run 执行删除批次
func (t *DeleteAssetsTask) Run(ctx *scheduler.Context) []*scheduler.Anchor {
	total := len(t.paths)
	var deleted int

	for i, p := range t.paths {
		ctx.SetProgress(float64(i)/float64(total), p)

		if err := t.deleteOutputs(p); err != nil {
			// 记录保留，下一轮扫描还会再试
			t.env.Log.Errorf("删除 %s 的产物失败: %v", p, err)
			continue
		}
		t.env.Records.MarkDeleted(p)
		deleted++
	}

	if err := t.env.Records.Save(); err != nil {
		t.env.Log.Errorf("删除后落盘失败: %v", err)
	}

	ctx.SetProgress(1, "")
	t.env.Log.Infof("删除结束: 清理了 %d 个资产", deleted)

	// 删除是管道单链的末环，常驻模式下由它续期下一轮扫描
	if t.headless {
		return nil
	}
	return []*scheduler.Anchor{
		scheduler.NewAnchor(NewCheckAssetsTask(t.env, false), t.env.Cfg.ScanCooldown()),
	}
}

// deleteOutputs 删除一个源文件对应的全部产物
//
// 产物在扫描和删除之间被别人删掉按成功处理（幂等删除）。
func (t *DeleteAssetsTask) deleteOutputs(srcRel string) error {
	for _, out := range primaryOutputs(t.env.Cfg, srcRel) {
		if err := removeIfExists(out); err != nil {
			return err
		}
		if err := removeIfExists(out + ".meta.json"); err != nil {
			return err
		}
	}
	return nil
}

// removeIfExists 幂等删除
func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("删除 %s 失败: %w", path, err)
	}
	return nil
}
