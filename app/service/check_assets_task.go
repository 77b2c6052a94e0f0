package service

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"asset-forge/app/scheduler"
	"asset-forge/app/utils/pathhelper"
)

// CheckAssetsTask 扫描任务
//
// 遍历全部源目录，对照导入数据库把每个文件归为未变化、待导入
// 或已缺失，产出变更集并据此链出后继任务。扫描便宜且持续运行，
// 不可取消也不在界面上展示；调度层保证同一时间只有一个实例。
type CheckAssetsTask struct {
	env      *Env
	headless bool
}

// NewCheckAssetsTask 创建扫描任务，headless 模式下扫描循环不再自我续期
func NewCheckAssetsTask(env *Env, headless bool) *CheckAssetsTask {
	return &CheckAssetsTask{env: env, headless: headless}
}

func (t *CheckAssetsTask) Name() string      { return TaskNameCheck }
func (t *CheckAssetsTask) Cancellable() bool { return false }
func (t *CheckAssetsTask) Visible() bool     { return false }

// Run 执行一轮扫描
//
// 后继永远只挂一个锚点：扫描 → 导入 → 删除 → 扫描。管道任务
// 串成一条链，导入和删除即使在多工作协程下也不会同时运行，
// 输出目录因此不需要加锁。
func (t *CheckAssetsTask) Run(ctx *scheduler.Context) []*scheduler.Anchor {
	cs := t.scan()

	if len(cs.ToImport) > 0 || len(cs.ToDelete) > 0 {
		t.env.Log.Infof("扫描完成: 待导入 %d，待删除 %d", len(cs.ToImport), len(cs.ToDelete))
	}

	switch {
	case len(cs.ToImport) > 0:
		// 删除批次交给导入任务在结束后接力
		return []*scheduler.Anchor{scheduler.NewAnchor(NewImportAssetsTask(t.env, cs.ToImport, cs.ToDelete, t.headless), 0)}
	case len(cs.ToDelete) > 0:
		return []*scheduler.Anchor{scheduler.NewAnchor(NewDeleteAssetsTask(t.env, cs.ToDelete, t.headless), 0)}
	case t.headless:
		return nil
	default:
		// 没有变化时按冷却时间续期下一轮扫描，形成轮询循环
		return []*scheduler.Anchor{scheduler.NewAnchor(NewCheckAssetsTask(t.env, false), t.env.Cfg.ScanCooldown())}
	}
}

// scan 遍历源目录并产出变更集
func (t *CheckAssetsTask) scan() ChangeSet {
	t.env.Records.MarkAllAsMissing()

	// 相对路径去重：先遍历的高优先级目录提供的文件会遮蔽
	// 后面目录里的同名文件，项目资产因此可以覆盖共享资产
	seen := make(map[string]bool)
	var toImport []ImportEntry

	for _, root := range t.env.Cfg.SourceRoots() {
		if _, err := os.Stat(root); os.IsNotExist(err) {
			continue
		}

		err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				t.env.Log.Warnf("遍历 %s 失败: %v", p, err)
				return nil
			}
			if d.IsDir() {
				// 隐藏目录整体跳过
				if name := d.Name(); name != "." && strings.HasPrefix(name, ".") {
					return fs.SkipDir
				}
				return nil
			}
			if strings.HasPrefix(d.Name(), ".") {
				return nil
			}

			rel, err := filepath.Rel(root, p)
			if err != nil {
				return nil
			}
			rel = pathhelper.Normalize(rel)

			if seen[rel] {
				return nil // 被高优先级目录遮蔽
			}
			seen[rel] = true

			t.env.Records.MarkAsPresent(rel)

			info, err := d.Info()
			if err != nil {
				t.env.Log.Warnf("读取 %s 的文件信息失败: %v", p, err)
				return nil
			}
			mtime := info.ModTime().Unix()

			if t.env.Records.NeedsImporting(rel, mtime) {
				toImport = append(toImport, ImportEntry{Path: rel, Root: root, Mtime: mtime})
			}
			return nil
		})
		if err != nil {
			t.env.Log.Errorf("遍历源目录 %s 失败: %v", root, err)
		}
	}

	return ChangeSet{
		ToImport: toImport,
		ToDelete: t.env.Records.GetAllMissing(),
	}
}
