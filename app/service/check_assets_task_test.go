package service

import (
	"testing"
	"time"

	"asset-forge/app/scheduler"
)

func entryPaths(entries []ImportEntry) []string {
	out := make([]string, 0, len(entries))
	for _, e := range entries {
		out = append(out, e.Path)
	}
	return out
}

func TestScanFindsNewFiles(t *testing.T) {
	env := testEnv(t)
	writeSource(t, projectRoot(env), "font/a.ttf", []byte("font"))
	writeSource(t, projectRoot(env), "config/b.yaml", []byte("title: demo\n"))

	cs := NewCheckAssetsTask(env, true).scan()

	if len(cs.ToImport) != 2 {
		t.Fatalf("待导入数 = %d (%v), 期望 2", len(cs.ToImport), entryPaths(cs.ToImport))
	}
	if len(cs.ToDelete) != 0 {
		t.Errorf("空库不应产生待删除: %v", cs.ToDelete)
	}
	for _, e := range cs.ToImport {
		if e.Root != projectRoot(env) {
			t.Errorf("%s 的来源目录 = %s, 期望项目目录", e.Path, e.Root)
		}
		if e.Mtime == 0 {
			t.Errorf("%s 的 mtime 未填充", e.Path)
		}
	}
}

func TestScanSkipsUnchangedFiles(t *testing.T) {
	env := testEnv(t)
	writeSource(t, projectRoot(env), "font/a.ttf", []byte("font"))

	task := NewCheckAssetsTask(env, true)
	first := task.scan()
	if len(first.ToImport) != 1 {
		t.Fatalf("首轮待导入数 = %d, 期望 1", len(first.ToImport))
	}
	env.Records.MarkAsImported(first.ToImport[0].Path, first.ToImport[0].Mtime)

	second := task.scan()
	if len(second.ToImport) != 0 {
		t.Errorf("未变化的文件再次被判为待导入: %v", entryPaths(second.ToImport))
	}
	if len(second.ToDelete) != 0 {
		t.Errorf("文件仍在却被判为待删除: %v", second.ToDelete)
	}
}

func TestScanDetectsModifiedFiles(t *testing.T) {
	env := testEnv(t)
	p := writeSource(t, projectRoot(env), "font/a.ttf", []byte("v1"))

	task := NewCheckAssetsTask(env, true)
	first := task.scan()
	env.Records.MarkAsImported(first.ToImport[0].Path, first.ToImport[0].Mtime)

	// mtime 前移两秒模拟编辑，粒度是 unix 秒
	touchAt(t, p, time.Now().Add(2*time.Second))

	second := task.scan()
	if len(second.ToImport) != 1 || second.ToImport[0].Path != "font/a.ttf" {
		t.Errorf("修改后的文件未被判为待导入: %v", entryPaths(second.ToImport))
	}
}

func TestScanProjectShadowsShared(t *testing.T) {
	env := testEnv(t)
	writeSource(t, projectRoot(env), "font/a.ttf", []byte("project version"))
	writeSource(t, sharedRoot(env), "font/a.ttf", []byte("shared version"))
	writeSource(t, sharedRoot(env), "font/shared_only.ttf", []byte("shared"))

	cs := NewCheckAssetsTask(env, true).scan()

	byPath := make(map[string]ImportEntry)
	for _, e := range cs.ToImport {
		if prev, dup := byPath[e.Path]; dup {
			t.Fatalf("同一路径出现两次: %v 和 %v", prev, e)
		}
		byPath[e.Path] = e
	}

	if got := byPath["font/a.ttf"].Root; got != projectRoot(env) {
		t.Errorf("同名文件应由项目目录遮蔽共享目录, 实际来源 %s", got)
	}
	if got := byPath["font/shared_only.ttf"].Root; got != sharedRoot(env) {
		t.Errorf("共享目录独有的文件来源 = %s", got)
	}
}

func TestScanDetectsMissingFiles(t *testing.T) {
	env := testEnv(t)
	writeSource(t, projectRoot(env), "font/keep.ttf", []byte("font"))
	env.Records.MarkAsImported("font/keep.ttf", 100)
	env.Records.MarkAsImported("font/gone.ttf", 100)

	cs := NewCheckAssetsTask(env, true).scan()

	if len(cs.ToDelete) != 1 || cs.ToDelete[0] != "font/gone.ttf" {
		t.Errorf("待删除 = %v, 期望 [font/gone.ttf]", cs.ToDelete)
	}
}

func TestScanSkipsHiddenFiles(t *testing.T) {
	env := testEnv(t)
	writeSource(t, projectRoot(env), ".git/config", []byte("x"))
	writeSource(t, projectRoot(env), "font/.DS_Store", []byte("x"))
	writeSource(t, projectRoot(env), "font/a.ttf", []byte("font"))

	cs := NewCheckAssetsTask(env, true).scan()

	if len(cs.ToImport) != 1 || cs.ToImport[0].Path != "font/a.ttf" {
		t.Errorf("隐藏文件应被跳过, 实际待导入: %v", entryPaths(cs.ToImport))
	}
}

func TestPipelineTasksChainSingleFile(t *testing.T) {
	env := testEnv(t)
	writeSource(t, projectRoot(env), "font/a.ttf", []byte("font"))
	env.Records.MarkAsImported("font/gone.ttf", 100)

	// 导入和删除串成一条链，每一环只挂一个后继，两者永远不会
	// 被同一个 Tick 同时放进工作协程
	next := NewCheckAssetsTask(env, true).Run(&scheduler.Context{})
	if len(next) != 1 || next[0].Task().Name() != TaskNameImport {
		t.Fatalf("扫描后继 = %d 个, 期望只有一个导入任务", len(next))
	}

	next = next[0].Task().Run(&scheduler.Context{})
	if len(next) != 1 || next[0].Task().Name() != TaskNameDelete {
		t.Fatalf("导入后继 = %d 个, 期望只有一个删除任务", len(next))
	}

	if next = next[0].Task().Run(&scheduler.Context{}); len(next) != 0 {
		t.Errorf("无头模式删除结束后不应有后继任务")
	}
}

func TestCheckTaskChainsDeleteOnlyBatch(t *testing.T) {
	env := testEnv(t)
	env.Records.MarkAsImported("font/gone.ttf", 100)

	next := NewCheckAssetsTask(env, false).Run(&scheduler.Context{})
	if len(next) != 1 || next[0].Task().Name() != TaskNameDelete {
		t.Fatalf("纯删除批次的扫描后继 = %d 个, 期望只有删除任务", len(next))
	}

	// 常驻模式下删除是链的末环，由它续期下一轮扫描
	next = next[0].Task().Run(&scheduler.Context{})
	if len(next) != 1 || next[0].Task().Name() != TaskNameCheck {
		t.Errorf("常驻模式删除结束后应续期扫描")
	}
}

func TestCheckTaskReschedulesWhenIdle(t *testing.T) {
	env := testEnv(t)

	// 常驻模式下没有变化也要续期下一轮扫描
	next := NewCheckAssetsTask(env, false).Run(&scheduler.Context{})
	if len(next) != 1 || next[0].Task().Name() != TaskNameCheck {
		t.Fatalf("常驻模式空扫描的后继 = %d 个, 期望续期一轮扫描", len(next))
	}

	// 无头模式跑完一轮就收
	if next := NewCheckAssetsTask(env, true).Run(&scheduler.Context{}); len(next) != 0 {
		t.Errorf("无头模式空扫描不应有后继任务")
	}
}
