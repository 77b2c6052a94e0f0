package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"asset-forge/app/assetdb"
	"asset-forge/app/config"
	"asset-forge/app/importer"
	"asset-forge/app/logger"
	"asset-forge/app/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()

	return &config.Config{
		Project: config.ProjectConfig{
			Dir:       filepath.Join(t.TempDir(), "project"),
			SharedDir: filepath.Join(t.TempDir(), "shared"),
		},
		Import: config.ImportConfig{
			ScanCooldownMS: 10,
			CheckpointMS:   1000,
			// 多工作协程下管道任务也必须靠链式后继保持串行
			Workers:            4,
			ThumbnailMaxPixels: 64,
			SiblingCacheTTLSec: 60,
		},
	}
}

func openImportDB(t *testing.T, cfg *config.Config) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(cfg.DBPath()), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("打开导入数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.AssetRecord{}); err != nil {
		t.Fatalf("迁移导入数据库失败: %v", err)
	}
	return db
}

// testEnv 搭一个带真实临时目录和 sqlite 的任务运行环境
func testEnv(t *testing.T) *Env {
	t.Helper()

	cfg := testConfig(t)
	if err := os.MkdirAll(cfg.OutputDir(), 0755); err != nil {
		t.Fatalf("创建输出目录失败: %v", err)
	}

	log := logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
	return &Env{
		Cfg:      cfg,
		Log:      log,
		Records:  assetdb.New(openImportDB(t, cfg), log),
		Registry: importer.NewRegistry(),
	}
}

// reloadRecords 模拟下一个会话：对同一个库文件建新连接并加载
func reloadRecords(t *testing.T, env *Env) *assetdb.Database {
	t.Helper()

	d := assetdb.New(openImportDB(t, env.Cfg), env.Log)
	if err := d.Load(); err != nil {
		t.Fatalf("重新加载导入数据库失败: %v", err)
	}
	return d
}

func writeSource(t *testing.T, root, rel string, data []byte) string {
	t.Helper()

	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		t.Fatalf("创建源目录失败: %v", err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		t.Fatalf("写入源文件失败: %v", err)
	}
	return p
}

func touchAt(t *testing.T, path string, at time.Time) {
	t.Helper()

	if err := os.Chtimes(path, at, at); err != nil {
		t.Fatalf("修改 %s 的 mtime 失败: %v", path, err)
	}
}

func projectRoot(env *Env) string { return env.Cfg.SourceRoots()[0] }
func sharedRoot(env *Env) string  { return env.Cfg.SourceRoots()[1] }

func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 120, B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("生成测试图失败: %v", err)
	}
	return buf.Bytes()
}

func mustExist(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); err != nil {
		t.Errorf("期望存在的产物缺失: %s (%v)", path, err)
	}
}

func mustNotExist(t *testing.T, path string) {
	t.Helper()

	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("不应存在的产物出现了: %s", path)
	}
}
