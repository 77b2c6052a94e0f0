package assetdb

import (
	"path/filepath"
	"testing"

	"asset-forge/app/config"
	"asset-forge/app/logger"
	"asset-forge/app/model"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func testLogger() *logger.Logger {
	return logger.New(config.LogConfig{Level: "error", Format: "text", Output: "stdout"})
}

// openTestDB 在临时目录里建一个真实的 sqlite 导入数据库
func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "import.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("打开测试数据库失败: %v", err)
	}
	if err := db.AutoMigrate(&model.AssetRecord{}); err != nil {
		t.Fatalf("迁移测试数据库失败: %v", err)
	}
	return db
}

func TestNeedsImporting(t *testing.T) {
	d := New(openTestDB(t), testLogger())
	d.MarkAsImported("image/a.png", 100)

	tests := []struct {
		name  string
		path  string
		mtime int64
		want  bool
	}{
		{"无记录的新文件", "image/new.png", 1, true},
		{"mtime 更新", "image/a.png", 101, true},
		{"mtime 相等不重导", "image/a.png", 100, false},
		{"mtime 更旧", "image/a.png", 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := d.NeedsImporting(tt.path, tt.mtime); got != tt.want {
				t.Errorf("NeedsImporting(%q, %d) = %v, 期望 %v", tt.path, tt.mtime, got, tt.want)
			}
		})
	}
}

func TestImportThenCheckIsIdempotent(t *testing.T) {
	d := New(openTestDB(t), testLogger())

	d.MarkAsImported("config/b.yaml", 500)
	if d.NeedsImporting("config/b.yaml", 500) {
		t.Error("刚导入的文件不应该再需要导入")
	}
}

func TestMissingRoundTrip(t *testing.T) {
	d := New(openTestDB(t), testLogger())
	d.MarkAsImported("image/a.png", 100)
	d.MarkAsImported("image/c.png", 100)

	// 新一轮扫描开始：全部标记缺失，只有 a 被重新发现
	d.MarkAllAsMissing()
	d.MarkAsPresent("image/a.png")

	missing := d.GetAllMissing()
	if len(missing) != 1 || missing[0] != "image/c.png" {
		t.Fatalf("GetAllMissing() = %v, 期望 [image/c.png]", missing)
	}

	// 删除后记录彻底消失，下一轮不会再报缺失
	d.MarkDeleted("image/c.png")
	if d.Contains("image/c.png") {
		t.Error("MarkDeleted 之后记录仍然存在")
	}
	d.MarkAllAsMissing()
	d.MarkAsPresent("image/a.png")
	if got := d.GetAllMissing(); len(got) != 0 {
		t.Errorf("无记录时 GetAllMissing() = %v, 期望为空", got)
	}
}

func TestMarkAsPresentDoesNotCreateRecords(t *testing.T) {
	d := New(openTestDB(t), testLogger())

	// 新文件要等成功导入后才进数据库
	d.MarkAsPresent("image/unknown.png")
	if d.Contains("image/unknown.png") {
		t.Error("MarkAsPresent 不应该创建新记录")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	db := openTestDB(t)

	d := New(db, testLogger())
	d.MarkAsImported("image/a.png", 100)
	d.MarkAsImported("font/b.ttf", 200)
	d.MarkAllAsMissing()
	d.MarkAsPresent("image/a.png")

	if err := d.Save(); err != nil {
		t.Fatalf("Save() 失败: %v", err)
	}

	// 模拟下一个会话：同一个文件，新的内存表
	d2 := New(db, testLogger())
	if err := d2.Load(); err != nil {
		t.Fatalf("Load() 失败: %v", err)
	}

	if d2.NeedsImporting("image/a.png", 100) {
		t.Error("已导入文件在重新加载后被判为需要导入")
	}
	if !d2.NeedsImporting("image/a.png", 101) {
		t.Error("更新的 mtime 在重新加载后未被判为需要导入")
	}

	missing := d2.GetAllMissing()
	if len(missing) != 1 || missing[0] != "font/b.ttf" {
		t.Errorf("缺失标记没有跟随落盘: %v", missing)
	}
}

func TestMarkForReimport(t *testing.T) {
	d := New(openTestDB(t), testLogger())
	d.MarkAsImported("mesh/ship.obj", 300)

	d.MarkForReimport("mesh/ship.obj")
	if !d.NeedsImporting("mesh/ship.obj", 300) {
		t.Error("MarkForReimport 之后原 mtime 应该重新触发导入")
	}
}
