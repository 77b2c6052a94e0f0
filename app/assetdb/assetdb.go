package assetdb

import (
	"fmt"
	"sort"
	"sync"

	"asset-forge/app/logger"
	"asset-forge/app/model"

	"gorm.io/gorm"
)

// record 内存中的单条导入记录
type record struct {
	mtime   int64 // 最近一次成功导入时源文件的 mtime（unix 秒）
	present bool  // 最近一次扫描是否仍然存在
}

// Database 导入数据库
//
// 内存表是唯一的事实来源，所有操作都在同一把互斥锁下进行，
// 除 Load/Save 外锁内不做任何 I/O。扫描/导入任务在工作协程上
// 调用写操作，控制 API 随时可能并发读取。
type Database struct {
	mu      sync.Mutex
	records map[string]record
	db      *gorm.DB
	log     *logger.Logger
}

// New 创建导入数据库实例
func New(db *gorm.DB, log *logger.Logger) *Database {
	return &Database{
		records: make(map[string]record),
		db:      db,
		log:     log,
	}
}

// Load 从 sqlite 全量加载导入记录
func (d *Database) Load() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	var rows []model.AssetRecord
	if err := d.db.Find(&rows).Error; err != nil {
		return fmt.Errorf("加载导入记录失败: %w", err)
	}

	d.records = make(map[string]record, len(rows))
	for _, r := range rows {
		d.records[r.Path] = record{mtime: r.LastImportedAt, present: r.Present}
	}

	d.log.Infof("导入数据库加载完成，共 %d 条记录", len(d.records))
	return nil
}

// Save 将全部导入记录落盘
//
// 导入任务在批处理过程中每秒调用一次，批处理结束后再无条件调用一次，
// 保证中断后已完成的部分不会重做。
func (d *Database) Save() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := make([]model.AssetRecord, 0, len(d.records))
	for path, r := range d.records {
		rows = append(rows, model.AssetRecord{
			Path:           path,
			LastImportedAt: r.mtime,
			Present:        r.present,
		})
	}

	err := d.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("1 = 1").Delete(&model.AssetRecord{}).Error; err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		return tx.CreateInBatches(rows, 200).Error
	})
	if err != nil {
		return fmt.Errorf("保存导入记录失败: %w", err)
	}
	return nil
}

// NeedsImporting 判断文件是否需要导入
//
// 没有记录，或给定 mtime 严格大于记录值时返回 true。
// 相等不触发重导，避免同一秒内的 mtime 抖动造成导入风暴。
func (d *Database) NeedsImporting(path string, mtime int64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	r, ok := d.records[path]
	if !ok {
		return true
	}
	return mtime > r.mtime
}

// MarkAsImported 记录一次成功导入
func (d *Database) MarkAsImported(path string, mtime int64) {
	d.mu.Lock()
	defer d.mu.Unlock()

	r := d.records[path]
	r.mtime = mtime
	r.present = true
	d.records[path] = r
}

// MarkAllAsMissing 把所有记录标记为缺失，每轮扫描开始时调用一次
func (d *Database) MarkAllAsMissing() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for path, r := range d.records {
		r.present = false
		d.records[path] = r
	}
}

// MarkAsPresent 把扫描中仍然存在的文件标记回存在
//
// 只对已有记录生效，新文件要等成功导入后才会进入数据库。
func (d *Database) MarkAsPresent(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.records[path]; ok {
		r.present = true
		d.records[path] = r
	}
}

// MarkDeleted 删除记录
//
// 必须在对应产物真正从输出目录删除之后调用，顺序反了会导致
// 残留产物在下一轮扫描中变成无主文件。
func (d *Database) MarkDeleted(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	delete(d.records, path)
}

// MarkForReimport 把记录的 mtime 归零，下一轮扫描会重新导入
func (d *Database) MarkForReimport(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if r, ok := d.records[path]; ok {
		r.mtime = 0
		d.records[path] = r
	}
}

// GetAllMissing 返回扫描结束后仍被标记为缺失的全部路径
func (d *Database) GetAllMissing() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var missing []string
	for path, r := range d.records {
		if !r.present {
			missing = append(missing, path)
		}
	}
	sort.Strings(missing)
	return missing
}

// Contains 判断记录是否存在
func (d *Database) Contains(path string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	_, ok := d.records[path]
	return ok
}

// Len 返回记录总数
func (d *Database) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.records)
}

// Snapshot 返回按路径排序的记录快照，供控制 API 展示
func (d *Database) Snapshot() []model.AssetRecord {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows := make([]model.AssetRecord, 0, len(d.records))
	for path, r := range d.records {
		rows = append(rows, model.AssetRecord{
			Path:           path,
			LastImportedAt: r.mtime,
			Present:        r.present,
		})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].Path < rows[j].Path })
	return rows
}
