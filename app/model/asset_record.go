package model

import (
	"time"
)

// AssetRecord 资产导入记录模型
//
// Path 是以源目录为基准的相对路径，同一逻辑资产无论来自哪个源目录，
// 记录都只有一条。记录只在资产至少成功导入过一次之后才存在。
type AssetRecord struct {
	Path           string `gorm:"primaryKey;size:500;comment:源文件相对路径" json:"path"`
	LastImportedAt int64  `gorm:"not null;default:0;comment:最近一次成功导入时源文件的mtime(unix秒)" json:"last_imported_at"`
	Present        bool   `gorm:"not null;default:false;comment:最近一次扫描是否仍然存在" json:"present"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// TableName 指定表名
func (AssetRecord) TableName() string {
	return "asset_records"
}
