package service

import (
	"path/filepath"

	"asset-forge/app/assetdb"
	"asset-forge/app/config"
	"asset-forge/app/importer"
	"asset-forge/app/logger"
	"asset-forge/app/utils/pathhelper"
)

// 任务名常量，调度器用名字防止同类任务重复入队
const (
	TaskNameCheck  = "扫描资产"
	TaskNameImport = "导入资产"
	TaskNameDelete = "删除资产"
)

// Env 扫描/导入任务共享的运行环境
//
// 显式构造后注入各任务，代替进程级全局状态，调度部分可以
// 脱离真实项目目录单独测试。
type Env struct {
	Cfg      *config.Config
	Log      *logger.Logger
	Records  *assetdb.Database
	Registry *importer.Registry
	Notifier *WebhookNotifier // 未配置时为 nil
}

// primaryOutputs 源文件对应的产物路径集合
//
// 拷贝类导入器产物就是类型目录下的同名文件；图片会被重编码为
// png 并额外生成一张 texture 缩略图。删除任务和完整性巡检共用
// 这份约定。
func primaryOutputs(cfg *config.Config, srcRel string) []string {
	typ := importer.Classify(srcRel)
	id := importer.AssetID(srcRel)

	if typ == importer.TypeImage {
		png := pathhelper.ReplaceExt(id, ".png")
		thumb := pathhelper.ReplaceExt(id, ".thumb.png")
		return []string{
			filepath.Join(cfg.OutputDir(), string(importer.TypeImage), filepath.FromSlash(png)),
			filepath.Join(cfg.OutputDir(), string(importer.TypeTexture), filepath.FromSlash(thumb)),
		}
	}
	return []string{
		filepath.Join(cfg.OutputDir(), string(typ), filepath.FromSlash(id)),
	}
}
