package importer

import (
	"fmt"
)

// Registry 导入器注册表
//
// 每个类型标签对应一个有序的导入器列表：内置默认在前，项目注册的
// 追加在后。同一类型有多个导入器时按序尝试，第一个成功的生效，
// 后面的不再执行。
type Registry struct {
	importers map[AssetType][]Importer
}

// NewRegistry 创建注册表并注册全部内置导入器
func NewRegistry() *Registry {
	r := &Registry{importers: make(map[AssetType][]Importer)}
	r.registerDefaults()
	return r
}

// registerDefaults 为每个已知类型注册内置默认导入器
//
// 图片和配置有专用实现，其余类型默认按类型目录归档拷贝。
// 兜底的二进制拷贝必须存在，未识别类型永远不会让管道硬失败。
func (r *Registry) registerDefaults() {
	copyTypes := []AssetType{
		TypeCopy, TypeFont, TypeBitmapFont, TypeAnimation, TypeMaterial,
		TypeAudio, TypeAudioEvent, TypeSprite, TypeSpriteSheet, TypeShader,
		TypeTexture, TypeMesh, TypeVariable, TypeCodegen, TypeBinary,
	}
	for _, t := range copyTypes {
		r.Register(NewCopyImporter(t))
	}
	r.Register(NewImageImporter(DefaultThumbnailSize))
	r.Register(NewConfigImporter())
}

// Register 追加一个导入器，注册顺序即尝试顺序
func (r *Registry) Register(imp Importer) {
	t := imp.ImportType()
	r.importers[t] = append(r.importers[t], imp)
}

// ImportersFor 返回指定类型的有序导入器列表
func (r *Registry) ImportersFor(t AssetType) ([]Importer, error) {
	imps, ok := r.importers[t]
	if !ok || len(imps) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnknownAssetType, t)
	}
	return imps, nil
}
