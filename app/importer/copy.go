package importer

// CopyImporter 拷贝导入器
//
// 把输入文件原样输出到对应类型目录下，是所有没有专用导入器的
// 类型的默认实现，也是未识别文件的二进制兜底。
type CopyImporter struct {
	typ AssetType
}

// NewCopyImporter 创建指定类型的拷贝导入器
func NewCopyImporter(t AssetType) *CopyImporter {
	return &CopyImporter{typ: t}
}

// ImportType 自声明的类型标签，注册时使用
func (i *CopyImporter) ImportType() AssetType {
	return i.typ
}

// Import 原样输出全部输入文件
func (i *CopyImporter) Import(asset ImportingAsset, c Collector) error {
	total := len(asset.Files)
	for n, f := range asset.Files {
		if !c.ReportProgress(float64(n)/float64(total), f.Name) {
			return ErrCancelled
		}
		// 多文件资产按各自的文件名归档，避免互相覆盖
		out := asset.ID
		if total > 1 {
			out = AssetID(f.Name)
		}
		if err := c.Output(out, asset.Type, f.Data, f.Metadata); err != nil {
			return err
		}
	}
	return nil
}
