package importer

// InputFile 导入器的单个输入文件
type InputFile struct {
	Name     string            // 源文件相对路径
	Data     []byte            // 原始字节
	Metadata map[string]string // 附加元数据，可为空
}

// ImportingAsset 一次待导入的资产
//
// 既可以来自磁盘扫描，也可以是导入器通过 AddAdditionalAsset
// 合成后重新送回导入流程的产物。
type ImportingAsset struct {
	ID    string // 类型目录下的资产名
	Type  AssetType
	Files []InputFile
}

// Collector 导入输出收集器
//
// 导入任务为每个批次提供一个实现，导入器只通过它产出结果。
type Collector interface {
	// Output 产出一个命名产物
	Output(assetID string, outputType AssetType, data []byte, metadata map[string]string) error
	// AddAdditionalAsset 把合成资产重新送回导入流程
	AddAdditionalAsset(asset ImportingAsset)
	// ReportProgress 上报进度，返回 false 表示已请求取消，导入器应尽快退出
	ReportProgress(fraction float64, label string) bool
	// ReadAdditionalFile 读取源目录下的兄弟文件（材质引用、着色器 include 等）
	ReadAdditionalFile(relPath string) ([]byte, error)
}

// Importer 单个资产类型的导入器
//
// 实现可以返回错误，导入任务按文件为粒度捕获并继续后面的文件。
type Importer interface {
	ImportType() AssetType
	Import(asset ImportingAsset, c Collector) error
}
