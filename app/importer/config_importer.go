package importer

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// ConfigImporter 配置资产导入器
//
// 先校验 YAML 再原样输出，坏掉的配置文件在导入期就报错，
// 不会等到引擎加载时才发现。
type ConfigImporter struct{}

// NewConfigImporter 创建配置导入器
func NewConfigImporter() *ConfigImporter {
	return &ConfigImporter{}
}

// ImportType 自声明的类型标签
func (i *ConfigImporter) ImportType() AssetType {
	return TypeConfig
}

// Import 校验并输出配置文件
func (i *ConfigImporter) Import(asset ImportingAsset, c Collector) error {
	total := len(asset.Files)
	for n, f := range asset.Files {
		if !c.ReportProgress(float64(n)/float64(total), f.Name) {
			return ErrCancelled
		}

		var doc any
		if err := yaml.Unmarshal(f.Data, &doc); err != nil {
			return fmt.Errorf("配置文件 %s 不是合法的 YAML: %w", f.Name, err)
		}

		out := asset.ID
		if total > 1 {
			out = AssetID(f.Name)
		}
		if err := c.Output(out, TypeConfig, f.Data, f.Metadata); err != nil {
			return err
		}
	}
	return nil
}
