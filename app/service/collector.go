package service

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"asset-forge/app/importer"
	"asset-forge/app/scheduler"
	"asset-forge/app/utils/pathhelper"

	gocache "github.com/patrickmn/go-cache"
)

// assetCollector 一个导入批次的输出收集器
//
// 产物写到输出目录的类型子目录下；兄弟文件读取带 TTL 缓存，
// 同一批次里被反复引用的基础材质、着色器 include 只读一次盘。
type assetCollector struct {
	env *Env
	ctx *scheduler.Context

	// 当前文件在整个批次中占的进度窗口
	base float64
	span float64

	siblings *gocache.Cache
	pending  []importer.ImportingAsset
}

// newAssetCollector 创建收集器，生命周期与一次导入批次相同
func newAssetCollector(env *Env, ctx *scheduler.Context) *assetCollector {
	ttl := time.Duration(env.Cfg.Import.SiblingCacheTTLSec) * time.Second
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &assetCollector{
		env:      env,
		ctx:      ctx,
		siblings: gocache.New(ttl, 2*ttl),
		span:     1,
	}
}

// setWindow 设置当前文件的进度窗口，导入任务在处理每个文件前调用
func (c *assetCollector) setWindow(base, span float64) {
	c.base = base
	c.span = span
}

// Output 把产物写到 <output>/<type>/<assetID>
//
// 元数据非空时额外写一个 .meta.json 伴随文件。
func (c *assetCollector) Output(assetID string, outputType importer.AssetType, data []byte, metadata map[string]string) error {
	outPath := filepath.Join(c.env.Cfg.OutputDir(), string(outputType), filepath.FromSlash(assetID))

	if err := os.MkdirAll(filepath.Dir(outPath), 0755); err != nil {
		return fmt.Errorf("创建产物目录失败: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0644); err != nil {
		return fmt.Errorf("写入产物 %s 失败: %w", outPath, err)
	}

	if len(metadata) > 0 {
		meta, err := json.Marshal(metadata)
		if err != nil {
			return fmt.Errorf("序列化元数据失败: %w", err)
		}
		if err := os.WriteFile(outPath+".meta.json", meta, 0644); err != nil {
			return fmt.Errorf("写入元数据 %s 失败: %w", outPath, err)
		}
	}
	return nil
}

// AddAdditionalAsset 合成资产入队，当前文件导入完后处理
func (c *assetCollector) AddAdditionalAsset(asset importer.ImportingAsset) {
	c.pending = append(c.pending, asset)
}

// takePending 取走并清空合成资产队列
func (c *assetCollector) takePending() []importer.ImportingAsset {
	out := c.pending
	c.pending = nil
	return out
}

// discardPending 丢弃合成资产队列
//
// 文件导入失败后必须调用：失败的导入器可能已经入队了合成资产，
// 留着会泄漏进下一个文件的批次。
func (c *assetCollector) discardPending() {
	c.pending = nil
}

// ReportProgress 把导入器内部进度折算进批次进度，返回 false 表示已请求取消
func (c *assetCollector) ReportProgress(fraction float64, label string) bool {
	c.ctx.SetProgress(c.base+fraction*c.span, label)
	return !c.ctx.Cancelled()
}

// ReadAdditionalFile 按源目录优先级读取兄弟文件
//
// 和扫描的遮蔽规则一致：先命中的高优先级目录生效。
func (c *assetCollector) ReadAdditionalFile(relPath string) ([]byte, error) {
	relPath = pathhelper.Normalize(relPath)

	if cached, ok := c.siblings.Get(relPath); ok {
		return cached.([]byte), nil
	}

	for _, root := range c.env.Cfg.SourceRoots() {
		data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(relPath)))
		if err == nil {
			c.siblings.SetDefault(relPath, data)
			return data, nil
		}
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("读取兄弟文件 %s 失败: %w", relPath, err)
		}
	}
	return nil, fmt.Errorf("兄弟文件 %s 在所有源目录中都不存在: %w", relPath, os.ErrNotExist)
}
