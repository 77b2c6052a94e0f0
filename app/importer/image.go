package importer

import (
	"bytes"
	"fmt"
	"strconv"

	"asset-forge/app/utils/pathhelper"

	"github.com/disintegration/imaging"

	// 注册 bmp/webp 解码器，让 image/ 目录能接受这两种格式
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultThumbnailSize 缩略图最长边的默认像素数
const DefaultThumbnailSize = 128

// ImageImporter 图片导入器
//
// 解码源图片并统一重编码为 png 输出，同时合成一张缩略图，
// 通过 AddAdditionalAsset 送回导入流程作为 texture 资产归档。
// 图集打包之类的重编码逻辑不在这里做。
type ImageImporter struct {
	thumbMaxPx int
}

// NewImageImporter 创建图片导入器
func NewImageImporter(thumbMaxPx int) *ImageImporter {
	if thumbMaxPx <= 0 {
		thumbMaxPx = DefaultThumbnailSize
	}
	return &ImageImporter{thumbMaxPx: thumbMaxPx}
}

// ImportType 自声明的类型标签
func (i *ImageImporter) ImportType() AssetType {
	return TypeImage
}

// Import 解码、重编码并合成缩略图
func (i *ImageImporter) Import(asset ImportingAsset, c Collector) error {
	total := len(asset.Files)
	for n, f := range asset.Files {
		if !c.ReportProgress(float64(n)/float64(total), f.Name) {
			return ErrCancelled
		}

		img, err := imaging.Decode(bytes.NewReader(f.Data))
		if err != nil {
			return fmt.Errorf("解码图片 %s 失败: %w", f.Name, err)
		}

		bounds := img.Bounds()
		meta := map[string]string{
			"width":  strconv.Itoa(bounds.Dx()),
			"height": strconv.Itoa(bounds.Dy()),
		}
		for k, v := range f.Metadata {
			meta[k] = v
		}

		var buf bytes.Buffer
		if err := imaging.Encode(&buf, img, imaging.PNG); err != nil {
			return fmt.Errorf("编码图片 %s 失败: %w", f.Name, err)
		}

		out := pathhelper.ReplaceExt(asset.ID, ".png")
		if err := c.Output(out, TypeImage, buf.Bytes(), meta); err != nil {
			return err
		}

		// 缩略图作为合成资产重新走导入流程，归档为 texture，
		// 避免再次进入图片导入器造成递归
		thumb := imaging.Fit(img, i.thumbMaxPx, i.thumbMaxPx, imaging.Lanczos)
		var tbuf bytes.Buffer
		if err := imaging.Encode(&tbuf, thumb, imaging.PNG); err != nil {
			return fmt.Errorf("编码缩略图 %s 失败: %w", f.Name, err)
		}

		thumbID := pathhelper.ReplaceExt(asset.ID, ".thumb.png")
		c.AddAdditionalAsset(ImportingAsset{
			ID:   thumbID,
			Type: TypeTexture,
			Files: []InputFile{{
				Name:     thumbID,
				Data:     tbuf.Bytes(),
				Metadata: map[string]string{"thumbnail_of": asset.ID},
			}},
		})
	}
	return nil
}
