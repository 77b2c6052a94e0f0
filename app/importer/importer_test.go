package importer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"testing"
)

// stubCollector 测试用的输出收集器
type stubCollector struct {
	outputs    map[string][]byte // "<type>/<id>" -> 数据
	metadata   map[string]map[string]string
	additional []ImportingAsset
	cancelled  bool
}

func newStubCollector() *stubCollector {
	return &stubCollector{
		outputs:  make(map[string][]byte),
		metadata: make(map[string]map[string]string),
	}
}

func (s *stubCollector) Output(assetID string, outputType AssetType, data []byte, metadata map[string]string) error {
	key := fmt.Sprintf("%s/%s", outputType, assetID)
	s.outputs[key] = data
	s.metadata[key] = metadata
	return nil
}

func (s *stubCollector) AddAdditionalAsset(asset ImportingAsset) {
	s.additional = append(s.additional, asset)
}

func (s *stubCollector) ReportProgress(fraction float64, label string) bool {
	return !s.cancelled
}

func (s *stubCollector) ReadAdditionalFile(relPath string) ([]byte, error) {
	return nil, os.ErrNotExist
}

func TestCopyImporterPassesBytesThrough(t *testing.T) {
	imp := NewCopyImporter(TypeFont)
	c := newStubCollector()

	asset := ImportingAsset{
		ID:   "roboto.ttf",
		Type: TypeFont,
		Files: []InputFile{{
			Name: "font/roboto.ttf",
			Data: []byte("fake font bytes"),
		}},
	}

	if err := imp.Import(asset, c); err != nil {
		t.Fatalf("Import 失败: %v", err)
	}

	got, ok := c.outputs["font/roboto.ttf"]
	if !ok {
		t.Fatalf("产物未输出, 实际产物: %v", keys(c.outputs))
	}
	if !bytes.Equal(got, []byte("fake font bytes")) {
		t.Error("拷贝导入器改动了文件内容")
	}
}

func TestCopyImporterRespectsCancellation(t *testing.T) {
	imp := NewCopyImporter(TypeBinary)
	c := newStubCollector()
	c.cancelled = true

	asset := ImportingAsset{
		ID:    "blob.bin",
		Type:  TypeBinary,
		Files: []InputFile{{Name: "blob.bin", Data: []byte{1, 2, 3}}},
	}

	if err := imp.Import(asset, c); err != ErrCancelled {
		t.Errorf("取消时应返回 ErrCancelled, 实际: %v", err)
	}
	if len(c.outputs) != 0 {
		t.Error("取消后不应产出任何产物")
	}
}

func TestConfigImporterRejectsBadYAML(t *testing.T) {
	imp := NewConfigImporter()

	tests := []struct {
		name    string
		data    string
		wantErr bool
	}{
		{"合法的配置", "title: demo\nvolume: 3\n", false},
		{"坏掉的配置", "key: [unclosed\n", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newStubCollector()
			asset := ImportingAsset{
				ID:    "game.yaml",
				Type:  TypeConfig,
				Files: []InputFile{{Name: "config/game.yaml", Data: []byte(tt.data)}},
			}
			err := imp.Import(asset, c)
			if (err != nil) != tt.wantErr {
				t.Errorf("Import() err = %v, wantErr = %v", err, tt.wantErr)
			}
			if !tt.wantErr {
				if _, ok := c.outputs["config/game.yaml"]; !ok {
					t.Error("合法配置应该原样输出")
				}
			}
		})
	}
}

// testPNG 生成一张纯色测试图
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 40, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("生成测试图失败: %v", err)
	}
	return buf.Bytes()
}

func TestImageImporterOutputsAndThumbnail(t *testing.T) {
	imp := NewImageImporter(64)
	c := newStubCollector()

	asset := ImportingAsset{
		ID:    "ui/logo.png",
		Type:  TypeImage,
		Files: []InputFile{{Name: "image/ui/logo.png", Data: testPNG(t, 256, 128)}},
	}

	if err := imp.Import(asset, c); err != nil {
		t.Fatalf("Import 失败: %v", err)
	}

	meta, ok := c.metadata["image/ui/logo.png"]
	if !ok {
		t.Fatalf("主产物未输出, 实际产物: %v", keys(c.outputs))
	}
	if meta["width"] != "256" || meta["height"] != "128" {
		t.Errorf("尺寸元数据错误: %v", meta)
	}

	// 缩略图作为合成资产送回导入流程，类型必须不是 image 以免递归
	if len(c.additional) != 1 {
		t.Fatalf("期望 1 个合成资产, 实际 %d", len(c.additional))
	}
	thumb := c.additional[0]
	if thumb.Type == TypeImage {
		t.Error("缩略图不应该再次归类为 image")
	}
	if thumb.ID != "ui/logo.thumb.png" {
		t.Errorf("缩略图资产名 = %q", thumb.ID)
	}
}

func TestImageImporterRejectsGarbage(t *testing.T) {
	imp := NewImageImporter(64)
	c := newStubCollector()

	asset := ImportingAsset{
		ID:    "broken.png",
		Type:  TypeImage,
		Files: []InputFile{{Name: "image/broken.png", Data: []byte("not an image")}},
	}

	if err := imp.Import(asset, c); err == nil {
		t.Error("解码失败应该返回错误")
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
