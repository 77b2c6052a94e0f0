package importer

import (
	"errors"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		path string
		want AssetType
	}{
		{"图片目录", "image/ui/logo.png", TypeImage},
		{"字体目录", "font/roboto.ttf", TypeFont},
		{"配置目录", "config/game.yaml", TypeConfig},
		{"音频事件目录", "audio_event/explosion.yaml", TypeAudioEvent},
		{"未知目录走兜底", "stuff/readme.txt", TypeBinary},
		{"没有目录走兜底", "readme.txt", TypeBinary},
		{"开头带斜杠", "/shader/basic.glsl", TypeShader},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.path); got != tt.want {
				t.Errorf("Classify(%q) = %v, 期望 %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestAssetID(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"image/ui/logo.png", "ui/logo.png"},
		{"font/roboto.ttf", "roboto.ttf"},
		{"stuff/readme.txt", "stuff/readme.txt"}, // 未知前缀整体保留
		{"readme.txt", "readme.txt"},
	}

	for _, tt := range tests {
		if got := AssetID(tt.path); got != tt.want {
			t.Errorf("AssetID(%q) = %q, 期望 %q", tt.path, got, tt.want)
		}
	}
}

func TestRegistryDefaultsCoverAllTypes(t *testing.T) {
	r := NewRegistry()

	all := []AssetType{
		TypeCopy, TypeFont, TypeBitmapFont, TypeImage, TypeAnimation,
		TypeMaterial, TypeConfig, TypeAudio, TypeAudioEvent, TypeSprite,
		TypeSpriteSheet, TypeShader, TypeTexture, TypeMesh, TypeVariable,
		TypeCodegen, TypeBinary,
	}
	for _, typ := range all {
		imps, err := r.ImportersFor(typ)
		if err != nil {
			t.Errorf("内置类型 %s 没有默认导入器: %v", typ, err)
			continue
		}
		if len(imps) == 0 {
			t.Errorf("内置类型 %s 的导入器列表为空", typ)
		}
	}
}

func TestRegistryUnknownType(t *testing.T) {
	r := NewRegistry()

	_, err := r.ImportersFor(AssetType("nope"))
	if !errors.Is(err, ErrUnknownAssetType) {
		t.Errorf("未知类型应返回 ErrUnknownAssetType, 实际: %v", err)
	}
}

func TestRegistryOrderBuiltinFirst(t *testing.T) {
	r := NewRegistry()

	custom := NewCopyImporter(TypeMesh)
	r.Register(custom)

	imps, err := r.ImportersFor(TypeMesh)
	if err != nil {
		t.Fatalf("ImportersFor 失败: %v", err)
	}
	if len(imps) != 2 {
		t.Fatalf("期望 2 个导入器, 实际 %d", len(imps))
	}
	if imps[1] != custom {
		t.Error("项目注册的导入器应该排在内置默认之后")
	}
}
