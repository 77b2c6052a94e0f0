package importer

import (
	"errors"
	"strings"
)

// AssetType 资产类型标签
type AssetType string

const (
	TypeCopy        AssetType = "copy"
	TypeFont        AssetType = "font"
	TypeBitmapFont  AssetType = "bitmap_font"
	TypeImage       AssetType = "image"
	TypeAnimation   AssetType = "animation"
	TypeMaterial    AssetType = "material"
	TypeConfig      AssetType = "config"
	TypeAudio       AssetType = "audio"
	TypeAudioEvent  AssetType = "audio_event"
	TypeSprite      AssetType = "sprite"
	TypeSpriteSheet AssetType = "spritesheet"
	TypeShader      AssetType = "shader"
	TypeTexture     AssetType = "texture"
	TypeMesh        AssetType = "mesh"
	TypeVariable    AssetType = "variable"
	TypeCodegen     AssetType = "codegen"
	// TypeBinary 兜底类型，未识别的文件按不透明二进制拷贝
	TypeBinary AssetType = "binary"
)

// ErrUnknownAssetType 类型标签从未注册过
//
// 兜底导入器在构造时就会注册，出现这个错误说明注册流程被破坏了，
// 属于编程错误而不是数据问题。
var ErrUnknownAssetType = errors.New("未注册的资产类型")

// ErrCancelled 导入器在收到取消信号后返回
var ErrCancelled = errors.New("导入已取消")

// dirToType 源目录首段到资产类型的固定映射
var dirToType = map[string]AssetType{
	"copy":        TypeCopy,
	"font":        TypeFont,
	"bitmap_font": TypeBitmapFont,
	"image":       TypeImage,
	"animation":   TypeAnimation,
	"material":    TypeMaterial,
	"config":      TypeConfig,
	"audio":       TypeAudio,
	"audio_event": TypeAudioEvent,
	"sprite":      TypeSprite,
	"spritesheet": TypeSpriteSheet,
	"shader":      TypeShader,
	"texture":     TypeTexture,
	"mesh":        TypeMesh,
	"variable":    TypeVariable,
	"codegen":     TypeCodegen,
}

// Classify 根据相对路径的第一段目录判断资产类型
//
// 没有目录前缀或前缀未匹配的文件一律归为二进制兜底类型。
func Classify(relPath string) AssetType {
	relPath = strings.TrimPrefix(relPath, "/")
	idx := strings.IndexByte(relPath, '/')
	if idx <= 0 {
		return TypeBinary
	}
	if t, ok := dirToType[relPath[:idx]]; ok {
		return t
	}
	return TypeBinary
}

// AssetID 去掉类型目录前缀后的资产名
//
// "image/ui/logo.png" 的资产名是 "ui/logo.png"；没有已知类型前缀的
// 路径整体作为资产名。
func AssetID(relPath string) string {
	relPath = strings.TrimPrefix(relPath, "/")
	idx := strings.IndexByte(relPath, '/')
	if idx <= 0 {
		return relPath
	}
	if _, ok := dirToType[relPath[:idx]]; ok {
		return relPath[idx+1:]
	}
	return relPath
}
