package pathhelper

import (
	"path"
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// 正则表达式用于匹配 Windows 盘符格式
var driveLetterPattern = regexp.MustCompile(`^[a-zA-Z]:[\\/]+`)

// RemoveDriveLetter 移除路径开头的 Windows 盘符
func RemoveDriveLetter(path string) string {
	if path == "" {
		return ""
	}
	return driveLetterPattern.ReplaceAllString(path, "")
}

// Normalize 把相对路径规整为数据库键
//
// 统一为正斜杠并做 NFC 归一化，macOS 的 NFD 源文件树和
// 数据库里的键才不会因为编码形式不同而对不上。
func Normalize(rel string) string {
	rel = strings.ReplaceAll(RemoveDriveLetter(rel), "\\", "/")
	rel = strings.TrimPrefix(rel, "/")
	return norm.NFC.String(rel)
}

// FirstSegment 返回相对路径的第一段目录，没有目录时返回空字符串
func FirstSegment(rel string) string {
	rel = strings.TrimPrefix(rel, "/")
	if idx := strings.IndexByte(rel, '/'); idx > 0 {
		return rel[:idx]
	}
	return ""
}

// ReplaceExt 替换资产名的扩展名
//
// 图片导入器命名产物、删除任务和完整性巡检反推产物路径时
// 必须使用同一份实现，两边对不上会留下无主产物。
func ReplaceExt(name, newExt string) string {
	return strings.TrimSuffix(name, path.Ext(name)) + newExt
}
