package service

// ImportEntry 一条待导入记录
type ImportEntry struct {
	Path  string // 源目录相对路径（数据库键）
	Root  string // 提供该文件的源目录
	Mtime int64  // 扫描时读到的 mtime（unix 秒）
}

// ChangeSet 一轮扫描的结果
//
// 不落盘，每轮扫描重新计算；由导入任务和删除任务消费。
type ChangeSet struct {
	ToImport []ImportEntry // 需要导入的文件，顺序即导入顺序
	ToDelete []string      // 数据库里有记录但本轮扫描没找到的路径
}
