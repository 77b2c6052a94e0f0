package database

import "asset-forge/app/model"

func AutoMigrate() error {
	// 自动迁移表结构
	return DB.AutoMigrate(
		&model.AssetRecord{},
		&model.User{},
	)
}
