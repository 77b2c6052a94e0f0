package database

import (
	"fmt"

	"asset-forge/app/config"
	"asset-forge/app/logger"
	"asset-forge/app/model"
	"asset-forge/app/utils"
)

// InitAdminUser 按配置同步管理员账户
//
// 配置文件是账号的唯一来源：不存在就创建，用户名或密码和配置
// 不一致就改成配置里的值。
func InitAdminUser(cfg *config.Config, log *logger.Logger) error {
	// 未配置账号时跳过，此时控制 API 只能匿名访问公开路由
	if cfg.Server.Username == "" || cfg.Server.Password == "" {
		log.Warn("配置文件中未设置管理员账户，控制 API 的受保护路由将不可用")
		return nil
	}

	var admin model.User
	if err := DB.Where("is_admin = ?", true).First(&admin).Error; err != nil {
		hashed, err := utils.HashPassword(cfg.Server.Password)
		if err != nil {
			return fmt.Errorf("哈希密码失败: %w", err)
		}
		admin = model.User{
			Username: cfg.Server.Username,
			Password: hashed,
			IsActive: true,
			IsAdmin:  true,
		}
		if err := DB.Create(&admin).Error; err != nil {
			return fmt.Errorf("创建管理员账户失败: %w", err)
		}
		log.Infof("管理员账户 '%s' 创建成功", cfg.Server.Username)
		return nil
	}

	changed := false
	if admin.Username != cfg.Server.Username {
		admin.Username = cfg.Server.Username
		changed = true
	}
	if !utils.VerifyPassword(cfg.Server.Password, admin.Password) {
		hashed, err := utils.HashPassword(cfg.Server.Password)
		if err != nil {
			return fmt.Errorf("哈希密码失败: %w", err)
		}
		admin.Password = hashed
		changed = true
	}
	if changed {
		if err := DB.Save(&admin).Error; err != nil {
			return fmt.Errorf("更新管理员账户失败: %w", err)
		}
		log.Infof("管理员账户已按配置更新为 '%s'", cfg.Server.Username)
	}
	return nil
}
