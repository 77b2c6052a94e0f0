package config

import (
	"fmt"
	"log"
	"path/filepath"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Log     LogConfig     `mapstructure:"log"`
	JWT     JWTConfig     `mapstructure:"jwt"`
	Project ProjectConfig `mapstructure:"project"`
	Import  ImportConfig  `mapstructure:"import"`
	Watcher WatcherConfig `mapstructure:"watcher"`
	Webhook WebhookConfig `mapstructure:"webhook"`
}

type ServerConfig struct {
	Port     string `mapstructure:"port"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`      // json 或 text
	Output     string `mapstructure:"output"`      // stdout 或 file
	MaxSize    int    `mapstructure:"max_size"`    // 兆字节
	MaxBackups int    `mapstructure:"max_backups"` // 备份数量
	MaxAge     int    `mapstructure:"max_age"`     // 天数
	Compress   bool   `mapstructure:"compress"`    // 是否压缩旧文件
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`      // JWT 密钥
	ExpireTime int    `mapstructure:"expire_time"` // 过期时间（小时）
	Issuer     string `mapstructure:"issuer"`      // 签发者
}

// ProjectConfig 项目目录配置
type ProjectConfig struct {
	Dir       string `mapstructure:"dir"`        // 项目根目录
	SharedDir string `mapstructure:"shared_dir"` // 共享资产库根目录（可选）
}

// ImportConfig 导入管道配置
type ImportConfig struct {
	ScanCooldownMS     int    `mapstructure:"scan_cooldown_ms"`    // 两次扫描之间的冷却时间
	CheckpointMS       int    `mapstructure:"checkpoint_ms"`       // 导入过程中数据库落盘间隔
	Workers            int    `mapstructure:"workers"`             // 后台任务工作协程上限
	MaintenanceCron    string `mapstructure:"maintenance_cron"`    // 产物完整性巡检的 cron 表达式
	ThumbnailMaxPixels int    `mapstructure:"thumbnail_max_px"`    // 图片缩略图最长边
	SiblingCacheTTLSec int    `mapstructure:"sibling_cache_ttl_s"` // 兄弟文件读取缓存的 TTL
}

// WatcherConfig 源目录监控配置
type WatcherConfig struct {
	Enabled    bool `mapstructure:"enabled"`
	DebounceMS int  `mapstructure:"debounce_ms"` // 事件去抖时间
}

// WebhookConfig 导入完成通知配置
type WebhookConfig struct {
	URL            string `mapstructure:"url"`
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
}

func Load() *Config {
	setDefaults()

	// 读取配置
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("未找到配置文件，使用默认配置")
		} else {
			log.Fatalf("读取配置文件出错: %v", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		log.Fatalf("无法解码配置: %v", err)
	}

	// 验证配置
	if err := validateConfig(&config); err != nil {
		log.Fatalf("配置验证失败: %v", err)
	}

	return &config
}

// setDefaults 设置默认配置
func setDefaults() {
	viper.SetDefault("server.port", "5100")

	// 日志默认配置
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("log.output", "stdout")
	viper.SetDefault("log.max_size", 100)
	viper.SetDefault("log.max_backups", 3)
	viper.SetDefault("log.max_age", 28)
	viper.SetDefault("log.compress", true)

	// JWT默认配置
	viper.SetDefault("jwt.secret", "your-secret-key-change-in-production")
	viper.SetDefault("jwt.expire_time", 24) // 24小时
	viper.SetDefault("jwt.issuer", "asset-forge")

	// 项目默认配置
	viper.SetDefault("project.dir", ".")
	viper.SetDefault("project.shared_dir", "")

	// 导入管道默认配置
	viper.SetDefault("import.scan_cooldown_ms", 1000)
	viper.SetDefault("import.checkpoint_ms", 1000)
	viper.SetDefault("import.workers", 4)
	viper.SetDefault("import.maintenance_cron", "0 3 * * *")
	viper.SetDefault("import.thumbnail_max_px", 128)
	viper.SetDefault("import.sibling_cache_ttl_s", 300)

	// 源目录监控默认配置
	viper.SetDefault("watcher.enabled", true)
	viper.SetDefault("watcher.debounce_ms", 500)

	// Webhook 默认关闭
	viper.SetDefault("webhook.url", "")
	viper.SetDefault("webhook.timeout_seconds", 10)
}

// validateConfig 验证配置的有效性
func validateConfig(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("服务器端口未设置")
	}
	if config.JWT.Secret == "" {
		return fmt.Errorf("JWT密钥未设置")
	}
	if config.Project.Dir == "" {
		return fmt.Errorf("项目目录未设置")
	}
	if config.Import.Workers <= 0 {
		return fmt.Errorf("工作协程数必须大于 0")
	}
	return nil
}

// SourceRoots 按优先级返回源目录列表：项目本地目录在前，共享目录在后
func (c *Config) SourceRoots() []string {
	roots := []string{filepath.Join(c.Project.Dir, "assets_src")}
	if c.Project.SharedDir != "" {
		roots = append(roots, filepath.Join(c.Project.SharedDir, "assets_src"))
	}
	return roots
}

// OutputDir 返回导入产物输出目录
func (c *Config) OutputDir() string {
	return filepath.Join(c.Project.Dir, "assets")
}

// DBPath 返回导入数据库文件路径
func (c *Config) DBPath() string {
	return filepath.Join(c.Project.Dir, "assets", "import.db")
}

// ScanCooldown 扫描冷却时间
func (c *Config) ScanCooldown() time.Duration {
	return time.Duration(c.Import.ScanCooldownMS) * time.Millisecond
}

// CheckpointInterval 导入落盘间隔
func (c *Config) CheckpointInterval() time.Duration {
	return time.Duration(c.Import.CheckpointMS) * time.Millisecond
}
