package cmd

import (
	"asset-forge/app/config"
	"asset-forge/app/database"
	"asset-forge/app/logger"
	"asset-forge/app/service"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "无头模式：扫描并导入一轮后退出",
	Long:  "适合 CI 和打包脚本：扫描全部源目录，导入有变化的资产，清理已消失的资产，然后退出",
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Load()

		log := logger.New(cfg.Log)
		defer log.Sync()

		if err := database.Init(cfg, log); err != nil {
			log.Fatalf("数据库初始化失败: %v", err)
		}
		defer database.Close()

		pipeline := service.NewPipeline(cfg, log, database.GetDB())
		if err := pipeline.RunOnce(); err != nil {
			log.Fatalf("导入失败: %v", err)
		}

		log.Info("导入完成")
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
}
