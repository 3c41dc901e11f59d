package main

import (
	"vdms/internal/config"
	"vdms/internal/logger"

	"github.com/spf13/cobra"
)

// globalFlags 所有子命令共享的参数
type globalFlags struct {
	configFile string
	logLevel   string
	noColor    bool
}

func newRootCmd() *cobra.Command {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "vdms",
		Short: "智能数据分析平台：图表生成后端、我的图表命令行与桌面端",
		Long: `vdms 提供图表生成后端服务、“我的图表”分页查询命令行以及桌面端。

Examples:
  vdms serve --config vdms.yaml
  vdms charts --name 销量 --page 2 --size 4
  vdms desktop`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			noColor = flags.noColor
		},
	}

	rootCmd.PersistentFlags().StringVar(&flags.configFile, "config", "", "配置文件路径（YAML），为空时使用默认配置")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "日志级别 debug / info / warn / error，覆盖配置文件")
	rootCmd.PersistentFlags().BoolVar(&flags.noColor, "no-color", false, "关闭彩色输出")

	rootCmd.AddCommand(
		newServeCmd(flags),
		newChartsCmd(flags),
		newDesktopCmd(flags),
	)
	return rootCmd
}

// loadConfig 读取配置并应用命令行覆盖
func (f *globalFlags) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(f.configFile)
	if err != nil {
		return nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
	}
	return cfg, nil
}

// newLogger 按配置创建日志，writers 为空时使用配置中的输出目标
func newLogger(cfg *config.Config, writers ...string) logger.Logger {
	if len(writers) == 0 {
		writers = cfg.Log.Writer
	}
	return logger.New(logger.Options{
		Level:   cfg.Log.Level,
		Writers: writers,
	})
}
