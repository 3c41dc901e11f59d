package main

import (
	"embed"

	"vdms/internal/gui"
	"vdms/internal/mychart"

	"github.com/spf13/cobra"
	"github.com/wailsapp/wails/v2"
	"github.com/wailsapp/wails/v2/pkg/options"
	"github.com/wailsapp/wails/v2/pkg/options/assetserver"
)

//go:embed all:frontend
var assets embed.FS

func newDesktopCmd(flags *globalFlags) *cobra.Command {
	var avatar string

	cmd := &cobra.Command{
		Use:   "desktop",
		Short: "启动桌面端",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}

			app := gui.NewApp(gui.AppOptions{
				Config:   cfg,
				Logger:   newLogger(cfg),
				Identity: mychart.StaticIdentity(avatar),
			})

			return wails.Run(&options.App{
				Title:     "智能数据分析平台",
				Width:     1200,
				Height:    800,
				MinWidth:  960,
				MinHeight: 600,
				AssetServer: &assetserver.Options{
					Assets: assets,
				},
				OnStartup:  app.Startup,
				OnShutdown: app.Shutdown,
				Bind: []interface{}{
					app,
				},
			})
		},
	}

	cmd.Flags().StringVar(&avatar, "avatar", "", "当前用户头像地址")
	return cmd
}
