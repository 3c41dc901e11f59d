package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"vdms/internal/client"
	"vdms/internal/mychart"

	"github.com/spf13/cobra"
	"github.com/tidwall/pretty"
)

func newChartsCmd(flags *globalFlags) *cobra.Command {
	var (
		name       string
		page       int
		size       int
		avatar     string
		showOption bool
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "charts",
		Short: "查询我的图表",
		Long: `按名称分页查询当前用户的图表，并按生成状态展示。

Examples:
  vdms charts
  vdms charts --name 销量 --page 2
  vdms charts --size 8 --option`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := flags.loadConfig()
			if err != nil {
				return err
			}
			// 日志只写文件，避免干扰终端输出
			log := newLogger(cfg, "file")
			out := cmd.OutOrStdout()

			svc := client.New(client.Options{
				BaseURL: cfg.Backend.BaseURL,
				Timeout: time.Duration(cfg.Backend.TimeoutMS) * time.Millisecond,
				UserID:  cfg.Backend.UserID,
				Logger:  log,
			})

			defaults := mychart.DefaultParameters()
			defaults.PageSize = cfg.Page.PageSize
			defaults.SortField = cfg.Page.SortField
			defaults.SortOrder = cfg.Page.SortOrder

			failed := false
			notifier := mychart.NotifierFunc(func(n mychart.Notice) {
				failed = true
				printError(cmd.ErrOrStderr(), "%s", n.Message)
			})
			ctrl := mychart.NewController(svc, notifier, mychart.Options{Defaults: defaults, Logger: log})

			var state mychart.State
			if page > 1 || size > 0 {
				// 先设置搜索条件，再切换分页
				ctrl.SetFilter(context.Background(), name)
				if failed {
					return fmt.Errorf("query failed")
				}
				state = ctrl.SetPage(context.Background(), page, size)
			} else {
				state = ctrl.SetFilter(context.Background(), name)
			}
			if failed {
				return fmt.Errorf("query failed")
			}

			view := mychart.NewPresenter(mychart.StaticIdentity(avatar)).PresentState(state)
			if asJSON {
				data, err := json.Marshal(view)
				if err != nil {
					return err
				}
				_, err = out.Write(pretty.Pretty(data))
				return err
			}

			var renderer mychart.ChartRenderer
			if showOption {
				renderer = &textRenderer{w: out}
			}
			return printPage(out, view, renderer)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "按图表名称模糊搜索")
	cmd.Flags().IntVar(&page, "page", 1, "页码，从 1 开始")
	cmd.Flags().IntVar(&size, "size", 0, "每页数量，默认使用配置中的 page.pageSize")
	cmd.Flags().StringVar(&avatar, "avatar", "", "展示在每条图表上的头像地址")
	cmd.Flags().BoolVar(&showOption, "option", false, "输出成功图表的渲染配置")
	cmd.Flags().BoolVar(&asJSON, "json", false, "以 JSON 输出展示模型")
	return cmd
}

// printPage 输出一页图表
func printPage(w io.Writer, view mychart.PageView, renderer mychart.ChartRenderer) error {
	if len(view.Items) == 0 {
		printWarning(w, "没有找到图表")
		return nil
	}
	printSuccess(w, "共 %d 个图表，第 %d 页（每页 %d 个）", view.Total, view.Current, view.PageSize)

	for _, item := range view.Items {
		fmt.Fprintf(w, "\n%s %s\n", colorize(colorBold, item.Name), colorize(colorGray, fmt.Sprintf("#%d", item.ID)))
		if item.Description != "" {
			printStatus(w, "类型", "%s", item.Description)
		}
		if item.Kind == mychart.ViewSucceeded {
			printStatus(w, "目标", "%s", item.Goal)
			if err := mychart.RenderItem(item, renderer); err != nil {
				return err
			}
			continue
		}

		status := item.Title
		if item.SubTitle != nil && *item.SubTitle != "" {
			status += "：" + *item.SubTitle
		}
		printStatus(w, "状态", "%s", colorize(kindColor(item.Kind), status))
	}
	return nil
}

func kindColor(kind mychart.ViewKind) string {
	switch kind {
	case mychart.ViewPending:
		return colorYellow
	case mychart.ViewRunning:
		return colorCyan
	case mychart.ViewFailed:
		return colorRed
	default:
		return colorGray
	}
}

// textRenderer 将图表配置以 JSON 输出到终端
type textRenderer struct {
	w io.Writer
}

func (r *textRenderer) RenderChart(goal string, option map[string]any) error {
	data, err := json.Marshal(option)
	if err != nil {
		return err
	}
	data = pretty.Pretty(data)
	if !noColor {
		data = pretty.Color(data, nil)
	}
	_, err = r.w.Write(data)
	return err
}
