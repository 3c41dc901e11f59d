package api

import (
	"context"

	"vdms/pkg/domain"
)

// ChartService 图表后端服务接口
type ChartService interface {
	// ListMyCharts 分页查询当前用户的图表
	ListMyCharts(ctx context.Context, params domain.QueryParameters) (Response[*domain.PageResult], error)

	// GetChart 根据 ID 获取图表
	GetChart(ctx context.Context, id int64) (Response[*domain.ChartRecord], error)

	// GenChartAsync 提交异步生成任务
	GenChartAsync(ctx context.Context, req domain.GenChartRequest) (Response[*domain.GenChartResult], error)
}
