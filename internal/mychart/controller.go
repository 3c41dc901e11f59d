// Package mychart 实现“我的图表”页面的分页查询控制器与记录展示模型
package mychart

import (
	"context"
	"sync"

	"vdms/internal/logger"
	"vdms/internal/transformer"
	"vdms/pkg/api"
	"vdms/pkg/domain"
)

// Querier 远程分页查询协作者
type Querier interface {
	ListMyCharts(ctx context.Context, params domain.QueryParameters) (api.Response[*domain.PageResult], error)
}

// State 控制器状态快照
type State struct {
	Params  domain.QueryParameters `json:"params"`
	Records []domain.ChartRecord   `json:"records"`
	Total   int64                  `json:"total"`
	Loading bool                   `json:"loading"`
}

// Options 控制器配置
type Options struct {
	// Defaults 初始查询参数，搜索时以此为基础重置分页与排序
	Defaults domain.QueryParameters
	// Logger 日志
	Logger logger.Logger
}

// Controller 持有查询参数，参数变化时发起查询并保存最新一页结果
type Controller struct {
	querier  Querier
	notifier Notifier
	log      logger.Logger
	defaults domain.QueryParameters

	mu      sync.Mutex
	params  domain.QueryParameters
	records []domain.ChartRecord
	total   int64
	loading bool
	seq     uint64 // 最近一次发出的查询序号
}

// DefaultParameters 默认查询参数：第一页，每页 4 条，按创建时间倒序
func DefaultParameters() domain.QueryParameters {
	return domain.QueryParameters{
		Current:   1,
		PageSize:  4,
		SortField: "createTime",
		SortOrder: domain.SortDesc,
	}
}

// NewController 创建控制器
func NewController(q Querier, n Notifier, opts Options) *Controller {
	defaults := opts.Defaults
	if defaults == (domain.QueryParameters{}) {
		defaults = DefaultParameters()
	}
	if defaults.Current < 1 {
		defaults.Current = 1
	}
	if defaults.PageSize <= 0 {
		defaults.PageSize = DefaultParameters().PageSize
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if n == nil {
		n = NotifierFunc(func(Notice) {})
	}
	return &Controller{
		querier:  q,
		notifier: n,
		log:      opts.Logger,
		defaults: defaults,
		params:   defaults,
		records:  []domain.ChartRecord{},
	}
}

// SetFilter 按名称搜索，总是回到第一页并恢复默认排序
func (c *Controller) SetFilter(ctx context.Context, name string) State {
	return c.update(ctx, func(domain.QueryParameters) domain.QueryParameters {
		return c.defaults.WithName(name)
	})
}

// SetPage 切换分页，保留当前的搜索与排序条件
func (c *Controller) SetPage(ctx context.Context, page, pageSize int) State {
	if page < 1 {
		page = 1
	}
	return c.update(ctx, func(p domain.QueryParameters) domain.QueryParameters {
		size := pageSize
		if size <= 0 {
			size = p.PageSize
		}
		return p.WithPage(page, size)
	})
}

// Refresh 以当前参数重新查询
func (c *Controller) Refresh(ctx context.Context) State {
	return c.update(ctx, nil)
}

// Snapshot 返回当前状态的副本
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Params 返回当前查询参数
func (c *Controller) Params() domain.QueryParameters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.params
}

// update 替换参数并发起一次查询，返回查询结束后的状态
func (c *Controller) update(ctx context.Context, next func(domain.QueryParameters) domain.QueryParameters) State {
	c.mu.Lock()
	if next != nil {
		c.params = next(c.params)
	}
	c.seq++
	seq := c.seq
	params := c.params
	c.loading = true
	c.mu.Unlock()

	resp, err := c.querier.ListMyCharts(ctx, params)

	notice, applied := c.apply(seq, params, resp, err)
	if applied && notice != nil {
		c.notifier.Notify(*notice)
	}
	return c.Snapshot()
}

// apply 只应用最新一次查询的结果，过期的响应直接丢弃
func (c *Controller) apply(seq uint64, params domain.QueryParameters, resp api.Response[*domain.PageResult], err error) (*Notice, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if seq != c.seq {
		c.log.Debug("丢弃过期查询结果", "seq", seq, "latest", c.seq, "current", params.Current, "name", params.Name)
		return nil, false
	}
	defer func() { c.loading = false }()

	if err != nil {
		c.log.Err(err, "查询我的图表失败", "seq", seq, "current", params.Current, "name", params.Name)
		return &Notice{Level: NoticeError, Message: MsgFetchFailed + "," + err.Error()}, true
	}

	if !resp.Success || resp.Data == nil {
		c.log.Warn("查询我的图表无数据", "seq", seq, "code", resp.Code, "message", resp.Message, "error", domain.ErrEmptyResult)
		return &Notice{Level: NoticeError, Message: MsgFetchFailed}, true
	}

	c.records = c.sanitizeRecords(resp.Data.Records)
	c.total = resp.Data.Total
	c.log.Debug("查询我的图表完成", "seq", seq, "count", len(c.records), "total", c.total)
	return nil, true
}

// sanitizeRecords 生成去掉图表标题的新记录切片，单条失败不影响其余记录
func (c *Controller) sanitizeRecords(records []domain.ChartRecord) []domain.ChartRecord {
	out := make([]domain.ChartRecord, 0, len(records))
	for _, rec := range records {
		option, err := transformer.SanitizeOption(rec.GenChart)
		if err != nil {
			c.log.Warn("图表配置无法解析，使用空配置", "id", rec.ID, "error", err)
		}
		rec.GenChart = option
		if rec.ExecMessage != nil {
			msg := *rec.ExecMessage
			rec.ExecMessage = &msg
		}
		out = append(out, rec)
	}
	return out
}

// snapshotLocked 复制当前状态，调用方需持有锁
func (c *Controller) snapshotLocked() State {
	records := make([]domain.ChartRecord, len(c.records))
	copy(records, c.records)
	return State{
		Params:  c.params,
		Records: records,
		Total:   c.total,
		Loading: c.loading,
	}
}
