// Package genjob 异步图表生成任务
package genjob

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"vdms/internal/logger"
	"vdms/internal/observability"
	"vdms/internal/pool"
	"vdms/internal/storage/model"
	"vdms/pkg/domain"
)

// MsgQueueBusy 队列已满时写入图表的执行信息
const MsgQueueBusy = "当前图表生成队列繁忙，请稍后重试"

// maxNameLength 图表名称最大长度
const maxNameLength = 100

// Store 生成任务依赖的图表存储
type Store interface {
	Create(ctx context.Context, chart *model.Chart) error
	Get(ctx context.Context, id int64) (*model.Chart, error)
	MarkRunning(ctx context.Context, id int64) (bool, error)
	MarkSucceeded(ctx context.Context, id int64, genChart, genResult string) error
	MarkFailed(ctx context.Context, id int64, execMessage string) error
}

// Submitter 任务队列
type Submitter interface {
	Submit(task pool.Task) bool
}

// Options 运行器配置
type Options struct {
	Logger  logger.Logger
	Metrics *observability.Metrics
}

// Runner 接收生成请求并交给工作池执行
type Runner struct {
	store   Store
	queue   Submitter
	log     logger.Logger
	metrics *observability.Metrics
}

// NewRunner 创建运行器
func NewRunner(store Store, queue Submitter, opts Options) *Runner {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	return &Runner{
		store:   store,
		queue:   queue,
		log:     opts.Logger,
		metrics: opts.Metrics,
	}
}

// Validate 校验生成请求
func Validate(req domain.GenChartRequest) error {
	if strings.TrimSpace(req.Goal) == "" {
		return fmt.Errorf("%w: 分析目标为空", domain.ErrInvalidChart)
	}
	if strings.TrimSpace(req.CSVData) == "" {
		return fmt.Errorf("%w: 数据为空", domain.ErrInvalidChart)
	}
	if utf8.RuneCountInString(req.Name) > maxNameLength {
		return fmt.Errorf("%w: 名称过长", domain.ErrInvalidChart)
	}
	return nil
}

// Submit 保存等待中的图表并提交生成任务
// 队列已满时图表被标记为失败，返回图表 ID 与 ErrQueueFull
func (r *Runner) Submit(ctx context.Context, userID int64, req domain.GenChartRequest) (int64, error) {
	if err := Validate(req); err != nil {
		return 0, err
	}

	chart := &model.Chart{
		UserID:    userID,
		Name:      req.Name,
		Goal:      req.Goal,
		ChartData: req.CSVData,
		ChartType: req.ChartType,
		Status:    domain.Wait.String(),
	}
	if err := r.store.Create(ctx, chart); err != nil {
		return 0, err
	}

	id := chart.ID
	if !r.queue.Submit(func(ctx context.Context) { r.process(ctx, id) }) {
		if err := r.store.MarkFailed(ctx, id, MsgQueueBusy); err != nil {
			r.log.Err(err, "标记图表失败出错", "chartId", id)
		}
		r.observe(req.ChartType, "dropped", 0)
		return id, domain.ErrQueueFull
	}

	r.log.Debug("图表生成任务已提交", "chartId", id, "userId", userID)
	return id, nil
}

// process 执行单个生成任务：wait -> running -> succeed / failed
func (r *Runner) process(ctx context.Context, id int64) {
	ok, err := r.store.MarkRunning(ctx, id)
	if err != nil {
		r.log.Err(err, "更新图表状态失败", "chartId", id)
		return
	}
	if !ok {
		r.log.Warn("图表不处于等待状态，跳过", "chartId", id)
		return
	}

	if r.metrics != nil {
		r.metrics.JobsRunning.Inc()
		defer r.metrics.JobsRunning.Dec()
	}

	start := time.Now()
	chart, err := r.store.Get(ctx, id)
	if err != nil {
		r.log.Err(err, "读取图表失败", "chartId", id)
		r.fail(ctx, id, "", "读取图表数据失败", start)
		return
	}

	genChart, genResult, err := Generate(chart.Name, chart.ChartType, chart.ChartData)
	if err != nil {
		r.fail(ctx, id, chart.ChartType, failMessage(err), start)
		return
	}

	if err := r.store.MarkSucceeded(ctx, id, genChart, genResult); err != nil {
		r.log.Err(err, "保存生成结果失败", "chartId", id)
		return
	}
	r.observe(chart.ChartType, domain.Succeeded.String(), time.Since(start))
	r.log.Info("图表生成完成", "chartId", id, "elapsedMs", time.Since(start).Milliseconds())
}

func (r *Runner) fail(ctx context.Context, id int64, chartType, msg string, start time.Time) {
	if err := r.store.MarkFailed(ctx, id, msg); err != nil {
		r.log.Err(err, "标记图表失败出错", "chartId", id)
	}
	r.observe(chartType, domain.Failed.String(), time.Since(start))
	r.log.Warn("图表生成失败", "chartId", id, "reason", msg)
}

func (r *Runner) observe(chartType, status string, elapsed time.Duration) {
	if r.metrics != nil {
		r.metrics.ObserveJob(SeriesType(chartType), status, elapsed)
	}
}

// Generate 由 CSV 数据生成 ECharts 配置与分析结论
func Generate(name, chartType, csvData string) (genChart, genResult string, err error) {
	ds, err := ParseCSV(csvData)
	if err != nil {
		return "", "", err
	}
	genChart, err = BuildOption(name, chartType, ds)
	if err != nil {
		return "", "", err
	}
	return genChart, Summarize(ds), nil
}

// failMessage 去掉哨兵错误前缀，只保留给用户看的原因
func failMessage(err error) string {
	msg := err.Error()
	for _, sentinel := range []error{domain.ErrInvalidChart, domain.ErrMalformedChart} {
		if errors.Is(err, sentinel) {
			msg = strings.TrimPrefix(msg, sentinel.Error()+": ")
		}
	}
	return msg
}
