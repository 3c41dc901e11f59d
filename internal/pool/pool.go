package pool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vdms/internal/logger"
)

// Task 队列中的任务，ctx 为工作池的生命周期上下文
type Task func(ctx context.Context)

// Hooks 工作池事件回调，用于上报指标
type Hooks struct {
	OnDepth func(depth int)
}

// Options 工作池配置
type Options struct {
	Workers  int           // 最大并发 worker 数，<= 0 时不限制
	QueueCap int           // 缓冲队列容量，<= 0 时为 Workers * 8
	Logger   logger.Logger // 日志接口
	Monitor  time.Duration // 状态日志间隔，<= 0 时为 30s
	Hooks    Hooks
}

// Pool 固定 worker 数的任务池，队列满时丢弃新任务
type Pool struct {
	workers     int
	queue       chan Task
	queueCap    int
	log         logger.Logger
	hooks       Hooks
	monitor     time.Duration
	totalSubmit int64
	totalDrop   int64
	mu          sync.Mutex
	wg          sync.WaitGroup
	cancel      context.CancelFunc
	started     bool
}

// New 创建工作池实例
func New(opts Options) *Pool {
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	if opts.Monitor <= 0 {
		opts.Monitor = 30 * time.Second
	}
	p := &Pool{
		workers: opts.Workers,
		log:     opts.Logger,
		hooks:   opts.Hooks,
		monitor: opts.Monitor,
	}
	if opts.Workers <= 0 {
		return p
	}
	if opts.QueueCap <= 0 {
		opts.QueueCap = opts.Workers * 8
	}
	p.queue = make(chan Task, opts.QueueCap)
	p.queueCap = opts.QueueCap
	return p
}

// Start 启动 worker 协程与状态监控，重复调用无效
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.started || p.queue == nil {
		return
	}
	p.started = true

	ctx, p.cancel = context.WithCancel(ctx)
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx)
	}
	p.wg.Add(1)
	go p.runMonitor(ctx)
}

// Stop 停止所有 worker 并等待正在执行的任务返回
func (p *Pool) Stop() {
	p.mu.Lock()
	cancel := p.cancel
	p.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	p.wg.Wait()
}

// runMonitor 定期输出工作池状态
func (p *Pool) runMonitor(ctx context.Context) {
	defer p.wg.Done()
	ticker := time.NewTicker(p.monitor)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			qLen, qCap, submit, drop := p.Stats()
			if submit > 0 {
				usage := float64(qLen) / float64(qCap) * 100
				dropRate := float64(drop) / float64(submit) * 100
				p.log.Info("工作池状态监控", "queueLen", qLen, "queueCap", qCap, "usage", fmt.Sprintf("%.1f%%", usage), "totalSubmit", submit, "totalDrop", drop, "dropRate", fmt.Sprintf("%.2f%%", dropRate))
			}
		}
	}
}

// worker 从队列中取任务并执行
func (p *Pool) worker(ctx context.Context) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case task := <-p.queue:
			p.reportDepth()
			if task != nil {
				p.run(ctx, task)
			}
		}
	}
}

// run 执行单个任务，任务 panic 不影响 worker
func (p *Pool) run(ctx context.Context, task Task) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Error("工作池任务异常", "panic", fmt.Sprint(r))
		}
	}()
	task(ctx)
}

// Submit 提交任务
// 未限制并发时直接启动新协程执行；队列已满时计入丢弃并返回 false
func (p *Pool) Submit(task Task) bool {
	if p.queue == nil {
		go p.run(context.Background(), task)
		return true
	}
	p.mu.Lock()
	p.totalSubmit++
	p.mu.Unlock()
	select {
	case p.queue <- task:
		p.reportDepth()
		return true
	default:
		p.mu.Lock()
		p.totalDrop++
		drop := p.totalDrop
		submit := p.totalSubmit
		p.mu.Unlock()
		p.log.Warn("工作池队列已满，任务被丢弃", "queueCap", p.queueCap, "totalSubmit", submit, "totalDrop", drop)
		return false
	}
}

func (p *Pool) reportDepth() {
	if p.hooks.OnDepth != nil {
		p.hooks.OnDepth(len(p.queue))
	}
}

// Stats 返回工作池统计信息
func (p *Pool) Stats() (queueLen, queueCap, totalSubmit, totalDrop int64) {
	if p.queue == nil {
		return 0, 0, 0, 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return int64(len(p.queue)), int64(p.queueCap), p.totalSubmit, p.totalDrop
}

