// Package observability 提供 Prometheus 指标
package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 服务端指标集合，每个实例持有独立的注册表
type Metrics struct {
	registry *prometheus.Registry

	// RequestsTotal 按路由与状态码统计的请求数
	RequestsTotal *prometheus.CounterVec
	// RequestDuration 请求耗时
	RequestDuration *prometheus.HistogramVec
	// JobsTotal 生成任务结果统计，status: succeed, failed, dropped
	JobsTotal *prometheus.CounterVec
	// JobDuration 生成任务耗时
	JobDuration *prometheus.HistogramVec
	// JobsRunning 正在执行的生成任务数
	JobsRunning prometheus.Gauge
	// QueueDepth 生成队列当前长度
	QueueDepth prometheus.Gauge
}

// NewMetrics 创建指标并注册到新的注册表
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vdms_http_requests_total",
				Help: "Total number of HTTP requests handled",
			},
			[]string{"route", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vdms_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		JobsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vdms_chart_jobs_total",
				Help: "Total number of chart generation jobs by final status",
			},
			[]string{"chart_type", "status"},
		),
		JobDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vdms_chart_job_duration_seconds",
				Help:    "Chart generation duration in seconds",
				Buckets: prometheus.ExponentialBuckets(0.001, 4, 8),
			},
			[]string{"chart_type"},
		),
		JobsRunning: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vdms_chart_jobs_running",
				Help: "Number of chart generation jobs currently running",
			},
		),
		QueueDepth: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "vdms_chart_queue_depth",
				Help: "Number of chart generation jobs waiting in the queue",
			},
		),
	}
}

// Registry 返回底层注册表
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler 返回 /metrics 处理器
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest 记录一次请求
func (m *Metrics) ObserveRequest(route, code string, elapsed time.Duration) {
	m.RequestsTotal.WithLabelValues(route, code).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveJob 记录一次生成任务结果
func (m *Metrics) ObserveJob(chartType, status string, elapsed time.Duration) {
	m.JobsTotal.WithLabelValues(chartType, status).Inc()
	if elapsed > 0 {
		m.JobDuration.WithLabelValues(chartType).Observe(elapsed.Seconds())
	}
}
