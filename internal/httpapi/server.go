package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"vdms/internal/logger"
	"vdms/internal/observability"
	"vdms/internal/storage/model"
	"vdms/pkg/api"
	"vdms/pkg/domain"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// 请求头
const (
	HeaderUserID    = "X-User-Id"
	HeaderRequestID = "X-Request-Id"
)

// maxBodySize 请求体大小上限（CSV 数据随请求提交）
const maxBodySize = 1 << 20

// ChartStore 图表查询接口
type ChartStore interface {
	Page(ctx context.Context, userID int64, params domain.QueryParameters) ([]model.Chart, int64, error)
	GetOwned(ctx context.Context, userID, id int64) (*model.Chart, error)
}

// Generator 生成任务提交接口
type Generator interface {
	Submit(ctx context.Context, userID int64, req domain.GenChartRequest) (int64, error)
}

// Deps 服务依赖
type Deps struct {
	Charts    ChartStore
	Generator Generator
	Logger    logger.Logger
	Metrics   *observability.Metrics
}

// ApiError 表示接口错误类型
type ApiError struct {
	Status int
	Code   string
	Msg    string
}

var (
	// ErrInvalidParams 参数错误
	ErrInvalidParams = ApiError{Status: http.StatusBadRequest, Code: api.CodeInvalidParams, Msg: "请求参数错误"}
	// ErrUnauthorized 缺少用户标识
	ErrUnauthorized = ApiError{Status: http.StatusUnauthorized, Code: api.CodeUnauthorized, Msg: "未登录"}
	// ErrNotFound 图表不存在
	ErrNotFound = ApiError{Status: http.StatusNotFound, Code: api.CodeNotFound, Msg: "图表不存在"}
	// ErrQueueFull 生成队列已满
	ErrQueueFull = ApiError{Status: http.StatusServiceUnavailable, Code: api.CodeQueueFull, Msg: "当前图表生成队列繁忙，请稍后重试"}
	// ErrInternal 内部错误
	ErrInternal = ApiError{Status: http.StatusInternalServerError, Code: api.CodeInternal, Msg: "系统内部异常"}
)

func (e ApiError) withMessage(msg string) ApiError {
	e.Msg = msg
	return e
}

// NewHandler 创建图表后端路由
func NewHandler(deps Deps) http.Handler {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(instrument(deps))

	r.Get("/health", handleHealth)
	r.Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

	r.Route("/api/chart", func(r chi.Router) {
		r.Post("/my/list/page", handleListMyCharts(deps))
		r.Post("/gen/async", handleGenChartAsync(deps))
		r.Get("/{id}", handleGetChart(deps))
	})
	return r
}

// instrument 记录访问日志与请求指标
func instrument(deps Deps) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			route := r.URL.Path
			if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
				route = rctx.RoutePattern()
			}
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			deps.Metrics.ObserveRequest(route, strconv.Itoa(status), time.Since(start))
			deps.Logger.Debug("请求完成",
				"method", r.Method,
				"route", route,
				"status", status,
				"requestId", requestID(r),
				"elapsedMs", time.Since(start).Milliseconds(),
			)
		})
	}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	writeResponse(w, http.StatusOK, api.OK(map[string]string{"status": "ok"}))
}

func handleListMyCharts(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFrom(r)
		if !ok {
			writeError(w, ErrUnauthorized)
			return
		}

		var params domain.QueryParameters
		if err := decodeBody(w, r, &params); err != nil {
			writeError(w, ErrInvalidParams)
			return
		}

		charts, total, err := deps.Charts.Page(r.Context(), userID, params)
		if err != nil {
			writeStoreError(w, deps.Logger, err)
			return
		}

		records := make([]domain.ChartRecord, 0, len(charts))
		for i := range charts {
			records = append(records, charts[i].ToDomain())
		}
		writeResponse(w, http.StatusOK, api.OK(&domain.PageResult{Records: records, Total: total}))
	}
}

func handleGetChart(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFrom(r)
		if !ok {
			writeError(w, ErrUnauthorized)
			return
		}
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			writeError(w, ErrInvalidParams)
			return
		}

		// 只能查看自己的图表
		chart, err := deps.Charts.GetOwned(r.Context(), userID, id)
		if err != nil {
			writeStoreError(w, deps.Logger, err)
			return
		}

		rec := chart.ToDomain()
		writeResponse(w, http.StatusOK, api.OK(&rec))
	}
}

func handleGenChartAsync(deps Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFrom(r)
		if !ok {
			writeError(w, ErrUnauthorized)
			return
		}

		var req domain.GenChartRequest
		if err := decodeBody(w, r, &req); err != nil {
			writeError(w, ErrInvalidParams)
			return
		}

		id, err := deps.Generator.Submit(r.Context(), userID, req)
		if err != nil {
			writeStoreError(w, deps.Logger, err)
			return
		}
		writeResponse(w, http.StatusOK, api.OK(&domain.GenChartResult{ChartID: id}))
	}
}

// writeStoreError 将领域错误映射为接口错误
func writeStoreError(w http.ResponseWriter, log logger.Logger, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidQuery), errors.Is(err, domain.ErrInvalidChart):
		writeError(w, ErrInvalidParams.withMessage(err.Error()))
	case errors.Is(err, domain.ErrChartNotFound):
		writeError(w, ErrNotFound)
	case errors.Is(err, domain.ErrQueueFull):
		writeError(w, ErrQueueFull)
	default:
		log.Err(err, "处理请求失败")
		writeError(w, ErrInternal)
	}
}

func userIDFrom(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.Header.Get(HeaderUserID), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func requestID(r *http.Request) string {
	if id := r.Header.Get(HeaderRequestID); id != "" {
		return id
	}
	return middleware.GetReqID(r.Context())
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodySize)
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeResponse[T any](w http.ResponseWriter, status int, res api.Response[T]) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(res)
}

func writeError(w http.ResponseWriter, apiErr ApiError) {
	writeResponse(w, apiErr.Status, api.Fail[any](apiErr.Code, apiErr.Msg))
}
