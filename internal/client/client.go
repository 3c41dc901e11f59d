package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"vdms/internal/logger"
	"vdms/pkg/api"
	"vdms/pkg/domain"
	"vdms/pkg/errx"

	"github.com/google/uuid"
)

// 后端接口路径
const (
	PathListMyCharts  = "/api/chart/my/list/page"
	PathGetChart      = "/api/chart/"
	PathGenChartAsync = "/api/chart/gen/async"
)

// HeaderRequestID 请求追踪 ID
const HeaderRequestID = "X-Request-Id"

// HeaderUserID 当前用户 ID
const HeaderUserID = "X-User-Id"

// Options 客户端配置
type Options struct {
	BaseURL string
	Timeout time.Duration
	UserID  int64
	Logger  logger.Logger
	// HTTPClient 为空时按 Timeout 创建
	HTTPClient *http.Client
}

// Client 图表后端 HTTP 客户端
type Client struct {
	baseURL    string
	userID     int64
	httpClient *http.Client
	log        logger.Logger
}

var _ api.ChartService = (*Client)(nil)

// New 创建客户端
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = logger.NewNop()
	}
	hc := opts.HTTPClient
	if hc == nil {
		hc = &http.Client{Timeout: opts.Timeout}
	}
	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		userID:     opts.UserID,
		httpClient: hc,
		log:        opts.Logger,
	}
}

// ListMyCharts 分页查询当前用户的图表
func (c *Client) ListMyCharts(ctx context.Context, params domain.QueryParameters) (api.Response[*domain.PageResult], error) {
	var out api.Response[*domain.PageResult]
	err := c.call(ctx, http.MethodPost, PathListMyCharts, params, &out)
	return out, err
}

// GetChart 根据 ID 获取图表
func (c *Client) GetChart(ctx context.Context, id int64) (api.Response[*domain.ChartRecord], error) {
	var out api.Response[*domain.ChartRecord]
	err := c.call(ctx, http.MethodGet, fmt.Sprintf("%s%d", PathGetChart, id), nil, &out)
	return out, err
}

// GenChartAsync 提交异步生成任务
func (c *Client) GenChartAsync(ctx context.Context, req domain.GenChartRequest) (api.Response[*domain.GenChartResult], error) {
	var out api.Response[*domain.GenChartResult]
	err := c.call(ctx, http.MethodPost, PathGenChartAsync, req, &out)
	return out, err
}

// call 发送请求并解析统一响应
func (c *Client) call(ctx context.Context, method, path string, body, out any) error {
	requestID := uuid.NewString()

	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return errx.Wrap(errx.CodeTransport, err, "marshalling request")
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return errx.Wrap(errx.CodeTransport, err, "building request")
	}
	req.Header.Set(HeaderRequestID, requestID)
	if c.userID > 0 {
		req.Header.Set(HeaderUserID, fmt.Sprintf("%d", c.userID))
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.log.Err(err, "后端请求失败", "requestId", requestID, "path", path)
		var ne net.Error
		if errors.As(err, &ne) && ne.Timeout() {
			return errx.Wrap(errx.CodeTransport, err, "timeout")
		}
		return errx.Wrap(errx.CodeTransport, fmt.Errorf("%w: %v", domain.ErrBackendUnreachable, err), "request failed")
	}
	defer resp.Body.Close()

	c.log.Debug("后端请求完成", "requestId", requestID, "path", path, "status", resp.StatusCode, "elapsedMs", time.Since(start).Milliseconds())

	if resp.StatusCode >= 400 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		// 后端以统一响应返回业务错误时直接交给调用方判断
		if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") && json.Unmarshal(data, out) == nil {
			return nil
		}
		return errx.New(errx.CodeHTTPStatus, fmt.Sprintf("server returned %d", resp.StatusCode))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errx.Wrap(errx.CodeDecode, err, "decoding response")
	}
	return nil
}
