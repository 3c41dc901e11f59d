package gui

import (
	"errors"

	"vdms/pkg/domain"
	"vdms/pkg/errx"
)

// 错误码常量
const (
	CodeBackendUnreachable = "BACKEND_UNREACHABLE"
	CodeNetworkError       = "NETWORK_ERROR"
	CodeServerError        = "SERVER_ERROR"
	CodeInvalidResponse    = "INVALID_RESPONSE"
	CodeInvalidParams      = "INVALID_PARAMS"
	CodeChartNotFound      = "CHART_NOT_FOUND"
	CodeQueueFull          = "QUEUE_FULL"
	CodeDatabaseError      = "DATABASE_ERROR"
	CodeUnknown            = "UNKNOWN_ERROR"
)

// 错误映射表（仅返回错误码，前端根据错误码进行国际化）
var errorMappings = []struct {
	err  error
	code string
}{
	{domain.ErrBackendUnreachable, CodeBackendUnreachable},
	{domain.ErrInvalidQuery, CodeInvalidParams},
	{domain.ErrInvalidChart, CodeInvalidParams},
	{domain.ErrChartNotFound, CodeChartNotFound},
	{domain.ErrQueueFull, CodeQueueFull},
	{domain.ErrDatabaseNotInitialized, CodeDatabaseError},
}

// 传输层错误码映射
var transportMappings = map[errx.Code]string{
	errx.CodeTransport:  CodeNetworkError,
	errx.CodeHTTPStatus: CodeServerError,
	errx.CodeDecode:     CodeInvalidResponse,
}

// translateError 将领域错误转换为错误码（前端根据错误码进行国际化）
func (a *App) translateError(err error) (code, message string) {
	if err == nil {
		return "", ""
	}

	// 尝试匹配已知的领域错误
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			a.log.Err(err, "业务错误", "code", m.code)
			return m.code, ""
		}
	}

	var e *errx.Error
	if errors.As(err, &e) {
		if code, ok := transportMappings[e.Code]; ok {
			a.log.Err(err, "后端请求错误", "code", code)
			return code, e.Msg
		}
	}

	// 未知错误
	a.log.Err(err, "未知错误")
	return CodeUnknown, err.Error()
}
