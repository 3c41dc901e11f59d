package domain

import "errors"

// 查询相关错误
var (
	ErrEmptyResult  = errors.New("empty result")
	ErrInvalidQuery = errors.New("invalid query parameters")
)

// 图表相关错误
var (
	ErrChartNotFound  = errors.New("chart not found")
	ErrMalformedChart = errors.New("malformed chart option")
	ErrInvalidChart   = errors.New("invalid chart request")
)

// 生成任务相关错误
var (
	ErrQueueFull = errors.New("generation queue full")
)

// 连接相关错误
var (
	ErrBackendUnreachable = errors.New("backend unreachable")
)

// 数据库相关错误
var (
	ErrDatabaseNotInitialized = errors.New("database not initialized")
)
