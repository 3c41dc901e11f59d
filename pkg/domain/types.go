package domain

import (
	"encoding/json"
	"strings"
)

// 排序方向
const (
	SortAsc  = "asc"
	SortDesc = "desc"
)

// QueryParameters 图表分页查询参数（值类型，每次变更整体替换）
type QueryParameters struct {
	Current   int    `json:"current"`             // 当前页码，从 1 开始
	PageSize  int    `json:"pageSize"`            // 每页数据量
	Name      string `json:"name,omitempty"`      // 图表名称过滤，空表示不过滤
	SortField string `json:"sortField,omitempty"` // 排序字段
	SortOrder string `json:"sortOrder,omitempty"` // 排序方向 asc / desc
}

// WithName 返回带名称过滤条件的新参数
func (p QueryParameters) WithName(name string) QueryParameters {
	p.Name = name
	return p
}

// WithPage 返回切换到指定页的新参数，保留过滤与排序条件
func (p QueryParameters) WithPage(page, pageSize int) QueryParameters {
	p.Current = page
	p.PageSize = pageSize
	return p
}

// Offset 计算偏移量
func (p QueryParameters) Offset() int {
	if p.Current <= 1 || p.PageSize <= 0 {
		return 0
	}
	return (p.Current - 1) * p.PageSize
}

// Validate 校验分页与排序参数
func (p QueryParameters) Validate() error {
	if p.Current < 1 || p.PageSize <= 0 {
		return ErrInvalidQuery
	}
	if p.SortOrder != "" && p.SortOrder != SortAsc && p.SortOrder != SortDesc {
		return ErrInvalidQuery
	}
	return nil
}

// StatusKind 图表生成状态种类
type StatusKind int

const (
	StatusUnknown StatusKind = iota
	StatusWait
	StatusRunning
	StatusSucceeded
	StatusFailed
)

// 后端约定的状态取值
const (
	rawWait      = "wait"
	rawRunning   = "running"
	rawSucceeded = "succeed"
	rawFailed    = "failed"
)

// Status 图表生成状态，未建模的取值保留原文并归为 StatusUnknown
type Status struct {
	kind StatusKind
	raw  string
}

// 已知状态
var (
	Wait      = Status{kind: StatusWait, raw: rawWait}
	Running   = Status{kind: StatusRunning, raw: rawRunning}
	Succeeded = Status{kind: StatusSucceeded, raw: rawSucceeded}
	Failed    = Status{kind: StatusFailed, raw: rawFailed}
)

// ParseStatus 解析后端返回的状态字符串
func ParseStatus(raw string) Status {
	switch raw {
	case rawWait:
		return Wait
	case rawRunning:
		return Running
	case rawSucceeded:
		return Succeeded
	case rawFailed:
		return Failed
	default:
		return Unknown(raw)
	}
}

// Unknown 构造未建模状态
func Unknown(raw string) Status {
	return Status{kind: StatusUnknown, raw: raw}
}

// Kind 返回状态种类
func (s Status) Kind() StatusKind { return s.kind }

// String 返回状态原文
func (s Status) String() string { return s.raw }

// MarshalJSON 按原文输出
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.raw)
}

// UnmarshalJSON 解析状态，null 视为未知空状态
func (s *Status) UnmarshalJSON(data []byte) error {
	if strings.TrimSpace(string(data)) == "null" {
		*s = Unknown("")
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = ParseStatus(raw)
	return nil
}

// ChartRecord 图表生成任务记录
type ChartRecord struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	ChartType   string  `json:"chartType,omitempty"`
	Goal        string  `json:"goal"`
	Status      Status  `json:"status"`
	ExecMessage *string `json:"execMessage,omitempty"` // 执行信息，nil 表示后端未返回
	GenChart    string  `json:"genChart,omitempty"`    // 序列化的图表渲染配置，仅成功时存在
}

// PageResult 一页图表记录及过滤后的总数
type PageResult struct {
	Records []ChartRecord `json:"records"`
	Total   int64         `json:"total"`
}

// GenChartRequest 异步生成图表请求
type GenChartRequest struct {
	Name      string `json:"name"`
	Goal      string `json:"goal"`
	ChartType string `json:"chartType"`
	CSVData   string `json:"csvData"`
}

// GenChartResult 异步生成提交结果
type GenChartResult struct {
	ChartID int64 `json:"chartId"`
}
