package mychart

import (
	"vdms/internal/transformer"
	"vdms/pkg/domain"
)

// ViewKind 单条记录的展示状态
type ViewKind string

const (
	ViewPending   ViewKind = "pending"
	ViewRunning   ViewKind = "running"
	ViewSucceeded ViewKind = "succeeded"
	ViewFailed    ViewKind = "failed"
	ViewUnknown   ViewKind = "unknown"
)

// 展示文案
const (
	TitlePending   = "待生成"
	TitleRunning   = "图表生成中"
	TitleFailed    = "图表生成失败"
	TitleUnknown   = "未知状态"
	DefaultWaitMsg = "当前图表生成队列繁忙，请耐心等候"
	goalPrefix     = "分析目标："
	chartTypeLabel = "图表类型："
)

// ItemView 单条图表的展示模型
type ItemView struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Avatar      string         `json:"avatar,omitempty"`
	Kind        ViewKind       `json:"kind"`
	Title       string         `json:"title,omitempty"`
	SubTitle    *string        `json:"subTitle,omitempty"`
	Goal        string         `json:"goal,omitempty"`
	Option      map[string]any `json:"option,omitempty"` // 仅成功状态，交给图表渲染组件
}

// PageView 列表页展示模型
type PageView struct {
	Items    []ItemView `json:"items"`
	Current  int        `json:"current"`
	PageSize int        `json:"pageSize"`
	Total    int64      `json:"total"`
	Loading  bool       `json:"loading"`
}

// Presenter 将记录映射为展示模型，不修改记录
type Presenter struct {
	identity Identity
}

// NewPresenter 创建展示器，identity 可为 nil
func NewPresenter(identity Identity) *Presenter {
	return &Presenter{identity: identity}
}

// Present 根据状态选择展示内容
func (p *Presenter) Present(rec domain.ChartRecord) ItemView {
	view := ItemView{
		ID:   rec.ID,
		Name: rec.Name,
	}
	if rec.ChartType != "" {
		view.Description = chartTypeLabel + rec.ChartType
	}
	if p.identity != nil {
		view.Avatar = p.identity.Avatar()
	}

	switch rec.Status.Kind() {
	case domain.StatusWait:
		view.Kind = ViewPending
		view.Title = TitlePending
		sub := DefaultWaitMsg
		if rec.ExecMessage != nil {
			sub = *rec.ExecMessage
		}
		view.SubTitle = &sub
	case domain.StatusRunning:
		view.Kind = ViewRunning
		view.Title = TitleRunning
		view.SubTitle = copyString(rec.ExecMessage)
	case domain.StatusSucceeded:
		view.Kind = ViewSucceeded
		view.Goal = goalPrefix + rec.Goal
		view.Option = transformer.DecodeOption(rec.GenChart)
	case domain.StatusFailed:
		view.Kind = ViewFailed
		view.Title = TitleFailed
		view.SubTitle = copyString(rec.ExecMessage)
	default:
		view.Kind = ViewUnknown
		view.Title = TitleUnknown
		raw := rec.Status.String()
		view.SubTitle = &raw
	}
	return view
}

// PresentState 将控制器状态映射为列表页展示模型
func (p *Presenter) PresentState(s State) PageView {
	items := make([]ItemView, 0, len(s.Records))
	for _, rec := range s.Records {
		items = append(items, p.Present(rec))
	}
	return PageView{
		Items:    items,
		Current:  s.Params.Current,
		PageSize: s.Params.PageSize,
		Total:    s.Total,
		Loading:  s.Loading,
	}
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

// ChartRenderer 图表渲染协作者，只接收解析后的配置对象
type ChartRenderer interface {
	RenderChart(goal string, option map[string]any) error
}

// RenderItem 将成功状态的条目交给渲染组件，其余状态不渲染图表
func RenderItem(view ItemView, r ChartRenderer) error {
	if view.Kind != ViewSucceeded || r == nil {
		return nil
	}
	return r.RenderChart(view.Goal, view.Option)
}
