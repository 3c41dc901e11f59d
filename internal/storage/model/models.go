package model

import (
	"time"

	"vdms/pkg/domain"
)

// Setting 用户设置表
type Setting struct {
	Key       string    `gorm:"primaryKey" json:"key"`  // 设置键
	Value     string    `gorm:"type:text" json:"value"` // 设置值
	UpdatedAt time.Time `json:"updatedAt"`              // 更新时间
}

// 预定义的设置 Key
const (
	SettingKeyLanguage   = "language"    // 语言
	SettingKeyTheme      = "theme"       // 主题
	SettingKeyBackendURL = "backend_url" // 后端地址
	SettingKeyPageSize   = "page_size"   // 我的图表每页数量
)

// Chart 图表表（存储生成任务及结果）
type Chart struct {
	ID          int64     `gorm:"primaryKey" json:"id"`
	UserID      int64     `gorm:"index" json:"userId"`             // 创建用户
	Name        string    `gorm:"index" json:"name"`               // 图表名称
	Goal        string    `gorm:"type:text" json:"goal"`           // 分析目标
	ChartData   string    `gorm:"type:text" json:"chartData"`      // 原始 CSV 数据
	ChartType   string    `json:"chartType"`                       // 图表类型
	GenChart    string    `gorm:"type:text" json:"genChart"`       // 生成的 ECharts 配置
	GenResult   string    `gorm:"type:text" json:"genResult"`      // 生成的分析结论
	Status      string    `gorm:"index;default:wait" json:"status"` // wait / running / succeed / failed
	ExecMessage *string   `gorm:"type:text" json:"execMessage"`    // 执行信息
	CreatedAt   time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// ToDomain 转换为对外的图表记录
func (c *Chart) ToDomain() domain.ChartRecord {
	rec := domain.ChartRecord{
		ID:        c.ID,
		Name:      c.Name,
		ChartType: c.ChartType,
		Goal:      c.Goal,
		Status:    domain.ParseStatus(c.Status),
		GenChart:  c.GenChart,
	}
	if c.ExecMessage != nil {
		msg := *c.ExecMessage
		rec.ExecMessage = &msg
	}
	return rec
}
