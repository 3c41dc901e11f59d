package gui

// SettingsData 设置数据
type SettingsData struct {
	Settings map[string]string `json:"settings"`
}

// SettingData 单个设置数据
type SettingData struct {
	Value string `json:"value"`
}

// VersionData 版本数据
type VersionData struct {
	Version string `json:"version"`
}

// 前端事件名
const (
	// EventNotice 全局提示
	EventNotice = "notice"
)
