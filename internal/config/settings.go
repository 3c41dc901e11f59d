package config

// DefaultSettings 定义所有设置的默认值
type DefaultSettings struct {
	Language   string
	Theme      string
	BackendURL string
	PageSize   string
}

// GetDefaultSettings 返回默认设置
func GetDefaultSettings() DefaultSettings {
	cfg := NewConfig()
	return DefaultSettings{
		Language:   "zh",
		Theme:      "system",
		BackendURL: cfg.Backend.BaseURL,
		PageSize:   "4",
	}
}
