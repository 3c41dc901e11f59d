package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config 配置文件结构体
type Config struct {
	Version string `yaml:"version"`
	Sqlite  struct {
		Db     string `yaml:"db"`
		Prefix string `yaml:"prefix"`
	} `yaml:"sqlite"`
	Log struct {
		Level  string   `yaml:"level"`
		Writer []string `yaml:"writer"`
	} `yaml:"log"`
	Backend struct {
		BaseURL   string `yaml:"baseUrl"`
		TimeoutMS int    `yaml:"timeoutMs"`
		UserID    int64  `yaml:"userId"`
	} `yaml:"backend"`
	Server struct {
		Addr        string `yaml:"addr"`
		MaxPageSize int    `yaml:"maxPageSize"`
	} `yaml:"server"`
	Page struct {
		PageSize  int    `yaml:"pageSize"`
		SortField string `yaml:"sortField"`
		SortOrder string `yaml:"sortOrder"`
	} `yaml:"page"`
	Generator struct {
		Workers  int `yaml:"workers"`
		QueueCap int `yaml:"queueCap"`
	} `yaml:"generator"`
}

// NewConfig 创建默认配置
func NewConfig() *Config {
	cfg := &Config{Version: "1.0.0"}

	cfg.Sqlite.Db = "vdms.db"
	cfg.Sqlite.Prefix = "vdms_"

	cfg.Log.Level = "debug"
	cfg.Log.Writer = []string{"file", "console"}

	cfg.Backend.BaseURL = "http://127.0.0.1:8101"
	cfg.Backend.TimeoutMS = 10000
	cfg.Backend.UserID = 1

	cfg.Server.Addr = "127.0.0.1:8101"
	cfg.Server.MaxPageSize = 20

	// 默认第一页、每页 4 条、按创建时间倒序
	cfg.Page.PageSize = 4
	cfg.Page.SortField = "createTime"
	cfg.Page.SortOrder = "desc"

	cfg.Generator.Workers = 2
	cfg.Generator.QueueCap = 16
	return cfg
}

// Load 读取 YAML 配置文件并覆盖默认值，path 为空时直接返回默认配置
func Load(path string) (*Config, error) {
	cfg := NewConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	return cfg, nil
}
