package repo

import (
	"context"
	"strconv"
	"time"

	"vdms/internal/config"
	"vdms/internal/storage/model"

	"gorm.io/gorm"
)

// SettingsRepo 设置仓库
type SettingsRepo struct {
	BaseRepository[model.Setting]
}

// NewSettingsRepo 创建设置仓库实例
func NewSettingsRepo(db *gorm.DB) *SettingsRepo {
	return &SettingsRepo{
		BaseRepository: *NewBaseRepository[model.Setting](db),
	}
}

// Get 获取设置值
func (r *SettingsRepo) Get(ctx context.Context, key string) (string, error) {
	var setting model.Setting
	result := r.Db.WithContext(ctx).Where("key = ?", key).First(&setting)
	if result.Error != nil {
		return "", result.Error
	}
	return setting.Value, nil
}

// GetWithDefault 获取设置值，不存在时返回默认值
func (r *SettingsRepo) GetWithDefault(ctx context.Context, key, defaultValue string) string {
	val, err := r.Get(ctx, key)
	if err != nil {
		return defaultValue
	}
	return val
}

// Set 设置值（存在则更新，不存在则创建）
func (r *SettingsRepo) Set(ctx context.Context, key, value string) error {
	setting := model.Setting{
		Key:       key,
		Value:     value,
		UpdatedAt: time.Now(),
	}
	return r.Db.WithContext(ctx).Save(&setting).Error
}

// DeleteByKey 根据 key 删除设置
func (r *SettingsRepo) DeleteByKey(ctx context.Context, key string) error {
	return r.Db.WithContext(ctx).Delete(&model.Setting{}, "key = ?", key).Error
}

// GetAll 获取所有设置
func (r *SettingsRepo) GetAll(ctx context.Context) (map[string]string, error) {
	var settings []model.Setting
	if err := r.Db.WithContext(ctx).Find(&settings).Error; err != nil {
		return nil, err
	}

	result := make(map[string]string)
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	return result, nil
}

// SetMultiple 批量设置
func (r *SettingsRepo) SetMultiple(ctx context.Context, kvs map[string]string) error {
	return r.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		for key, value := range kvs {
			setting := model.Setting{
				Key:       key,
				Value:     value,
				UpdatedAt: now,
			}
			if err := tx.Save(&setting).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GetAllWithDefaults 获取所有设置，未保存的预定义键使用默认值
func (r *SettingsRepo) GetAllWithDefaults(ctx context.Context) (map[string]string, error) {
	saved, err := r.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	defaults := config.GetDefaultSettings()
	result := map[string]string{
		model.SettingKeyLanguage:   defaults.Language,
		model.SettingKeyTheme:      defaults.Theme,
		model.SettingKeyBackendURL: defaults.BackendURL,
		model.SettingKeyPageSize:   defaults.PageSize,
	}
	for k, v := range saved {
		result[k] = v
	}
	return result, nil
}

// GetBackendURL 获取后端地址
func (r *SettingsRepo) GetBackendURL(ctx context.Context) string {
	return r.GetWithDefault(ctx, model.SettingKeyBackendURL, config.GetDefaultSettings().BackendURL)
}

// SetBackendURL 设置后端地址
func (r *SettingsRepo) SetBackendURL(ctx context.Context, url string) error {
	return r.Set(ctx, model.SettingKeyBackendURL, url)
}

// GetPageSize 获取每页数量，非法值回退为默认值
func (r *SettingsRepo) GetPageSize(ctx context.Context) int {
	def, _ := strconv.Atoi(config.GetDefaultSettings().PageSize)
	n, err := strconv.Atoi(r.GetWithDefault(ctx, model.SettingKeyPageSize, ""))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

// SetPageSize 设置每页数量
func (r *SettingsRepo) SetPageSize(ctx context.Context, size int) error {
	return r.Set(ctx, model.SettingKeyPageSize, strconv.Itoa(size))
}

// GetTheme 获取主题
func (r *SettingsRepo) GetTheme(ctx context.Context) string {
	return r.GetWithDefault(ctx, model.SettingKeyTheme, config.GetDefaultSettings().Theme)
}

// SetTheme 设置主题
func (r *SettingsRepo) SetTheme(ctx context.Context, theme string) error {
	return r.Set(ctx, model.SettingKeyTheme, theme)
}

// GetLanguage 获取语言
func (r *SettingsRepo) GetLanguage(ctx context.Context) string {
	return r.GetWithDefault(ctx, model.SettingKeyLanguage, config.GetDefaultSettings().Language)
}

// SetLanguage 设置语言
func (r *SettingsRepo) SetLanguage(ctx context.Context, lang string) error {
	return r.Set(ctx, model.SettingKeyLanguage, lang)
}
