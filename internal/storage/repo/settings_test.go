package repo_test

import (
	"context"
	"testing"

	"vdms/internal/storage/db"
	"vdms/internal/storage/model"
	"vdms/internal/storage/repo"
)

// setupSettingsTestDB 创建用于 SettingsRepo 测试的内存数据库。
func setupSettingsTestDB(t *testing.T) *repo.SettingsRepo {
	gdb, err := db.New(db.Options{
		Name:   ":memory:",
		Prefix: "test_",
	})
	if err != nil {
		t.Fatalf("创建内存数据库失败: %v", err)
	}

	err = db.Migrate(gdb, &model.Setting{})
	if err != nil {
		t.Fatalf("迁移数据库失败: %v", err)
	}

	return repo.NewSettingsRepo(gdb)
}

// TestSettingsRepo_SetAndGet 测试设置的保存与读取。
func TestSettingsRepo_SetAndGet(t *testing.T) {
	r := setupSettingsTestDB(t)

	key := "test_key"
	value := "test_value"

	err := r.Set(context.Background(), key, value)
	if err != nil {
		t.Fatalf("设置失败: %v", err)
	}

	retrieved, err := r.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("获取设置失败: %v", err)
	}

	if retrieved != value {
		t.Errorf("预期值为 %s，实际为 %s", value, retrieved)
	}
}

// TestSettingsRepo_GetWithDefault 测试不存在的键返回默认值。
func TestSettingsRepo_GetWithDefault(t *testing.T) {
	r := setupSettingsTestDB(t)

	defaultVal := "default_value"
	retrieved := r.GetWithDefault(context.Background(), "non_existent_key", defaultVal)

	if retrieved != defaultVal {
		t.Errorf("预期返回默认值 %s，实际返回 %s", defaultVal, retrieved)
	}
}

// TestSettingsRepo_SetMultiple 测试批量设置功能及事务一致性。
func TestSettingsRepo_SetMultiple(t *testing.T) {
	r := setupSettingsTestDB(t)

	kvs := map[string]string{
		"k1": "v1",
		"k2": "v2",
		"k3": "v3",
	}

	err := r.SetMultiple(context.Background(), kvs)
	if err != nil {
		t.Fatalf("批量设置失败: %v", err)
	}

	// 验证所有键值对是否正确保存
	for key, expectedVal := range kvs {
		actualVal, err := r.Get(context.Background(), key)
		if err != nil {
			t.Errorf("获取键 %s 失败: %v", key, err)
		}
		if actualVal != expectedVal {
			t.Errorf("键 %s 预期值 %s，实际值 %s", key, expectedVal, actualVal)
		}
	}
}

// TestSettingsRepo_DeleteByKey 测试按键删除功能。
func TestSettingsRepo_DeleteByKey(t *testing.T) {
	r := setupSettingsTestDB(t)

	key := "to_delete"
	r.Set(context.Background(), key, "some_value")

	err := r.DeleteByKey(context.Background(), key)
	if err != nil {
		t.Fatalf("删除失败: %v", err)
	}

	_, err = r.Get(context.Background(), key)
	if err == nil {
		t.Error("预期键已删除，但仍然能获取到值")
	}
}

// TestSettingsRepo_PresetKeys 测试预设置的键是否按预期工作。
func TestSettingsRepo_PresetKeys(t *testing.T) {
	r := setupSettingsTestDB(t)
	ctx := context.Background()

	expectedURL := "http://localhost:9999"
	if err := r.SetBackendURL(ctx, expectedURL); err != nil {
		t.Fatalf("设置后端地址失败: %v", err)
	}
	if actual := r.GetBackendURL(ctx); actual != expectedURL {
		t.Errorf("BackendURL 预期 %s，实际 %s", expectedURL, actual)
	}

	_ = r.SetTheme(ctx, "dark")
	if actual := r.GetTheme(ctx); actual != "dark" {
		t.Errorf("Theme 预期 dark，实际 %s", actual)
	}

	_ = r.SetLanguage(ctx, "en")
	if actual := r.GetLanguage(ctx); actual != "en" {
		t.Errorf("Language 预期 en，实际 %s", actual)
	}

	// 删除后回退到默认值
	_ = r.DeleteByKey(ctx, model.SettingKeyBackendURL)
	if actual := r.GetBackendURL(ctx); actual != "http://127.0.0.1:8101" {
		t.Errorf("BackendURL 默认值不符合预期，实际为 %s", actual)
	}
}

// TestSettingsRepo_PageSize 测试每页数量的读写与非法值回退。
func TestSettingsRepo_PageSize(t *testing.T) {
	r := setupSettingsTestDB(t)
	ctx := context.Background()

	if got := r.GetPageSize(ctx); got != 4 {
		t.Errorf("默认每页数量预期 4，实际 %d", got)
	}
	_ = r.SetPageSize(ctx, 8)
	if got := r.GetPageSize(ctx); got != 8 {
		t.Errorf("每页数量预期 8，实际 %d", got)
	}
	_ = r.Set(ctx, model.SettingKeyPageSize, "abc")
	if got := r.GetPageSize(ctx); got != 4 {
		t.Errorf("非法值应回退为 4，实际 %d", got)
	}
}

// TestSettingsRepo_GetAllWithDefaults 测试默认值与已保存值的合并。
func TestSettingsRepo_GetAllWithDefaults(t *testing.T) {
	r := setupSettingsTestDB(t)
	ctx := context.Background()

	_ = r.SetTheme(ctx, "light")
	all, err := r.GetAllWithDefaults(ctx)
	if err != nil {
		t.Fatalf("获取设置失败: %v", err)
	}
	want := map[string]string{
		model.SettingKeyLanguage:   "zh",
		model.SettingKeyTheme:      "light",
		model.SettingKeyBackendURL: "http://127.0.0.1:8101",
		model.SettingKeyPageSize:   "4",
	}
	for k, v := range want {
		if all[k] != v {
			t.Errorf("键 %s 预期 %s，实际 %s", k, v, all[k])
		}
	}
}
