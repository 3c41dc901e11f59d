package gui

import (
	"context"
	"strconv"
	"sync"
	"time"

	"vdms/internal/client"
	"vdms/internal/config"
	"vdms/internal/logger"
	"vdms/internal/mychart"
	"vdms/internal/storage/db"
	"vdms/internal/storage/model"
	"vdms/internal/storage/repo"
	"vdms/pkg/api"
	"vdms/pkg/domain"

	"github.com/wailsapp/wails/v2/pkg/runtime"
	"gorm.io/gorm"
	gl "gorm.io/gorm/logger"
)

// EmitFunc 向前端推送事件
type EmitFunc func(ctx context.Context, event string, data ...any)

// AppOptions App 依赖，未提供的依赖在 Startup 时按配置创建
type AppOptions struct {
	Config   *config.Config
	Logger   logger.Logger
	DB       *gorm.DB
	Service  api.ChartService
	Identity mychart.Identity
	Emit     EmitFunc
}

// App 负责管理“我的图表”页面状态与本地设置，供前端调用。
type App struct {
	ctx       context.Context
	cfg       *config.Config
	log       logger.Logger
	emit      EmitFunc
	gdb       *gorm.DB
	ownDB     bool
	injected  api.ChartService
	presenter *mychart.Presenter

	settingsRepo *repo.SettingsRepo

	mu         sync.RWMutex
	service    api.ChartService
	controller *mychart.Controller
}

// NewApp 创建并返回一个新的 App 实例。
func NewApp(opts AppOptions) *App {
	if opts.Config == nil {
		opts.Config = config.NewConfig()
	}
	if opts.Logger == nil {
		opts.Logger = logger.New(logger.Options{
			Level:   opts.Config.Log.Level,
			Writers: opts.Config.Log.Writer,
		})
	}
	if opts.Emit == nil {
		opts.Emit = runtime.EventsEmit
	}
	return &App{
		ctx:       context.Background(),
		cfg:       opts.Config,
		log:       opts.Logger,
		emit:      opts.Emit,
		gdb:       opts.DB,
		injected:  opts.Service,
		presenter: mychart.NewPresenter(opts.Identity),
	}
}

// Startup 初始化数据库、设置与查询控制器。
func (a *App) Startup(ctx context.Context) {
	a.ctx = ctx
	a.log.Info("应用启动")

	if a.gdb == nil {
		gdb, err := db.New(db.Options{
			Name:   a.cfg.Sqlite.Db,
			Prefix: a.cfg.Sqlite.Prefix,
			Logger: db.NewLogger(a.log).LogMode(gl.Warn),
		})
		if err != nil {
			a.log.Err(err, "数据库初始化失败")
		} else {
			a.gdb = gdb
			a.ownDB = true
		}
	}

	if a.gdb != nil {
		if err := db.Migrate(a.gdb, &model.Setting{}); err != nil {
			a.log.Err(err, "数据库迁移失败")
		} else {
			a.settingsRepo = repo.NewSettingsRepo(a.gdb)
			a.log.Debug("数据持久化层初始化完成")
		}
	}

	a.configure()
}

// Shutdown 负责清理资源。
func (a *App) Shutdown(ctx context.Context) {
	a.log.Info("应用关闭中...")

	if a.ownDB && a.gdb != nil {
		if sqlDB, err := a.gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}

	a.log.Info("应用已关闭")
}

// configure 根据当前设置创建后端客户端与控制器
func (a *App) configure() {
	backendURL := a.cfg.Backend.BaseURL
	defaults := mychart.DefaultParameters()
	defaults.PageSize = a.cfg.Page.PageSize
	defaults.SortField = a.cfg.Page.SortField
	defaults.SortOrder = a.cfg.Page.SortOrder

	if a.settingsRepo != nil {
		backendURL = a.settingsRepo.GetBackendURL(a.ctx)
		defaults.PageSize = a.settingsRepo.GetPageSize(a.ctx)
	}

	svc := a.injected
	if svc == nil {
		svc = client.New(client.Options{
			BaseURL: backendURL,
			Timeout: time.Duration(a.cfg.Backend.TimeoutMS) * time.Millisecond,
			UserID:  a.cfg.Backend.UserID,
			Logger:  a.log,
		})
	}

	ctrl := mychart.NewController(svc, mychart.NotifierFunc(a.notify), mychart.Options{
		Defaults: defaults,
		Logger:   a.log,
	})

	a.mu.Lock()
	a.service = svc
	a.controller = ctrl
	a.mu.Unlock()
	a.log.Debug("查询控制器已就绪", "backendURL", backendURL, "pageSize", defaults.PageSize)
}

// notify 将控制器提示推送给前端
func (a *App) notify(n mychart.Notice) {
	a.emit(a.ctx, EventNotice, n)
}

func (a *App) current() (*mychart.Controller, api.ChartService) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.controller, a.service
}

func (a *App) view(state mychart.State) api.Response[mychart.PageView] {
	return api.OK(a.presenter.PresentState(state))
}

// LoadMyCharts 以当前条件加载我的图表
func (a *App) LoadMyCharts() api.Response[mychart.PageView] {
	ctrl, _ := a.current()
	return a.view(ctrl.Refresh(a.ctx))
}

// SearchCharts 按名称搜索，回到第一页
func (a *App) SearchCharts(name string) api.Response[mychart.PageView] {
	ctrl, _ := a.current()
	a.log.Debug("搜索图表", "name", name)
	return a.view(ctrl.SetFilter(a.ctx, name))
}

// ChangePage 切换页码或每页数量
func (a *App) ChangePage(page, pageSize int) api.Response[mychart.PageView] {
	ctrl, _ := a.current()
	return a.view(ctrl.SetPage(a.ctx, page, pageSize))
}

// GetChartView 返回当前页面状态，不发起查询
func (a *App) GetChartView() api.Response[mychart.PageView] {
	ctrl, _ := a.current()
	return a.view(ctrl.Snapshot())
}

// GenChartAsync 提交异步生成任务
func (a *App) GenChartAsync(req domain.GenChartRequest) api.Response[domain.GenChartResult] {
	_, svc := a.current()
	res, err := svc.GenChartAsync(a.ctx, req)
	if err != nil {
		code, msg := a.translateError(err)
		return api.Fail[domain.GenChartResult](code, msg)
	}
	if !res.Success || res.Data == nil {
		return api.Fail[domain.GenChartResult](res.Code, res.Message)
	}
	a.log.Info("已提交图表生成任务", "chartId", res.Data.ChartID)
	a.notify(mychart.Notice{Level: mychart.NoticeSuccess, Message: mychart.MsgGenSubmitted})
	return api.OK(*res.Data)
}

// GetVersion 获取应用版本号
func (a *App) GetVersion() api.Response[VersionData] {
	return api.OK(VersionData{Version: a.cfg.Version})
}

// GetSettings 获取所有设置（带默认值）
func (a *App) GetSettings() api.Response[SettingsData] {
	if a.settingsRepo == nil {
		code, msg := a.translateError(domain.ErrDatabaseNotInitialized)
		return api.Fail[SettingsData](code, msg)
	}
	settings, err := a.settingsRepo.GetAllWithDefaults(a.ctx)
	if err != nil {
		return api.Fail[SettingsData]("GET_SETTINGS_FAILED", "")
	}
	return api.OK(SettingsData{Settings: settings})
}

// SaveSettings 保存设置，后端地址或每页数量变化后重建控制器
func (a *App) SaveSettings(settings map[string]string) api.Response[api.EmptyData] {
	if a.settingsRepo == nil {
		code, msg := a.translateError(domain.ErrDatabaseNotInitialized)
		return api.Fail[api.EmptyData](code, msg)
	}
	if v, ok := settings[model.SettingKeyPageSize]; ok {
		if n, err := strconv.Atoi(v); err != nil || n <= 0 {
			return api.Fail[api.EmptyData](CodeInvalidParams, "")
		}
	}
	if err := a.settingsRepo.SetMultiple(a.ctx, settings); err != nil {
		return api.Fail[api.EmptyData]("SAVE_SETTINGS_FAILED", "")
	}

	_, urlChanged := settings[model.SettingKeyBackendURL]
	_, sizeChanged := settings[model.SettingKeyPageSize]
	if urlChanged || sizeChanged {
		a.configure()
	}
	return api.OK(api.EmptyData{})
}

// ResetSettings 恢复默认设置
func (a *App) ResetSettings() api.Response[SettingsData] {
	defaults := config.GetDefaultSettings()
	settings := map[string]string{
		model.SettingKeyLanguage:   defaults.Language,
		model.SettingKeyTheme:      defaults.Theme,
		model.SettingKeyBackendURL: defaults.BackendURL,
		model.SettingKeyPageSize:   defaults.PageSize,
	}

	if res := a.SaveSettings(settings); !res.Success {
		return api.Fail[SettingsData]("RESET_SETTINGS_FAILED", "")
	}
	return api.OK(SettingsData{Settings: settings})
}

// GetDataDirectory 获取数据目录路径
func (a *App) GetDataDirectory() api.Response[SettingData] {
	dataDir, err := db.GetDefaultDir()
	if err != nil {
		return api.Fail[SettingData]("GET_DATA_DIR_FAILED", "")
	}
	return api.OK(SettingData{Value: dataDir})
}

// GetLogDirectory 获取日志目录路径
func (a *App) GetLogDirectory() api.Response[SettingData] {
	logDir, err := logger.GetDefaultLogDir()
	if err != nil {
		return api.Fail[SettingData]("GET_LOG_DIR_FAILED", "")
	}
	return api.OK(SettingData{Value: logDir})
}
