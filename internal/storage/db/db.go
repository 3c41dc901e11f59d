package db

import (
	"os"
	"path/filepath"
	"runtime"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// memoryDSN 内存数据库
const memoryDSN = ":memory:"

// Options 数据库配置选项
type Options struct {
	// Name 数据库文件名，位于平台默认数据目录
	Name string
	// FullPath 数据库完整路径，优先于 Name
	FullPath string
	// Prefix 表前缀
	Prefix string
	// Logger GORM 日志实现
	Logger logger.Interface
}

// New 创建并初始化数据库连接
func New(opts Options) (*gorm.DB, error) {
	dbPath := opts.FullPath
	if dbPath == "" && opts.Name == memoryDSN {
		dbPath = memoryDSN
	}
	if dbPath == "" {
		p, err := GetDefaultPath(opts.Name)
		if err != nil {
			return nil, err
		}
		dbPath = p
	}

	// 确保数据库目录存在
	if dbPath != memoryDSN {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
			return nil, err
		}
	}

	cfg := &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   opts.Prefix,
			SingularTable: true,
		},
	}
	if opts.Logger != nil {
		cfg.Logger = opts.Logger
	} else {
		cfg.Logger = logger.Discard
	}

	db, err := gorm.Open(sqlite.Open(dbPath), cfg)
	if err != nil {
		return nil, err
	}

	// 内存数据库每个连接相互独立，只能保留一个连接
	sqlDB, err := db.DB()
	if err == nil {
		if dbPath == memoryDSN {
			sqlDB.SetMaxOpenConns(1)
		} else {
			sqlDB.SetMaxIdleConns(10)
			sqlDB.SetMaxOpenConns(100)
		}
	}

	return db, nil
}

// Migrate 执行数据库自动迁移
func Migrate(db *gorm.DB, models ...any) error {
	return db.AutoMigrate(models...)
}

// GetDefaultPath 获取平台相关的默认数据库文件路径
func GetDefaultPath(dbName string) (string, error) {
	dir, err := GetDefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbName), nil
}

// GetDefaultDir 获取平台相关的数据目录
func GetDefaultDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		// %APPDATA%/vdms/
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		// ~/Library/Application Support/vdms/
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	default:
		// Linux: ~/.local/share/vdms/
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", err
			}
			baseDir = filepath.Join(home, ".local", "share")
		}
	}

	return filepath.Join(baseDir, "vdms"), nil
}
