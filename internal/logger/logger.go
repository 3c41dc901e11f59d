package logger

import (
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger 定义日志接口
type Logger interface {
	// Debug 记录调试信息
	Debug(msg string, fields ...any)

	// Info 记录一般信息
	Info(msg string, fields ...any)

	// Warn 记录警告信息
	Warn(msg string, fields ...any)

	// Error 记录错误信息
	Error(msg string, fields ...any)

	// Err 记录错误信息
	Err(err error, msg string, fields ...any)
}

// Options 日志配置
type Options struct {
	// Level 日志级别 debug / info / warn / error / disabled
	Level string
	// Writers 输出目标 console / file
	Writers []string
	// Filename 文件输出路径，为空时使用平台默认日志目录
	Filename string
}

// ZeroLogger 基于 zerolog 的日志组件
type ZeroLogger struct {
	logger zerolog.Logger
}

// New 创建日志组件
func New(opts Options) *ZeroLogger {
	level := parseLevel(opts.Level)
	if level == zerolog.Disabled {
		return NewNop()
	}

	writers := make([]io.Writer, 0, len(opts.Writers))
	for _, writer := range opts.Writers {
		switch writer {
		case "console":
			writers = append(writers, os.Stderr)
		case "file":
			filename := opts.Filename
			if filename == "" {
				dir, err := GetDefaultLogDir()
				if err != nil {
					continue
				}
				filename = filepath.Join(dir, "app.log")
			}
			writers = append(writers, &lumberjack.Logger{
				Filename:   filename,
				MaxSize:    1,
				MaxAge:     30,
				MaxBackups: 3,
				LocalTime:  true,
				Compress:   false,
			})
		}
	}

	if len(writers) == 0 {
		return NewNop()
	}

	return NewWithWriter(io.MultiWriter(writers...), opts.Level)
}

// NewWithWriter 使用指定输出创建日志组件
func NewWithWriter(w io.Writer, level string) *ZeroLogger {
	zerolog.TimeFieldFormat = "2006-01-02 15:04:05"
	logger := zerolog.New(w).
		With().
		Caller().
		Timestamp().
		Logger().
		Level(parseLevel(level))
	return &ZeroLogger{logger: logger}
}

// NewNop 创建一个空的日志记录器
func NewNop() *ZeroLogger { return &ZeroLogger{logger: zerolog.Nop()} }

// parseLevel 解析日志级别，无法识别时使用 debug
func parseLevel(level string) zerolog.Level {
	switch level {
	case "info":
		return zerolog.InfoLevel
	case "warn":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "disabled", "none":
		return zerolog.Disabled
	default:
		return zerolog.DebugLevel
	}
}

// Info 记录信息
func (z *ZeroLogger) Info(msg string, fields ...any) {
	z.logger.Info().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Error 记录错误
func (z *ZeroLogger) Error(msg string, fields ...any) {
	z.logger.Error().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Debug 记录调试信息
func (z *ZeroLogger) Debug(msg string, fields ...any) {
	z.logger.Debug().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Warn 记录警告
func (z *ZeroLogger) Warn(msg string, fields ...any) {
	z.logger.Warn().CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// Err 记录错误信息
func (z *ZeroLogger) Err(err error, msg string, fields ...any) {
	z.logger.Err(err).CallerSkipFrame(1).Fields(fields).Msg(msg)
}

// GetDefaultLogDir 获取日志目录
func GetDefaultLogDir() (string, error) {
	base, err := dataDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(base, "logs"), nil
}

// dataDir 获取平台相关的应用数据目录
func dataDir() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("APPDATA")
		if baseDir == "" {
			baseDir = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		baseDir = filepath.Join(home, "Library", "Application Support")
	default:
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
