// Package logger 基于 log/slog 初始化全局结构化日志。
package logger

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Setup 设置全局默认 logger。format 为 "json" 时输出 JSON，否则输出 text。
// w 为 nil 时写入 stderr（stdout 留给命令行输出数据）。
func Setup(level string, format string, w io.Writer) {
	if w == nil {
		w = os.Stderr
	}
	var handler slog.Handler
	opts := &slog.HandlerOptions{
		Level: ParseLevel(level),
	}
	switch strings.ToLower(format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}
	slog.SetDefault(slog.New(handler))
}

// WithComponent 返回带 component 字段的 logger
func WithComponent(component string) *slog.Logger {
	return slog.Default().With("component", component)
}

// ParseLevel 解析日志级别，未知值按 info 处理
func ParseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
