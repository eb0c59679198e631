// Package logger 基于 zap 构建应用日志器。
package logger

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New 根据运行环境创建日志器
// prod 环境使用生产配置（采样、ISO8601时间），其他环境使用开发配置
func New(env, level, encoding, app, version string) (*zap.Logger, error) {
	var cfg zap.Config
	if env == "prod" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", level, err)
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	switch encoding {
	case "", "json", "console":
		if encoding != "" {
			cfg.Encoding = encoding
		}
	default:
		return nil, fmt.Errorf("unsupported log encoding %q", encoding)
	}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	lg, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}

	return lg.With(
		zap.String("app", app),
		zap.String("version", version),
		zap.String("env", env),
	), nil
}
