// Package main 是商城客户端的命令行入口：本地 HTTP API、购物车/心愿单操作、目录查询与数据库迁移。
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MorseWayne/storefront/internal/app"
	"github.com/MorseWayne/storefront/internal/config"
	"github.com/MorseWayne/storefront/internal/logger"
)

const appName = "storefront"

// Version 构建时通过 -ldflags 注入
var Version = "dev"

type rootOptions struct {
	configPath string
	logLevel   string
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Storefront client: local cart, wishlist and store API gateway",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "YAML config file (overrides CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		serveCmd(opts),
		cartCmd(opts),
		wishlistCmd(opts),
		productsCmd(opts),
		ordersCmd(opts),
		checkoutCmd(opts),
		authCmd(opts),
		migrateCmd(opts),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)
	return cmd
}

// load 读取配置并创建日志器
func (o *rootOptions) load(defaultLevel string) (*config.Config, *zap.Logger, error) {
	if o.configPath != "" {
		if err := os.Setenv("CONFIG_FILE", o.configPath); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	level := cfg.Log.Level
	switch {
	case o.logLevel != "":
		level = o.logLevel
	case defaultLevel != "":
		level = defaultLevel
	}
	lg, err := logger.New(cfg.App.Env, level, cfg.Log.Encoding, cfg.App.Name, cfg.App.Version)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}
	return cfg, lg, nil
}

// withApp 初始化全部组件后执行 fn，结束时释放资源
// 一次性命令默认只输出警告以上日志
func (o *rootOptions) withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, lg, err := o.load("warn")
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a, err := app.New(ctx, cfg, lg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			lg.Sugar().Warnw("failed to release resources", "err", cerr)
		}
	}()
	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
