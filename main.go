package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/any-hub/imgcache/internal/config"
	"github.com/any-hub/imgcache/internal/logging"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	prefetch    bool
}

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["storage_path"] = cfg.Global.StoragePath
		fields["catalog"] = cfg.CatalogEnabled()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	if opts.prefetch && !cfg.CatalogEnabled() {
		fmt.Fprintln(stdErr, "-prefetch 需要在配置中设置 CatalogURL")
		return 1
	}

	// 启动顺序：配置 → 缓存层 → Fetcher → Loader → Fiber，
	// 所有请求与预取共享同一个 Loader 实例。
	rt, err := buildPipeline(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化加载管线失败: %v\n", err)
		return 1
	}
	defer rt.Close()

	fields := logging.BaseFields("startup", opts.configPath)
	fields["listen_port"] = cfg.Global.ListenPort
	fields["storage_path"] = rt.disk.Dir()
	fields["disk_usage"] = rt.usageSummary()
	fields["workers"] = cfg.Image.Workers
	fields["cache_ttl"] = cfg.Image.CacheTTL.DurationValue().String()
	fields["catalog"] = cfg.CatalogEnabled()
	logger.WithFields(fields).Info("配置加载完成")

	if opts.prefetch {
		if err := rt.prefetch(context.Background()); err != nil {
			fmt.Fprintf(stdErr, "预取失败: %v\n", err)
			return 1
		}
		return 0
	}

	if cfg.Global.PrefetchOnStart {
		go func() {
			if err := rt.prefetch(context.Background()); err != nil {
				logger.WithField("action", "prefetch").WithError(err).Warn("startup prefetch failed")
			}
		}()
	}

	if err := startHTTPServer(cfg, rt, logger); err != nil {
		fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := flag.NewFlagSet("imgcache", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var (
		configFlag string
		checkOnly  bool
		showVer    bool
		prefetch   bool
	)

	fs.StringVar(&configFlag, "config", "", "配置文件路径（默认 ./config.toml，可被 IMGCACHE_CONFIG 覆盖）")
	fs.BoolVar(&checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&showVer, "version", false, "显示版本信息")
	fs.BoolVar(&prefetch, "prefetch", false, "预取目录中的全部图片后退出")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	path := os.Getenv("IMGCACHE_CONFIG")
	if configFlag != "" {
		path = configFlag
	}
	if path == "" {
		path = "config.toml"
	}

	return cliOptions{
		configPath:  path,
		checkOnly:   checkOnly,
		showVersion: showVer,
		prefetch:    prefetch,
	}, nil
}

func startHTTPServer(cfg *config.Config, rt *pipeline, logger *logrus.Logger) error {
	app, err := rt.newApp()
	if err != nil {
		return err
	}

	port := cfg.Global.ListenPort
	logger.WithFields(logrus.Fields{
		"action": "listen",
		"port":   port,
	}).Info("Fiber 服务启动")

	return app.Listen(fmt.Sprintf(":%d", port))
}
