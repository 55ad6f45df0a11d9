package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/BBCCrawl/internal/core"
	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

var (
	Version   = "dev"
	BuildTime = "unknown"
)

// 全局参数
var (
	configFile string
	verbose    bool
	logLevel   string
	headers    []string // 自定义HTTP请求头

	appConfig *core.Config
)

var rootCmd = &cobra.Command{
	Use:   "bbccrawl",
	Short: "BBC学习英语文章抓取工具",
	Long: `BBCCrawl - BBC学习英语栏目抓取工具

抓取栏目列表页中的文章,下载封面/文字稿/音频,生成移动端页面,
并输出可导入数据库的JSON记录:
  • list     按列表页批量抓取 (默认 english-quizzes)
  • article  抓取单篇文章 (如 take-away-english)
  • episode  转存一分钟英语页面
  • load     把记录文件导入 MySQL / SQLite
  • doctor   检查运行环境

示例:
  bbccrawl list --category english-quizzes --start 0 --count 20
  bbccrawl article https://www.bbc.co.uk/learningenglish/chinese/features/take-away-english/ep-250203
  bbccrawl episode --render https://www.bbc.co.uk/learningenglish/chinese/features/english-in-a-minute/ep-250101
  bbccrawl load --file output/english-quizzes_articles.json --dsn "user:pass@tcp(127.0.0.1:3306)/db?parseTime=True"

版本: ` + Version + `
构建时间: ` + BuildTime,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config, err := core.LoadConfig(configFile)
		if err != nil {
			return fmt.Errorf("加载配置失败: %w", err)
		}

		logConfig := config.LogConfig()
		// 命令行参数覆盖配置文件
		if logLevel != "" {
			logConfig.Level = logLevel
		} else if verbose {
			logConfig.Level = "debug"
		}
		if err := utils.InitLogger(logConfig); err != nil {
			return fmt.Errorf("初始化日志系统失败: %w", err)
		}

		if err := config.Validate(); err != nil {
			return fmt.Errorf("配置无效: %w", err)
		}
		appConfig = config

		if verbose {
			utils.Info("详细模式已启用")
		}
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "显示版本信息",
	// 不需要加载配置
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("BBCCrawl %s\n", Version)
		fmt.Printf("构建时间: %s\n", BuildTime)
	},
}

// signalContext Ctrl+C 时取消,已完成的记录仍会写出
func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan)
		select {
		case sig := <-sigChan:
			utils.Warnf("收到中断信号: %v, 正在保存已完成的结果...", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}

// newHeaderManager 按 默认 < 配置文件 < 命令行 合并请求头
func newHeaderManager() (*core.HeaderManager, error) {
	hm, err := core.NewHeaderManager(appConfig.Request.UserAgent, appConfig.Request.HeadersFile, headers)
	if err != nil {
		return nil, fmt.Errorf("创建HTTP头部管理器失败: %w", err)
	}
	return hm, nil
}

func newFetchers(hm *core.HeaderManager) (page, download *crawlers.Fetcher) {
	page = crawlers.NewFetcher(crawlers.FetcherConfig{
		UserAgent: appConfig.Request.UserAgent,
		Timeout:   appConfig.Request.Timeout,
	}, hm)
	download = crawlers.NewFetcher(crawlers.FetcherConfig{
		UserAgent: appConfig.Request.UserAgent,
		Timeout:   appConfig.Request.DownloadTimeout,
	}, hm)
	return page, download
}

// newScraper 创建指定栏目的单篇抓取器
func newScraper(category string, hm *core.HeaderManager) (*core.Scraper, *crawlers.Fetcher) {
	pageFetcher, downloadFetcher := newFetchers(hm)
	scraper := core.NewScraper(pageFetcher, crawlers.NewDownloader(downloadFetcher), core.ScraperOptions{
		Template:  appConfig.Template(category),
		BaseDir:   appConfig.Output.BaseDir,
		AssetBase: appConfig.Publish.AssetBase,
		PageBase:  appConfig.Publish.PageBase,
		Markdown:  appConfig.Output.Markdown,
	})
	return scraper, pageFetcher
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "配置文件路径")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "详细输出模式")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "日志级别 (trace|debug|info|warn|error)")
	rootCmd.PersistentFlags().StringSliceVarP(&headers, "header", "H", []string{}, "自定义HTTP头部,格式: 'Name: Value',可多次指定")

	rootCmd.AddCommand(listCmd, articleCmd, episodeCmd, loadCmd, doctorCmd, versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}
