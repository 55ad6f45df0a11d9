package main

import (
	"fmt"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/RecoveryAshes/BBCCrawl/internal/core"
	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/extract"
	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/storage"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// list 参数
var (
	listCategory string
	listURL      string
	listStart    int
	listCount    int
	noProgress   bool
	noReport     bool
)

// article 参数
var (
	articleCategory string
	articleFile     string
	articleSave     bool
)

// episode 参数
var (
	episodeCategory string
	episodeRender   bool
	episodeAttempts int
)

// load 参数
var (
	loadFile   string
	loadDriver string
	loadDSN    string
	loadTable  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "按栏目列表页批量抓取文章",
	Long: `从栏目列表页中取出全部文章,按从新到旧排序后抓取 [start, start+count) 范围内的文章。

结果写入 <json_dir>/<category>_articles.json,列表获取失败时写入空数组。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		category := flagOr(cmd, "category", listCategory, appConfig.Batch.Category)
		start := appConfig.Batch.Start
		if cmd.Flags().Changed("start") {
			start = listStart
		}
		count := appConfig.Batch.Count
		if cmd.Flags().Changed("count") {
			count = listCount
		}
		if err := ValidateBatchFlags(category, start, count); err != nil {
			return err
		}

		tpl := appConfig.Template(category)
		target := flagOr(cmd, "url", listURL, appConfig.Batch.ListURL)
		if target == "" {
			target = tpl.ListURL
		}
		if err := ValidateTargetURL(target); err != nil {
			return fmt.Errorf("栏目 %s 没有可用的列表页: %w", category, err)
		}

		hm, err := newHeaderManager()
		if err != nil {
			return err
		}
		scraper, pageFetcher := newScraper(category, hm)

		ctx, cancel := signalContext()
		defer cancel()

		batch := core.NewBatchCrawler(pageFetcher, scraper, utils.NewReporter(appConfig.Output.JSONDir), core.BatchOptions{
			Start:    start,
			Count:    count,
			MinDelay: appConfig.Batch.MinDelay,
			MaxDelay: appConfig.Batch.MaxDelay,
			Progress: appConfig.Batch.Progress && !noProgress,
			Report:   appConfig.Batch.Report && !noReport,
		})
		summary, err := batch.Run(ctx, target)
		if err != nil {
			return fmt.Errorf("批量抓取失败: %w", err)
		}

		utils.Infof("批量抓取完成: 成功 %d 篇, 失败 %d 篇", summary.Report.SucceededCount, summary.Report.FailedCount)
		return nil
	},
}

var articleCmd = &cobra.Command{
	Use:   "article [URL...]",
	Short: "抓取单篇文章并输出记录",
	Long: `抓取一篇或多篇文章,记录以JSON格式输出到标准输出。

标题取自页面标题区域; 使用 --save 时同时写入 <json_dir>/<category>_articles.json。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		urls := args
		if articleFile != "" {
			fromFile, err := utils.ReadURLsFromFile(articleFile)
			if err != nil {
				return err
			}
			urls = append(urls, fromFile...)
		}
		if len(urls) == 0 {
			return cmd.Help()
		}
		for _, u := range urls {
			if err := ValidateTargetURL(u); err != nil {
				return err
			}
		}

		hm, err := newHeaderManager()
		if err != nil {
			return err
		}
		scraper, _ := newScraper(articleCategory, hm)

		ctx, cancel := signalContext()
		defer cancel()

		records := make([]models.ArticleRecord, 0, len(urls))
		failed := 0
		for i, u := range urls {
			if ctx.Err() != nil {
				break
			}
			utils.Infof("正在处理第 %d/%d 篇文章: %s", i+1, len(urls), u)
			result := scraper.ScrapeArticle(ctx, u, extract.TitleIndex{})
			if !result.OK() {
				failed++
				continue
			}
			data, err := result.Record.ToJSON()
			if err != nil {
				return err
			}
			fmt.Println(string(data))
			records = append(records, *result.Record)
		}

		if articleSave {
			if _, err := utils.NewReporter(appConfig.Output.JSONDir).WriteRecords(articleCategory, records); err != nil {
				return err
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d 篇文章抓取失败", failed)
		}
		return ctx.Err()
	},
}

var episodeCmd = &cobra.Command{
	Use:   "episode URL",
	Short: "转存一分钟英语页面",
	Long: `等待页面中的视频区域出现后删除噪声区域,写出 <category>/<id>.html,不生成记录。

使用 --render 时通过无头浏览器加载页面。`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pageURL := args[0]
		if err := ValidateTargetURL(pageURL); err != nil {
			return err
		}
		category := flagOr(cmd, "category", episodeCategory, appConfig.Episode.Category)
		attempts := appConfig.Episode.WaitAttempts
		if cmd.Flags().Changed("attempts") {
			attempts = episodeAttempts
		}
		if attempts < 1 {
			return fmt.Errorf("等待次数必须大于0,当前值: %d", attempts)
		}

		hm, err := newHeaderManager()
		if err != nil {
			return err
		}

		var fetcher crawlers.PageFetcher
		if episodeRender {
			env := crawlers.CheckEnvironment()
			if !env.RenderReady() {
				utils.Warnf("可用内存不足或未找到浏览器, 渲染可能失败")
			}
			renderer := crawlers.NewRenderer(crawlers.RendererConfig{
				Headless:  appConfig.Render.Headless,
				BinPath:   appConfig.Render.BinPath,
				UserAgent: appConfig.Request.UserAgent,
				Timeout:   appConfig.Render.Timeout,
			}, hm)
			defer renderer.Close()
			fetcher = renderer
		} else {
			fetcher, _ = newFetchers(hm)
		}

		ctx, cancel := signalContext()
		defer cancel()

		dumper := core.NewEpisodeDumper(fetcher, core.EpisodeOptions{
			Template:     appConfig.Template(category),
			BaseDir:      appConfig.Output.BaseDir,
			WaitAttempts: attempts,
			WaitInterval: appConfig.Episode.WaitInterval,
		})
		path, err := dumper.Dump(ctx, pageURL)
		if err != nil {
			return fmt.Errorf("转存页面失败: %w", err)
		}
		fmt.Println(path)
		return nil
	},
}

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "把记录文件导入数据库",
	Long: `读取 list/article 生成的记录文件,按 (article_id, category) 写入数据表。

表不存在时自动创建; mysql 的DSN需要包含 parseTime=True。`,
	RunE: func(cmd *cobra.Command, args []string) error {
		driver := flagOr(cmd, "driver", loadDriver, appConfig.Database.Driver)
		dsn := flagOr(cmd, "dsn", loadDSN, appConfig.Database.DSN)
		table := flagOr(cmd, "table", loadTable, appConfig.Database.Table)
		if err := ValidateDatabaseFlags(driver, dsn); err != nil {
			return err
		}

		file := loadFile
		if file == "" {
			file = utils.NewReporter(appConfig.Output.JSONDir).RecordsPath(appConfig.Batch.Category)
		}
		if !utils.FileExists(file) {
			return fmt.Errorf("记录文件不存在: %s", file)
		}

		records, err := storage.ReadRecords(file)
		if err != nil {
			return err
		}
		db, err := storage.Open(driver, dsn)
		if err != nil {
			return err
		}
		sqlDB, err := db.DB()
		if err == nil {
			defer sqlDB.Close()
		}

		start := time.Now()
		n, err := storage.NewLoader(db, table).Load(records)
		if err != nil {
			return err
		}
		utils.Infof("数据插入完成: %d 条, 耗时 %.2f秒", n, time.Since(start).Seconds())
		return nil
	},
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "检查运行环境和请求头配置",
	RunE: func(cmd *cobra.Command, args []string) error {
		env := crawlers.CheckEnvironment()
		fmt.Println("==================================================")
		fmt.Println("运行环境")
		fmt.Println("==================================================")
		for _, line := range env.Lines() {
			fmt.Println("  " + line)
		}
		if env.RenderReady() {
			fmt.Println("  渲染模式: 可用")
		} else {
			fmt.Println("  渲染模式: 不可用")
		}

		hm, err := newHeaderManager()
		if err != nil {
			return err
		}
		if _, err := hm.GetHeaders(); err != nil {
			return fmt.Errorf("请求头配置验证失败: %w", err)
		}
		safeHeaders := hm.GetSafeHeaders()
		fmt.Printf("\nHTTP头部 (%d个):\n", len(safeHeaders))
		for _, line := range sortedLines(safeHeaders) {
			fmt.Println("  " + line)
		}

		fmt.Println("\n输出目录:")
		fmt.Printf("  页面和资源: %s\n", absPath(appConfig.Output.BaseDir))
		fmt.Printf("  记录文件: %s\n", absPath(appConfig.Output.JSONDir))
		return nil
	},
}

// flagOr 命令行显式指定时使用flag值,否则使用配置值
func flagOr(cmd *cobra.Command, name, flagValue, configValue string) string {
	if cmd.Flags().Changed(name) {
		return flagValue
	}
	return configValue
}

func sortedLines(values map[string]string) []string {
	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, name+": "+values[name])
	}
	return lines
}

func absPath(p string) string {
	if abs, err := filepath.Abs(p); err == nil {
		return abs
	}
	return p
}

func init() {
	listCmd.Flags().StringVar(&listCategory, "category", models.CategoryQuizzes, "栏目名称")
	listCmd.Flags().StringVarP(&listURL, "url", "u", "", "列表页地址 (默认使用栏目模板中的地址)")
	listCmd.Flags().IntVar(&listStart, "start", 0, "从新到旧的起始位置")
	listCmd.Flags().IntVar(&listCount, "count", 499, "抓取数量")
	listCmd.Flags().BoolVar(&noProgress, "no-progress", false, "不显示进度条")
	listCmd.Flags().BoolVar(&noReport, "no-report", false, "不写出批量报告")

	articleCmd.Flags().StringVar(&articleCategory, "category", models.CategoryTakeAway, "栏目名称")
	articleCmd.Flags().StringVarP(&articleFile, "file", "f", "", "包含文章地址的文件,每行一个")
	articleCmd.Flags().BoolVar(&articleSave, "save", false, "同时写入记录文件")

	episodeCmd.Flags().StringVar(&episodeCategory, "category", models.CategoryMinute, "栏目名称")
	episodeCmd.Flags().BoolVar(&episodeRender, "render", false, "使用无头浏览器加载页面")
	episodeCmd.Flags().IntVar(&episodeAttempts, "attempts", 10, "等待视频区域的最大次数")

	loadCmd.Flags().StringVarP(&loadFile, "file", "f", "", "记录文件 (默认 <json_dir>/<category>_articles.json)")
	loadCmd.Flags().StringVar(&loadDriver, "driver", "mysql", "数据库驱动 (mysql|sqlite)")
	loadCmd.Flags().StringVar(&loadDSN, "dsn", "", "数据库连接串")
	loadCmd.Flags().StringVar(&loadTable, "table", storage.DefaultTable, "数据表名")
}
