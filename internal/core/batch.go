package core

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/extract"
	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// SleepFunc 文章之间的等待,ctx取消时提前返回
type SleepFunc func(ctx context.Context, d time.Duration) error

// BatchOptions 批量抓取配置
type BatchOptions struct {
	Start    int
	Count    int
	MinDelay time.Duration
	MaxDelay time.Duration
	Progress bool
	Report   bool

	Sleep SleepFunc
	Rand  *rand.Rand
}

// BatchCrawler 列表页批量抓取器
type BatchCrawler struct {
	fetcher  crawlers.PageFetcher
	scraper  *Scraper
	reporter *utils.Reporter
	opts     BatchOptions
}

// BatchSummary 批量抓取摘要
type BatchSummary struct {
	Report     *models.BatchReport
	Records    []models.ArticleRecord
	OutputFile string
	ReportFile string
}

// NewBatchCrawler 创建批量抓取器
func NewBatchCrawler(fetcher crawlers.PageFetcher, scraper *Scraper, reporter *utils.Reporter, opts BatchOptions) *BatchCrawler {
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.MaxDelay < opts.MinDelay {
		opts.MaxDelay = opts.MinDelay
	}
	return &BatchCrawler{
		fetcher:  fetcher,
		scraper:  scraper,
		reporter: reporter,
		opts:     opts,
	}
}

// Run 抓取列表页中从新到旧第 [start, start+count) 篇文章
// 列表获取失败时仍写出空记录文件,并返回错误
func (bc *BatchCrawler) Run(ctx context.Context, listURL string) (*BatchSummary, error) {
	category := bc.scraper.Category()
	report := models.NewBatchReport(category, listURL, bc.opts.Start, bc.opts.Count)
	summary := &BatchSummary{
		Report:  report,
		Records: make([]models.ArticleRecord, 0),
	}

	utils.Infof("开始批量抓取 [%s]: %s", category, listURL)
	entries, err := bc.fetchListing(ctx, listURL)
	if err != nil {
		if IsStructural(err) {
			utils.Errorf("列表页结构可能已变化: %v", err)
		} else {
			utils.Errorf("获取文章列表失败: %v", err)
		}
		bc.finish(summary)
		return summary, err
	}
	report.ListedArticles = len(entries)

	titles := extract.BuildIndex(entries)
	selected := extract.NewestFirst(entries, bc.opts.Start, bc.opts.Count)
	report.SelectedArticles = len(selected)
	utils.Infof("列表共 %d 篇, 本次处理 %d 篇", len(entries), len(selected))

	var bar *progressbar.ProgressBar
	if bc.opts.Progress && len(selected) > 0 {
		bar = utils.NewProgressBar(len(selected), category)
	}

	var runErr error
	for i, entry := range selected {
		if err := ctx.Err(); err != nil {
			utils.Warnf("批量抓取被取消, 已处理 %d/%d 篇", i, len(selected))
			runErr = err
			break
		}

		utils.Infof("正在处理第 %d/%d 篇文章: %s", i+1, len(selected), entry.URL)
		result := bc.scraper.ScrapeArticle(ctx, entry.URL, titles)
		report.AddResult(result)
		if result.OK() {
			summary.Records = append(summary.Records, *result.Record)
		}
		if bar != nil {
			_ = bar.Add(1)
		}

		// 最后一篇不需要等待
		if i < len(selected)-1 {
			delay := bc.nextDelay()
			utils.Debugf("等待 %.1f 秒后处理下一篇...", delay.Seconds())
			if err := bc.opts.Sleep(ctx, delay); err != nil {
				runErr = err
				break
			}
		}
	}

	if err := bc.finish(summary); err != nil && runErr == nil {
		runErr = err
	}
	return summary, runErr
}

func (bc *BatchCrawler) fetchListing(ctx context.Context, listURL string) ([]extract.ListEntry, error) {
	page, err := bc.fetcher.Fetch(ctx, listURL)
	if err != nil {
		return nil, err
	}
	doc, err := extract.Parse(page.Body, page.ContentType)
	if err != nil {
		return nil, fmt.Errorf("解析列表页失败: %w", err)
	}
	return extract.ExtractListing(doc, listURL)
}

// nextDelay 在 [MinDelay, MaxDelay] 内均匀取值
func (bc *BatchCrawler) nextDelay() time.Duration {
	span := bc.opts.MaxDelay - bc.opts.MinDelay
	if span <= 0 {
		return bc.opts.MinDelay
	}
	return bc.opts.MinDelay + time.Duration(bc.opts.Rand.Int63n(int64(span)+1))
}

// finish 写出记录文件和报告
func (bc *BatchCrawler) finish(summary *BatchSummary) error {
	report := summary.Report
	report.Finish()

	path, err := bc.reporter.WriteRecords(report.Category, summary.Records)
	if err != nil {
		utils.Errorf("保存记录失败: %v", err)
		return err
	}
	summary.OutputFile = path
	report.OutputFile = path

	if bc.opts.Report {
		reportPath, err := bc.reporter.WriteBatchReport(report)
		if err != nil {
			utils.Warnf("保存批量报告失败: %v", err)
		} else {
			summary.ReportFile = reportPath
		}
	}

	bc.printSummary(summary)
	return nil
}

// printSummary 打印批量抓取摘要
func (bc *BatchCrawler) printSummary(summary *BatchSummary) {
	report := summary.Report
	utils.Info("==================================================")
	utils.Infof("批量抓取摘要 [%s]", report.Category)
	utils.Infof("列表文章数: %d, 本次处理: %d", report.ListedArticles, report.SelectedArticles)
	utils.Infof("成功: %d, 失败: %d", report.SucceededCount, report.FailedCount)
	utils.Infof("总耗时: %.2f秒", report.Duration)
	utils.Infof("记录文件: %s", summary.OutputFile)
	utils.Info("==================================================")

	for _, failed := range report.Failed {
		utils.Warnf("  - %s (%s): %s", failed.URL, failed.Reason, failed.ErrorMsg)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
