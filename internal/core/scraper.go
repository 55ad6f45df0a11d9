package core

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/extract"
	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

const (
	minViews = 5000
	maxViews = 10000
)

// AssetDownloader 下载单个资源
type AssetDownloader interface {
	Download(ctx context.Context, kind models.AssetKind, src, dest string) models.DownloadResult
}

// ScraperOptions 单篇抓取配置
type ScraperOptions struct {
	Template  models.PageTemplate
	BaseDir   string // 栏目目录的父目录
	AssetBase string
	PageBase  string
	Markdown  bool

	// 测试中注入
	Now  func() time.Time
	Rand *rand.Rand
}

// Scraper 抓取单篇文章: 下载资源、生成移动端页面并返回记录
type Scraper struct {
	fetcher    crawlers.PageFetcher
	downloader AssetDownloader
	opts       ScraperOptions
}

// NewScraper 创建单篇抓取器
func NewScraper(fetcher crawlers.PageFetcher, downloader AssetDownloader, opts ScraperOptions) *Scraper {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	return &Scraper{fetcher: fetcher, downloader: downloader, opts: opts}
}

// Category 抓取的栏目
func (s *Scraper) Category() string {
	return s.opts.Template.Category
}

// CategoryDir 栏目输出目录
func (s *Scraper) CategoryDir() string {
	return filepath.Join(s.opts.BaseDir, s.opts.Template.Category)
}

// AssetPath 资源本地路径: <base>/<category>/<kind>/<id><ext>
func (s *Scraper) AssetPath(kind models.AssetKind, articleID string) string {
	return filepath.Join(s.CategoryDir(), string(kind), articleID+kind.Ext())
}

// PagePath 页面本地路径: <base>/<category>/<id>.html
func (s *Scraper) PagePath(articleID string) string {
	return filepath.Join(s.CategoryDir(), articleID+".html")
}

// ScrapeArticle 抓取一篇文章
// titles 为列表页提供的标题,没有命中时使用页面标题
// 失败不会panic,原因码记录在结果中
func (s *Scraper) ScrapeArticle(ctx context.Context, pageURL string, titles extract.TitleIndex) models.ScrapeResult {
	result := models.ScrapeResult{URL: pageURL}
	fail := func(reason models.Reason, err error) models.ScrapeResult {
		result.Reason = reason
		result.Err = err
		utils.Errorf("处理文章失败 [%s] (%s): %v", pageURL, reason, err)
		return result
	}

	page, err := s.fetcher.Fetch(ctx, pageURL)
	if err != nil {
		return fail(models.ReasonFetchFailed, err)
	}

	doc, err := extract.Parse(page.Body, page.ContentType)
	if err != nil {
		return fail(models.ReasonParseFailed, err)
	}

	article, err := extract.LocateArticle(doc)
	if err != nil {
		return fail(models.ReasonArticleMissing, err)
	}

	articleID := models.ArticleIDFromURL(pageURL)
	if articleID == "" {
		return fail(models.ReasonParseFailed, fmt.Errorf("无法从URL提取文章ID"))
	}

	title, ok := titles.Lookup(pageURL)
	if !ok {
		title = extract.SplitTitle(extract.LocateHeading(doc, s.opts.Template.HeadingSelector))
	}
	if title.IsEmpty() {
		utils.Warnf("未找到文章标题: %s", pageURL)
	} else {
		utils.Infof("标题: %s", title.Joined())
	}

	assets := extract.CollectAssets(article, s.opts.Template.CoverContainer, pageURL)
	category := s.opts.Template.Category

	published := make(map[models.AssetKind]string, 3)
	for _, kind := range []models.AssetKind{models.AssetCover, models.AssetPDF, models.AssetMP3} {
		src := assets.Get(kind)
		if src == "" {
			result.Downloads = append(result.Downloads, models.DownloadResult{Kind: kind, Reason: models.ReasonAssetAbsent})
			continue
		}
		published[kind] = models.PublishedAssetURL(s.opts.AssetBase, category, kind, articleID)
		result.Downloads = append(result.Downloads, s.downloader.Download(ctx, kind, src, s.AssetPath(kind, articleID)))
	}

	removed := extract.RemoveNoise(article, s.opts.Template.NoiseRules)
	utils.Debugf("删除噪声区域 %d 处: %s", removed, pageURL)
	if coverURL, ok := published[models.AssetCover]; ok {
		extract.RewriteCover(article, s.opts.Template.CoverContainer, coverURL)
	}

	html, err := extract.RenderPage(article, s.opts.Template.TrailingScript)
	if err != nil {
		return fail(models.ReasonParseFailed, err)
	}

	pagePath := s.PagePath(articleID)
	if err := writeFile(pagePath, html); err != nil {
		return fail(models.ReasonWriteFailed, err)
	}
	utils.Infof("文章成功保存到: %s", pagePath)

	if s.opts.Markdown {
		s.writeMarkdown(article, pageURL, articleID)
	}

	result.Reason = models.ReasonOK
	result.Record = &models.ArticleRecord{
		ID:         articleID,
		URL:        models.PublishedPageURL(s.opts.PageBase, category, articleID),
		SourceURL:  pageURL,
		Title:      title,
		CoverURL:   published[models.AssetCover],
		Mp3URL:     published[models.AssetMP3],
		PdfURL:     published[models.AssetPDF],
		UpdateDate: models.NewDate(s.opts.Now()),
		Views:      minViews + s.opts.Rand.Intn(maxViews-minViews+1),
		Category:   category,
	}
	return result
}

// writeMarkdown 失败只记录警告
func (s *Scraper) writeMarkdown(article *goquery.Selection, pageURL, articleID string) {
	markdown, err := extract.ToMarkdown(article, pageURL)
	if err != nil {
		utils.Warnf("生成Markdown失败 [%s]: %v", pageURL, err)
		return
	}
	path := filepath.Join(s.CategoryDir(), "md", articleID+".md")
	if err := writeFile(path, []byte(markdown)); err != nil {
		utils.Warnf("写入Markdown失败 [%s]: %v", path, err)
	}
}

// writeFile 按需创建目录后写入
func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("无法创建目录 [%s]: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("写入文件失败 [%s]: %w", path, err)
	}
	return nil
}

// IsStructural 是否为页面结构问题(重试无意义)
func IsStructural(err error) bool {
	return errors.Is(err, extract.ErrArticleMissing) || errors.Is(err, extract.ErrListMissing)
}
