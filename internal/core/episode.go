package core

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/extract"
	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// regionRenderer 能等待指定区域出现的抓取器 (crawlers.Renderer)
type regionRenderer interface {
	Render(ctx context.Context, pageURL, waitSelector string) (*crawlers.Page, error)
}

// EpisodeOptions 单页导出配置
type EpisodeOptions struct {
	Template     models.PageTemplate
	BaseDir      string
	WaitAttempts int
	WaitInterval time.Duration

	Sleep SleepFunc
}

// EpisodeDumper 导出一分钟英语单页,不生成记录
type EpisodeDumper struct {
	fetcher crawlers.PageFetcher
	opts    EpisodeOptions
}

// NewEpisodeDumper 创建单页导出器
func NewEpisodeDumper(fetcher crawlers.PageFetcher, opts EpisodeOptions) *EpisodeDumper {
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.WaitAttempts <= 0 {
		opts.WaitAttempts = 1
	}
	if opts.BaseDir == "" {
		opts.BaseDir = "."
	}
	return &EpisodeDumper{fetcher: fetcher, opts: opts}
}

// Dump 抓取页面,删除噪声区域后写出 <base>/<category>/<id>.html
// 等待区域始终未出现时仍然写出,只记录警告
func (ed *EpisodeDumper) Dump(ctx context.Context, pageURL string) (string, error) {
	article, err := ed.waitForArticle(ctx, pageURL)
	if err != nil {
		return "", err
	}

	removed := extract.RemoveNoise(article, ed.opts.Template.NoiseRules)
	utils.Debugf("删除噪声区域 %d 处", removed)

	html, err := extract.RenderPage(article, ed.opts.Template.TrailingScript)
	if err != nil {
		return "", err
	}

	articleID := models.ArticleIDFromURL(pageURL)
	if articleID == "" {
		return "", fmt.Errorf("无法从URL提取文章ID: %s", pageURL)
	}
	path := filepath.Join(ed.opts.BaseDir, ed.opts.Template.Category, articleID+".html")
	if err := writeFile(path, html); err != nil {
		return "", err
	}
	utils.Infof("页面已保存到: %s", path)
	return path, nil
}

// waitForArticle 反复抓取,直到文章区域内出现 WaitSelector
func (ed *EpisodeDumper) waitForArticle(ctx context.Context, pageURL string) (*goquery.Selection, error) {
	wait := ed.opts.Template.WaitSelector
	var article *goquery.Selection

	for attempt := 1; attempt <= ed.opts.WaitAttempts; attempt++ {
		page, err := ed.fetch(ctx, pageURL, wait)
		if err != nil {
			return nil, err
		}
		doc, err := extract.Parse(page.Body, page.ContentType)
		if err != nil {
			return nil, err
		}
		article, err = extract.LocateArticle(doc)
		if err != nil {
			return nil, err
		}
		if wait == "" || article.Find(wait).Length() > 0 {
			return article, nil
		}

		utils.Debugf("第 %d/%d 次未找到 %s, 等待后重试", attempt, ed.opts.WaitAttempts, wait)
		if attempt < ed.opts.WaitAttempts {
			if err := ed.opts.Sleep(ctx, ed.opts.WaitInterval); err != nil {
				return nil, err
			}
		}
	}

	utils.Warnf("等待 %s 超时, 按当前内容保存: %s", wait, pageURL)
	return article, nil
}

func (ed *EpisodeDumper) fetch(ctx context.Context, pageURL, wait string) (*crawlers.Page, error) {
	if renderer, ok := ed.fetcher.(regionRenderer); ok && wait != "" {
		return renderer.Render(ctx, pageURL, wait)
	}
	return ed.fetcher.Fetch(ctx, pageURL)
}
