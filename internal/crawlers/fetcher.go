package crawlers

import (
	"context"
	"fmt"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

const (
	// DefaultUserAgent 默认User-Agent
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) " +
		"AppleWebKit/537.36 (KHTML, like Gecko) " +
		"Chrome/91.0.4472.124 Safari/537.36"

	// DefaultPageTimeout 页面请求超时
	DefaultPageTimeout = 10 * time.Second
	// DefaultDownloadTimeout 资源下载超时
	DefaultDownloadTimeout = 30 * time.Second
)

// Page 一次GET请求的结果
type Page struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// PageFetcher 获取页面内容
type PageFetcher interface {
	Fetch(ctx context.Context, pageURL string) (*Page, error)
}

// FetcherConfig 抓取器配置
type FetcherConfig struct {
	UserAgent string
	Timeout   time.Duration
	// MaxBodySize 响应体上限(字节), 0 表示不限制
	MaxBodySize int
}

// Fetcher 基于Colly的同步抓取器
// 每次请求在克隆的collector上注册回调,底层HTTP客户端共享
type Fetcher struct {
	collector      *colly.Collector
	headerProvider models.HeaderProvider
}

// NewFetcher 创建抓取器
func NewFetcher(cfg FetcherConfig, headerProvider models.HeaderProvider) *Fetcher {
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultPageTimeout
	}

	c := colly.NewCollector(
		colly.UserAgent(cfg.UserAgent),
		colly.AllowURLRevisit(),
		colly.MaxBodySize(cfg.MaxBodySize),
	)
	c.SetRequestTimeout(cfg.Timeout)

	return &Fetcher{
		collector:      c,
		headerProvider: headerProvider,
	}
}

// Fetch 发起GET请求,非2xx状态视为失败
func (f *Fetcher) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	if err := models.ValidateURL(pageURL); err != nil {
		return nil, err
	}

	c := f.collector.Clone()
	if ctx != nil {
		c.Context = ctx
	}

	var (
		page    *Page
		respErr error
	)

	c.OnRequest(func(r *colly.Request) {
		if f.headerProvider == nil {
			return
		}
		headers, err := f.headerProvider.GetHeaders()
		if err != nil {
			utils.Warnf("获取HTTP头部失败: %v", err)
			return
		}
		for name, values := range headers {
			if len(values) > 0 {
				r.Headers.Set(name, values[0])
			}
		}
	})

	c.OnResponse(func(r *colly.Response) {
		if r.StatusCode < 200 || r.StatusCode > 299 {
			respErr = fmt.Errorf("HTTP状态码 %d", r.StatusCode)
			return
		}

		body := r.Body
		if encoding := r.Headers.Get("Content-Encoding"); encoding != "" {
			decoded, err := decompressResponse(encoding, body)
			if err != nil {
				respErr = fmt.Errorf("解压响应失败 (编码=%s): %w", encoding, err)
				return
			}
			body = decoded
		}

		page = &Page{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        body,
		}
	})

	utils.Debugf("请求: %s", pageURL)
	if err := c.Visit(pageURL); err != nil {
		return nil, fmt.Errorf("请求失败 [%s]: %w", pageURL, err)
	}
	if respErr != nil {
		return nil, fmt.Errorf("请求失败 [%s]: %w", pageURL, respErr)
	}
	if page == nil {
		return nil, fmt.Errorf("请求失败 [%s]: 没有收到响应", pageURL)
	}
	return page, nil
}
