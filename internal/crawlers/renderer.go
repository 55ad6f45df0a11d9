package crawlers

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// RendererConfig 浏览器渲染配置
type RendererConfig struct {
	Headless  bool
	BinPath   string // 为空时自动查找或下载浏览器
	UserAgent string
	Timeout   time.Duration

	// WaitTimeout 单次等待区域出现的时间,超时后返回当前HTML
	WaitTimeout time.Duration
}

// DefaultWaitTimeout 默认区域等待时间
const DefaultWaitTimeout = 5 * time.Second

// Renderer 使用无头浏览器获取页面
// 浏览器在第一次渲染时启动,Close后释放
type Renderer struct {
	config         RendererConfig
	headerProvider models.HeaderProvider

	mu       sync.Mutex
	launcher *launcher.Launcher
	browser  *rod.Browser
}

// NewRenderer 创建渲染器
func NewRenderer(cfg RendererConfig, headerProvider models.HeaderProvider) *Renderer {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultDownloadTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.WaitTimeout <= 0 || cfg.WaitTimeout > cfg.Timeout {
		cfg.WaitTimeout = min(DefaultWaitTimeout, cfg.Timeout)
	}
	return &Renderer{config: cfg, headerProvider: headerProvider}
}

// launchBrowser 启动并连接浏览器
func (r *Renderer) launchBrowser() error {
	l := launcher.New().Headless(r.config.Headless)
	if r.config.BinPath != "" {
		l = l.Bin(r.config.BinPath)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("启动浏览器失败: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return fmt.Errorf("连接浏览器失败: %w", err)
	}

	r.launcher = l
	r.browser = browser
	utils.Debugf("浏览器已启动: %s", controlURL)
	return nil
}

// Fetch 实现 PageFetcher, 不等待任何区域
func (r *Renderer) Fetch(ctx context.Context, pageURL string) (*Page, error) {
	return r.Render(ctx, pageURL, "")
}

// Render 打开页面,等待waitSelector出现后返回HTML
// 等待超过WaitTimeout时返回当前HTML,由调用方判断区域是否存在
// 整个过程受Timeout限制
func (r *Renderer) Render(ctx context.Context, pageURL, waitSelector string) (*Page, error) {
	if err := models.ValidateURL(pageURL); err != nil {
		return nil, err
	}
	if ctx == nil {
		ctx = context.Background()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		if err := r.launchBrowser(); err != nil {
			return nil, err
		}
	}

	page, err := r.browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		return nil, fmt.Errorf("创建标签页失败: %w", err)
	}
	defer func() {
		if closeErr := page.Close(); closeErr != nil {
			utils.Debugf("关闭标签页失败: %v", closeErr)
		}
	}()

	if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: r.config.UserAgent}); err != nil {
		utils.Warnf("设置User-Agent失败: %v", err)
	}
	if r.headerProvider != nil {
		if headers, err := r.headerProvider.GetHeaders(); err == nil {
			dict := make([]string, 0, len(headers)*2)
			for name, values := range headers {
				// User-Agent 和 Accept-Encoding 由浏览器自身管理
				if name == "User-Agent" || name == "Accept-Encoding" || len(values) == 0 {
					continue
				}
				dict = append(dict, name, values[0])
			}
			if len(dict) > 0 {
				if _, err := page.SetExtraHeaders(dict); err != nil {
					utils.Warnf("设置HTTP头部失败: %v", err)
				}
			}
		}
	}

	p := page.Context(ctx).Timeout(r.config.Timeout)

	if err := p.Navigate(pageURL); err != nil {
		return nil, fmt.Errorf("导航失败 [%s]: %w", pageURL, err)
	}
	if err := p.WaitLoad(); err != nil {
		return nil, fmt.Errorf("等待页面加载失败 [%s]: %w", pageURL, err)
	}
	if waitSelector != "" {
		_, err := p.Timeout(r.config.WaitTimeout).Element(waitSelector)
		if err := waitResult(ctx, err); err != nil {
			return nil, fmt.Errorf("等待区域 %s 失败 [%s]: %w", waitSelector, pageURL, err)
		}
		if err != nil {
			utils.Debugf("%s 内未出现 %s, 返回当前页面: %s", r.config.WaitTimeout, waitSelector, pageURL)
		}
	}

	html, err := p.HTML()
	if err != nil {
		return nil, fmt.Errorf("读取页面HTML失败 [%s]: %w", pageURL, err)
	}

	utils.Debugf("页面渲染完成: %s", pageURL)
	return &Page{
		URL:         pageURL,
		StatusCode:  200,
		ContentType: "text/html; charset=utf-8",
		Body:        []byte(html),
	}, nil
}

// waitResult 区域等待超时不算错误, ctx被取消或其他错误照常返回
func waitResult(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

// Close 关闭浏览器
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.browser == nil {
		return nil
	}
	err := r.browser.Close()
	if r.launcher != nil {
		r.launcher.Kill()
		r.launcher.Cleanup()
	}
	r.browser = nil
	r.launcher = nil
	utils.Debugf("浏览器已关闭")
	return err
}
