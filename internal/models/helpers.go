package models

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/google/uuid"
)

// ValidateURL 检查是否为带主机名的 http/https 地址
func ValidateURL(urlStr string) error {
	parsed, err := url.Parse(strings.TrimSpace(urlStr))
	if err != nil {
		return fmt.Errorf("无效的URL: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL必须是HTTP或HTTPS协议: %s", urlStr)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL必须包含主机名: %s", urlStr)
	}
	return nil
}

// ResolveURL 以base为基准解析相对地址, 解析失败时原样返回
func ResolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// PublishedAssetURL 发布后资源地址: <base>/<category>/<kind>/<id><ext>
func PublishedAssetURL(base, category string, kind AssetKind, articleID string) string {
	return fmt.Sprintf("%s/%s/%s/%s%s", strings.TrimRight(base, "/"), category, kind, articleID, kind.Ext())
}

// PublishedPageURL 发布后页面地址: <base>/<category>/<id>.html
func PublishedPageURL(base, category, articleID string) string {
	return fmt.Sprintf("%s/%s/%s.html", strings.TrimRight(base, "/"), category, articleID)
}

// generateID 生成唯一ID
func generateID() string {
	return uuid.New().String()
}
