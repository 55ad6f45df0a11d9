// Package extract 从BBC学习英语页面中定位文章区域并提取元数据
//
// 解析、标题拆分、资源链接识别、噪声清理和移动端页面生成都在这里完成,
// 不发起任何网络请求。
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html/charset"
)

// ErrArticleMissing 页面中没有文章区域
var ErrArticleMissing = errors.New("页面中未找到文章区域 div[role=article]")

// articleSelector 文章区域
const articleSelector = `div[role="article"]`

// Parse 识别编码并解析HTML
// contentType 为响应头 Content-Type,可为空
func Parse(body []byte, contentType string) (*goquery.Document, error) {
	enc, _, _ := charset.DetermineEncoding(body, contentType)
	data, err := enc.NewDecoder().Bytes(body)
	if err != nil {
		if !utf8.Valid(body) {
			return nil, fmt.Errorf("页面编码转换失败: %w", err)
		}
		data = body
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("HTML解析失败: %w", err)
	}
	return doc, nil
}

// LocateArticle 返回第一个文章区域
func LocateArticle(doc *goquery.Document) (*goquery.Selection, error) {
	article := doc.Find(articleSelector).First()
	if article.Length() == 0 {
		return nil, ErrArticleMissing
	}
	return article, nil
}

// LocateHeading 页面标题文本,未找到时返回空字符串
func LocateHeading(doc *goquery.Document, selector string) string {
	if selector == "" {
		return ""
	}
	return strings.TrimSpace(doc.Find(selector).First().Text())
}
