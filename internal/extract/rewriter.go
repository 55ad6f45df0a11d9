package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

// ruleSelector 噪声规则对应的精确属性选择器
func ruleSelector(rule models.NoiseRule) string {
	tag := rule.Tag
	if tag == "" {
		tag = "*"
	}
	if rule.ID != "" {
		return fmt.Sprintf(`%s[id=%q]`, tag, rule.ID)
	}
	return fmt.Sprintf(`%s[class=%q]`, tag, rule.Class)
}

// RemoveNoise 按顺序删除噪声区域,返回删除的节点数
// class属性必须与规则完全相同,未匹配不是错误
func RemoveNoise(article *goquery.Selection, rules []models.NoiseRule) int {
	removed := 0
	for _, rule := range rules {
		if rule.Class == "" && rule.ID == "" {
			continue
		}
		matches := article.Find(ruleSelector(rule))
		removed += matches.Length()
		matches.Remove()
	}
	return removed
}

// RewriteCover 将封面图片src替换为发布地址
// 与下载是否成功无关; 没有封面节点时返回false
func RewriteCover(article *goquery.Selection, container, publishedURL string) bool {
	img := coverNode(article, container)
	if img == nil {
		return false
	}
	img.SetAttr("src", publishedURL)
	return true
}

const pageHead = `<!DOCTYPE html>
<html lang="zh">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <link rel="stylesheet" href="./style.css">
</head>
<body>
`

const pageScript = `    <script src="./script.js"></script>
`

const pageTail = `</body>
</html>
`

// RenderPage 把文章区域包装成移动端页面
func RenderPage(article *goquery.Selection, withScript bool) ([]byte, error) {
	content, err := goquery.OuterHtml(article)
	if err != nil {
		return nil, fmt.Errorf("文章区域序列化失败: %w", err)
	}

	var b strings.Builder
	b.Grow(len(pageHead) + len(content) + len(pageScript) + len(pageTail) + 8)
	b.WriteString(pageHead)
	b.WriteString("    ")
	b.WriteString(content)
	b.WriteString("\n")
	if withScript {
		b.WriteString(pageScript)
	}
	b.WriteString(pageTail)
	return []byte(b.String()), nil
}
