package extract

import (
	"fmt"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

// ToMarkdown 将清理后的文章区域转换为Markdown
// 相对链接和图片地址按pageURL补全,不修改传入的节点
func ToMarkdown(article *goquery.Selection, pageURL string) (string, error) {
	region := article.Clone()
	region.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		a.SetAttr("href", models.ResolveURL(pageURL, a.AttrOr("href", "")))
	})
	region.Find("img[src]").Each(func(_ int, img *goquery.Selection) {
		img.SetAttr("src", models.ResolveURL(pageURL, img.AttrOr("src", "")))
	})

	content, err := goquery.OuterHtml(region)
	if err != nil {
		return "", fmt.Errorf("文章区域序列化失败: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	markdown, err := converter.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("Markdown转换失败: %w", err)
	}
	return markdown, nil
}
