package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

const (
	// TranscriptMarker PDF文字稿链接文本中的标记
	TranscriptMarker = "文字稿"
	// AudioMarker 音频链接文本中的标记
	AudioMarker = "音频"
)

// Assets 文章中可下载的资源 (均为绝对地址,缺失时为空)
type Assets struct {
	Cover string
	PDF   string
	MP3   string
}

// Get 按类型取资源地址
func (a Assets) Get(kind models.AssetKind) string {
	switch kind {
	case models.AssetCover:
		return a.Cover
	case models.AssetPDF:
		return a.PDF
	case models.AssetMP3:
		return a.MP3
	}
	return ""
}

// ResolveAssets 查找PDF文字稿和MP3音频链接
// 每类取第一个符合条件的链接,相对地址按base解析
func ResolveAssets(article *goquery.Selection, base string) (pdfURL, mp3URL string) {
	article.Find("a[href]").EachWithBreak(func(_ int, a *goquery.Selection) bool {
		href := strings.TrimSpace(a.AttrOr("href", ""))
		if href == "" {
			return true
		}
		text := a.Text()
		lower := strings.ToLower(href)

		if pdfURL == "" && strings.Contains(text, TranscriptMarker) && strings.HasSuffix(lower, ".pdf") {
			pdfURL = models.ResolveURL(base, href)
		}
		if mp3URL == "" && strings.Contains(text, AudioMarker) &&
			(strings.HasSuffix(lower, ".mp3") || strings.Contains(lower, "/download/")) {
			mp3URL = models.ResolveURL(base, href)
		}
		return pdfURL == "" || mp3URL == ""
	})
	return pdfURL, mp3URL
}

// coverNode 封面容器内第一个带src的img
func coverNode(article *goquery.Selection, container string) *goquery.Selection {
	if container == "" {
		return nil
	}
	img := article.Find(classSelector("div", container) + " img[src]").First()
	if img.Length() == 0 {
		return nil
	}
	return img
}

// CoverImage 封面图片的绝对地址,没有封面时返回空
func CoverImage(article *goquery.Selection, container, base string) string {
	img := coverNode(article, container)
	if img == nil {
		return ""
	}
	return models.ResolveURL(base, img.AttrOr("src", ""))
}

// CollectAssets 一次性提取封面、文字稿和音频
func CollectAssets(article *goquery.Selection, container, base string) Assets {
	pdf, mp3 := ResolveAssets(article, base)
	return Assets{
		Cover: CoverImage(article, container, base),
		PDF:   pdf,
		MP3:   mp3,
	}
}

// classSelector 构造 tag.c1.c2 形式的选择器
func classSelector(tag, class string) string {
	fields := strings.Fields(class)
	if len(fields) == 0 {
		return tag
	}
	return tag + "." + strings.Join(fields, ".")
}
