package extract

import (
	"errors"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

// ErrListMissing 列表页中没有课程列表
var ErrListMissing = errors.New("列表页中未找到文章列表")

const (
	listSelector = "div.widget.widget-bbcle-coursecontentlist"
	itemSelector = "li.course-content-item"
	linkSelector = "h2 a[href]"
)

// ListEntry 列表页中的一篇文章
type ListEntry struct {
	URL   string
	Title models.Title
}

// TitleIndex 文章URL到标题的映射
type TitleIndex map[string]models.Title

// Lookup 查找标题
func (ti TitleIndex) Lookup(pageURL string) (models.Title, bool) {
	if ti == nil {
		return models.Title{}, false
	}
	t, ok := ti[pageURL]
	return t, ok
}

// ExtractListing 按文档顺序提取列表页中的文章链接和标题
// 站点列表为旧在前,调用方负责反转
func ExtractListing(doc *goquery.Document, base string) ([]ListEntry, error) {
	list := doc.Find(listSelector).First()
	if list.Length() == 0 {
		return nil, ErrListMissing
	}

	entries := make([]ListEntry, 0)
	list.Find(itemSelector).Each(func(_ int, item *goquery.Selection) {
		link := item.Find(linkSelector).First()
		if link.Length() == 0 {
			return
		}
		href := strings.TrimSpace(link.AttrOr("href", ""))
		if href == "" {
			return
		}
		entries = append(entries, ListEntry{
			URL:   models.ResolveURL(base, href),
			Title: SplitTitle(link.Text()),
		})
	})
	return entries, nil
}

// BuildIndex 由列表条目构建标题索引
func BuildIndex(entries []ListEntry) TitleIndex {
	index := make(TitleIndex, len(entries))
	for _, e := range entries {
		index[e.URL] = e.Title
	}
	return index
}

// NewestFirst 反转为新在前并截取 [start, start+count) 窗口
// 窗口越界时截断,不返回错误
func NewestFirst(entries []ListEntry, start, count int) []ListEntry {
	reversed := make([]ListEntry, len(entries))
	for i, e := range entries {
		reversed[len(entries)-1-i] = e
	}
	if start < 0 {
		start = 0
	}
	if start >= len(reversed) || count <= 0 {
		return []ListEntry{}
	}
	end := start + count
	if end > len(reversed) {
		end = len(reversed)
	}
	return reversed[start:end]
}
