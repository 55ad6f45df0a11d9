package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// DateLayout 记录中日期字段的格式
const DateLayout = "2006-01-02"

// Date 仅包含年月日的日期,JSON中序列化为 "YYYY-MM-DD"
type Date struct {
	time.Time
}

// NewDate 截断时间部分
func NewDate(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// ParseDate 解析 "YYYY-MM-DD"
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("日期格式无效 [%s]: %w", s, err)
	}
	return Date{Time: t}, nil
}

// String 返回 "YYYY-MM-DD"
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

// MarshalJSON 实现json.Marshaler
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON 实现json.Unmarshaler
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Title 中英双语标题
type Title struct {
	English string `json:"title_en"`
	Chinese string `json:"title_cn"`
}

// Joined 返回 "英文=中文" 格式,中文为空时只返回英文
func (t Title) Joined() string {
	if t.Chinese == "" {
		return t.English
	}
	return t.English + "=" + t.Chinese
}

// IsEmpty 英文和中文都为空
func (t Title) IsEmpty() bool {
	return t.English == "" && t.Chinese == ""
}

// ArticleRecord 单篇文章的元数据记录
// 由一次成功的抓取生成,之后不再修改
type ArticleRecord struct {
	// 标识信息
	ID        string `json:"article_id"` // 源URL最后一段路径,如 ep-250203
	URL       string `json:"url"`        // 发布后的页面URL
	SourceURL string `json:"source_url"` // BBC原始页面URL

	// 标题
	Title

	// 发布后的资源URL (源页面没有该资源时为空)
	CoverURL string `json:"cover"`
	Mp3URL   string `json:"mp3_url"`
	PdfURL   string `json:"pdf_url"`

	UpdateDate Date   `json:"update_time"`
	Views      int    `json:"views"`
	Category   string `json:"category"`
}

// ToJSON 序列化为JSON
func (r *ArticleRecord) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "    ")
}

// FromJSON 从JSON反序列化
func (r *ArticleRecord) FromJSON(data []byte) error {
	return json.Unmarshal(data, r)
}

// ArticleIDFromURL 取URL最后一个斜杠后的部分作为文章ID
func ArticleIDFromURL(pageURL string) string {
	trimmed := pageURL
	if i := strings.IndexAny(trimmed, "?#"); i >= 0 {
		trimmed = trimmed[:i]
	}
	trimmed = strings.TrimRight(trimmed, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}
