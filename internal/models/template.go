package models

import "fmt"

// 内置栏目名称
const (
	CategoryQuizzes  = "english-quizzes"
	CategoryTakeAway = "take-away-english"
	CategoryMinute   = "english-in-a-minute"
)

// NoiseRule 需要删除的噪声区域
// Tag必填; Class与元素class属性完全相等,或ID与元素id属性完全相等
type NoiseRule struct {
	Tag   string `mapstructure:"tag" json:"tag"`
	Class string `mapstructure:"class" json:"class,omitempty"`
	ID    string `mapstructure:"id" json:"id,omitempty"`
}

// String 便于日志输出
func (r NoiseRule) String() string {
	if r.ID != "" {
		return fmt.Sprintf("%s#%s", r.Tag, r.ID)
	}
	return fmt.Sprintf("%s[class=%q]", r.Tag, r.Class)
}

// PageTemplate 栏目页面模板
type PageTemplate struct {
	Category string `mapstructure:"category" json:"category"`

	// ListURL 栏目列表页 (单篇栏目可为空)
	ListURL string `mapstructure:"list_url" json:"list_url,omitempty"`

	// CoverContainer 封面图片所在容器的class
	CoverContainer string `mapstructure:"cover_container" json:"cover_container,omitempty"`

	// HeadingSelector 页面内标题选择器 (列表页未提供标题时使用)
	HeadingSelector string `mapstructure:"heading_selector" json:"heading_selector,omitempty"`

	// WaitSelector 页面就绪的标志区域 (一分钟英语的视频区域)
	WaitSelector string `mapstructure:"wait_selector" json:"wait_selector,omitempty"`

	// NoiseRules 按顺序删除的噪声区域
	NoiseRules []NoiseRule `mapstructure:"noise_rules" json:"noise_rules"`

	// TrailingScript 生成的HTML末尾是否引用 ./script.js
	TrailingScript bool `mapstructure:"trailing_script" json:"trailing_script"`
}

// articleNoise 测验和随身英语共用的噪声区域
var articleNoise = []NoiseRule{
	{Tag: "div", Class: "widget widget-pagelink widget-pagelink-next-activity"},
	{Tag: "div", Class: "widget widget-list widget-list-automatic"},
	{Tag: "div", Class: "clearfix"},
	{Tag: "div", Class: "widget widget-bbcle-featuresubheader"},
	{Tag: "div", ID: "heading-"},
	{Tag: "div", Class: "widget-container widget-container-right"},
}

// minuteNoise 一分钟英语页面的噪声区域
var minuteNoise = []NoiseRule{
	{Tag: "div", Class: "widget widget-pagelink widget-pagelink-next-activity"},
	{Tag: "div", Class: "widget widget-list widget-list-automatic"},
	{Tag: "div", Class: "widget widget-heading clear-left"},
	{Tag: "div", Class: "widget-container widget-container-right"},
	{Tag: "div", Class: "clearfix"},
	{Tag: "div", Class: "widget widget-bbcle-featuresubheader"},
	{Tag: "div", ID: "heading-intermediate-level"},
}

// BuiltinTemplates 返回内置栏目模板
func BuiltinTemplates() map[string]PageTemplate {
	return map[string]PageTemplate{
		CategoryQuizzes: {
			Category:        CategoryQuizzes,
			ListURL:         "https://www.bbc.co.uk/learningenglish/chinese/features/english-quizzes",
			CoverContainer:  "image-single",
			HeadingSelector: "div.widget.widget-heading.clear-left h3",
			NoiseRules:      append([]NoiseRule(nil), articleNoise...),
			TrailingScript:  true,
		},
		CategoryTakeAway: {
			Category:        CategoryTakeAway,
			ListURL:         "https://www.bbc.co.uk/learningenglish/chinese/features/take-away-english",
			CoverContainer:  "audio-player",
			HeadingSelector: "div.widget.widget-heading.clear-left h3",
			NoiseRules:      append([]NoiseRule(nil), articleNoise...),
			TrailingScript:  true,
		},
		CategoryMinute: {
			Category:     CategoryMinute,
			ListURL:      "https://www.bbc.co.uk/learningenglish/chinese/features/english-in-a-minute",
			WaitSelector: "div.video",
			NoiseRules:   append([]NoiseRule(nil), minuteNoise...),
		},
	}
}

// LookupTemplate 查找模板,未知栏目返回以测验模板为基础的通用模板
func LookupTemplate(category string, overrides map[string]PageTemplate) PageTemplate {
	if tpl, ok := overrides[category]; ok {
		if tpl.Category == "" {
			tpl.Category = category
		}
		return tpl
	}
	builtins := BuiltinTemplates()
	if tpl, ok := builtins[category]; ok {
		return tpl
	}
	tpl := builtins[CategoryQuizzes]
	tpl.Category = category
	tpl.ListURL = ""
	return tpl
}
