package models

import (
	"encoding/json"
	"time"
)

// BatchReport 一次批量抓取的报告
type BatchReport struct {
	// 任务信息
	RunID    string `json:"run_id"`
	Category string `json:"category"`
	ListURL  string `json:"list_url"`
	Start    int    `json:"start"`
	Count    int    `json:"count"`

	// 时间信息
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Duration   float64   `json:"duration"` // 秒

	// 统计信息
	ListedArticles   int `json:"listed_articles"`   // 列表页中的文章数
	SelectedArticles int `json:"selected_articles"` // 窗口内的文章数
	SucceededCount   int `json:"succeeded_count"`
	FailedCount      int `json:"failed_count"`

	// 文章明细
	Succeeded []string        `json:"succeeded"`
	Failed    []FailedArticle `json:"failed"`

	// 输出路径
	OutputFile string `json:"output_file"`
}

// FailedArticle 失败文章信息
type FailedArticle struct {
	URL       string `json:"url"`
	Reason    Reason `json:"reason"`
	ErrorMsg  string `json:"error_msg"`
	Transient bool   `json:"transient"`
}

// ToJSON 序列化为JSON
func (r *BatchReport) ToJSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}

// NewBatchReport 创建报告并分配运行ID
func NewBatchReport(category, listURL string, start, count int) *BatchReport {
	return &BatchReport{
		RunID:     generateID(),
		Category:  category,
		ListURL:   listURL,
		Start:     start,
		Count:     count,
		StartedAt: time.Now(),
		Succeeded: make([]string, 0),
		Failed:    make([]FailedArticle, 0),
	}
}

// AddResult 记录一篇文章的结果
func (r *BatchReport) AddResult(res ScrapeResult) {
	if res.OK() {
		r.SucceededCount++
		r.Succeeded = append(r.Succeeded, res.URL)
		return
	}
	r.FailedCount++
	r.Failed = append(r.Failed, FailedArticle{
		URL:       res.URL,
		Reason:    res.Reason,
		ErrorMsg:  res.ErrorMessage(),
		Transient: res.Reason.Transient(),
	})
}

// Finish 记录结束时间
func (r *BatchReport) Finish() {
	r.FinishedAt = time.Now()
	r.Duration = r.FinishedAt.Sub(r.StartedAt).Seconds()
}
