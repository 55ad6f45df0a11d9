package utils

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

// Reporter 写出批量抓取的结果文件
type Reporter struct {
	outputDir string
}

// NewReporter 创建报告生成器, outputDir 通常为 "output"
func NewReporter(outputDir string) *Reporter {
	return &Reporter{outputDir: outputDir}
}

// RecordsPath 记录文件路径: <outputDir>/<category>_articles.json
func (r *Reporter) RecordsPath(category string) string {
	return filepath.Join(r.outputDir, category+"_articles.json")
}

// WriteRecords 写出记录数组
// 没有记录时写出 "[]"; 中文不转义,四空格缩进
func (r *Reporter) WriteRecords(category string, records []models.ArticleRecord) (string, error) {
	if records == nil {
		records = []models.ArticleRecord{}
	}
	path := r.RecordsPath(category)
	if err := writeJSON(path, records, "    "); err != nil {
		return "", err
	}
	Infof("已保存 %d 条记录到 %s", len(records), path)
	return path, nil
}

// WriteBatchReport 写出批量报告: <outputDir>/reports/<category>_<时间>.json
func (r *Reporter) WriteBatchReport(report *models.BatchReport) (string, error) {
	name := fmt.Sprintf("%s_%s.json", report.Category, report.StartedAt.Format("20060102_150405"))
	path := filepath.Join(r.outputDir, "reports", name)
	if err := writeJSON(path, report, "  "); err != nil {
		return "", err
	}
	Debugf("保存报告: %s", path)
	return path, nil
}

// writeJSON 先写临时文件再重命名
func writeJSON(path string, data interface{}, indent string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败 [%s]: %w", filepath.Dir(path), err)
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", indent)
	if err := enc.Encode(data); err != nil {
		return fmt.Errorf("序列化JSON失败: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("写入文件失败 [%s]: %w", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("写入文件失败 [%s]: %w", path, err)
	}
	return nil
}

// NewProgressBar 创建进度条,输出到stderr
func NewProgressBar(max int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(max,
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(40),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionOnCompletion(func() {
			fmt.Fprintln(os.Stderr)
		}),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}
