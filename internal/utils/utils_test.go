package utils

import (
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

func TestReporter_WriteRecords(t *testing.T) {
	dir := t.TempDir()
	reporter := NewReporter(dir)

	records := []models.ArticleRecord{{
		ID:         "ep-1",
		Title:      models.Title{English: "Tom & Jerry", Chinese: "猫和老鼠"},
		UpdateDate: models.NewDate(time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)),
		Views:      5000,
		Category:   "english-quizzes",
	}}

	path, err := reporter.WriteRecords("english-quizzes", records)
	if err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	if path != filepath.Join(dir, "english-quizzes_articles.json") {
		t.Errorf("路径 = %s", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "猫和老鼠") {
		t.Error("中文不应被转义")
	}
	if !strings.Contains(out, "Tom & Jerry") {
		t.Error("& 不应被转义")
	}
	if !strings.Contains(out, "\n        \"article_id\": \"ep-1\"") {
		t.Errorf("应使用四空格缩进:\n%s", out)
	}

	var decoded []models.ArticleRecord
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("解析失败: %v", err)
	}
	if len(decoded) != 1 || decoded[0] != records[0] {
		t.Errorf("往返不一致: %+v", decoded)
	}
}

func TestReporter_WriteRecordsEmpty(t *testing.T) {
	reporter := NewReporter(t.TempDir())
	path, err := reporter.WriteRecords("take-away-english", nil)
	if err != nil {
		t.Fatalf("写入失败: %v", err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("没有记录时应写出 [], 实际 %q", data)
	}
}

func TestReporter_WriteBatchReport(t *testing.T) {
	dir := t.TempDir()
	report := models.NewBatchReport("english-quizzes", "https://example.com/list", 0, 2)
	report.AddResult(models.ScrapeResult{URL: "https://example.com/a", Reason: models.ReasonFetchFailed, Err: errors.New("timeout")})
	report.Finish()

	path, err := NewReporter(dir).WriteBatchReport(report)
	if err != nil {
		t.Fatalf("写入报告失败: %v", err)
	}
	if filepath.Dir(path) != filepath.Join(dir, "reports") {
		t.Errorf("报告目录 = %s", filepath.Dir(path))
	}

	data, _ := os.ReadFile(path)
	var decoded models.BatchReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("解析报告失败: %v", err)
	}
	if decoded.RunID != report.RunID || decoded.FailedCount != 1 {
		t.Errorf("报告内容错误: %+v", decoded)
	}
}

func TestHeaderValidator(t *testing.T) {
	hv := NewHeaderValidator()

	tests := []struct {
		name    string
		header  string
		value   string
		wantErr bool
	}{
		{"合法头部", "Referer", "https://www.bbc.co.uk/", false},
		{"禁止的头部", "Host", "example.com", true},
		{"名称含空格", "Bad Name", "x", true},
		{"值含换行", "X-Test", "a\nb", true},
		{"值过长", "X-Test", strings.Repeat("a", MaxHeaderValueLength+1), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := hv.ValidateHeader(tt.header, tt.value)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			var ve *models.ValidationError
			if err != nil && !errors.As(err, &ve) {
				t.Errorf("错误类型应为 ValidationError: %T", err)
			}
		})
	}

	if err := hv.Validate(http.Header{"Accept": {"*/*"}, "Connection": {"close"}}); err == nil {
		t.Error("包含禁止头部时应返回错误")
	}
}

func TestHeaderRedactor(t *testing.T) {
	hr := NewHeaderRedactor()
	headers := http.Header{
		"Authorization": {"Bearer abcdef"},
		"Cookie":        {"session=1234567890"},
		"X-Api-Key":     {"short"},
		"Referer":       {"https://www.bbc.co.uk/"},
	}

	redacted := hr.Redact(headers)
	if redacted["Authorization"] != "Bearer ***" {
		t.Errorf("Authorization = %s", redacted["Authorization"])
	}
	if redacted["Cookie"] != "sess***7890" {
		t.Errorf("Cookie = %s", redacted["Cookie"])
	}
	if redacted["X-Api-Key"] != "***" {
		t.Errorf("X-Api-Key = %s", redacted["X-Api-Key"])
	}
	if redacted["Referer"] != "https://www.bbc.co.uk/" {
		t.Error("非敏感头部不应脱敏")
	}

	if got := hr.RedactToString(http.Header{"B": {"2"}, "A": {"1"}}); got != "A: 1, B: 2" {
		t.Errorf("RedactToString() = %q", got)
	}
}

func TestReadURLsFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "urls.txt")
	content := "# 随身英语\nhttps://www.bbc.co.uk/a\n\nnot-a-url\nhttp://www.bbc.co.uk/b\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	urls, err := ReadURLsFromFile(path)
	if err != nil {
		t.Fatalf("读取失败: %v", err)
	}
	if len(urls) != 2 || urls[0] != "https://www.bbc.co.uk/a" || urls[1] != "http://www.bbc.co.uk/b" {
		t.Errorf("urls = %v", urls)
	}

	empty := filepath.Join(t.TempDir(), "empty.txt")
	_ = os.WriteFile(empty, []byte("# nothing\n"), 0644)
	if _, err := ReadURLsFromFile(empty); err == nil {
		t.Error("没有有效URL时应返回错误")
	}

	if !FileExists(path) || FileExists(filepath.Dir(path)) {
		t.Error("FileExists 判断错误")
	}
}
