package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/extract"
	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

const (
	testHost      = "https://www.example.test"
	testListURL   = testHost + "/learningenglish/chinese/features/english-quizzes"
	testAssetBase = "https://cdn.example.test/reading_bbc"
	testPageBase  = "http://pages.example.test/bbc"
)

// fakeFetcher 按URL返回预置页面,并记录请求顺序
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string
	fail  map[string]error
	calls []string
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{pages: make(map[string]string), fail: make(map[string]error)}
}

func (f *fakeFetcher) Fetch(_ context.Context, pageURL string) (*crawlers.Page, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, pageURL)

	if err, ok := f.fail[pageURL]; ok {
		return nil, err
	}
	body, ok := f.pages[pageURL]
	if !ok {
		return nil, fmt.Errorf("HTTP状态码错误: 404 [%s]", pageURL)
	}
	return &crawlers.Page{URL: pageURL, StatusCode: 200, ContentType: "text/html; charset=utf-8", Body: []byte(body)}, nil
}

// articleCalls 只保留文章页请求
func (f *fakeFetcher) articleCalls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []string
	for _, c := range f.calls {
		if strings.Contains(c, "/ep-") && !strings.Contains(c, "/downloads/") && !strings.Contains(c, "/images/") {
			out = append(out, c)
		}
	}
	return out
}

func articleURL(id string) string {
	return testListURL + "/" + id
}

// articleHTML 生成文章页面; withPDF 控制是否包含文字稿链接
func articleHTML(id string, withPDF bool) string {
	pdf := ""
	if withPDF {
		pdf = fmt.Sprintf(`<a href="/downloads/%s.pdf">下载文字稿</a>`, id)
	}
	return fmt.Sprintf(`<html><body>
<div class="widget widget-heading clear-left"><h3>Heading %s 标题</h3></div>
<div role="article">
  <div class="widget widget-bbcle-featuresubheader">sub</div>
  <div class="widget widget-image image-single"><img src="/images/%s.jpg"></div>
  <p>Body of %s</p>
  %s
  <a href="/downloads/%s.mp3">下载音频</a>
  <div class="clearfix"></div>
</div>
</body></html>`, id, id, id, pdf, id)
}

func addArticle(f *fakeFetcher, id string, withPDF bool) {
	f.pages[articleURL(id)] = articleHTML(id, withPDF)
	f.pages[testHost+"/images/"+id+".jpg"] = "jpeg-bytes"
	f.pages[testHost+"/downloads/"+id+".mp3"] = "mp3-bytes"
	if withPDF {
		f.pages[testHost+"/downloads/"+id+".pdf"] = "pdf-bytes"
	}
}

func listHTML(ids ...string) string {
	var b strings.Builder
	b.WriteString(`<html><body><div class="widget widget-bbcle-coursecontentlist"><ul>`)
	for _, id := range ids {
		fmt.Fprintf(&b, `<li class="course-content-item"><h2><a href="/learningenglish/chinese/features/english-quizzes/%s">Title %s=标题%s</a></h2></li>`, id, id, id)
	}
	b.WriteString(`</ul></div></body></html>`)
	return b.String()
}

func newTestScraper(f *fakeFetcher, baseDir string) *Scraper {
	return NewScraper(f, crawlers.NewDownloader(f), ScraperOptions{
		Template:  models.BuiltinTemplates()[models.CategoryQuizzes],
		BaseDir:   baseDir,
		AssetBase: testAssetBase,
		PageBase:  testPageBase,
		Now:       func() time.Time { return time.Date(2025, 2, 3, 10, 0, 0, 0, time.Local) },
		Rand:      rand.New(rand.NewSource(1)),
	})
}

func TestScrapeArticle(t *testing.T) {
	f := newFakeFetcher()
	addArticle(f, "ep-250203", true)
	base := t.TempDir()

	titles := extract.TitleIndex{articleURL("ep-250203"): {English: "Animal idioms", Chinese: "动物习语"}}
	result := newTestScraper(f, base).ScrapeArticle(context.Background(), articleURL("ep-250203"), titles)
	if !result.OK() {
		t.Fatalf("抓取失败: %s %v", result.Reason, result.Err)
	}

	rec := result.Record
	cat := models.CategoryQuizzes
	if rec.ID != "ep-250203" || rec.Category != cat {
		t.Errorf("记录标识错误: %+v", rec)
	}
	if rec.English != "Animal idioms" || rec.Chinese != "动物习语" {
		t.Errorf("应使用列表标题: %+v", rec.Title)
	}
	if rec.URL != testPageBase+"/"+cat+"/ep-250203.html" {
		t.Errorf("URL = %s", rec.URL)
	}
	if rec.CoverURL != testAssetBase+"/"+cat+"/img/ep-250203.jpg" ||
		rec.PdfURL != testAssetBase+"/"+cat+"/pdf/ep-250203.pdf" ||
		rec.Mp3URL != testAssetBase+"/"+cat+"/mp3/ep-250203.mp3" {
		t.Errorf("资源地址错误: %+v", rec)
	}
	if rec.UpdateDate.String() != "2025-02-03" {
		t.Errorf("update_time = %s", rec.UpdateDate)
	}
	if rec.Views < 5000 || rec.Views > 10000 {
		t.Errorf("views越界: %d", rec.Views)
	}

	for _, rel := range []string{"img/ep-250203.jpg", "pdf/ep-250203.pdf", "mp3/ep-250203.mp3"} {
		if _, err := os.Stat(filepath.Join(base, cat, rel)); err != nil {
			t.Errorf("缺少资源文件 %s: %v", rel, err)
		}
	}

	html, err := os.ReadFile(filepath.Join(base, cat, "ep-250203.html"))
	if err != nil {
		t.Fatalf("读取页面失败: %v", err)
	}
	page := string(html)
	if !strings.Contains(page, `src="`+rec.CoverURL+`"`) {
		t.Error("封面地址应已替换为发布地址")
	}
	if strings.Contains(page, "featuresubheader") || strings.Contains(page, `class="clearfix"`) {
		t.Error("噪声区域应已删除")
	}
	if !strings.Contains(page, `<script src="./script.js"></script>`) {
		t.Error("测验页面应引用 script.js")
	}
}

func TestScrapeArticle_MissingPDF(t *testing.T) {
	f := newFakeFetcher()
	addArticle(f, "ep-1", false)
	base := t.TempDir()

	result := newTestScraper(f, base).ScrapeArticle(context.Background(), articleURL("ep-1"), nil)
	if !result.OK() {
		t.Fatalf("抓取失败: %v", result.Err)
	}
	if result.Record.PdfURL != "" {
		t.Errorf("没有文字稿时 pdf_url 应为空: %s", result.Record.PdfURL)
	}
	if result.Record.Mp3URL == "" {
		t.Error("mp3_url 不应为空")
	}
	if _, err := os.Stat(filepath.Join(base, models.CategoryQuizzes, "pdf")); !os.IsNotExist(err) {
		t.Error("不应创建 pdf 目录")
	}
	// 列表未提供标题时使用页面标题
	if result.Record.English != "Heading ep-1" || result.Record.Chinese != "标题" {
		t.Errorf("页面标题 = %+v", result.Record.Title)
	}
}

func TestScrapeArticle_Failures(t *testing.T) {
	f := newFakeFetcher()
	f.pages[articleURL("ep-empty")] = `<html><body><p>no article</p></body></html>`
	f.fail[articleURL("ep-down")] = errors.New("connection reset")
	scraper := newTestScraper(f, t.TempDir())

	tests := []struct {
		id   string
		want models.Reason
	}{
		{"ep-empty", models.ReasonArticleMissing},
		{"ep-down", models.ReasonFetchFailed},
		{"ep-404", models.ReasonFetchFailed},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			result := scraper.ScrapeArticle(context.Background(), articleURL(tt.id), nil)
			if result.OK() || result.Record != nil {
				t.Fatalf("应失败: %+v", result)
			}
			if result.Reason != tt.want {
				t.Errorf("Reason = %s, 期望 %s", result.Reason, tt.want)
			}
		})
	}
	if !IsStructural(extract.ErrArticleMissing) {
		t.Error("缺少文章区域应视为结构问题")
	}
}

func TestScrapeArticle_Markdown(t *testing.T) {
	f := newFakeFetcher()
	addArticle(f, "ep-md", true)
	base := t.TempDir()

	scraper := newTestScraper(f, base)
	scraper.opts.Markdown = true
	if result := scraper.ScrapeArticle(context.Background(), articleURL("ep-md"), nil); !result.OK() {
		t.Fatalf("抓取失败: %v", result.Err)
	}
	data, err := os.ReadFile(filepath.Join(base, models.CategoryQuizzes, "md", "ep-md.md"))
	if err != nil {
		t.Fatalf("缺少Markdown文件: %v", err)
	}
	if !strings.Contains(string(data), "Body of ep-md") {
		t.Errorf("Markdown内容 = %s", data)
	}
}

// fakeSleep 记录等待时长,不实际等待
type fakeSleep struct {
	delays []time.Duration
}

func (s *fakeSleep) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func newTestBatch(f *fakeFetcher, dir string, start, count int, sleeper *fakeSleep) *BatchCrawler {
	return NewBatchCrawler(f, newTestScraper(f, dir), utils.NewReporter(filepath.Join(dir, "output")), BatchOptions{
		Start:    start,
		Count:    count,
		MinDelay: time.Second,
		MaxDelay: 3 * time.Second,
		Report:   true,
		Sleep:    sleeper.sleep,
		Rand:     rand.New(rand.NewSource(7)),
	})
}

func readRecords(t *testing.T, path string) []models.ArticleRecord {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取记录文件失败: %v", err)
	}
	var records []models.ArticleRecord
	if err := json.Unmarshal(data, &records); err != nil {
		t.Fatalf("记录文件格式错误: %v", err)
	}
	return records
}

func TestBatchRun_NewestFirstWindow(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testListURL] = listHTML("ep-a", "ep-b", "ep-c")
	for _, id := range []string{"ep-a", "ep-b", "ep-c"} {
		addArticle(f, id, true)
	}
	dir := t.TempDir()
	sleeper := &fakeSleep{}

	summary, err := newTestBatch(f, dir, 0, 2, sleeper).Run(context.Background(), testListURL)
	if err != nil {
		t.Fatalf("批量抓取失败: %v", err)
	}

	got := f.articleCalls()
	want := []string{articleURL("ep-c"), articleURL("ep-b")}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("处理顺序 = %v, 期望 %v", got, want)
	}

	// 两篇文章之间只等待一次
	if len(sleeper.delays) != 1 {
		t.Fatalf("等待次数 = %d, 期望 1", len(sleeper.delays))
	}
	if d := sleeper.delays[0]; d < time.Second || d > 3*time.Second {
		t.Errorf("等待时长越界: %s", d)
	}

	records := readRecords(t, summary.OutputFile)
	if len(records) != 2 || records[0].ID != "ep-c" || records[1].ID != "ep-b" {
		t.Fatalf("记录 = %+v", records)
	}
	if records[0].English != "Title ep-c" || records[0].Chinese != "标题ep-c" {
		t.Errorf("应使用列表标题: %+v", records[0].Title)
	}
	if summary.Report.ListedArticles != 3 || summary.Report.SelectedArticles != 2 || summary.Report.SucceededCount != 2 {
		t.Errorf("报告统计错误: %+v", summary.Report)
	}
	if summary.ReportFile == "" {
		t.Error("应写出批量报告")
	}
}

func TestBatchRun_WindowPastEnd(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testListURL] = listHTML("ep-a", "ep-b", "ep-c", "ep-d")
	for _, id := range []string{"ep-a", "ep-b", "ep-c", "ep-d"} {
		addArticle(f, id, true)
	}
	sleeper := &fakeSleep{}

	summary, err := newTestBatch(f, t.TempDir(), 2, 10, sleeper).Run(context.Background(), testListURL)
	if err != nil {
		t.Fatalf("批量抓取失败: %v", err)
	}
	if len(summary.Records) != 2 || summary.Records[0].ID != "ep-b" || summary.Records[1].ID != "ep-a" {
		t.Errorf("窗口 = %+v", summary.Records)
	}
	if len(sleeper.delays) != 1 {
		t.Errorf("等待次数 = %d", len(sleeper.delays))
	}
}

func TestBatchRun_ArticleFailureContinues(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testListURL] = listHTML("ep-a", "ep-b", "ep-c")
	addArticle(f, "ep-a", true)
	addArticle(f, "ep-c", false)
	f.pages[articleURL("ep-b")] = `<html><body>broken</body></html>`

	summary, err := newTestBatch(f, t.TempDir(), 0, 3, &fakeSleep{}).Run(context.Background(), testListURL)
	if err != nil {
		t.Fatalf("单篇失败不应中止批量: %v", err)
	}
	if summary.Report.SucceededCount != 2 || summary.Report.FailedCount != 1 {
		t.Fatalf("统计 = %+v", summary.Report)
	}
	if summary.Report.Failed[0].Reason != models.ReasonArticleMissing {
		t.Errorf("失败原因 = %s", summary.Report.Failed[0].Reason)
	}
	records := readRecords(t, summary.OutputFile)
	if len(records) != 2 || records[0].PdfURL != "" {
		t.Errorf("记录 = %+v", records)
	}
}

func TestBatchRun_ListFetchFailure(t *testing.T) {
	f := newFakeFetcher()
	dir := t.TempDir()
	sleeper := &fakeSleep{}

	summary, err := newTestBatch(f, dir, 0, 5, sleeper).Run(context.Background(), testListURL)
	if err == nil {
		t.Fatal("列表获取失败应返回错误")
	}
	if summary == nil || summary.OutputFile == "" {
		t.Fatal("列表获取失败仍应写出记录文件")
	}
	data, readErr := os.ReadFile(summary.OutputFile)
	if readErr != nil {
		t.Fatal(readErr)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("记录文件 = %q, 期望 []", data)
	}
	if len(sleeper.delays) != 0 || len(f.articleCalls()) != 0 {
		t.Error("不应处理任何文章")
	}
}

func TestBatchRun_Cancelled(t *testing.T) {
	f := newFakeFetcher()
	f.pages[testListURL] = listHTML("ep-a", "ep-b")
	addArticle(f, "ep-a", true)
	addArticle(f, "ep-b", true)

	ctx, cancel := context.WithCancel(context.Background())
	sleeper := &fakeSleep{}
	batch := newTestBatch(f, t.TempDir(), 0, 2, sleeper)
	batch.opts.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	summary, err := batch.Run(ctx, testListURL)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v", err)
	}
	if len(summary.Records) != 1 {
		t.Errorf("取消前完成的记录应保留: %d", len(summary.Records))
	}
	if len(readRecords(t, summary.OutputFile)) != 1 {
		t.Error("取消后仍应写出已完成的记录")
	}
}
