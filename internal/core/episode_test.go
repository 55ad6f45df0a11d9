package core

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/RecoveryAshes/BBCCrawl/internal/crawlers"
	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

const minutePending = `<html><body><div role="article">
<div class="widget widget-heading clear-left"><h3>Heading</h3></div>
<p>loading</p>
</div></body></html>`

const minuteReady = `<html><body><div role="article">
<div class="widget widget-heading clear-left"><h3>Heading</h3></div>
<div class="widget widget-pagelink widget-pagelink-next-activity">next</div>
<div class="video"><video src="clip.mp4"></video></div>
<div id="heading-intermediate-level">level</div>
<p>Episode text</p>
</div></body></html>`

// sequenceFetcher 依次返回预置页面,最后一个页面重复返回
type sequenceFetcher struct {
	bodies []string
	calls  int
}

func (s *sequenceFetcher) Fetch(_ context.Context, pageURL string) (*crawlers.Page, error) {
	i := s.calls
	if i >= len(s.bodies) {
		i = len(s.bodies) - 1
	}
	s.calls++
	return &crawlers.Page{URL: pageURL, StatusCode: 200, Body: []byte(s.bodies[i])}, nil
}

const minuteURL = "https://www.example.test/learningenglish/chinese/features/english-in-a-minute/ep-250101"

func newTestDumper(f crawlers.PageFetcher, dir string, attempts int, sleeper *fakeSleep) *EpisodeDumper {
	return NewEpisodeDumper(f, EpisodeOptions{
		Template:     models.BuiltinTemplates()[models.CategoryMinute],
		BaseDir:      dir,
		WaitAttempts: attempts,
		WaitInterval: time.Second,
		Sleep:        sleeper.sleep,
	})
}

func TestEpisodeDump_WaitsForVideo(t *testing.T) {
	f := &sequenceFetcher{bodies: []string{minutePending, minutePending, minuteReady}}
	dir := t.TempDir()
	sleeper := &fakeSleep{}

	path, err := newTestDumper(f, dir, 10, sleeper).Dump(context.Background(), minuteURL)
	if err != nil {
		t.Fatalf("导出失败: %v", err)
	}
	if f.calls != 3 || len(sleeper.delays) != 2 {
		t.Errorf("请求 %d 次, 等待 %d 次", f.calls, len(sleeper.delays))
	}
	if want := filepath.Join(dir, models.CategoryMinute, "ep-250101.html"); path != want {
		t.Errorf("路径 = %s, 期望 %s", path, want)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	page := string(data)
	if !strings.Contains(page, `class="video"`) || !strings.Contains(page, "Episode text") {
		t.Error("页面缺少视频或正文")
	}
	for _, noise := range []string{"widget-heading", "widget-pagelink", "heading-intermediate-level"} {
		if strings.Contains(page, noise) {
			t.Errorf("噪声区域未删除: %s", noise)
		}
	}
	if strings.Contains(page, "script.js") {
		t.Error("一分钟英语页面不应引用 script.js")
	}
}

func TestEpisodeDump_GivesUpAndWrites(t *testing.T) {
	f := &sequenceFetcher{bodies: []string{minutePending}}
	sleeper := &fakeSleep{}

	path, err := newTestDumper(f, t.TempDir(), 3, sleeper).Dump(context.Background(), minuteURL)
	if err != nil {
		t.Fatalf("超过等待次数仍应写出: %v", err)
	}
	if f.calls != 3 || len(sleeper.delays) != 2 {
		t.Errorf("请求 %d 次, 等待 %d 次", f.calls, len(sleeper.delays))
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("应写出页面: %v", err)
	}
}

func TestEpisodeDump_ArticleMissing(t *testing.T) {
	f := &sequenceFetcher{bodies: []string{`<html><body>nothing</body></html>`}}
	dir := t.TempDir()

	if _, err := newTestDumper(f, dir, 3, &fakeSleep{}).Dump(context.Background(), minuteURL); err == nil {
		t.Fatal("缺少文章区域应返回错误")
	}
	if _, err := os.Stat(filepath.Join(dir, models.CategoryMinute)); !os.IsNotExist(err) {
		t.Error("失败时不应创建目录")
	}
}
