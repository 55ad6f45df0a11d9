package utils

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func resetLogger(t *testing.T) {
	t.Cleanup(func() {
		Logger = zerolog.Nop()
		zerolog.SetGlobalLevel(zerolog.TraceLevel)
	})
}

func TestInitLogger(t *testing.T) {
	resetLogger(t)
	tempDir := t.TempDir()

	config := LogConfig{
		Level:   "debug",
		LogDir:  tempDir,
		MaxSize: 10,
		NoColor: true,
	}
	if err := InitLogger(config); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Infof("抓取文章: %s", "ep-250203")

	content, err := os.ReadFile(filepath.Join(tempDir, "bbc_crawler.log"))
	if err != nil {
		t.Fatalf("读取主日志失败: %v", err)
	}
	if !strings.Contains(string(content), "ep-250203") {
		t.Errorf("主日志缺少内容: %s", content)
	}
}

func TestErrorLogOnlyKeepsErrors(t *testing.T) {
	resetLogger(t)
	tempDir := t.TempDir()

	if err := InitLogger(LogConfig{Level: "info", LogDir: tempDir, MaxSize: 10, NoColor: true}); err != nil {
		t.Fatalf("初始化日志器失败: %v", err)
	}

	Infof("普通信息")
	Warnf("警告信息")
	Errorf("下载文件失败 %s", "https://example.com/a.mp3")
	Debugf("调试信息不应输出")

	errContent, err := os.ReadFile(filepath.Join(tempDir, "bbc_crawler_error.log"))
	if err != nil {
		t.Fatalf("读取错误日志失败: %v", err)
	}
	if strings.Contains(string(errContent), "普通信息") || strings.Contains(string(errContent), "警告信息") {
		t.Errorf("错误日志不应包含低级别日志: %s", errContent)
	}
	if !strings.Contains(string(errContent), "下载文件失败") {
		t.Errorf("错误日志缺少错误内容: %s", errContent)
	}

	mainContent, _ := os.ReadFile(filepath.Join(tempDir, "bbc_crawler.log"))
	if strings.Contains(string(mainContent), "调试信息不应输出") {
		t.Error("info级别下不应输出debug日志")
	}
	if !strings.Contains(string(mainContent), "普通信息") {
		t.Error("中文日志未正确写入")
	}
}

func TestInitLogger_ConsoleOnly(t *testing.T) {
	resetLogger(t)
	if err := InitLogger(LogConfig{Level: "not-a-level"}); err != nil {
		t.Fatalf("只输出到控制台时不应报错: %v", err)
	}
	if zerolog.GlobalLevel() != zerolog.InfoLevel {
		t.Errorf("无效级别应回退为info, 实际 %s", zerolog.GlobalLevel())
	}
}

func TestDefaultLogConfig(t *testing.T) {
	config := DefaultLogConfig()

	if config.Level != "info" {
		t.Errorf("默认日志级别错误: 期望 'info', 得到 '%s'", config.Level)
	}
	if config.LogDir != "logs" {
		t.Errorf("默认日志目录错误: 期望 'logs', 得到 '%s'", config.LogDir)
	}
	if config.MaxSize != 10 || config.MaxBackups != 3 || config.MaxAge != 28 {
		t.Errorf("默认轮转参数错误: %+v", config)
	}
	if !config.Compress {
		t.Error("默认应该启用压缩")
	}
}
