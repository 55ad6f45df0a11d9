package crawlers

import (
	"fmt"
	"runtime"
	"time"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// MinFreeMemory 启动浏览器渲染建议的最小可用内存
const MinFreeMemory = 512 * 1024 * 1024

// EnvironmentReport 运行环境检查结果
type EnvironmentReport struct {
	GoVersion string
	Platform  string

	TotalMemory     uint64
	AvailableMemory uint64
	MemoryPressure  string // "正常" / "偏高" / "严重"

	CPUUsage float64 // 百分比, 采样失败时为 -1

	BrowserPath  string
	BrowserFound bool
}

// RenderReady 是否具备浏览器渲染条件
func (e EnvironmentReport) RenderReady() bool {
	return e.BrowserFound && e.AvailableMemory >= MinFreeMemory
}

// Lines 便于逐行输出
func (e EnvironmentReport) Lines() []string {
	lines := []string{
		fmt.Sprintf("Go版本: %s", e.GoVersion),
		fmt.Sprintf("平台: %s", e.Platform),
		fmt.Sprintf("内存: 可用 %.2f GB / 总计 %.2f GB (%s)", gb(e.AvailableMemory), gb(e.TotalMemory), e.MemoryPressure),
	}
	if e.CPUUsage >= 0 {
		lines = append(lines, fmt.Sprintf("CPU使用率: %.1f%%", e.CPUUsage))
	} else {
		lines = append(lines, "CPU使用率: 未知")
	}
	if e.BrowserFound {
		lines = append(lines, fmt.Sprintf("浏览器: %s", e.BrowserPath))
	} else {
		lines = append(lines, "浏览器: 未找到 (episode --render 首次运行时会自动下载)")
	}
	return lines
}

func gb(b uint64) float64 {
	return float64(b) / (1024 * 1024 * 1024)
}

// CheckEnvironment 采样内存和CPU并查找本机浏览器
func CheckEnvironment() EnvironmentReport {
	report := EnvironmentReport{
		GoVersion: runtime.Version(),
		Platform:  runtime.GOOS + "/" + runtime.GOARCH,
		CPUUsage:  -1,
	}

	if vm, err := mem.VirtualMemory(); err != nil {
		utils.Warnf("获取系统内存失败: %v", err)
		report.MemoryPressure = "未知"
	} else {
		report.TotalMemory = vm.Total
		report.AvailableMemory = vm.Available
		report.MemoryPressure = memoryPressure(vm.Available, vm.Total)
	}

	if percentages, err := cpu.Percent(100*time.Millisecond, false); err != nil {
		utils.Warnf("获取CPU使用率失败: %v", err)
	} else if len(percentages) > 0 {
		report.CPUUsage = percentages[0]
	}

	report.BrowserPath, report.BrowserFound = launcher.LookPath()
	return report
}

// memoryPressure 按可用内存比例划分压力等级
func memoryPressure(available, total uint64) string {
	if total == 0 {
		return "未知"
	}
	ratio := float64(available) / float64(total)
	switch {
	case available < MinFreeMemory || ratio < 0.1:
		return "严重"
	case ratio < 0.25:
		return "偏高"
	default:
		return "正常"
	}
}
