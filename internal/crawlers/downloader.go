package crawlers

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// Downloader 下载文章资源到本地
// 目标文件已存在时直接返回,不发起请求; 失败只记录日志并体现在结果中
type Downloader struct {
	fetcher PageFetcher
}

// NewDownloader 创建下载器
func NewDownloader(fetcher PageFetcher) *Downloader {
	return &Downloader{fetcher: fetcher}
}

// Download 下载src到dest
func (d *Downloader) Download(ctx context.Context, kind models.AssetKind, src, dest string) models.DownloadResult {
	result := models.DownloadResult{Kind: kind, SourceURL: src, Path: dest}

	if src == "" {
		result.Reason = models.ReasonAssetAbsent
		return result
	}

	if _, err := os.Stat(dest); err == nil {
		utils.Infof("文件已存在,跳过下载: %s", dest)
		result.Reason = models.ReasonAssetExists
		return result
	}

	if err := d.fetchTo(ctx, src, dest); err != nil {
		utils.Errorf("下载文件失败 %s: %v", src, err)
		result.Reason = models.ReasonDownloadFailed
		result.Err = err
		return result
	}

	utils.Infof("文件下载成功: %s", dest)
	result.Reason = models.ReasonDownloaded
	return result
}

// fetchTo 写入临时文件后重命名,中断时不会留下不完整的目标文件
func (d *Downloader) fetchTo(ctx context.Context, src, dest string) error {
	page, err := d.fetcher.Fetch(ctx, src)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("无法创建目录 [%s]: %w", filepath.Dir(dest), err)
	}

	part := dest + ".part"
	if err := os.WriteFile(part, page.Body, 0644); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("写入文件失败 [%s]: %w", part, err)
	}
	if err := os.Rename(part, dest); err != nil {
		_ = os.Remove(part)
		return fmt.Errorf("重命名文件失败 [%s]: %w", dest, err)
	}
	return nil
}
