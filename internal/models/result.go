package models

// Reason 单个处理单元的结果原因码
type Reason string

const (
	ReasonOK             Reason = "ok"              // 成功
	ReasonFetchFailed    Reason = "fetch_failed"    // 网络/状态码错误
	ReasonParseFailed    Reason = "parse_failed"    // HTML无法解析
	ReasonArticleMissing Reason = "article_missing" // 页面缺少文章区域
	ReasonWriteFailed    Reason = "write_failed"    // 本地文件写入失败
	ReasonAssetAbsent    Reason = "asset_absent"    // 页面上没有该资源
	ReasonAssetExists    Reason = "asset_exists"    // 本地已存在,跳过下载
	ReasonDownloaded     Reason = "downloaded"      // 下载成功
	ReasonDownloadFailed Reason = "download_failed" // 下载失败
)

// Transient 是否为可重试的临时性失败
func (r Reason) Transient() bool {
	return r == ReasonFetchFailed || r == ReasonDownloadFailed
}

// AssetKind 资源类型
type AssetKind string

const (
	AssetCover AssetKind = "img"
	AssetPDF   AssetKind = "pdf"
	AssetMP3   AssetKind = "mp3"
)

// Ext 资源文件扩展名
func (k AssetKind) Ext() string {
	switch k {
	case AssetCover:
		return ".jpg"
	case AssetPDF:
		return ".pdf"
	case AssetMP3:
		return ".mp3"
	}
	return ""
}

// DownloadResult 单个资源的下载结果
type DownloadResult struct {
	Kind      AssetKind `json:"kind"`
	SourceURL string    `json:"source_url"`
	Path      string    `json:"path"`
	Reason    Reason    `json:"reason"`
	Err       error     `json:"-"`
}

// OK 资源已在本地(新下载或已存在)
func (d DownloadResult) OK() bool {
	return d.Reason == ReasonDownloaded || d.Reason == ReasonAssetExists
}

// ScrapeResult 单篇文章的抓取结果
type ScrapeResult struct {
	URL       string           `json:"url"`
	Record    *ArticleRecord   `json:"record,omitempty"`
	Reason    Reason           `json:"reason"`
	Err       error            `json:"-"`
	Downloads []DownloadResult `json:"downloads,omitempty"`
}

// OK 是否生成了记录
func (r ScrapeResult) OK() bool {
	return r.Reason == ReasonOK && r.Record != nil
}

// ErrorMessage 返回错误描述(无错误时为空)
func (r ScrapeResult) ErrorMessage() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
