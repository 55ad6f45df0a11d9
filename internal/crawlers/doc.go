// Package crawlers 负责所有网络访问: 页面抓取、浏览器渲染和资源下载
//
// # 核心组件
//
// ## Fetcher
//
// 基于Colly的同步抓取器。每次请求克隆collector并注册一次性回调,
// 底层HTTP客户端和Cookie共享。非2xx状态码返回错误,br/deflate编码的响应会被解压。
//
//	fetcher := NewFetcher(FetcherConfig{Timeout: 10 * time.Second}, headerManager)
//	page, err := fetcher.Fetch(ctx, "https://www.bbc.co.uk/learningenglish/chinese/features/english-quizzes")
//
// ## Renderer
//
// 基于go-rod的渲染器,用于需要等待脚本生成内容的页面(一分钟英语的视频区域)。
// 浏览器在第一次使用时启动,调用方负责Close。
//
//	renderer := NewRenderer(RendererConfig{Headless: true}, headerManager)
//	defer renderer.Close()
//	page, err := renderer.Render(ctx, episodeURL, "div.video")
//
// ## Downloader
//
// 下载封面、PDF和MP3。目标文件已存在时不发请求;
// 先写入 .part 临时文件再重命名。失败不会向上抛出,只体现在 DownloadResult 中。
//
// ## CheckEnvironment
//
// doctor 命令使用的环境检查: 内存、CPU(gopsutil) 和本机浏览器(rod launcher)。
//
// # 并发
//
// 抓取流程是顺序执行的。Fetcher可以被多个goroutine共用,Renderer内部加锁串行渲染。
package crawlers
