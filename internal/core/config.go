package core

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/viper"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// Config 应用程序配置
type Config struct {
	Request   RequestConfig                  `mapstructure:"request"`
	Output    OutputConfig                   `mapstructure:"output"`
	Publish   PublishConfig                  `mapstructure:"publish"`
	Batch     BatchConfig                    `mapstructure:"batch"`
	Episode   EpisodeConfig                  `mapstructure:"episode"`
	Render    RenderConfig                   `mapstructure:"render"`
	Logging   LoggingConfig                  `mapstructure:"logging"`
	Database  DatabaseConfig                 `mapstructure:"database"`
	Templates map[string]models.PageTemplate `mapstructure:"templates"`
}

// RequestConfig 请求配置
type RequestConfig struct {
	UserAgent       string        `mapstructure:"user_agent"`
	Timeout         time.Duration `mapstructure:"timeout"`
	DownloadTimeout time.Duration `mapstructure:"download_timeout"`
	HeadersFile     string        `mapstructure:"headers_file"`
}

// OutputConfig 输出配置
type OutputConfig struct {
	// BaseDir 栏目目录(HTML和资源)的父目录
	BaseDir string `mapstructure:"base_dir"`
	// JSONDir 记录文件和报告目录
	JSONDir string `mapstructure:"json_dir"`
	// Markdown 额外输出 <category>/md/<id>.md
	Markdown bool `mapstructure:"markdown"`
}

// PublishConfig 发布地址
type PublishConfig struct {
	AssetBase string `mapstructure:"asset_base"`
	PageBase  string `mapstructure:"page_base"`
}

// BatchConfig 列表页批量抓取配置
type BatchConfig struct {
	Category string        `mapstructure:"category"`
	ListURL  string        `mapstructure:"list_url"`
	Start    int           `mapstructure:"start"`
	Count    int           `mapstructure:"count"`
	MinDelay time.Duration `mapstructure:"min_delay"`
	MaxDelay time.Duration `mapstructure:"max_delay"`
	Progress bool          `mapstructure:"progress"`
	Report   bool          `mapstructure:"report"`
}

// EpisodeConfig 单页转存配置
type EpisodeConfig struct {
	Category     string        `mapstructure:"category"`
	WaitAttempts int           `mapstructure:"wait_attempts"`
	WaitInterval time.Duration `mapstructure:"wait_interval"`
}

// RenderConfig 浏览器渲染配置
type RenderConfig struct {
	Headless bool          `mapstructure:"headless"`
	BinPath  string        `mapstructure:"bin_path"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

// LoggingConfig 日志配置
type LoggingConfig struct {
	Level    string         `mapstructure:"level"`
	LogDir   string         `mapstructure:"log_dir"`
	NoColor  bool           `mapstructure:"no_color"`
	Rotation RotationConfig `mapstructure:"rotation"`
}

// RotationConfig 日志轮转配置
type RotationConfig struct {
	MaxSize    int  `mapstructure:"max_size"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAge     int  `mapstructure:"max_age"`
	Compress   bool `mapstructure:"compress"`
}

// DatabaseConfig 入库配置
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // mysql 或 sqlite
	DSN    string `mapstructure:"dsn"`
	Table  string `mapstructure:"table"`
}

// LoadConfig 加载配置文件,文件不存在时使用默认值
func LoadConfig(configPath string) (*Config, error) {
	v := viper.New()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bbccrawl"))
		}
	}

	v.SetEnvPrefix("BBCCRAWL")
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, &models.ConfigError{FilePath: configPath, Cause: err}
		}
	} else {
		utils.Debugf("使用配置文件: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &config, nil
}

// setDefaults 设置默认配置值
func setDefaults(v *viper.Viper) {
	// 请求
	v.SetDefault("request.user_agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36")
	v.SetDefault("request.timeout", "10s")
	v.SetDefault("request.download_timeout", "30s")
	v.SetDefault("request.headers_file", "configs/headers.yaml")

	// 输出
	v.SetDefault("output.base_dir", ".")
	v.SetDefault("output.json_dir", "output")
	v.SetDefault("output.markdown", false)

	// 发布地址
	v.SetDefault("publish.asset_base", "https://774663576.github.io/reading_bbc")
	v.SetDefault("publish.page_base", "http://readingstuday.top/bbc")

	// 批量抓取
	v.SetDefault("batch.category", models.CategoryQuizzes)
	v.SetDefault("batch.list_url", "")
	v.SetDefault("batch.start", 0)
	v.SetDefault("batch.count", 499)
	v.SetDefault("batch.min_delay", "1s")
	v.SetDefault("batch.max_delay", "3s")
	v.SetDefault("batch.progress", true)
	v.SetDefault("batch.report", true)

	// 单页转存
	v.SetDefault("episode.category", models.CategoryMinute)
	v.SetDefault("episode.wait_attempts", 10)
	v.SetDefault("episode.wait_interval", "1s")

	// 浏览器
	v.SetDefault("render.headless", true)
	v.SetDefault("render.bin_path", "")
	v.SetDefault("render.timeout", "30s")

	// 日志
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.log_dir", "logs")
	v.SetDefault("logging.no_color", false)
	v.SetDefault("logging.rotation.max_size", 10)
	v.SetDefault("logging.rotation.max_backups", 3)
	v.SetDefault("logging.rotation.max_age", 28)
	v.SetDefault("logging.rotation.compress", true)

	// 入库
	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.table", "bbc_english_articles")
}

// LogConfig 转换为日志配置
func (c *Config) LogConfig() utils.LogConfig {
	return utils.LogConfig{
		Level:      c.Logging.Level,
		LogDir:     c.Logging.LogDir,
		MaxSize:    c.Logging.Rotation.MaxSize,
		MaxBackups: c.Logging.Rotation.MaxBackups,
		MaxAge:     c.Logging.Rotation.MaxAge,
		Compress:   c.Logging.Rotation.Compress,
		NoColor:    c.Logging.NoColor,
	}
}

// Template 查找栏目模板,配置文件中的模板优先
func (c *Config) Template(category string) models.PageTemplate {
	return models.LookupTemplate(category, c.Templates)
}

// Validate 检查配置取值
func (c *Config) Validate() error {
	if c.Request.Timeout <= 0 || c.Request.DownloadTimeout <= 0 {
		return fmt.Errorf("请求超时必须大于0")
	}
	if c.Batch.Start < 0 {
		return fmt.Errorf("起始位置不能为负数: %d", c.Batch.Start)
	}
	if c.Batch.Count < 1 {
		return fmt.Errorf("抓取数量必须大于0: %d", c.Batch.Count)
	}
	if c.Batch.MinDelay < 0 || c.Batch.MaxDelay < c.Batch.MinDelay {
		return fmt.Errorf("请求间隔无效: min=%s max=%s", c.Batch.MinDelay, c.Batch.MaxDelay)
	}
	if c.Episode.WaitAttempts < 1 {
		return fmt.Errorf("等待次数必须大于0: %d", c.Episode.WaitAttempts)
	}
	if c.Publish.AssetBase == "" || c.Publish.PageBase == "" {
		return fmt.Errorf("发布地址不能为空")
	}
	return nil
}
