// Package storage 把记录文件导入数据库
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
	"github.com/RecoveryAshes/BBCCrawl/internal/utils"
)

// DefaultTable 默认表名
const DefaultTable = "bbc_english_articles"

// ArticleRow 对应数据库表 bbc_english_articles
type ArticleRow struct {
	ID uint `gorm:"primaryKey;autoIncrement"`

	// (article_id, category) 唯一,重复导入时更新
	ArticleID string `gorm:"column:article_id;type:varchar(20);not null;uniqueIndex:idx_article_category,priority:1"`
	Category  string `gorm:"column:category;type:varchar(50);not null;uniqueIndex:idx_article_category,priority:2"`

	URL   string `gorm:"column:url;type:varchar(255)"`
	Title string `gorm:"column:title;type:varchar(255)"` // 英文=中文
	Cover string `gorm:"column:cover;type:varchar(255)"`

	Mp3URL string `gorm:"column:mp3_url;type:varchar(255)"`
	Mp4URL string `gorm:"column:mp4_url;type:varchar(255)"` // 始终为空
	PdfURL string `gorm:"column:pdf_url;type:varchar(255)"`

	UpdateTime time.Time `gorm:"column:update_time;type:date"`
	Views      int       `gorm:"column:views"`
}

// TableName 指定表名
func (ArticleRow) TableName() string {
	return DefaultTable
}

// Open 连接数据库
// driver 为 mysql 或 sqlite; mysql 的DSN需带 parseTime=True
func Open(driver, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("数据库DSN不能为空")
	}

	var dialector gorm.Dialector
	switch strings.ToLower(driver) {
	case "mysql", "":
		dialector = mysql.Open(dsn)
	case "sqlite", "sqlite3":
		dialector = sqlite.Open(dsn)
	default:
		return nil, fmt.Errorf("不支持的数据库驱动: %s", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("连接数据库失败: %w", err)
	}
	return db, nil
}

// legacyTitle 旧记录文件只有 "title": "英文=中文" 字段
type legacyTitle struct {
	Joined string `json:"title"`
}

// ReadRecords 读取记录文件
func ReadRecords(path string) ([]models.ArticleRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("读取记录文件失败 [%s]: %w", path, err)
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("记录文件格式错误 [%s]: %w", path, err)
	}

	records := make([]models.ArticleRecord, 0, len(raw))
	for i, item := range raw {
		var rec models.ArticleRecord
		if err := rec.FromJSON(item); err != nil {
			return nil, fmt.Errorf("第 %d 条记录格式错误 [%s]: %w", i+1, path, err)
		}
		if rec.Title.IsEmpty() {
			var legacy legacyTitle
			if err := json.Unmarshal(item, &legacy); err == nil && legacy.Joined != "" {
				rec.Title = splitJoined(legacy.Joined)
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

// Loader 写入和读取文章表
type Loader struct {
	db    *gorm.DB
	table string
}

// NewLoader 创建导入器, table 为空时使用 DefaultTable
func NewLoader(db *gorm.DB, table string) *Loader {
	if table == "" {
		table = DefaultTable
	}
	return &Loader{db: db, table: table}
}

// Migrate 表不存在时创建
func (l *Loader) Migrate() error {
	if err := l.db.Table(l.table).AutoMigrate(&ArticleRow{}); err != nil {
		return fmt.Errorf("创建数据表失败 [%s]: %w", l.table, err)
	}
	return nil
}

// Load 导入记录,按 (article_id, category) 更新已有行
// 返回写入的行数
func (l *Loader) Load(records []models.ArticleRecord) (int, error) {
	if err := l.Migrate(); err != nil {
		return 0, err
	}
	if len(records) == 0 {
		utils.Warnf("没有需要导入的记录")
		return 0, nil
	}

	rows := make([]ArticleRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, toRow(rec))
	}

	result := l.db.Table(l.table).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "article_id"}, {Name: "category"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"url", "title", "cover", "mp3_url", "mp4_url", "pdf_url", "update_time", "views",
		}),
	}).CreateInBatches(&rows, 100)
	if result.Error != nil {
		return 0, fmt.Errorf("导入数据失败: %w", result.Error)
	}

	utils.Infof("已导入 %d 条记录到表 %s", len(rows), l.table)
	return len(rows), nil
}

// List 按栏目读取记录,category 为空时读取全部
func (l *Loader) List(category string) ([]models.ArticleRecord, error) {
	var rows []ArticleRow
	query := l.db.Table(l.table).Order("id")
	if category != "" {
		query = query.Where("category = ?", category)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询数据失败: %w", err)
	}

	records := make([]models.ArticleRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, fromRow(row))
	}
	return records, nil
}

func toRow(rec models.ArticleRecord) ArticleRow {
	return ArticleRow{
		ArticleID:  rec.ID,
		Category:   rec.Category,
		URL:        rec.URL,
		Title:      rec.Title.Joined(),
		Cover:      rec.CoverURL,
		Mp3URL:     rec.Mp3URL,
		Mp4URL:     "",
		PdfURL:     rec.PdfURL,
		UpdateTime: rec.UpdateDate.Time,
		Views:      rec.Views,
	}
}

func fromRow(row ArticleRow) models.ArticleRecord {
	return models.ArticleRecord{
		ID:         row.ArticleID,
		URL:        row.URL,
		Title:      splitJoined(row.Title),
		CoverURL:   row.Cover,
		Mp3URL:     row.Mp3URL,
		PdfURL:     row.PdfURL,
		UpdateDate: models.NewDate(row.UpdateTime),
		Views:      row.Views,
		Category:   row.Category,
	}
}

// splitJoined 拆分 "英文=中文"
func splitJoined(s string) models.Title {
	en, cn, _ := strings.Cut(s, "=")
	return models.Title{English: strings.TrimSpace(en), Chinese: strings.TrimSpace(cn)}
}
