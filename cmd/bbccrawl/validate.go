package main

import (
	"fmt"
	"strings"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

// ValidateTargetURL 验证URL格式
func ValidateTargetURL(urlStr string) error {
	if err := models.ValidateURL(urlStr); err != nil {
		return fmt.Errorf("无效的目标URL: %w", err)
	}
	return nil
}

// ValidateBatchFlags 验证批量抓取参数
func ValidateBatchFlags(category string, start, count int) error {
	if strings.TrimSpace(category) == "" {
		return fmt.Errorf("栏目名称不能为空")
	}
	if strings.ContainsAny(category, `/\`) {
		return fmt.Errorf("栏目名称不能包含路径分隔符: %s", category)
	}
	if start < 0 {
		return fmt.Errorf("起始位置不能为负数,当前值: %d", start)
	}
	if count < 1 {
		return fmt.Errorf("抓取数量必须大于0,当前值: %d", count)
	}
	return nil
}

// ValidateDatabaseFlags 验证入库参数
func ValidateDatabaseFlags(driver, dsn string) error {
	validDrivers := map[string]bool{
		"mysql":   true,
		"sqlite":  true,
		"sqlite3": true,
	}
	if !validDrivers[strings.ToLower(driver)] {
		return fmt.Errorf("无效的数据库驱动: %s (有效值: mysql, sqlite)", driver)
	}
	if dsn == "" {
		return fmt.Errorf("数据库连接串不能为空 (--dsn 或配置 database.dsn)")
	}
	return nil
}
