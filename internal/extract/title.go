package extract

import (
	"regexp"
	"strings"

	"github.com/RecoveryAshes/BBCCrawl/internal/models"
)

// latinThenHan 拉丁字母前缀 + 中文后缀
// 边界处出现中文标点时不会按预期拆分
var latinThenHan = regexp.MustCompile(`(?s)^([A-Za-z0-9\s'.,:;!?&()\-‘’"]+?)\s*(\p{Han}.*)$`)

// SplitTitle 拆分中英双语标题
//
// 含 "=" 时按第一个 "=" 拆分; 否则尝试 英文+中文 的模式;
// 都不匹配时整段作为英文标题,中文为空。不会返回错误。
func SplitTitle(raw string) models.Title {
	raw = strings.TrimSpace(raw)
	if en, cn, found := strings.Cut(raw, "="); found {
		return models.Title{
			English: strings.TrimSpace(en),
			Chinese: strings.TrimSpace(cn),
		}
	}

	if m := latinThenHan.FindStringSubmatch(raw); m != nil {
		return models.Title{
			English: strings.TrimSpace(m[1]),
			Chinese: strings.TrimSpace(m[2]),
		}
	}

	return models.Title{English: raw}
}
