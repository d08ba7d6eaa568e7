package i18n

import (
	"errors"
	"sort"
	"strings"
)

const DefaultLanguage = "zh_CN"

var ErrUnknownLanguage = errors.New("unknown language")

var languageNames = map[string]string{
	"zh_CN": "简体中文",
	"en_US": "English",
}

func GetLanguageName(code string) string {
	if name, ok := languageNames[normalize(code)]; ok {
		return name
	}
	return code
}

func Languages() []string {
	codes := make([]string, 0, len(languageNames))
	for code := range languageNames {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// normalize turns "zh-cn" and friends into "zh_CN".
func normalize(code string) string {
	lang, region, found := strings.Cut(strings.ReplaceAll(code, "-", "_"), "_")
	if !found {
		return strings.ToLower(lang)
	}
	return strings.ToLower(lang) + "_" + strings.ToUpper(region)
}
