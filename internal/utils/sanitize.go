package utils

import (
	"regexp"
	"strings"
)

var scriptTagPattern = regexp.MustCompile(`(?is)<script.*?>.*?</script>`)

// SanitizeText 去掉 script 标签及其内容，再去掉首尾空白
func SanitizeText(input string) string {
	return strings.TrimSpace(scriptTagPattern.ReplaceAllString(input, ""))
}
