package utils

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

// DetectMentions 返回 text 中被 "@名字" 提及的用户 uid，按目录顺序去重。
// 名字之后必须是文本结尾或非单词字符，因此 "@Alice" 不会提及名为 "Al" 的用户；
// 同一个 @ 位置能匹配多个名字时（"Jordan" 与 "Jordan Lee"）只取最长的那个。
func DetectMentions(text string, users []*domain.User) []string {
	winners := make(map[int]*domain.User) // @ 的字节位置 -> 匹配到的最长名字的用户

	for _, user := range users {
		if user.Name == "" {
			continue
		}
		for _, pos := range mentionPositions(text, "@"+user.Name) {
			if best, ok := winners[pos]; !ok || len(user.Name) > len(best.Name) {
				winners[pos] = user
			}
		}
	}

	won := make(map[string]bool, len(winners))
	for _, user := range winners {
		won[user.UID] = true
	}

	mentions := make([]string, 0, len(won))
	for _, user := range users {
		if won[user.UID] {
			mentions = append(mentions, user.UID)
			delete(won, user.UID)
		}
	}

	return mentions
}

func mentionPositions(text, token string) []int {
	var positions []int
	for offset := 0; offset < len(text); {
		idx := strings.Index(text[offset:], token)
		if idx < 0 {
			break
		}
		pos := offset + idx
		end := pos + len(token)
		if end == len(text) {
			positions = append(positions, pos)
			break
		}
		if next, _ := utf8.DecodeRuneInString(text[end:]); !isWordRune(next) {
			positions = append(positions, pos)
		}
		offset = pos + 1
	}
	return positions
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

var mentionQueryPattern = regexp.MustCompile(`(^|\s)@(\w*)$`)

// MentionQuery 检查光标前的文本是否正在输入一个 @ 提及，返回已输入的部分。
// cursor 以 rune 为单位，超出范围时按文本长度处理。
func MentionQuery(text string, cursor int) (string, bool) {
	before := prefixRunes(text, cursor)
	match := mentionQueryPattern.FindStringSubmatch(before)
	if match == nil {
		return "", false
	}
	return match[2], true
}

// FilterMentionCandidates 按名字做大小写不敏感的子串匹配
func FilterMentionCandidates(users []*domain.User, query string) []*domain.User {
	query = strings.ToLower(query)
	result := make([]*domain.User, 0)
	for _, user := range users {
		if user.Name == "" {
			continue
		}
		if strings.Contains(strings.ToLower(user.Name), query) {
			result = append(result, user)
		}
	}
	return result
}

var trailingMentionPattern = regexp.MustCompile(`@(\w*)$`)

// CompleteMention 把光标前未完成的 @ 标记替换成 "@name "，返回新文本和新的光标位置
func CompleteMention(text string, cursor int, name string) (string, int) {
	before := prefixRunes(text, cursor)
	after := text[len(before):]

	loc := trailingMentionPattern.FindStringIndex(before)
	if loc == nil {
		return text, utf8.RuneCountInString(before)
	}

	completed := before[:loc[0]] + "@" + name + " "
	return completed + after, utf8.RuneCountInString(completed)
}

func prefixRunes(text string, n int) string {
	if n < 0 {
		return ""
	}
	i := 0
	for pos := range text {
		if i == n {
			return text[:pos]
		}
		i++
	}
	return text
}
