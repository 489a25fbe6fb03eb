package utils

import (
	"fmt"
	"unicode/utf8"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
)

const (
	MaxNotePageSize    = 100
	messagePreviewSize = 100
)

// ValidateCandidate 在写库前检查候选人的必填字段
func ValidateCandidate(c *domain.Candidate) error {
	if c.Name == "" {
		return fmt.Errorf("%w: 候选人姓名不能为空", domain.ErrValidation)
	}
	if c.Email == "" {
		return fmt.Errorf("%w: 候选人邮箱不能为空", domain.ErrValidation)
	}
	if c.Status != "" && !c.Status.Valid() {
		return fmt.Errorf("%w: 无效的候选人状态 %q", domain.ErrValidation, c.Status)
	}
	return nil
}

func ValidateNotePageSize(pageSize int) error {
	if pageSize <= 0 || pageSize > MaxNotePageSize {
		return fmt.Errorf("%w: 每页数量必须在 1 到 %d 之间", domain.ErrValidation, MaxNotePageSize)
	}
	return nil
}

// MessagePreview 超过 100 个字符时截取前 97 个字符并加上省略号
func MessagePreview(text string) string {
	if utf8.RuneCountInString(text) <= messagePreviewSize {
		return text
	}
	runes := []rune(text)
	return string(runes[:messagePreviewSize-3]) + "..."
}
