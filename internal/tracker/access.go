package tracker

import "github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"

func CanView(user *domain.User, c *domain.Candidate) bool {
	return user != nil && c.IsAssigned(user.UID)
}

// CanDelete 只有候选人的创建者可以删除
func CanDelete(user *domain.User, c *domain.Candidate) bool {
	return user != nil && user.UID == c.CreatedBy
}

func CanEditNote(user *domain.User, n *domain.Note) bool {
	return user != nil && user.UID == n.AuthorID
}
