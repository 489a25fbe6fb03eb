package domain

import (
	"slices"
	"time"
)

type CandidateStatus string

const (
	StatusPending     CandidateStatus = "pending"
	StatusActive      CandidateStatus = "active"
	StatusInterviewed CandidateStatus = "interviewed"
	StatusHired       CandidateStatus = "hired"
	StatusRejected    CandidateStatus = "rejected"
)

var candidateStatuses = []CandidateStatus{
	StatusPending,
	StatusActive,
	StatusInterviewed,
	StatusHired,
	StatusRejected,
}

func (s CandidateStatus) Valid() bool {
	return slices.Contains(candidateStatuses, s)
}

type Candidate struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Email         string          `json:"email"`
	Phone         string          `json:"phone,omitempty"`
	Location      string          `json:"location,omitempty"`
	Experience    string          `json:"experience,omitempty"`
	Role          string          `json:"role,omitempty"`
	Status        CandidateStatus `json:"status"`
	AssignedUsers []string        `json:"assignedUsers"`
	CreatedBy     string          `json:"createdBy"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// IsAssigned 判断 uid 是否在候选人的访问列表中
func (c *Candidate) IsAssigned(uid string) bool {
	return slices.Contains(c.AssignedUsers, uid)
}
