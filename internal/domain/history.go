package domain

import "time"

const (
	ActionStatusUpdated = "Status Updated"
	ActionNoteEdited    = "Note Edited"
	ActionNoteDeleted   = "Note Deleted"
	ActionAccessGranted = "Access Granted"
)

// HistoryEvent 只追加、不修改
type HistoryEvent struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	Timestamp   time.Time `json:"timestamp"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	Action      string    `json:"action"`
	Details     string    `json:"details"`
}
