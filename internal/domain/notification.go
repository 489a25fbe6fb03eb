package domain

import "time"

type Notification struct {
	ID             string    `json:"id"`
	UserID         string    `json:"-"`
	CandidateID    string    `json:"candidateId"`
	CandidateName  string    `json:"candidateName"`
	NoteID         string    `json:"noteId"`
	MessagePreview string    `json:"messagePreview"`
	IsRead         bool      `json:"isRead"`
	CreatedAt      time.Time `json:"createdAt"`
}
