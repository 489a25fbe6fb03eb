package domain

import "time"

type Note struct {
	ID          string    `json:"id"`
	CandidateID string    `json:"candidateId"`
	Text        string    `json:"text"`
	AuthorID    string    `json:"authorId"`
	AuthorName  string    `json:"authorName"`
	CreatedAt   time.Time `json:"createdAt"`
	Mentions    []string  `json:"mentions"`
}

// NotePage 是分页读取备注的结果，NextCursor 为空表示没有更多数据
type NotePage struct {
	Notes      []*Note `json:"notes"`
	NextCursor string  `json:"nextCursor"`
}
