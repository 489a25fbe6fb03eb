package handler

type ContextKey string

var (
	MyInfoCtx    ContextKey = "myInfo"
	SessionIDCtx ContextKey = "sessionID"
	CandidateCtx ContextKey = "candidate"
)
