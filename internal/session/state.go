package session

import (
	"slices"
	"time"
)

type State string

const (
	StateUnauthenticated State = "unauthenticated"
	StateAuthenticating  State = "authenticating"
	StateAuthenticated   State = "authenticated"
)

// Transition 描述一次认证状态的变化
type Transition struct {
	Identifier string
	UID        string
	From       State
	To         State
	At         time.Time
	Err        error
}

// validTransitions 列出状态机允许的所有转移
var validTransitions = map[State][]State{
	StateUnauthenticated: {StateAuthenticating},
	StateAuthenticating:  {StateAuthenticated, StateUnauthenticated},
	StateAuthenticated:   {StateUnauthenticated},
}

func CanTransition(from, to State) bool {
	return slices.Contains(validTransitions[from], to)
}

// attempt 跟踪一次登录、注册或登出请求自己的认证状态。
// 服务端同时为多个用户处理请求，Manager 持有的 Cell 是这些请求状态变化的事件流，
// 其中每个 Transition 的 From 都是该请求转移前的状态。
type attempt struct {
	identifier string
	uid        string
	state      State
	cell       *Cell[Transition]
}

func newAttempt(cell *Cell[Transition], identifier, uid string, initial State) *attempt {
	return &attempt{
		identifier: identifier,
		uid:        uid,
		state:      initial,
		cell:       cell,
	}
}

// advance 转移到 to 并发布到 Cell，非法转移不会发布，返回 false
func (a *attempt) advance(to State, err error) bool {
	if !CanTransition(a.state, to) {
		return false
	}
	tr := Transition{
		Identifier: a.identifier,
		UID:        a.uid,
		From:       a.state,
		To:         to,
		At:         time.Now(),
		Err:        err,
	}
	a.state = to
	a.cell.Set(tr)
	return true
}
