package handler

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/domain"
	"github.com/sysu-ecnc-dev/recruit-tracker/backend/internal/realtime"
)

const streamKeepAlive = 30 * time.Second

// serveSnapshots 以 Server-Sent Events 的形式推送快照，每个事件都是完整的当前状态。
// 客户端断开连接时取消订阅。
func serveSnapshots[T any](h *Handler, w http.ResponseWriter, r *http.Request, notFoundMsg string, subscribe func(onChange func([]T)) (*realtime.Subscription, error)) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		h.internalServerError(w, r, fmt.Errorf("response writer does not support flushing"))
		return
	}

	// 只保留最新的快照，推送跟不上时中间的快照可以丢弃
	latest := make(chan []T, 1)
	sub, err := subscribe(func(snapshot []T) {
		select {
		case <-latest:
		default:
		}
		latest <- snapshot
	})
	if err != nil {
		h.serviceError(w, r, err, notFoundMsg)
		return
	}
	defer sub.Cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ticker := time.NewTicker(streamKeepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case snapshot := <-latest:
			data, err := json.Marshal(snapshot)
			if err != nil {
				h.logInternalServerError(r, err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: snapshot\ndata: %s\n\n", data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (h *Handler) StreamNotes(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	serveSnapshots(h, w, r, "候选人不存在", func(onChange func([]*domain.Note)) (*realtime.Subscription, error) {
		return h.tracker.SubscribeNotes(r.Context(), myInfo, c.ID, onChange)
	})
}

func (h *Handler) StreamHistory(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)
	c := r.Context().Value(CandidateCtx).(*domain.Candidate)

	serveSnapshots(h, w, r, "候选人不存在", func(onChange func([]*domain.HistoryEvent)) (*realtime.Subscription, error) {
		return h.tracker.SubscribeHistory(r.Context(), myInfo, c.ID, onChange)
	})
}

func (h *Handler) StreamNotifications(w http.ResponseWriter, r *http.Request) {
	myInfo := r.Context().Value(MyInfoCtx).(*domain.User)

	serveSnapshots(h, w, r, "用户不存在", func(onChange func([]*domain.Notification)) (*realtime.Subscription, error) {
		return h.tracker.SubscribeNotifications(r.Context(), myInfo, onChange)
	})
}
