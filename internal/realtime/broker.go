// Package realtime 基于 Redis 发布订阅实现实时快照推送。
//
// 写操作完成后向主题发布一条变更消息，订阅者收到消息后重新加载完整的有序快照并回调，
// 因此每次回调都是当前的完整状态而不是增量。
package realtime

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

const channelPrefix = "recruit-tracker:"

func NotesTopic(candidateID string) string {
	return "candidate:" + candidateID + ":notes"
}

func HistoryTopic(candidateID string) string {
	return "candidate:" + candidateID + ":history"
}

func NotificationsTopic(uid string) string {
	return "user:" + uid + ":notifications"
}

type Broker struct {
	client *redis.Client
}

func NewBroker(client *redis.Client) *Broker {
	return &Broker{client: client}
}

// Publish 通知主题的订阅者数据已经变化
func (b *Broker) Publish(ctx context.Context, topic string) error {
	return b.client.Publish(ctx, channelPrefix+topic, "changed").Err()
}

// Watcher 是能够按主题监听变更的实时后端，*Broker 实现了它
type Watcher interface {
	Watch(ctx context.Context, topic string, refresh func(context.Context) error) (*Subscription, error)
}

// Subscribe 订阅主题：先投递一次初始快照，此后每收到一条变更消息就重新加载并投递。
// 加载失败会被记录并跳过，订阅不会因此中断；订阅取消后加载出的快照不会再投递。
func Subscribe[T any](ctx context.Context, w Watcher, topic string, load func(context.Context) ([]T, error), onChange func([]T)) (*Subscription, error) {
	return w.Watch(ctx, topic, func(ctx context.Context) error {
		snapshot, err := load(ctx)
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		onChange(snapshot)
		return nil
	})
}

// Watch 是 Subscribe 的非泛型版本，refresh 负责加载并投递一次快照
func (b *Broker) Watch(ctx context.Context, topic string, refresh func(context.Context) error) (*Subscription, error) {
	pubsub := b.client.Subscribe(ctx, channelPrefix+topic)
	// 等待订阅确认，确保不会漏掉初始快照之后的变更
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	if err := refresh(ctx); err != nil {
		_ = pubsub.Close()
		return nil, err
	}

	subCtx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		topic:  topic,
		cancel: cancel,
		pubsub: pubsub,
		done:   make(chan struct{}),
	}

	// 所有后续回调都在这个协程中串行执行
	go func() {
		defer close(s.done)
		messages := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-messages:
				if !ok {
					return
				}
				if s.closed.Load() || subCtx.Err() != nil {
					return
				}
				if err := refresh(subCtx); err != nil && subCtx.Err() == nil {
					slog.Error("无法加载实时快照", "topic", topic, "error", err)
				}
			}
		}
	}()

	return s, nil
}

type Subscription struct {
	topic  string
	cancel context.CancelFunc
	pubsub *redis.PubSub
	done   chan struct{}

	closed atomic.Bool
	once   sync.Once
}

// Stop 停止订阅并释放 Redis 订阅，但不等待正在执行的回调，可以重复调用。
// 在回调内部结束订阅时使用 Stop，当前回调返回后不会再有新的回调。
func (s *Subscription) Stop() {
	s.once.Do(func() {
		s.closed.Store(true)
		s.cancel()
		_ = s.pubsub.Close()
	})
}

// Cancel 停止订阅并等待正在执行的回调和后台协程结束，可以重复调用。
// Cancel 返回后不会再有任何回调执行。不能在回调内部调用 Cancel，否则会一直等待自己。
func (s *Subscription) Cancel() {
	s.Stop()
	<-s.done
}

// Done 在后台投递协程退出后关闭
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}
