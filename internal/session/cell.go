package session

import (
	"slices"
	"sync"
)

// Cell 是一个可以被观察的值，每次 Set 都会通知当前所有订阅者
type Cell[T any] struct {
	mu     sync.Mutex
	value  T
	nextID int
	subs   map[int]func(T)
}

func NewCell[T any](initial T) *Cell[T] {
	return &Cell[T]{
		value: initial,
		subs:  make(map[int]func(T)),
	}
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Set 更新值并按订阅顺序同步通知订阅者，通知在锁外进行
func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.value = v
	ids := make([]int, 0, len(c.subs))
	for id := range c.subs {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	fns := make([]func(T), 0, len(ids))
	for _, id := range ids {
		fns = append(fns, c.subs[id])
	}
	c.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Subscribe 注册一个订阅者，返回的函数用于取消订阅，可以重复调用
func (c *Cell[T]) Subscribe(fn func(T)) func() {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.subs[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
		})
	}
}

func (c *Cell[T]) Subscribers() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.subs)
}
