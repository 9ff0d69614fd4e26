package lock

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/JangWoody/woody-service-back/pkg/errors"
)

// Locker 按 key 互斥的锁
// Lock 阻塞直到获得锁或 ctx 结束；返回的 unlock 必须且只能调用一次
type Locker interface {
	Lock(ctx context.Context, key string) (unlock func(), err error)
}

// SlotKey 生成槽位锁的 key
func SlotKey(date, slotTime string) string {
	return fmt.Sprintf("slot:%s:%s", date, slotTime)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// Local 进程内按 key 的互斥锁，空闲 key 会被回收
type Local struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewLocal 创建进程内 Locker
func NewLocal() *Local {
	return &Local{entries: make(map[string]*entry)}
}

func (l *Local) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, fmt.Errorf("%w: %s", apperrors.ErrLockTimeout, key)
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

func (l *Local) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size 返回当前持有或等待中的 key 数量
func (l *Local) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
