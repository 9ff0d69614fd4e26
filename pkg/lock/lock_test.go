package lock

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/JangWoody/woody-service-back/pkg/errors"
)

func TestLocal_MutualExclusion(t *testing.T) {
	l := NewLocal()
	key := SlotKey("2030-01-01", "10:00")

	var inside, maxInside int32
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock, err := l.Lock(context.Background(), key)
			if err != nil {
				t.Errorf("Lock 失败: %v", err)
				return
			}
			n := atomic.AddInt32(&inside, 1)
			for {
				m := atomic.LoadInt32(&maxInside)
				if n <= m || atomic.CompareAndSwapInt32(&maxInside, m, n) {
					break
				}
			}
			time.Sleep(time.Millisecond)
			atomic.AddInt32(&inside, -1)
			unlock()
		}()
	}
	wg.Wait()

	if maxInside != 1 {
		t.Errorf("同一 key 同时持有者应为 1，实际=%d", maxInside)
	}
	if l.size() != 0 {
		t.Errorf("空闲 key 应被回收，剩余=%d", l.size())
	}
}

func TestLocal_DifferentKeysIndependent(t *testing.T) {
	l := NewLocal()
	u1, err := l.Lock(context.Background(), SlotKey("2030-01-01", "10:00"))
	if err != nil {
		t.Fatal(err)
	}
	defer u1()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	u2, err := l.Lock(ctx, SlotKey("2030-01-01", "11:00"))
	if err != nil {
		t.Fatalf("不同 key 不应互相阻塞: %v", err)
	}
	u2()
}

func TestLocal_ContextTimeout(t *testing.T) {
	l := NewLocal()
	key := SlotKey("2030-01-01", "10:00")
	unlock, _ := l.Lock(context.Background(), key)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := l.Lock(ctx, key)
	if !errors.Is(err, apperrors.ErrLockTimeout) {
		t.Fatalf("期望 ErrLockTimeout，实际: %v", err)
	}

	unlock()
	unlock() // 重复调用无副作用

	if l.size() != 0 {
		t.Errorf("超时等待者应释放引用，剩余=%d", l.size())
	}
}
