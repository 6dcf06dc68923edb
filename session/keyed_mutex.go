package session

import "sync"

// keyedMutex 提供按会话键的互斥：同一键串行，不同键并行。
// 用于把画像的 read-modify-write 串行化，堵住并发更新互相覆盖的窗口。
// 锁条目随键创建后不回收；会话规模在单进程部署下有限，可接受。
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[string]*sync.Mutex)}
}

// Lock 锁定指定键并返回解锁函数。
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &sync.Mutex{}
		k.locks[key] = l
	}
	k.mu.Unlock()

	l.Lock()
	return l.Unlock
}
