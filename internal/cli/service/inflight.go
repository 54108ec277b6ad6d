package service

import "sync"

// inflight отсекает повторный запуск мутации по ключу, пока первая не завершилась.
type inflight struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (g *inflight) acquire(key string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.keys == nil {
		g.keys = make(map[string]struct{})
	}
	if _, busy := g.keys[key]; busy {
		return false
	}
	g.keys[key] = struct{}{}
	return true
}

func (g *inflight) release(key string) {
	g.mu.Lock()
	delete(g.keys, key)
	g.mu.Unlock()
}
