package policy

import (
	"sync"

	"golang.org/x/sync/semaphore"
)

// pathSemaphores lazily allocates one weighted semaphore per path template,
// each capped at limit (§5.7 point 4's per-path-template concurrency ceiling).
type pathSemaphores struct {
	limit int

	mu   sync.Mutex
	sems map[string]*semaphore.Weighted
}

func newPathSemaphores(limit int) *pathSemaphores {
	return &pathSemaphores{limit: limit, sems: map[string]*semaphore.Weighted{}}
}

func (p *pathSemaphores) get(pathTemplate string) *semaphore.Weighted {
	p.mu.Lock()
	defer p.mu.Unlock()

	sem, ok := p.sems[pathTemplate]
	if !ok {
		sem = semaphore.NewWeighted(int64(p.limit))
		p.sems[pathTemplate] = sem
	}
	return sem
}
