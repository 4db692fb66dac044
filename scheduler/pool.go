package scheduler

import "sync"

// Pool runs submitted jobs on at most size goroutines, in FIFO order.
//
// A job counts as in flight until it returns, including whatever it
// submits before returning, so onIdle fires only when no job is queued or
// running.
type Pool struct {
	mu      sync.Mutex
	max     int
	queue   []job
	running int
	onIdle  func()
}

type job struct {
	key int
	fn  func()
}

// NewPool creates a pool. onIdle, if set, is called on the goroutine of
// the last job to finish.
func NewPool(size int, onIdle func()) *Pool {
	if size < 1 {
		size = 1
	}
	return &Pool{max: size, onIdle: onIdle}
}

// Submit queues fn under key and starts it when a worker is free.
func (p *Pool) Submit(key int, fn func()) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.queue = append(p.queue, job{key: key, fn: fn})
	p.startLocked()
}

func (p *Pool) startLocked() {
	for p.running < p.max && len(p.queue) > 0 {
		j := p.queue[0]
		p.queue = p.queue[1:]
		p.running++
		go p.run(j)
	}
}

func (p *Pool) run(j job) {
	defer func() {
		p.mu.Lock()
		p.running--
		p.startLocked()
		idle := p.running == 0 && len(p.queue) == 0
		p.mu.Unlock()
		if idle && p.onIdle != nil {
			p.onIdle()
		}
	}()
	j.fn()
}

// Clear drops every queued job and returns their keys. Running jobs are
// not affected.
func (p *Pool) Clear() []int {
	p.mu.Lock()
	defer p.mu.Unlock()
	keys := make([]int, len(p.queue))
	for i, j := range p.queue {
		keys[i] = j.key
	}
	p.queue = nil
	return keys
}

// Running returns the number of jobs executing.
func (p *Pool) Running() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

// Queued returns the number of jobs waiting for a worker.
func (p *Pool) Queued() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.queue)
}

// Size returns the maximum number of concurrent jobs.
func (p *Pool) Size() int { return p.max }
