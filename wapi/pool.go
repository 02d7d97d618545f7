package wapi

import (
	"context"
	"sync"
)

// pool runs record updates on a bounded set of workers. Submissions all
// happen before wait, so no close-vs-submit race handling is needed.
type pool struct {
	ch chan func()
	wg sync.WaitGroup
}

func newPool(size int) *pool {
	if size <= 0 {
		size = 1
	}
	p := &pool{ch: make(chan func(), size)}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for fn := range p.ch {
				fn()
			}
		}()
	}
	return p
}

func (p *pool) submit(ctx context.Context, fn func()) error {
	select {
	case p.ch <- fn:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// wait blocks until every submitted job has run. No submissions may follow.
func (p *pool) wait() {
	close(p.ch)
	p.wg.Wait()
}
