// Copyright 2025 Agentic World, LLC (Sherin Thomas)
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sitediff

import (
	"context"
	"sync"
)

// fetchPool runs resource fetches on a fixed number of worker goroutines,
// capping concurrent outbound connections for one page crawl. A pool lives
// for a single fan-out phase: submit everything, then close to join.
type fetchPool struct {
	work chan func()
	wg   sync.WaitGroup
	ctx  context.Context
}

func newFetchPool(ctx context.Context, workers int) *fetchPool {
	if workers < 1 {
		workers = 1
	}
	p := &fetchPool{
		work: make(chan func(), workers),
		ctx:  ctx,
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go p.run()
	}
	return p
}

func (p *fetchPool) run() {
	defer p.wg.Done()
	for {
		select {
		case job, ok := <-p.work:
			if !ok {
				return
			}
			job()
		case <-p.ctx.Done():
			return
		}
	}
}

// submit queues one fetch, blocking for backpressure when all workers are
// busy. Returns the context's error if the crawl was cancelled.
func (p *fetchPool) submit(job func()) error {
	select {
	case p.work <- job:
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// close stops accepting work and waits for in-flight fetches to finish
func (p *fetchPool) close() {
	close(p.work)
	p.wg.Wait()
}
