// Copyright 2020 Grail Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//    http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.
package depth

import (
	"fmt"

	"github.com/grailbio/base/errors"
	"github.com/grailbio/base/traverse"
)

// WorkerPool bounds the number of tasks that run at once.
type WorkerPool struct {
	n int
}

// NewWorkerPool creates a pool running at most n tasks concurrently.
func NewWorkerPool(n int) (*WorkerPool, error) {
	if n < 1 {
		return nil, errors.E(errors.Invalid, fmt.Sprintf("depth: worker pool size must be >= 1, got %d", n))
	}
	return &WorkerPool{n: n}, nil
}

// Size returns the concurrency bound.
func (p *WorkerPool) Size() int { return p.n }

// Each calls fn(0), ..., fn(nTasks-1), at most Size() at a time, and waits for
// all of them. It returns the first error returned by fn.
func (p *WorkerPool) Each(nTasks int, fn func(i int) error) error {
	return traverse.Limit(p.n).Each(nTasks, fn)
}
