/* Copyright 2025 Dnote Authors
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package tasks

import (
	"sync"

	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/pkg/errors"
)

// Status is the stage of a job reported by an event
type Status int

const (
	// StatusStarted is reported when a job starts
	StatusStarted Status = iota
	// StatusFinished is reported when a job succeeds
	StatusFinished
	// StatusFailed is reported when a job fails
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusStarted:
		return "started"
	case StatusFinished:
		return "finished"
	case StatusFailed:
		return "failed"
	}

	return "unknown"
}

// Job is a one-shot unit of background work
type Job interface {
	Kind() string
	Run() (interface{}, error)
}

// Event reports the progress of a job. Payload is the result of a finished
// job and Err the reason of a failed one.
type Event struct {
	Kind    string
	Status  Status
	Payload interface{}
	Err     error
	Job     Job
}

// Runner runs each submitted job in its own goroutine and reports their
// progress on one channel
type Runner struct {
	events chan Event

	// pending counts the running jobs. Jobs may be submitted while another
	// goroutine waits.
	mu      sync.Mutex
	idle    *sync.Cond
	pending int
}

// NewRunner returns a runner
func NewRunner() *Runner {
	r := &Runner{
		events: make(chan Event, 64),
	}
	r.idle = sync.NewCond(&r.mu)

	return r
}

// Events returns the channel on which job events are sent. It must be
// drained for jobs to complete.
func (r *Runner) Events() <-chan Event {
	return r.events
}

// Submit starts the job in the background
func (r *Runner) Submit(j Job) {
	r.mu.Lock()
	r.pending++
	r.mu.Unlock()

	go func() {
		defer r.done()

		r.events <- Event{Kind: j.Kind(), Status: StatusStarted, Job: j}

		payload, err := run(j)
		if err != nil {
			log.Debug("%s failed: %s\n", j.Kind(), err)
			r.events <- Event{Kind: j.Kind(), Status: StatusFailed, Err: err, Job: j}
			return
		}

		r.events <- Event{Kind: j.Kind(), Status: StatusFinished, Payload: payload, Job: j}
	}()
}

func run(j Job) (payload interface{}, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("%s panicked: %v", j.Kind(), r)
		}
	}()

	return j.Run()
}

func (r *Runner) done() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.pending--
	if r.pending == 0 {
		r.idle.Broadcast()
	}
}

// Wait blocks until no submitted job is running
func (r *Runner) Wait() {
	r.mu.Lock()
	defer r.mu.Unlock()

	for r.pending > 0 {
		r.idle.Wait()
	}
}
