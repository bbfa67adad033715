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

// Package tasks runs the background work of the program: the periodic poll
// for remote changes and one-shot jobs such as saves and exports.
package tasks

import (
	"sync"
	"time"

	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/reconcile"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/pkg/errors"
	"github.com/robfig/cron"
)

// Poller lists the remote changes since the last poll
type Poller interface {
	ListChanges() (*remote.Changes, error)
}

// Update is the set of changes found by one poll
type Update struct {
	Batch reconcile.Batch
}

// Scheduler polls for remote changes in the background at a fixed
// interval. Polls never overlap.
type Scheduler struct {
	poller  Poller
	updates chan Update

	tickMu sync.Mutex

	mu       sync.Mutex
	cron     *cron.Cron
	interval time.Duration
	started  bool
	done     chan struct{}
	wg       sync.WaitGroup
}

// NewScheduler returns a scheduler polling at the given interval. An
// interval of zero disables the periodic polls.
func NewScheduler(p Poller, interval time.Duration) *Scheduler {
	return &Scheduler{
		poller:   p,
		updates:  make(chan Update, 16),
		interval: interval,
	}
}

// Updates returns the channel on which the changes found by the periodic
// polls are sent
func (s *Scheduler) Updates() <-chan Update {
	return s.updates
}

// Interval returns the current interval
func (s *Scheduler) Interval() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.interval
}

// Start runs one poll right away, then one every interval
func (s *Scheduler) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return
	}
	s.started = true
	s.done = make(chan struct{})

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.tick()
	}()

	s.schedule()
}

// schedule replaces the cron for the current interval. It must be called
// with mu held.
func (s *Scheduler) schedule() {
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	if s.interval <= 0 {
		log.Debug("periodic polling disabled\n")
		return
	}

	c := cron.New()
	c.Schedule(cron.Every(s.interval), cron.FuncJob(s.tick))
	c.Start()

	s.cron = c
	log.Debug("polling every %s\n", s.interval)
}

// SetInterval changes the interval. It takes effect for the next poll.
func (s *Scheduler) SetInterval(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if d == s.interval {
		return
	}
	s.interval = d

	if s.started {
		s.schedule()
	}
}

// Stop stops the periodic polls and waits for a running poll to finish
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if s.started {
		close(s.done)
	}
	s.started = false
	if s.cron != nil {
		s.cron.Stop()
		s.cron = nil
	}
	s.mu.Unlock()

	s.wg.Wait()

	// a poll fired by the cron may still be running
	s.tickMu.Lock()
	s.tickMu.Unlock()
}

// stopping returns a channel closed when the scheduler stops, or nil if it is not started
func (s *Scheduler) stopping() <-chan struct{} {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return nil
	}

	return s.done
}

// tick is one periodic poll. It is skipped if another poll is running.
func (s *Scheduler) tick() {
	if !s.tickMu.TryLock() {
		log.Debug("previous poll still running, skipping\n")
		return
	}
	defer s.tickMu.Unlock()

	done := s.stopping()
	if done == nil {
		return
	}

	b, err := s.poll()
	if err != nil {
		log.Debug("polling: %s\n", err)
		return
	}
	if b.Empty() {
		return
	}

	// a stop while polling must not drop the batch: the tokens already moved
	// past it. It is only dropped if the buffer is full after the stop.
	u := Update{Batch: b}
	select {
	case s.updates <- u:
		return
	default:
	}

	select {
	case s.updates <- u:
	case <-done:
		log.Debug("updates full after stop, dropping a batch\n")
	}
}

// Poll runs one poll now and returns the changes. It waits for a running
// poll to finish first.
func (s *Scheduler) Poll() (reconcile.Batch, error) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	return s.poll()
}

// Exclusive runs f while no poll runs
func (s *Scheduler) Exclusive(f func()) {
	s.tickMu.Lock()
	defer s.tickMu.Unlock()

	f()
}

func (s *Scheduler) poll() (b reconcile.Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("poll panicked: %v", r)
		}
	}()

	changes, err := s.poller.ListChanges()
	if err != nil {
		return b, errors.Wrap(err, "listing changes")
	}

	b = reconcile.Batch{
		Notebooks:        changes.Notebooks.Notebooks,
		RemovedNotebooks: changes.Notebooks.Removed,
		Notes:            changes.Notes.Notes,
		RemovedNotes:     changes.Notes.Removed,
	}

	return b, nil
}
