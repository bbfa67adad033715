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

// Package app wires the remote client, the cache, the background tasks and
// the in-memory state into one application instance
package app

import (
	"time"

	"github.com/dnote/etenotes/pkg/cli/cache"
	"github.com/dnote/etenotes/pkg/cli/context"
	"github.com/dnote/etenotes/pkg/cli/log"
	"github.com/dnote/etenotes/pkg/cli/reconcile"
	"github.com/dnote/etenotes/pkg/cli/remote"
	"github.com/dnote/etenotes/pkg/cli/tasks"
	"github.com/pkg/errors"
	"github.com/radovskyb/watcher"
)

// Handler is notified by the owner loop of the changes applied to the state
type Handler interface {
	OnUpdates(res reconcile.Result)
	OnEvent(ev tasks.Event)
}

type nopHandler struct{}

func (nopHandler) OnUpdates(res reconcile.Result) {}
func (nopHandler) OnEvent(ev tasks.Event)         {}

// Options configures an application instance
type Options struct {
	// Background starts the periodic poll and the settings watcher
	Background bool
	// WatchInterval is how often the settings file is checked for changes
	WatchInterval time.Duration
}

// App is an application instance. Its state is owned by the goroutine
// calling its methods; background work reports to it through Run, Flush
// or Shutdown.
type App struct {
	ctx       context.NotesCtx
	remote    *remote.Client
	cache     *cache.Cache
	state     *reconcile.State
	runner    *tasks.Runner
	scheduler *tasks.Scheduler
	watcher   *watcher.Watcher
	reloads   chan time.Duration
	opts      Options
	started   bool

	// saving holds the uids of the notes with a save in flight, and
	// deferred the ones to save again once it is done
	saving    map[string]bool
	deferred  map[string]bool
	submitted int
}

// New returns an application instance
func New(ctx context.NotesCtx, r *remote.Client, c *cache.Cache, opts Options) *App {
	if opts.WatchInterval == 0 {
		opts.WatchInterval = time.Second
	}

	return &App{
		ctx:       ctx,
		remote:    r,
		cache:     c,
		state:     reconcile.NewState(),
		runner:    tasks.NewRunner(),
		scheduler: tasks.NewScheduler(r, ctx.Config.PollInterval),
		reloads:   make(chan time.Duration, 1),
		opts:      opts,
		saving:    map[string]bool{},
		deferred:  map[string]bool{},
	}
}

// State returns the in-memory notebooks and notes
func (a *App) State() *reconcile.State {
	return a.state
}

// Remote returns the remote client
func (a *App) Remote() *remote.Client {
	return a.remote
}

// Start loads the cache into the state and, for a background instance,
// starts the periodic poll and the settings watcher
func (a *App) Start() error {
	if a.started {
		return nil
	}
	a.started = true

	if a.remote.Authenticated() {
		notebooks, notes := a.cache.Load()
		a.state.Restore(notebooks, notes)
		log.Debug("loaded %d notebooks and %d notes from the cache\n", len(notebooks), len(notes))
	}

	if !a.opts.Background {
		return nil
	}

	a.scheduler.Start()

	if err := a.watchSettings(); err != nil {
		return errors.Wrap(err, "watching the settings file")
	}

	return nil
}

// Run is the owner loop. It applies the polled changes and the results of
// the jobs to the state until done is closed.
func (a *App) Run(done <-chan struct{}, h Handler) {
	if h == nil {
		h = nopHandler{}
	}

	for {
		select {
		case u := <-a.scheduler.Updates():
			a.applyUpdate(u.Batch, h)
		case ev := <-a.runner.Events():
			a.applyEvent(ev, h)
		case d := <-a.reloads:
			a.SetPollInterval(d)
		case <-done:
			return
		}
	}
}

func (a *App) applyUpdate(b reconcile.Batch, h Handler) reconcile.Result {
	res := reconcile.Merge(a.state, b)
	if !res.Empty() {
		h.OnUpdates(res)
	}

	return res
}

func (a *App) applyEvent(ev tasks.Event, h Handler) {
	switch ev.Status {
	case tasks.StatusFinished:
		a.applyPayload(ev)
	case tasks.StatusFailed:
		if j, ok := ev.Job.(*tasks.SaveJob); ok {
			// the notes stay dirty for the next save
			for _, uid := range j.UIDs() {
				delete(a.saving, uid)
				delete(a.deferred, uid)
			}
		}
	}

	h.OnEvent(ev)

	if ev.Kind == tasks.KindSave && ev.Status == tasks.StatusFinished {
		a.saveDeferred()
	}
}

// applySaved clears the dirty flag of a saved note and adopts the uploaded
// item unless the note got another item in the meantime
func (a *App) applySaved(saved tasks.SavedNote) {
	delete(a.saving, saved.UID)

	if !a.state.MarkSaved(saved.UID, saved.Name, saved.Content) {
		log.Debug("note %s changed while saving, keeping it dirty\n", saved.UID)
	}

	n := a.state.Note(saved.UID)
	if n != nil && saved.Item != nil && n.Item == saved.Base {
		n.Item = saved.Item
	}
}

func (a *App) applyPayload(ev tasks.Event) {
	switch ev.Kind {
	case tasks.KindSave:
		res := ev.Payload.(tasks.SaveResult)
		for _, n := range res.Notes {
			a.applySaved(n)
		}
	case tasks.KindCreateNotebook:
		a.state.AddNotebook(ev.Payload.(*remote.Notebook))
	case tasks.KindUpdateNotebook:
		in := ev.Payload.(*remote.Notebook)
		if nb := a.state.Notebook(in.UID); nb != nil {
			nb.Name = in.Name
			nb.Color = in.Color
			nb.Description = in.Description
		}
	case tasks.KindDeleteNotebook:
		a.state.RemoveNotebook(ev.Payload.(string))
	case tasks.KindCreateNote:
		a.state.AddNote(ev.Payload.(*remote.Note))
	case tasks.KindDeleteNote:
		a.state.RemoveNote(ev.Payload.(string))
	}
}

// Flush waits for the submitted jobs to finish and applies their results,
// including the ones of the jobs submitted while applying
func (a *App) Flush(h Handler) {
	if h == nil {
		h = nopHandler{}
	}

	for {
		n := a.submitted
		a.flush(h)

		if a.submitted == n {
			return
		}
	}
}

func (a *App) flush(h Handler) {
	idle := make(chan struct{})
	go func() {
		a.runner.Wait()
		close(idle)
	}()

	for {
		select {
		case ev := <-a.runner.Events():
			a.applyEvent(ev, h)
		case <-idle:
			for {
				select {
				case ev := <-a.runner.Events():
					a.applyEvent(ev, h)
				default:
					return
				}
			}
		}
	}
}

// Shutdown saves the dirty notes, waits for the jobs, stops the background
// work and writes the cache. A failure to write the cache is returned.
func (a *App) Shutdown(h Handler) error {
	if h == nil {
		h = nopHandler{}
	}

	a.stopWatcher()
	a.scheduler.Stop()

	// polls that finished before the stop
	for drained := false; !drained; {
		select {
		case u := <-a.scheduler.Updates():
			a.applyUpdate(u.Batch, h)
		default:
			drained = true
		}
	}

	if a.remote.Authenticated() {
		a.SaveAll()
	}
	a.Flush(h)

	if !a.remote.Authenticated() {
		return nil
	}

	if err := a.cache.Save(a.state.Notebooks(), a.state.Notes(), a.remote.Tokens().Pair()); err != nil {
		return errors.Wrap(err, "writing the cache")
	}

	return nil
}
