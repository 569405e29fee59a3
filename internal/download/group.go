// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package download

import (
	"context"
	"net/http"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/pdiddy/examfetch/pkg/types"
)

// Result is the outcome of one task.
type Result struct {
	Task    Task
	Skipped bool
	// Duplicate is set when another task already saved this path.
	Duplicate bool
	Err       error
}

// Status maps the result onto a history status.
func (r Result) Status() types.DownloadStatus {
	switch {
	case r.Err != nil:
		return types.StatusFailed
	case r.Skipped:
		return types.StatusSkipped
	default:
		return types.StatusDownloaded
	}
}

// Summary counts task outcomes.
type Summary struct {
	Downloaded int
	Skipped    int
	Failed     int
	Failures   []Result
}

// Total returns the number of tasks that finished.
func (s Summary) Total() int {
	return s.Downloaded + s.Skipped + s.Failed
}

// Add folds other into s.
func (s *Summary) Add(other Summary) {
	s.Downloaded += other.Downloaded
	s.Skipped += other.Skipped
	s.Failed += other.Failed
	s.Failures = append(s.Failures, other.Failures...)
}

func (s *Summary) record(r Result) {
	switch r.Status() {
	case types.StatusFailed:
		s.Failed++
		s.Failures = append(s.Failures, r)
	case types.StatusSkipped:
		s.Skipped++
	default:
		s.Downloaded++
	}
}

// Group runs download tasks concurrently and waits for all of them.
// Tasks never cancel each other: a failure is recorded as a Result and
// its siblings keep going.
//
// Tasks that share a destination path run one after another. The first
// one dispatched owns the path; later ones queue behind it and each runs
// only if everything before it failed. Once one succeeds, the rest of the
// queue finishes as duplicates without a request.
type Group struct {
	client   *http.Client
	cfg      types.FetchConfig
	onResult func(Result)

	eg      errgroup.Group
	mu      sync.Mutex
	paths   map[string]*pathState
	summary Summary
}

// pathState tracks one destination path within a group.
type pathState struct {
	done    bool
	pending []Task
}

// NewGroup returns a group bounded by cfg.Concurrency (0 = unbounded).
// onResult, if non-nil, is called from worker goroutines as each task
// finishes and must be safe for concurrent use.
func NewGroup(client *http.Client, cfg types.FetchConfig, onResult func(Result)) *Group {
	g := &Group{
		client:   client,
		cfg:      cfg,
		onResult: onResult,
		paths:    make(map[string]*pathState),
	}
	if cfg.Concurrency > 0 {
		g.eg.SetLimit(cfg.Concurrency)
	}
	return g
}

// Go dispatches task. It blocks only while the concurrency limit is reached.
func (g *Group) Go(ctx context.Context, task Task) {
	g.mu.Lock()
	if st, ok := g.paths[task.Path]; ok {
		if st.done {
			g.mu.Unlock()
			g.finish(Result{Task: task, Skipped: true, Duplicate: true})
			return
		}
		st.pending = append(st.pending, task)
		g.mu.Unlock()
		return
	}
	g.paths[task.Path] = &pathState{}
	g.mu.Unlock()

	g.eg.Go(func() error {
		g.run(ctx, task)
		return nil
	})
}

// run downloads task, then works through any tasks queued on its path
// until one succeeds or the queue is empty.
func (g *Group) run(ctx context.Context, task Task) {
	for {
		skipped, err := Download(ctx, g.client, task, g.cfg)
		g.finish(Result{Task: task, Skipped: skipped, Err: err})

		g.mu.Lock()
		st := g.paths[task.Path]
		if err == nil {
			st.done = true
			rest := st.pending
			st.pending = nil
			g.mu.Unlock()
			for _, dup := range rest {
				g.finish(Result{Task: dup, Skipped: true, Duplicate: true})
			}
			return
		}
		if len(st.pending) == 0 {
			// Released: a task dispatched later for this path starts afresh.
			delete(g.paths, task.Path)
			g.mu.Unlock()
			return
		}
		task = st.pending[0]
		st.pending = st.pending[1:]
		g.mu.Unlock()
	}
}

// Wait blocks until every dispatched task has finished.
func (g *Group) Wait() Summary {
	g.eg.Wait()
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.summary
}

func (g *Group) finish(r Result) {
	g.mu.Lock()
	g.summary.record(r)
	g.mu.Unlock()
	if g.onResult != nil {
		g.onResult(r)
	}
}
