package decode

import (
	"sync"

	"github.com/hashicorp/hcl/v2"

	"github.com/vk/metabuild/internal/builder"
	"github.com/vk/metabuild/internal/label"
	"github.com/vk/metabuild/internal/loader"
	"github.com/vk/metabuild/internal/scheduler"
)

// Runner drives build file execution: it asks the loader for files, decodes
// their declarations on the worker that finished the parse, and marshals
// each declared item onto the designated goroutine one at a time. Each file
// is executed at most once, no matter how many labels point into it.
type Runner struct {
	sched   *scheduler.Scheduler
	loader  *loader.Loader
	builder *builder.Builder

	mu        sync.Mutex
	requested map[string]struct{}
	executed  map[string]struct{}
}

// NewRunner creates a runner. The builder's load requests are expected to
// be wired to RequestLoad.
func NewRunner(sched *scheduler.Scheduler, ld *loader.Loader, b *builder.Builder) *Runner {
	return &Runner{
		sched:     sched,
		loader:    ld,
		builder:   b,
		requested: make(map[string]struct{}),
		executed:  make(map[string]struct{}),
	}
}

// RequestLoad asks for the build file owning lbl via the non-blocking
// protocol. Repeat requests for the same file are dropped, so many labels
// in one directory cost a single load and a single execution.
func (r *Runner) RequestLoad(lbl label.Label) {
	r.RequestFile(lbl.BuildFile())
}

// RequestFile asks for the source-absolute build file name directly. Used
// for the root build file, whose load is what starts the whole run.
func (r *Runner) RequestFile(name string) {
	r.mu.Lock()
	if _, ok := r.requested[name]; ok {
		r.mu.Unlock()
		return
	}
	r.requested[name] = struct{}{}
	r.mu.Unlock()

	err := r.loader.LoadAsync(name, func(f *hcl.File, err error) {
		if err != nil {
			r.sched.Fail(err)
			return
		}
		r.execute(name, f)
	})
	if err != nil {
		r.sched.Fail(err)
	}
}

// execute decodes name's declarations and posts them to the designated
// goroutine. Runs on the worker goroutine that completed the load.
func (r *Runner) execute(name string, f *hcl.File) {
	r.mu.Lock()
	if _, ok := r.executed[name]; ok {
		r.mu.Unlock()
		return
	}
	r.executed[name] = struct{}{}
	r.mu.Unlock()

	decoded, err := DecodeFile(f, label.SourceDir(name))
	if err != nil {
		r.sched.Fail(err)
		return
	}

	// Imports use the blocking protocol: the importing file's execution
	// cannot proceed until the imported declarations exist. The import is
	// executed through the same at-most-once gate, so two importers of
	// the same file yield one set of declarations.
	for _, imp := range decoded.Imports {
		impFile, err := r.loader.LoadSync(imp.Path)
		if err != nil {
			r.sched.Fail(err)
			return
		}
		r.execute(imp.Path, impFile)
		if r.sched.Failed() {
			return
		}
	}

	if len(decoded.Items) == 0 {
		return
	}

	// Hold a unit of work across the handoff so the run loop cannot
	// conclude the build is done between this worker finishing and the
	// declarations actually running.
	items := decoded.Items
	r.sched.BeginWork()
	r.sched.Task(func() {
		defer r.sched.EndWork()
		for _, it := range items {
			if err := r.builder.ItemDefined(it); err != nil {
				r.sched.Fail(err)
				return
			}
		}
	})
}
