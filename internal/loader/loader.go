// Package loader guarantees each build file is read and parsed exactly
// once, no matter how many goroutines ask for it concurrently. Callers pick
// one of two protocols per file: the non-blocking protocol (LoadAsync)
// dispatches the parse to the worker pool and invokes a callback when the
// tree is ready; the blocking protocol (LoadSync) parses on the calling
// goroutine and blocks any further blocking callers until the tree exists.
// The two protocols must never be mixed for the same file: a blocking
// waiter holds no worker slot, so an async load queued behind it could
// deadlock the pool.
package loader

import (
	"sync"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/vk/metabuild/internal/diag"
	"github.com/vk/metabuild/internal/fsutil"
	"github.com/vk/metabuild/internal/scheduler"
)

// Callback receives a parsed tree, or the error that prevented one.
// Invoked on whatever goroutine completed the load.
type Callback func(file *hcl.File, err error)

// Loader is the file-load coordinator. Files are keyed by source-absolute
// path, e.g. "//base/BUILD.hcl".
type Loader struct {
	sched         *scheduler.Scheduler
	sourceRoot    string
	secondaryRoot string

	mu    sync.Mutex
	files map[string]*fileRecord
}

// fileRecord is the per-file load state. Once loaded is true, file and err
// never change again; done is closed so every waiter observes completion.
type fileRecord struct {
	name     string
	blocking bool
	loaded   bool
	file     *hcl.File
	err      error
	done     chan struct{}
	pending  []Callback
}

// New creates a loader reading files under sourceRoot, falling back to
// secondaryRoot (if non-empty) when the primary copy is absent.
func New(sched *scheduler.Scheduler, sourceRoot, secondaryRoot string) *Loader {
	return &Loader{
		sched:         sched,
		sourceRoot:    sourceRoot,
		secondaryRoot: secondaryRoot,
		files:         make(map[string]*fileRecord),
	}
}

// LoadAsync requests name via the non-blocking protocol. For an unseen file
// it enqueues a background parse and stores onReady for completion. For an
// already-loaded file it invokes onReady immediately on the calling
// goroutine with the cached tree. For a file still loading it appends
// onReady to the pending queue. Fails with ProtocolMismatch if the file was
// previously loaded via LoadSync.
func (l *Loader) LoadAsync(name string, onReady Callback) error {
	l.mu.Lock()
	rec, ok := l.files[name]
	if !ok {
		rec = &fileRecord{name: name, done: make(chan struct{})}
		rec.pending = append(rec.pending, onReady)
		l.files[name] = rec
		l.mu.Unlock()
		l.sched.Log("Loading", name)
		l.sched.SchedulePoolWork(func() { l.doLoad(rec) })
		return nil
	}
	if rec.blocking {
		l.mu.Unlock()
		return protocolMismatch(name, "blocking")
	}
	if rec.loaded {
		file, err := rec.file, rec.err
		l.mu.Unlock()
		onReady(file, err)
		return nil
	}
	rec.pending = append(rec.pending, onReady)
	l.mu.Unlock()
	return nil
}

// LoadSync requests name via the blocking protocol and returns the parsed
// tree. For an unseen file it parses on the calling goroutine. For a file
// being loaded by another blocking caller it blocks until that load
// completes. Fails with ProtocolMismatch if the file was previously loaded
// via LoadAsync.
func (l *Loader) LoadSync(name string) (*hcl.File, error) {
	l.mu.Lock()
	rec, ok := l.files[name]
	if !ok {
		rec = &fileRecord{name: name, blocking: true, done: make(chan struct{})}
		l.files[name] = rec
		l.mu.Unlock()
		l.sched.Log("Importing", name)
		l.doLoad(rec)
		return rec.file, rec.err
	}
	if !rec.blocking {
		l.mu.Unlock()
		return nil, protocolMismatch(name, "non-blocking")
	}
	if rec.loaded {
		file, err := rec.file, rec.err
		l.mu.Unlock()
		return file, err
	}
	l.mu.Unlock()

	// Another blocking caller owns the parse. The done channel is closed
	// on completion, which wakes every waiter at once.
	<-rec.done

	l.mu.Lock()
	file, err := rec.file, rec.err
	l.mu.Unlock()
	return file, err
}

// doLoad reads and parses rec's file, then publishes the result. It always
// signals completion, even on failure, so blocked and queued callers
// observe the error instead of hanging.
func (l *Loader) doLoad(rec *fileRecord) {
	file, err := l.readAndParse(rec.name)

	l.mu.Lock()
	rec.file = file
	rec.err = err
	rec.loaded = true
	pending := rec.pending
	rec.pending = nil
	l.mu.Unlock()

	close(rec.done)
	for _, cb := range pending {
		cb(file, err)
	}
}

// readAndParse does the actual work, outside the state lock.
func (l *Loader) readAndParse(name string) (*hcl.File, error) {
	src, err := fsutil.ReadSourceFile(l.sourceRoot, l.secondaryRoot, name)
	if err != nil {
		return nil, diag.New(diag.LoadFailure, nil, "Unable to read "+name, err.Error())
	}

	file, diags := hclparse.NewParser().ParseHCL(src, name)
	if diags.HasErrors() {
		return nil, diag.FromDiagnostics(diag.LoadFailure, diags)
	}
	return file, nil
}

func protocolMismatch(name, prev string) *diag.Error {
	return diag.New(diag.ProtocolMismatch, nil,
		"Conflicting load protocols for "+name,
		"This file was previously requested via the "+prev+" protocol. A file must be loaded either always blocking or always non-blocking.")
}
