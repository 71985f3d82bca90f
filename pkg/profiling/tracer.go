package profiling

import (
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"
)

// FuncKey identifies a tracked function by name and definition site.
type FuncKey struct {
	Name string `json:"name"`
	File string `json:"file"`
	Line int    `json:"line"`
}

// String renders the key as "name (file:line)".
func (k FuncKey) String() string {
	return k.Name + " (" + k.File + ":" + strconv.Itoa(k.Line) + ")"
}

// ShortName strips the package path from the function name.
func (k FuncKey) ShortName() string {
	name := k.Name
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	return name
}

// FuncStats holds the call statistics of one function.
type FuncStats struct {
	Key FuncKey
	// Path is the unstripped source path of the definition.
	Path string
	// PrimitiveCalls counts calls made while the function was not
	// already on the stack.
	PrimitiveCalls int64
	TotalCalls     int64
	// TotTime excludes time spent in tracked callees.
	TotTime time.Duration
	// CumTime is accumulated only when the outermost activation returns.
	CumTime time.Duration
	// Callers counts calls per calling function. The zero key is the
	// profiler root.
	Callers map[FuncKey]int64
}

// StackSample aggregates calls that share an identical call stack.
type StackSample struct {
	// Funcs is ordered root first.
	Funcs   []int
	Calls   int64
	SelfDur time.Duration
}

type frame struct {
	fn    int
	stack string
	start time.Time
	child time.Duration
}

// tracer records enter/exit events into per-function statistics.
// It assumes strict nesting of events on a single goroutine.
type tracer struct {
	now    func() time.Time
	funcs  []*FuncStats
	index  map[uintptr]int
	active map[int]int
	stack  []frame
	stacks map[string]*StackSample
	order  []string
}

func newTracer(now func() time.Time) *tracer {
	return &tracer{
		now:    now,
		index:  make(map[uintptr]int),
		active: make(map[int]int),
		stacks: make(map[string]*StackSample),
	}
}

// resolve maps the function containing pc to its FuncStats index.
func (t *tracer) resolve(pc uintptr) int {
	f := runtime.FuncForPC(pc)
	if f == nil {
		return t.lookup(0, FuncKey{Name: "unknown"}, "")
	}
	entry := f.Entry()
	if id, ok := t.index[entry]; ok {
		return id
	}
	path, line := f.FileLine(entry)
	key := FuncKey{Name: f.Name(), File: filepath.Base(path), Line: line}
	return t.lookup(entry, key, path)
}

func (t *tracer) lookup(entry uintptr, key FuncKey, path string) int {
	if id, ok := t.index[entry]; ok {
		return id
	}
	id := len(t.funcs)
	t.funcs = append(t.funcs, &FuncStats{
		Key:     key,
		Path:    path,
		Callers: make(map[FuncKey]int64),
	})
	t.index[entry] = id
	return id
}

func (t *tracer) enter(id int) {
	fs := t.funcs[id]
	fs.TotalCalls++
	if t.active[id] == 0 {
		fs.PrimitiveCalls++
	}
	t.active[id]++

	var caller FuncKey
	stack := strconv.Itoa(id)
	if n := len(t.stack); n > 0 {
		parent := t.stack[n-1]
		caller = t.funcs[parent.fn].Key
		stack = parent.stack + ";" + stack
	}
	fs.Callers[caller]++

	t.stack = append(t.stack, frame{fn: id, stack: stack, start: t.now()})
}

func (t *tracer) exit() {
	n := len(t.stack)
	if n == 0 {
		return
	}
	f := t.stack[n-1]
	t.stack = t.stack[:n-1]

	elapsed := t.now().Sub(f.start)
	self := elapsed - f.child
	fs := t.funcs[f.fn]
	fs.TotTime += self
	t.active[f.fn]--
	if t.active[f.fn] == 0 {
		fs.CumTime += elapsed
	}
	if n > 1 {
		t.stack[n-2].child += elapsed
	}

	s, ok := t.stacks[f.stack]
	if !ok {
		s = &StackSample{Funcs: parseStack(f.stack)}
		t.stacks[f.stack] = s
		t.order = append(t.order, f.stack)
	}
	s.Calls++
	s.SelfDur += self
}

// unwind closes any frames left open, as when Stop runs inside a tracked
// function or after a panic skipped exits.
func (t *tracer) unwind() {
	for len(t.stack) > 0 {
		t.exit()
	}
}

func parseStack(s string) []int {
	parts := strings.Split(s, ";")
	ids := make([]int, len(parts))
	for i, p := range parts {
		ids[i], _ = strconv.Atoi(p)
	}
	return ids
}
