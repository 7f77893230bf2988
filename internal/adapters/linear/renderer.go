// Package linear renders build progress as chronological, task-prefixed log lines.
package linear

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/muesli/termenv"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/meister/internal/ui/output"
	"go.trai.ch/meister/internal/ui/style"
)

var _ ports.Renderer = (*Renderer)(nil)

// Renderer implements ports.Renderer with line-buffered output. Task output goes
// to stdout, lifecycle lines to stderr.
type Renderer struct {
	stdout io.Writer
	stderr io.Writer
	output *termenv.Output

	mu      sync.Mutex
	tasks   map[string]*taskState
	buffers map[string]*bytes.Buffer
}

type taskState struct {
	name      string
	startTime time.Time
}

// NewRenderer creates a new Renderer. Nil writers select os.Stdout and os.Stderr.
func NewRenderer(stdout, stderr io.Writer) *Renderer {
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	return &Renderer{
		stdout:  stdout,
		stderr:  stderr,
		output:  output.NewWithProfile(stderr, output.ColorProfileANSI),
		tasks:   make(map[string]*taskState),
		buffers: make(map[string]*bytes.Buffer),
	}
}

// Stop flushes all remaining buffers.
func (r *Renderer) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for spanID := range r.buffers {
		r.flushBufferLocked(spanID)
	}
	return nil
}

// OnPlanEmit prints the planned tasks.
func (r *Renderer) OnPlanEmit(tasks []string, _ map[string][]string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, _ = fmt.Fprintf(r.stderr, "%s %d task(s): %s\n",
		r.output.String(style.Dot).Foreground(r.output.Color(string(style.Amber))),
		len(tasks), strings.Join(tasks, ", "))
}

// OnTaskStart records the task and prints a start line.
func (r *Renderer) OnTaskStart(spanID, _, name string, startTime time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tasks[spanID] = &taskState{name: name, startTime: startTime}
	r.buffers[spanID] = new(bytes.Buffer)

	_, _ = fmt.Fprintf(r.stderr, "%s Starting...\n", r.output.String(prefix(name)).Faint())
}

// OnTaskLog buffers output and prints complete lines with the task prefix.
func (r *Renderer) OnTaskLog(spanID string, data []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}

	buf := r.buffers[spanID]
	buf.Write(data)

	for {
		i := bytes.IndexByte(buf.Bytes(), '\n')
		if i < 0 {
			return
		}
		line := buf.Next(i + 1)
		r.printLineLocked(task.name, line)
	}
}

// OnTaskComplete flushes the task's partial line and prints its outcome.
func (r *Renderer) OnTaskComplete(spanID string, endTime time.Time, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	r.flushBufferLocked(spanID)

	duration := endTime.Sub(task.startTime).Round(time.Millisecond)
	if err != nil {
		symbol := r.output.String(style.Cross).Foreground(r.output.Color(string(style.Red)))
		_, _ = fmt.Fprintf(r.stderr, "%s %s Failed after %v: %v\n", prefix(task.name), symbol, duration, err)
	} else {
		symbol := r.output.String(style.Check).Foreground(r.output.Color(string(style.Green)))
		_, _ = fmt.Fprintf(r.stderr, "%s %s Completed in %v\n", prefix(task.name), symbol, duration)
	}

	delete(r.tasks, spanID)
	delete(r.buffers, spanID)
}

// flushBufferLocked prints a pending partial line. r.mu must be held.
func (r *Renderer) flushBufferLocked(spanID string) {
	task, ok := r.tasks[spanID]
	if !ok {
		return
	}
	buf := r.buffers[spanID]
	if buf.Len() > 0 {
		r.printLineLocked(task.name, buf.Bytes())
		buf.Reset()
	}
}

// printLineLocked prints one line with the task prefix. r.mu must be held.
func (r *Renderer) printLineLocked(taskName string, line []byte) {
	line = bytes.TrimSuffix(line, []byte("\n"))
	line = bytes.TrimSuffix(line, []byte("\r"))
	if len(line) == 0 {
		return
	}
	_, _ = fmt.Fprintf(r.stdout, "%s %s\n", prefix(taskName), line)
}

func prefix(name string) string {
	return "[" + name + "]"
}
