// Package shell runs external commands such as the style preprocessor.
package shell

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"go.trai.ch/meister/internal/core/domain"
	"go.trai.ch/meister/internal/core/ports"
	"go.trai.ch/zerr"
)

// stderrTailSize bounds how much of a failing command's stderr is attached to its error.
const stderrTailSize = 4096

var _ ports.Executor = (*Executor)(nil)

// Executor implements ports.Executor using os/exec.
type Executor struct {
	logger ports.Logger
}

// NewExecutor creates a new Executor.
func NewExecutor(logger ports.Logger) *Executor {
	return &Executor{
		logger: logger,
	}
}

// Execute runs the command and waits for it to complete.
// Stdout goes to stdout unchanged. Stderr goes to stderr and is logged line by
// line at debug level; its tail is attached to the error of a failed run.
func (e *Executor) Execute(ctx context.Context, c domain.Command, stdout, stderr io.Writer) error {
	if len(c.Args) == 0 {
		return nil
	}

	name := c.Args[0]
	cmdEnv := resolveEnvironment(os.Environ(), c.Env)

	executable := name
	if !filepath.IsAbs(name) {
		if lp, err := lookPath(name, cmdEnv); err == nil {
			executable = lp
		}
	}

	cmd := exec.CommandContext(ctx, executable, c.Args[1:]...) //nolint:gosec // user provided command
	if len(cmd.Args) > 0 {
		cmd.Args[0] = name
	}
	cmd.Dir = c.Dir
	cmd.Env = cmdEnv

	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	stderrLog := &logWriter{logger: e.logger, command: name}
	tail := &tailBuffer{limit: stderrTailSize}
	cmd.Stdout = stdout
	cmd.Stderr = io.MultiWriter(stderrLog, tail, stderr)

	err := cmd.Run()
	_ = stderrLog.Close()
	if err == nil {
		return nil
	}

	exitCode := -1
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	wrapped := zerr.With(zerr.Wrap(err, "command failed"), "exit_code", exitCode)
	wrapped = zerr.With(wrapped, "command", strings.Join(c.Args, " "))
	if out := strings.TrimSpace(tail.String()); out != "" {
		wrapped = zerr.With(wrapped, "stderr", out)
	}
	return wrapped
}

// logWriter forwards complete lines to the logger.
type logWriter struct {
	logger  ports.Logger
	command string
	buf     []byte
}

func (w *logWriter) Write(p []byte) (n int, err error) {
	w.buf = append(w.buf, p...)

	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		w.logLine(w.buf[:i])
		w.buf = w.buf[i+1:]
	}

	return len(p), nil
}

// Close flushes a trailing partial line.
func (w *logWriter) Close() error {
	if len(w.buf) > 0 {
		w.logLine(w.buf)
		w.buf = nil
	}
	return nil
}

func (w *logWriter) logLine(line []byte) {
	msg := strings.TrimSuffix(string(line), "\r")
	if msg == "" {
		return
	}
	w.logger.Debug(msg, "command", w.command)
}

// tailBuffer keeps the last limit bytes written to it.
type tailBuffer struct {
	limit int
	buf   []byte
}

func (t *tailBuffer) Write(p []byte) (int, error) {
	t.buf = append(t.buf, p...)
	if over := len(t.buf) - t.limit; over > 0 {
		t.buf = t.buf[over:]
	}
	return len(p), nil
}

func (t *tailBuffer) String() string {
	return string(t.buf)
}

// resolveEnvironment overlays the command's KEY=VALUE entries onto the system
// environment. Later entries win.
func resolveEnvironment(sysEnv, cmdEnv []string) []string {
	envMap := make(map[string]string, len(sysEnv)+len(cmdEnv))
	order := make([]string, 0, len(sysEnv)+len(cmdEnv))

	for _, entries := range [][]string{sysEnv, cmdEnv} {
		for _, entry := range entries {
			k, v, ok := strings.Cut(entry, "=")
			if !ok {
				continue
			}
			if _, seen := envMap[k]; !seen {
				order = append(order, k)
			}
			envMap[k] = v
		}
	}

	result := make([]string, 0, len(order))
	for _, k := range order {
		result = append(result, k+"="+envMap[k])
	}
	return result
}

// lookPath searches for an executable in the directories named by the PATH environment variable.
func lookPath(file string, env []string) (string, error) {
	var path string
	for _, e := range env {
		if strings.HasPrefix(e, "PATH=") {
			path = strings.TrimPrefix(e, "PATH=")
			break
		}
	}

	if path == "" {
		return "", exec.ErrNotFound
	}

	for _, dir := range filepath.SplitList(path) {
		if dir == "" {
			// Unix shell semantics: path element "" means "."
			dir = "."
		}
		path := filepath.Join(dir, file)
		if err := findExecutable(path); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}

func findExecutable(file string) error {
	d, err := os.Stat(file)
	if err != nil {
		return err
	}
	if m := d.Mode(); !m.IsDir() && m&0o111 != 0 {
		return nil
	}
	return os.ErrPermission
}
