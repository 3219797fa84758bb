// Package runner spawns the external pipeline process and captures its
// output streams while relaying stdout line-by-line to an observer.
package runner

import (
	"bufio"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultTimeout is the maximum time a pipeline process may run
	// before it is forcibly terminated.
	DefaultTimeout = 180 * time.Second

	// ExitTimedOut is the sentinel exit code for a killed-on-timeout process.
	ExitTimedOut = -1

	// ExitSpawnFailed is the sentinel exit code when the process could
	// not be started at all (missing executable, permission, etc).
	ExitSpawnFailed = 127
)

// Spec describes one child process invocation.
type Spec struct {
	Command string   // executable path or name
	Args    []string // arguments, minimally the topic string
	Dir     string   // working directory
	EnvFile string   // optional .env file merged into the child environment
	Timeout time.Duration

	// OnOutput receives stdout lines as they arrive, before the
	// process exits. May be nil.
	OnOutput func(line string)
}

// Result is the outcome of a process invocation. Failures are reported
// through ExitCode rather than an error so the caller owns the fallback
// decision.
type Result struct {
	Stdout   string
	Stderr   string
	ExitCode int
	TimedOut bool
}

// Run spawns the process described by spec and blocks until it exits or
// times out. It never returns an error: spawn failures, non-zero exits
// and timeouts all surface in the Result.
func Run(ctx context.Context, spec Spec) Result {
	timeout := spec.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, spec.Command, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Env = buildEnv(spec.EnvFile)

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return Result{ExitCode: ExitSpawnFailed, Stderr: err.Error()}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return Result{ExitCode: ExitSpawnFailed, Stderr: err.Error()}
	}

	if err := cmd.Start(); err != nil {
		return Result{ExitCode: ExitSpawnFailed, Stderr: err.Error()}
	}

	var stdout, stderr strings.Builder
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.Go(func() error {
		scanner := bufio.NewScanner(stdoutPipe)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			mu.Lock()
			stdout.WriteString(line)
			stdout.WriteByte('\n')
			mu.Unlock()
			if spec.OnOutput != nil {
				spec.OnOutput(line)
			}
		}
		return scanner.Err()
	})
	g.Go(func() error {
		scanner := bufio.NewScanner(stderrPipe)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			mu.Lock()
			stderr.WriteString(scanner.Text())
			stderr.WriteByte('\n')
			mu.Unlock()
		}
		return scanner.Err()
	})

	// Pipe read errors are not actionable beyond what Wait reports.
	_ = g.Wait()
	waitErr := cmd.Wait()

	res := Result{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if ctx.Err() == context.DeadlineExceeded {
		res.TimedOut = true
		res.ExitCode = ExitTimedOut
		return res
	}

	if waitErr != nil {
		var exitErr *exec.ExitError
		if errors.As(waitErr, &exitErr) {
			res.ExitCode = exitErr.ExitCode()
		} else {
			res.ExitCode = ExitSpawnFailed
			if res.Stderr == "" {
				res.Stderr = waitErr.Error()
			}
		}
	}
	return res
}

// buildEnv merges the parent environment, the values from envFile (if it
// exists) and the forced flags that keep the pipeline's output unbuffered
// and UTF-8 safe so stage markers stream in real time.
func buildEnv(envFile string) []string {
	env := os.Environ()

	if envFile != "" {
		if vals, err := godotenv.Read(envFile); err == nil {
			for k, v := range vals {
				env = append(env, k+"="+v)
			}
		}
	}

	env = append(env,
		"PYTHONIOENCODING=utf-8",
		"PYTHONUTF8=1",
		"PYTHONUNBUFFERED=1",
	)
	return env
}

// ResolvePython returns the interpreter to use for the pipeline rooted at
// root: the project venv if present, then $PYTHON_PATH, then "python"
// from PATH.
func ResolvePython(root string) string {
	venv := filepath.Join(root, ".venv", "bin", "python")
	if runtime.GOOS == "windows" {
		venv = filepath.Join(root, ".venv", "Scripts", "python.exe")
	}
	if _, err := os.Stat(venv); err == nil {
		return venv
	}
	if p := os.Getenv("PYTHON_PATH"); p != "" {
		return p
	}
	return "python"
}
