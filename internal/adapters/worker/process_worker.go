package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"time"
)

// ProcessWorker runs `<binary> worker` as a child process and exchanges one JSON
// document per line over its stdin and stdout
type ProcessWorker struct {
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader

	mu     sync.Mutex
	closed bool
}

// NewProcessWorker starts the worker subprocess
func NewProcessWorker(binaryPath string, args ...string) (*ProcessWorker, error) {
	if binaryPath == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve worker binary: %w", err)
		}
		binaryPath = exe
	}
	if len(args) == 0 {
		args = []string{"worker"}
	}

	cmd := exec.Command(binaryPath, args...)
	cmd.Stderr = os.Stderr

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("failed to open worker stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start worker %s: %w", binaryPath, err)
	}

	return &ProcessWorker{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
	}, nil
}

// ProcessFactory returns a factory starting subprocess workers
func ProcessFactory(binaryPath string, args ...string) Factory {
	return func() (Worker, error) {
		return NewProcessWorker(binaryPath, args...)
	}
}

// Handle writes one request line and reads one response line
func (w *ProcessWorker) Handle(ctx context.Context, payload []byte) ([]byte, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil, fmt.Errorf("worker closed")
	}
	if _, err := w.stdin.Write(append(payload, '\n')); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	type readResult struct {
		line []byte
		err  error
	}
	done := make(chan readResult, 1)
	go func() {
		line, err := w.stdout.ReadBytes('\n')
		done <- readResult{line: line, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			return nil, fmt.Errorf("failed to read response: %w", res.err)
		}
		return res.line, nil
	case <-ctx.Done():
		// The pipe is now out of sync; the dispatcher treats this as a worker failure
		return nil, ctx.Err()
	}
}

// Close stops the subprocess, killing it if it does not exit promptly
func (w *ProcessWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true
	_ = w.stdin.Close()

	exited := make(chan error, 1)
	go func() { exited <- w.cmd.Wait() }()

	select {
	case err := <-exited:
		return err
	case <-time.After(2 * time.Second):
		_ = w.cmd.Process.Kill()
		<-exited
		return fmt.Errorf("worker did not exit, killed")
	}
}
