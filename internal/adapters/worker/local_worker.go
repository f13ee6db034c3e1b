package worker

import (
	"context"
	"fmt"
	"sync"
)

// Worker carries encoded requests across an execution boundary
type Worker interface {
	// Handle sends one encoded request and returns the encoded response
	Handle(ctx context.Context, payload []byte) ([]byte, error)

	// Close terminates the worker
	Close() error
}

// Factory constructs a worker. It is called at most once per dispatcher.
type Factory func() (Worker, error)

// LocalWorker runs the handler on its own goroutine. Requests and responses still
// cross as JSON, so the main side never shares tree memory with the worker.
type LocalWorker struct {
	handler *Handler
	mu      sync.Mutex
	closed  bool
}

// NewLocalWorker creates an in-process worker
func NewLocalWorker(handler *Handler) *LocalWorker {
	return &LocalWorker{handler: handler}
}

// LocalFactory returns a factory producing in-process workers
func LocalFactory(handler *Handler) Factory {
	return func() (Worker, error) {
		return NewLocalWorker(handler), nil
	}
}

type localResult struct {
	out []byte
	err error
}

// Handle runs the request on a separate goroutine, converting a panic into an error
func (w *LocalWorker) Handle(ctx context.Context, payload []byte) ([]byte, error) {
	w.mu.Lock()
	closed := w.closed
	w.mu.Unlock()
	if closed {
		return nil, fmt.Errorf("worker closed")
	}

	done := make(chan localResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- localResult{err: fmt.Errorf("worker panic: %v", r)}
			}
		}()
		done <- localResult{out: w.handler.HandlePayload(payload)}
	}()

	select {
	case res := <-done:
		return res.out, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Close marks the worker closed
func (w *LocalWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}
