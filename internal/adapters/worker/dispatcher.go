package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/feanru/gw2-v18-sub001/internal/application/common"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/pkg/utils"
)

// Job paths reported to the observer
const (
	PathWorker = "worker"
	PathSync   = "sync"
)

// Observer receives dispatch measurements
type Observer interface {
	RecordJob(path string, duration time.Duration)
	RecordFallback()
	SetQueueDepth(depth int)
}

// Result is the outcome of one dispatched job
type Result struct {
	JobID    string
	Response *Response
	Err      error

	// Fallback is true when the job was computed synchronously because the worker failed
	Fallback bool
}

type job struct {
	id     string
	ctx    context.Context
	req    *Request
	result chan Result
}

// Dispatcher runs recalculation jobs through a worker, one at a time in FIFO order.
//
// The first worker failure of any kind (construction, transport, panic, bad reply)
// terminates the worker and degrades the dispatcher permanently: that job and every
// later one is computed synchronously in-process. Callers see a Result either way;
// only invalid input is returned as an error.
type Dispatcher struct {
	factory  Factory
	handler  *Handler
	observer Observer

	jobs chan *job
	done chan struct{}

	mu     sync.Mutex
	worker Worker
	failed bool

	closeOnce sync.Once
}

// NewDispatcher creates a dispatcher and starts its loop. The worker is built lazily
// on the first job. A nil factory means synchronous-only dispatch.
func NewDispatcher(factory Factory, handler *Handler, queueSize int) *Dispatcher {
	if queueSize < 1 {
		queueSize = 1
	}
	d := &Dispatcher{
		factory: factory,
		handler: handler,
		jobs:    make(chan *job, queueSize),
		done:    make(chan struct{}),
		failed:  factory == nil,
	}
	go d.run()
	return d
}

// SetObserver attaches metrics reporting. Call before submitting jobs.
func (d *Dispatcher) SetObserver(observer Observer) {
	d.observer = observer
}

// Failed reports whether the dispatcher has degraded to synchronous computation
func (d *Dispatcher) Failed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.failed
}

// Submit enqueues a job. The tree is snapshotted, so the caller may keep mutating
// its own copy. A job whose context ends before it is dispatched is abandoned.
func (d *Dispatcher) Submit(ctx context.Context, req *Request) (<-chan Result, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	j := &job{
		id:     utils.GenerateJobID("recalc"),
		ctx:    ctx,
		req:    &Request{IngredientTree: req.IngredientTree.Clone(), GlobalQty: req.GlobalQty},
		result: make(chan Result, 1),
	}

	select {
	case <-d.done:
		return nil, fmt.Errorf("dispatcher closed")
	default:
	}

	select {
	case d.jobs <- j:
		if d.observer != nil {
			d.observer.SetQueueDepth(len(d.jobs))
		}
		return j.result, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-d.done:
		return nil, fmt.Errorf("dispatcher closed")
	}
}

// Recalculate submits a job and waits for its result
func (d *Dispatcher) Recalculate(ctx context.Context, req *Request) (Result, error) {
	results, err := d.Submit(ctx, req)
	if err != nil {
		return Result{}, err
	}
	select {
	case res := <-results:
		return res, res.Err
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}

// RecalculateTree recalculates a tree snapshot and reports whether the synchronous
// fallback produced the answer
func (d *Dispatcher) RecalculateTree(ctx context.Context, tree *crafting.TreeNode, globalQty int) (*crafting.TreeNode, crafting.Totals, bool, error) {
	res, err := d.Recalculate(ctx, &Request{IngredientTree: tree, GlobalQty: globalQty})
	if err != nil {
		return nil, crafting.Totals{}, res.Fallback, err
	}
	return res.Response.UpdatedTree, res.Response.Totals, res.Fallback, nil
}

// Close stops the loop and terminates the worker. Queued jobs are abandoned.
func (d *Dispatcher) Close() error {
	var err error
	d.closeOnce.Do(func() {
		close(d.done)
		d.mu.Lock()
		defer d.mu.Unlock()
		if d.worker != nil {
			err = d.worker.Close()
			d.worker = nil
		}
	})
	return err
}

func (d *Dispatcher) run() {
	for {
		select {
		case <-d.done:
			return
		case j := <-d.jobs:
			if d.observer != nil {
				d.observer.SetQueueDepth(len(d.jobs))
			}
			if j.ctx.Err() != nil {
				continue
			}
			j.result <- d.process(j)
		}
	}
}

func (d *Dispatcher) process(j *job) Result {
	start := time.Now()
	logger := common.LoggerFromContext(j.ctx)

	if !d.Failed() {
		resp, err := d.viaWorker(j)
		if err == nil {
			d.recordJob(PathWorker, start)
			return Result{JobID: j.id, Response: resp}
		}
		d.degrade()
		logger.Log("WARNING", fmt.Sprintf("[Dispatcher] Worker failed, computing synchronously from now on: %v", err), map[string]interface{}{
			"job_id": j.id,
		})
		resp, err = d.handler.Compute(j.req)
		d.recordJob(PathSync, start)
		return Result{JobID: j.id, Response: resp, Err: err, Fallback: true}
	}

	resp, err := d.handler.Compute(j.req)
	d.recordJob(PathSync, start)
	return Result{JobID: j.id, Response: resp, Err: err, Fallback: d.factory != nil}
}

func (d *Dispatcher) viaWorker(j *job) (*Response, error) {
	w, err := d.ensureWorker()
	if err != nil {
		return nil, err
	}
	payload, err := json.Marshal(j.req)
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}
	// A dispatched job runs to completion even if its caller stops waiting
	out, err := w.Handle(context.WithoutCancel(j.ctx), payload)
	if err != nil {
		return nil, err
	}
	return decodeResponse(out)
}

func (d *Dispatcher) ensureWorker() (Worker, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.worker != nil {
		return d.worker, nil
	}
	w, err := d.factory()
	if err != nil {
		return nil, fmt.Errorf("failed to start worker: %w", err)
	}
	d.worker = w
	return w, nil
}

func (d *Dispatcher) degrade() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.failed = true
	if d.worker != nil {
		_ = d.worker.Close()
		d.worker = nil
	}
	if d.observer != nil {
		d.observer.RecordFallback()
	}
}

func (d *Dispatcher) recordJob(path string, start time.Time) {
	if d.observer != nil {
		d.observer.RecordJob(path, time.Since(start))
	}
}
