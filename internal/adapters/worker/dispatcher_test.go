package worker_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feanru/gw2-v18-sub001/internal/adapters/worker"
	"github.com/feanru/gw2-v18-sub001/internal/application/crafting/services"
	"github.com/feanru/gw2-v18-sub001/internal/domain/crafting"
	"github.com/feanru/gw2-v18-sub001/test/helpers"
)

// sampleTree is a priced two-level tree: 100 <- 2x 200 <- 5x 300
func sampleTree() *crafting.TreeNode {
	leaf := &crafting.TreeNode{ID: 300, Kind: crafting.KindItem, QuantityPerParent: 5, OutputBatch: 1,
		BuyPriceEach: 4, SellPriceEach: 3, HasBuyPrice: true, HasSellPrice: true, Mode: crafting.ModeBuy}
	mid := &crafting.TreeNode{ID: 200, Kind: crafting.KindItem, QuantityPerParent: 2, OutputBatch: 1,
		BuyPriceEach: 30, SellPriceEach: 25, HasBuyPrice: true, HasSellPrice: true, Mode: crafting.ModeCrafted,
		Children: []*crafting.TreeNode{leaf}}
	return &crafting.TreeNode{ID: 100, Kind: crafting.KindItem, QuantityPerParent: 1, OutputBatch: 1,
		Mode: crafting.ModeBuy, Children: []*crafting.TreeNode{mid}}
}

func newHandler() *worker.Handler {
	return worker.NewHandler(services.NewModeRecalculator(helpers.NewTestTables()))
}

func syncResponse(t *testing.T, req *worker.Request) *worker.Response {
	t.Helper()
	cp := &worker.Request{IngredientTree: req.IngredientTree.Clone(), GlobalQty: req.GlobalQty}
	resp, err := newHandler().Compute(cp)
	require.NoError(t, err)
	return resp
}

// fakeWorker fails or blocks on demand and counts calls
type fakeWorker struct {
	mu      sync.Mutex
	calls   int
	closed  bool
	fail    bool
	block   chan struct{}
	handler *worker.Handler
}

func (w *fakeWorker) Handle(ctx context.Context, payload []byte) ([]byte, error) {
	w.mu.Lock()
	w.calls++
	fail, block := w.fail, w.block
	w.mu.Unlock()

	if block != nil {
		<-block
	}
	if fail {
		return nil, errors.New("worker crashed")
	}
	return w.handler.HandlePayload(payload), nil
}

func (w *fakeWorker) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWorker) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

func TestDispatcher_WorkerResultMatchesSynchronous(t *testing.T) {
	// Arrange
	handler := newHandler()
	d := worker.NewDispatcher(worker.LocalFactory(handler), handler, 4)
	defer d.Close()
	req := &worker.Request{IngredientTree: sampleTree(), GlobalQty: 3}

	// Act
	res, err := d.Recalculate(context.Background(), req)

	// Assert
	require.NoError(t, err)
	assert.False(t, res.Fallback)
	assert.False(t, d.Failed())
	expected := syncResponse(t, req)
	assert.Equal(t, expected.Totals, res.Response.Totals)
	assert.Equal(t, expected.UpdatedTree, res.Response.UpdatedTree)
	// 3 * 2 * 5 * 4 copper
	assert.Equal(t, 120, res.Response.Totals.TotalCrafted)
	assert.True(t, strings.HasPrefix(res.JobID, "recalc-"))
}

func TestDispatcher_WorkerFailureFallsBackPermanently(t *testing.T) {
	// Arrange
	handler := newHandler()
	fake := &fakeWorker{fail: true, handler: handler}
	factoryCalls := 0
	factory := func() (worker.Worker, error) {
		factoryCalls++
		return fake, nil
	}
	d := worker.NewDispatcher(factory, handler, 4)
	defer d.Close()
	req := &worker.Request{IngredientTree: sampleTree(), GlobalQty: 2}

	// Act
	first, err := d.Recalculate(context.Background(), req)
	require.NoError(t, err)
	second, err := d.Recalculate(context.Background(), req)
	require.NoError(t, err)

	// Assert
	expected := syncResponse(t, req)
	assert.True(t, first.Fallback)
	assert.True(t, second.Fallback)
	assert.Equal(t, expected.Totals, first.Response.Totals)
	assert.Equal(t, expected.Totals, second.Response.Totals)
	assert.True(t, d.Failed())
	assert.Equal(t, 1, fake.Calls())
	assert.Equal(t, 1, factoryCalls)
	assert.True(t, fake.closed)
}

func TestDispatcher_FactoryFailureFallsBack(t *testing.T) {
	handler := newHandler()
	d := worker.NewDispatcher(func() (worker.Worker, error) {
		return nil, errors.New("cannot spawn")
	}, handler, 1)
	defer d.Close()
	req := &worker.Request{IngredientTree: sampleTree(), GlobalQty: 1}

	res, err := d.Recalculate(context.Background(), req)

	require.NoError(t, err)
	assert.True(t, res.Fallback)
	assert.Equal(t, syncResponse(t, req).Totals, res.Response.Totals)
}

func TestDispatcher_RejectsInvalidInput(t *testing.T) {
	handler := newHandler()
	d := worker.NewDispatcher(worker.LocalFactory(handler), handler, 1)
	defer d.Close()

	_, err := d.Recalculate(context.Background(), &worker.Request{IngredientTree: sampleTree(), GlobalQty: 0})
	assert.True(t, errors.Is(err, crafting.ErrInvalidInput))

	_, err = d.Recalculate(context.Background(), &worker.Request{GlobalQty: 1})
	assert.True(t, errors.Is(err, crafting.ErrInvalidInput))
	assert.False(t, d.Failed())
}

func TestDispatcher_CancelledJobIsAbandoned(t *testing.T) {
	// Arrange - the first job holds the worker so the second waits in the queue
	handler := newHandler()
	fake := &fakeWorker{block: make(chan struct{}), handler: handler}
	d := worker.NewDispatcher(func() (worker.Worker, error) { return fake, nil }, handler, 4)
	defer d.Close()

	first, err := d.Submit(context.Background(), &worker.Request{IngredientTree: sampleTree(), GlobalQty: 1})
	require.NoError(t, err)
	ctx, cancel := context.WithCancel(context.Background())
	second, err := d.Submit(ctx, &worker.Request{IngredientTree: sampleTree(), GlobalQty: 1})
	require.NoError(t, err)

	// Act
	cancel()
	close(fake.block)

	// Assert
	select {
	case res := <-first:
		require.NoError(t, res.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("first job did not complete")
	}
	select {
	case <-second:
		t.Fatal("cancelled job must not run")
	case <-time.After(100 * time.Millisecond):
	}
	assert.Equal(t, 1, fake.Calls())
}

func TestDispatcher_SnapshotsCallerTree(t *testing.T) {
	handler := newHandler()
	d := worker.NewDispatcher(worker.LocalFactory(handler), handler, 1)
	defer d.Close()
	tree := sampleTree()

	res, err := d.Recalculate(context.Background(), &worker.Request{IngredientTree: tree, GlobalQty: 1})

	require.NoError(t, err)
	assert.Equal(t, 0, tree.CountTotal)
	assert.Equal(t, 1, res.Response.UpdatedTree.CountTotal)
}

func TestHandler_ServeAnswersEachLine(t *testing.T) {
	// Arrange
	handler := newHandler()
	payload, err := json.Marshal(&worker.Request{IngredientTree: sampleTree(), GlobalQty: 1})
	require.NoError(t, err)
	in := bytes.NewBuffer(nil)
	in.Write(payload)
	in.WriteString("\n{not json}\n")
	out := bytes.NewBuffer(nil)

	// Act
	err = handler.Serve(context.Background(), in, out)

	// Assert
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	require.Len(t, lines, 2)

	var ok worker.Response
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &ok))
	assert.Empty(t, ok.Error)
	assert.Equal(t, 40, ok.Totals.TotalCrafted)

	var failed worker.Response
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &failed))
	assert.NotEmpty(t, failed.Error)
}

func TestHandler_ResponseUsesWireFieldNames(t *testing.T) {
	out := newHandler().HandlePayload([]byte(`{"ingredientTree":{"id":7,"children":[]},"globalQty":2}`))

	assert.Contains(t, string(out), `"updatedTree"`)
	assert.Contains(t, string(out), `"totalCrafted"`)
}
