package dispatcher

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vk/wellformed/internal/batch"
	"github.com/vk/wellformed/internal/bracket"
	"github.com/vk/wellformed/internal/ctxlog"
	"go.uber.org/goleak"
)

// collector records every verdict and skip it is handed.
type collector struct {
	mu       sync.Mutex
	verdicts []batch.Verdict
	skipped  []int
	err      error
}

func (c *collector) Emit(_ context.Context, v batch.Verdict) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.verdicts = append(c.verdicts, v)
	return c.err
}

func (c *collector) Skip(_ context.Context, index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.skipped = append(c.skipped, index)
	return nil
}

func (c *collector) sortedIndexes() []int {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]int, 0, len(c.verdicts))
	for _, v := range c.verdicts {
		out = append(out, v.Index)
	}
	sort.Ints(out)
	return out
}

func items(texts ...string) []batch.Item {
	out := make([]batch.Item, len(texts))
	for i, text := range texts {
		out[i] = batch.Item{Index: i, Text: text}
	}
	return out
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i + 1
	}
	return out
}

// syncBuffer is a thread-safe buffer for capturing log output.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.String()
}

func testContext(w *syncBuffer) context.Context {
	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return ctxlog.WithLogger(context.Background(), logger)
}

func TestRun_OneVerdictPerItem(t *testing.T) {
	defer goleak.VerifyNone(t)

	texts := []string{"()", "([)]", "{}", "()()", "", "foo", "(bar)", "())", "({})", "({[]})"}
	want := map[int]bool{1: true, 2: false, 3: false, 4: true, 5: true, 6: false, 7: false, 8: false, 9: true, 10: true}

	out := &collector{}
	summary, err := New(Options{}).Run(testContext(&syncBuffer{}), items(texts...), out)
	require.NoError(t, err)

	assert.Equal(t, seq(len(texts)), out.sortedIndexes())
	for _, v := range out.verdicts {
		assert.Equal(t, want[v.Index], v.WellFormed, "index %d", v.Index)
	}
	assert.Equal(t, len(texts), summary.Submitted)
	assert.Equal(t, len(texts), summary.Emitted)
	assert.Zero(t, summary.Failed)
	assert.Equal(t, 5, summary.WellFormed)
	assert.Empty(t, out.skipped)
}

func TestRun_IndexSetIndependentOfScheduling(t *testing.T) {
	defer goleak.VerifyNone(t)

	const n = 500
	texts := make([]string, n)
	for i := range texts {
		texts[i] = "({[()][{}][[]]})"
	}

	for _, workers := range []int{0, 1, 3, 64} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			out := &collector{}
			summary, err := New(Options{Workers: workers}).Run(context.Background(), items(texts...), out)
			require.NoError(t, err)
			assert.Equal(t, seq(n), out.sortedIndexes())
			assert.Equal(t, n, summary.WellFormed)
		})
	}
}

func TestRun_PanickingUnitIsIsolated(t *testing.T) {
	defer goleak.VerifyNone(t)

	check := func(text string) bracket.Result {
		if text == "boom" {
			panic("validator exploded")
		}
		return bracket.Check(text)
	}

	logs := &syncBuffer{}
	out := &collector{}
	summary, err := New(Options{Check: check}).Run(testContext(logs), items("()", "boom", "(]", "boom"), out)
	require.NoError(t, err)

	assert.Equal(t, []int{1, 3}, out.sortedIndexes())
	assert.ElementsMatch(t, []int{2, 4}, out.skipped)
	assert.Equal(t, 4, summary.Submitted)
	assert.Equal(t, 2, summary.Emitted)
	assert.Equal(t, 2, summary.Failed)
	assert.Contains(t, logs.String(), "Validation unit failed.")
	assert.Contains(t, logs.String(), "validator exploded")
	assert.Contains(t, logs.String(), "index=2 panic=", "failure log carries the unit's index")
}

func TestRun_WorkersCapInFlightUnits(t *testing.T) {
	defer goleak.VerifyNone(t)

	var inFlight, peak atomic.Int32
	check := func(text string) bracket.Result {
		now := inFlight.Add(1)
		for {
			old := peak.Load()
			if now <= old || peak.CompareAndSwap(old, now) {
				break
			}
		}
		time.Sleep(2 * time.Millisecond)
		inFlight.Add(-1)
		return bracket.Check(text)
	}

	texts := make([]string, 40)
	out := &collector{}
	_, err := New(Options{Workers: 3, Check: check}).Run(context.Background(), items(texts...), out)
	require.NoError(t, err)

	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, seq(len(texts)), out.sortedIndexes())
}

func TestRun_UnboundedRunsEveryUnitAtOnce(t *testing.T) {
	defer goleak.VerifyNone(t)

	// Each unit waits for all others to start; this only finishes when
	// nothing limits concurrency.
	const n = 50
	var started sync.WaitGroup
	started.Add(n)
	check := func(text string) bracket.Result {
		started.Done()
		started.Wait()
		return bracket.Check(text)
	}

	out := &collector{}
	summary, err := New(Options{Check: check}).Run(context.Background(), items(make([]string, n)...), out)
	require.NoError(t, err)
	assert.Equal(t, n, summary.Emitted)
}

func TestRun_EmitErrorDoesNotStopRun(t *testing.T) {
	defer goleak.VerifyNone(t)

	out := &collector{err: errors.New("pipe closed")}
	summary, err := New(Options{}).Run(context.Background(), items("()", "[]", "{}"), out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipe closed")
	assert.Equal(t, 3, summary.Emitted)
	assert.Len(t, out.verdicts, 3)
}

func TestRun_ExplainLogsViolations(t *testing.T) {
	defer goleak.VerifyNone(t)

	logs := &syncBuffer{}
	_, err := New(Options{Explain: true}).Run(testContext(logs), items("(a)", "()"), &collector{})
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "Rule violation.")
	assert.Contains(t, out, "index=1")
	assert.Contains(t, out, `reason="unrecognized character"`)
	assert.NotContains(t, out, "index=2 pos")
}

func TestRun_ProgressReportsRunningTotals(t *testing.T) {
	defer goleak.VerifyNone(t)

	check := func(text string) bracket.Result {
		if text == "boom" {
			panic("validator exploded")
		}
		return bracket.Check(text)
	}

	var reports []Summary
	out := &collector{}
	summary, err := New(Options{
		Workers:  1,
		Check:    check,
		Progress: func(s Summary) { reports = append(reports, s) },
	}).Run(testContext(&syncBuffer{}), items("()", "boom", "(]", "{}"), out)
	require.NoError(t, err)

	require.Len(t, reports, 4, "one report per unit")
	for i, r := range reports {
		assert.Equal(t, 4, r.Submitted)
		assert.Equal(t, i+1, r.Emitted+r.Failed)
	}
	last := reports[len(reports)-1]
	assert.Equal(t, summary.Emitted, last.Emitted)
	assert.Equal(t, summary.Failed, last.Failed)
	assert.Equal(t, summary.WellFormed, last.WellFormed)
}

func TestRun_Empty(t *testing.T) {
	defer goleak.VerifyNone(t)

	out := &collector{}
	summary, err := New(Options{}).Run(context.Background(), nil, out)
	require.NoError(t, err)
	assert.Zero(t, summary.Submitted)
	assert.Empty(t, out.verdicts)
}
