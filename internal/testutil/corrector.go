package testutil

import (
	"context"
	"sync"

	"github.com/roach88/emend/internal/oracle"
)

// Reply is one scripted backend response: either corrections or an error.
type Reply struct {
	Corrections []oracle.Correction
	Err         error
}

// ScriptedCorrector replays a fixed script of backend replies, one per
// CorrectBatch call, and records every batch it was sent.
//
// Calls past the end of the script succeed with no corrections. This keeps
// exhaustion scenarios short: script the productive attempts and let the
// rest come back empty.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex,
// though the engine dispatches sequentially.
type ScriptedCorrector struct {
	mu     sync.Mutex
	script []Reply
	calls  [][]oracle.Item
}

// NewScriptedCorrector creates a corrector that replays the given replies in
// order.
func NewScriptedCorrector(script ...Reply) *ScriptedCorrector {
	return &ScriptedCorrector{script: script}
}

// CorrectBatch records the batch and returns the next scripted reply.
func (c *ScriptedCorrector) CorrectBatch(_ context.Context, items []oracle.Item) ([]oracle.Correction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	batch := make([]oracle.Item, len(items))
	copy(batch, items)
	c.calls = append(c.calls, batch)

	if len(c.calls) > len(c.script) {
		return nil, nil
	}
	reply := c.script[len(c.calls)-1]
	return reply.Corrections, reply.Err
}

// Calls returns a deep copy of every batch sent so far, in call order.
func (c *ScriptedCorrector) Calls() [][]oracle.Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	calls := make([][]oracle.Item, len(c.calls))
	for i, batch := range c.calls {
		calls[i] = make([]oracle.Item, len(batch))
		copy(calls[i], batch)
	}
	return calls
}
