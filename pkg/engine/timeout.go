package engine

import (
	"fmt"
	"time"

	"github.com/chazu/hexablock/pkg/topology"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

type evalResult struct {
	doc    *topology.Document
	errors []EvalError
	err    error
}

// wait blocks until the evaluation of generation gen reports on ch or the
// engine timeout expires. A timed out evaluation keeps running in its
// goroutine; a result arriving after a newer Evaluate call began is
// dropped.
func (e *Engine) wait(ch <-chan evalResult, gen uint64) (*topology.Document, []EvalError, error) {
	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		e.mu.Lock()
		stale := gen != e.generation
		e.mu.Unlock()
		if stale {
			return nil, nil, fmt.Errorf("evaluation superseded by newer request")
		}
		return res.doc, res.errors, res.err
	case <-timer.C:
		return nil, nil, fmt.Errorf("evaluation timed out after %s", e.timeout)
	}
}
