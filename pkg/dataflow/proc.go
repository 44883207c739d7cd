package dataflow

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/rovlab/go-dataflow/pkg/dataflow/measure"
)

// Proc is the per-invocation handle a node function emits through. Every
// instance of a foreach node receives its own Proc; instances share no state.
type Proc[O any] struct {
	name   string
	out    *Stream[O]
	log    *slog.Logger
	graph  *Graph
	stats  *measure.Invocation
	pushed atomic.Bool
}

func newProc[O any](g *Graph, name string, out *Stream[O]) *Proc[O] {
	return &Proc[O]{
		name:  name,
		out:   out,
		log:   g.log.With("node", name),
		graph: g,
		stats: g.measure.AddInvocation(name),
	}
}

// Push emits one item on the node's output stream. It blocks until the
// consumer has pulled the item; the graph is pull-driven.
func (p *Proc[O]) Push(ctx context.Context, item O) error {
	select {
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), p.name)
	case p.out.items <- item:
		p.pushed.Store(true)
		p.stats.AddPushed(1)

		return nil
	}
}

// SetHeader attaches metadata to the output stream. It may be called at most
// once, before the first Push.
func (p *Proc[O]) SetHeader(h Header) error {
	if p.pushed.Load() {
		return errors.Wrap(ErrHeaderLate, p.name)
	}

	return p.out.setHeader(h)
}

// MakeFile allocates a unique artifact location for this node and name. The
// artifact is immutable for readers once the node completes.
func (p *Proc[O]) MakeFile(name string) (File, error) {
	file, err := p.graph.store.MakeFile(p.name, name)
	if err != nil {
		return File{}, errors.Wrap(err, p.name)
	}

	return file, nil
}

// Logger returns the structured logger scoped to this invocation.
func (p *Proc[O]) Logger() *slog.Logger {
	return p.log
}

// Warn logs one invocation-level warning and counts it.
func (p *Proc[O]) Warn(msg string, args ...any) {
	p.log.Warn(msg, args...)
	p.stats.AddWarning()
}

// AddSkipped records records that were counted and skipped rather than
// failed on.
func (p *Proc[O]) AddSkipped(n int) {
	p.stats.AddSkipped(int64(n))
}
