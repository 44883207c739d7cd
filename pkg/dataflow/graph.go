package dataflow

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/dominikbraun/graph"
	"github.com/pkg/errors"

	"github.com/rovlab/go-dataflow/pkg/dataflow/drawer"
	"github.com/rovlab/go-dataflow/pkg/dataflow/measure"
)

// Node kinds, recorded on the registry vertices for the drawer.
const (
	kindSource  = "source"
	kindNode    = "node"
	kindForeach = "foreach"
	kindSplit   = "split"
	kindMerge   = "merge"
	kindSink    = "sink"
)

// Graph is a dataflow graph of nodes. Adding a node registers it and its
// edges; Run starts every node goroutine and waits for completion.
type Graph struct {
	log       *slog.Logger
	reg       graph.Graph[string, string]
	store     *artifactStore
	measure   *measure.Measure
	drawPath  string
	errcList  *errorChans
	goFn      []func(ctx context.Context)
	startTime time.Time
}

// New creates an empty graph. Node names must be unique and edges must not
// form a cycle; both are enforced at construction time.
func New(opts ...Option) (*Graph, error) {
	g := &Graph{
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		reg:       graph.New(graph.StringHash, graph.Directed(), graph.PreventCycles()),
		errcList:  &errorChans{},
		startTime: time.Now(),
	}

	for _, opt := range opts {
		if err := opt(g); err != nil {
			return nil, errors.Wrap(err, "unable to apply graph option")
		}
	}

	return g, nil
}

// register adds a node vertex plus one edge per named parent. Absent parents
// (nil input streams) have no name and produce no edge.
func (g *Graph) register(name, kind string, parents ...string) error {
	err := g.reg.AddVertex(name,
		graph.VertexAttribute("style", "filled"),
		graph.VertexAttribute("fillcolor", drawer.KindColor(kind)),
	)
	if err != nil {
		return errors.Wrapf(err, "unable to add node %s", name)
	}

	for _, parent := range parents {
		if parent == "" {
			continue
		}
		if err := g.reg.AddEdge(parent, name); err != nil {
			return errors.Wrapf(err, "unable to link %s to %s", parent, name)
		}
	}

	return nil
}

// run wraps a node function into a goroutine started by Run. The node's
// output stream is always finished here: normally on return, empty and
// flagged on ErrAbort. Real errors are reported on the node error channel.
func run[O any](g *Graph, name string, out *Stream[O], fn func(ctx context.Context) error) {
	errC := make(chan error, 1)
	g.errcList.add(newErrorChan(name, errC))

	inv := g.measure.AddInvocation(name)

	g.goFn = append(g.goFn, func(ctx context.Context) {
		defer close(errC)

		start := time.Now()
		err := fn(ctx)
		inv.SetElapsed(time.Since(start))

		switch {
		case err == nil:
			out.finish(false)
		case errors.Is(err, ErrAbort):
			g.log.Debug("node aborted", "node", name)
			out.finish(true)
		default:
			out.finish(false)
			errC <- err
		}
	})
}

// waitForGraph waits for results from all node error channels.
// It returns early on the first error.
func waitForGraph(errs ...*errorChan) error {
	errc := mergeErrors(errs...)
	for err := range errc {
		if err != nil {
			return err
		}
	}

	return nil
}

// Run starts every registered node and waits for the graph to finish.
func (g *Graph) Run(ctx context.Context) error {
	dCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	for _, fn := range g.goFn {
		go fn(dCtx)
	}

	err := waitForGraph(g.errcList.list...)
	if err != nil {
		return err
	}

	return g.finishRun()
}

func (g *Graph) finishRun() error {
	if g.drawPath == "" {
		return nil
	}

	err := drawer.Write(g.reg, g.drawPath)
	if err != nil {
		return errors.Wrap(err, "unable to draw graph")
	}

	return nil
}
