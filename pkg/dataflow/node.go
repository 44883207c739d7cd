package dataflow

import "context"

// SourceFn produces items with no declared inputs.
type SourceFn[O any] func(ctx context.Context, p *Proc[O]) error

// NodeFn consumes one declared input stream. The node owns the input and is
// expected to pull it to its end marker.
type NodeFn[I, O any] func(ctx context.Context, p *Proc[O], in *Stream[I]) error

// Node2Fn consumes two declared input streams.
type Node2Fn[I1, I2, O any] func(ctx context.Context, p *Proc[O], in1 *Stream[I1], in2 *Stream[I2]) error

// NodeNFn consumes a homogeneous set of input streams, typically the
// instance streams of an upstream foreach node.
type NodeNFn[I, O any] func(ctx context.Context, p *Proc[O], ins []*Stream[I]) error

// AddSource adds a node with no inputs.
func AddSource[O any](g *Graph, name string, fn SourceFn[O]) (*Stream[O], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}
	if err := g.register(name, kindSource); err != nil {
		return nil, err
	}

	out := newStream[O](name)
	p := newProc(g, name, out)
	run(g, name, out, func(ctx context.Context) error {
		return fn(ctx, p)
	})

	return out, nil
}

// AddNode adds a node over one input stream. A nil input is valid absence:
// the node still runs and observes an immediately empty stream.
func AddNode[I, O any](g *Graph, name string, in *Stream[I], fn NodeFn[I, O]) (*Stream[O], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}
	if err := g.register(name, kindNode, in.Name()); err != nil {
		return nil, err
	}

	out := newStream[O](name)
	p := newProc(g, name, out)
	run(g, name, out, func(ctx context.Context) error {
		return fn(ctx, p, in)
	})

	return out, nil
}

// AddNode2 adds a node over two input streams.
func AddNode2[I1, I2, O any](g *Graph, name string, in1 *Stream[I1], in2 *Stream[I2], fn Node2Fn[I1, I2, O]) (*Stream[O], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}
	if err := g.register(name, kindNode, in1.Name(), in2.Name()); err != nil {
		return nil, err
	}

	out := newStream[O](name)
	p := newProc(g, name, out)
	run(g, name, out, func(ctx context.Context) error {
		return fn(ctx, p, in1, in2)
	})

	return out, nil
}

// AddNodeN adds a node over a homogeneous set of input streams.
func AddNodeN[I, O any](g *Graph, name string, ins []*Stream[I], fn NodeNFn[I, O]) (*Stream[O], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}
	parents := make([]string, len(ins))
	for i, in := range ins {
		parents[i] = in.Name()
	}
	if err := g.register(name, kindNode, parents...); err != nil {
		return nil, err
	}

	out := newStream[O](name)
	p := newProc(g, name, out)
	run(g, name, out, func(ctx context.Context) error {
		return fn(ctx, p, ins)
	})

	return out, nil
}
