package dataflow

import "context"

// AddMerge adds a node that fans at least two homogeneous streams into one.
// It re-emits every item of the first input, then the second, and so on:
// per-source order is preserved and sources interleave strictly in
// declaration order, not by timestamp. Aborted or nil inputs contribute
// nothing.
func AddMerge[T any](g *Graph, name string, ins ...*Stream[T]) (*Stream[T], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}
	if len(ins) < 2 {
		return nil, ErrMergeInputs
	}

	parents := make([]string, len(ins))
	for i, in := range ins {
		parents[i] = in.Name()
	}
	if err := g.register(name, kindMerge, parents...); err != nil {
		return nil, err
	}

	out := newStream[T](name)
	p := newProc(g, name, out)
	run(g, name, out, func(ctx context.Context) error {
		for _, in := range ins {
			for {
				item, ok, err := in.Pull(ctx)
				if err != nil {
					return err
				}
				if !ok {
					break
				}
				if err := p.Push(ctx, item); err != nil {
					return err
				}
			}
		}

		return nil
	})

	return out, nil
}
