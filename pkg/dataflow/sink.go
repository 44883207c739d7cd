package dataflow

import "context"

// AddSink adds a terminal node that consumes one input stream to its end
// marker, calling fn for every item.
func AddSink[I any](g *Graph, name string, in *Stream[I], fn func(ctx context.Context, item I) error) error {
	if g == nil {
		return ErrGraphMustBeSet
	}
	if err := g.register(name, kindSink, in.Name()); err != nil {
		return err
	}

	errC := make(chan error, 1)
	g.errcList.add(newErrorChan(name, errC))

	g.goFn = append(g.goFn, func(ctx context.Context) {
		defer close(errC)

		for {
			item, ok, err := in.Pull(ctx)
			if err != nil {
				errC <- err

				return
			}
			if !ok {
				return
			}
			if err := fn(ctx, item); err != nil {
				errC <- err

				return
			}
		}
	})

	return nil
}
