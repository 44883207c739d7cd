package dataflow

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ForeachFn is a node function instantiated once per collection element.
type ForeachFn[E, O any] func(ctx context.Context, p *Proc[O], elem E) error

type foreachConfig[E any] struct {
	concurrency int
	parent      func(E) string
}

type ForeachOption[E any] func(*foreachConfig[E])

// ForeachConcurrency caps how many instances run at once. The default is
// unlimited; instances are independent either way.
func ForeachConcurrency[E any](n int) ForeachOption[E] {
	return func(cfg *foreachConfig[E]) {
		cfg.concurrency = n
	}
}

// ForeachParent links each instance to the node named by its element, for
// elements derived from upstream streams.
func ForeachParent[E any](parent func(E) string) ForeachOption[E] {
	return func(cfg *foreachConfig[E]) {
		cfg.parent = parent
	}
}

// AddForeach instantiates fn once per element of a dynamically discovered
// collection. Each instance gets its own output stream, named after the node
// and the element key, and shares no state with its siblings. An instance
// returning ErrAbort ends its own stream empty without affecting the others;
// a real error cancels the whole group.
func AddForeach[E, O any](g *Graph, name string, elems []E, key func(E) string, fn ForeachFn[E, O], opts ...ForeachOption[E]) ([]*Stream[O], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}

	cfg := foreachConfig[E]{}
	for _, opt := range opts {
		opt(&cfg)
	}

	outs := make([]*Stream[O], len(elems))
	procs := make([]*Proc[O], len(elems))
	for i, elem := range elems {
		instance := name + "[" + key(elem) + "]"
		var parents []string
		if cfg.parent != nil {
			parents = append(parents, cfg.parent(elem))
		}
		if err := g.register(instance, kindForeach, parents...); err != nil {
			return nil, err
		}
		outs[i] = newStream[O](instance)
		procs[i] = newProc(g, instance, outs[i])
	}

	errC := make(chan error, len(elems))
	g.errcList.add(newErrorChan(name, errC))

	g.goFn = append(g.goFn, func(ctx context.Context) {
		defer close(errC)

		grp, gCtx := errgroup.WithContext(ctx)
		if cfg.concurrency > 0 {
			grp.SetLimit(cfg.concurrency)
		}
		for i := range elems {
			i := i
			grp.Go(func() error {
				start := time.Now()
				err := fn(gCtx, procs[i], elems[i])
				procs[i].stats.SetElapsed(time.Since(start))

				switch {
				case err == nil:
					outs[i].finish(false)
				case errors.Is(err, ErrAbort):
					g.log.Debug("node aborted", "node", outs[i].name)
					outs[i].finish(true)
				default:
					outs[i].finish(false)

					return errors.Wrap(err, outs[i].name)
				}

				return nil
			})
		}
		if err := grp.Wait(); err != nil {
			errC <- err
		}
	})

	return outs, nil
}
