package dataflow

import (
	"context"
	"sync"
)

// AddSplit duplicates a stream to total consumers: every item of the input
// is re-emitted on each of the returned streams, in input order. Outputs are
// lightly buffered so one slow consumer does not immediately stall its
// siblings.
func AddSplit[T any](g *Graph, name string, in *Stream[T], total int) ([]*Stream[T], error) {
	if g == nil {
		return nil, ErrGraphMustBeSet
	}
	if total <= 0 {
		return nil, ErrSplitTotal
	}
	if err := g.register(name, kindSplit, in.Name()); err != nil {
		return nil, err
	}

	outs := make([]*Stream[T], total)
	buffers := make([]chan T, total)
	for i := range outs {
		outs[i] = newStream[T](name)
		buffers[i] = make(chan T, 1)
	}

	errC := make(chan error, total+1)
	g.errcList.add(newErrorChan(name, errC))

	g.goFn = append(g.goFn, func(ctx context.Context) {
		wgrp := sync.WaitGroup{}
		wgrp.Add(total)
		for i := range buffers {
			i := i
			go func() {
				defer wgrp.Done()
				for {
					select {
					case <-ctx.Done():
						errC <- ctx.Err()

						return
					case item, ok := <-buffers[i]:
						if !ok {
							return
						}
						select {
						case <-ctx.Done():
							errC <- ctx.Err()

							return
						case outs[i].items <- item:
						}
					}
				}
			}()
		}

		defer func() {
			for _, buf := range buffers {
				close(buf)
			}
			wgrp.Wait()
			// an aborted input stays absent through the split
			for _, out := range outs {
				out.finish(in.Aborted())
			}
			close(errC)
		}()

		if in == nil {
			return
		}

		// headerless producers only release Header waiters once they finish,
		// so never wait for the header ahead of the items: forward items right
		// away and copy the header onto the outputs whenever it shows up
		headerDone := false
		forwardHeader := func() {
			for _, out := range outs {
				_ = out.setHeader(in.header)
			}
			headerDone = true
		}
		fanOut := func(item T) bool {
			for _, buf := range buffers {
				select {
				case <-ctx.Done():
					errC <- ctx.Err()

					return false
				case buf <- item:
				}
			}

			return true
		}

		for {
			if !headerDone {
				select {
				case <-in.headerSet:
					forwardHeader()
				default:
				}
			}
			if headerDone {
				item, ok, err := in.Pull(ctx)
				if err != nil {
					errC <- err

					return
				}
				if !ok {
					return
				}
				if !fanOut(item) {
					return
				}

				continue
			}
			select {
			case <-ctx.Done():
				errC <- ctx.Err()

				return
			case <-in.headerSet:
				forwardHeader()
			case item, ok := <-in.items:
				if !ok {
					return
				}
				if !fanOut(item) {
					return
				}
			}
		}
	})

	return outs, nil
}

// AddDrain adds a sink that discards a stream nothing else consumes, keeping
// the pull-driven graph free of blocked producers.
func AddDrain[I any](g *Graph, name string, in *Stream[I]) error {
	return AddSink(g, name, in, func(context.Context, I) error {
		return nil
	})
}

// Exhaust pulls a stream to its end marker, discarding items. Nodes use it
// to finish consuming a declared input they no longer need items from.
func Exhaust[T any](ctx context.Context, s *Stream[T]) error {
	for {
		_, ok, err := s.Pull(ctx)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
	}
}
