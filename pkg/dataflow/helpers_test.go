package dataflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

func newGraph(t *testing.T, opts ...dataflow.Option) *dataflow.Graph {
	t.Helper()
	g, err := dataflow.New(opts...)
	require.NoError(t, err)

	return g
}

func addRangeSource(t *testing.T, g *dataflow.Graph, name string, items ...int) *dataflow.Stream[int] {
	t.Helper()
	out, err := dataflow.AddSource(g, name, func(ctx context.Context, p *dataflow.Proc[int]) error {
		for _, item := range items {
			if err := p.Push(ctx, item); err != nil {
				return err
			}
		}

		return nil
	})
	require.NoError(t, err)

	return out
}

func addAbortedSource(t *testing.T, g *dataflow.Graph, name string) *dataflow.Stream[int] {
	t.Helper()
	out, err := dataflow.AddSource(g, name, func(ctx context.Context, p *dataflow.Proc[int]) error {
		return dataflow.ErrAbort
	})
	require.NoError(t, err)

	return out
}

func addCollect[T any](t *testing.T, g *dataflow.Graph, name string, in *dataflow.Stream[T]) *[]T {
	t.Helper()
	got := &[]T{}
	err := dataflow.AddSink(g, name, in, func(_ context.Context, item T) error {
		*got = append(*got, item)

		return nil
	})
	require.NoError(t, err)

	return got
}
