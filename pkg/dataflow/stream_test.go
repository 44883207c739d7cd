package dataflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovlab/go-dataflow/pkg/dataflow"
)

func TestNilStreamIsAbsent(t *testing.T) {
	var s *dataflow.Stream[int]

	_, ok, err := s.Pull(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)

	title, err := s.Title(context.Background())
	require.NoError(t, err)
	assert.Empty(t, title)

	assert.Empty(t, s.Name())
	assert.True(t, s.Aborted())
}

func TestHeaderBeforeFirstItem(t *testing.T) {
	g := newGraph(t)
	out, err := dataflow.AddSource(g, "titled", func(ctx context.Context, p *dataflow.Proc[int]) error {
		if err := p.SetHeader(dataflow.Header{Title: "/topic"}); err != nil {
			return err
		}

		return p.Push(ctx, 1)
	})
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, []int{1}, *got)

	title, err := out.Title(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "/topic", title)
}

func TestHeaderAfterFirstItemFails(t *testing.T) {
	g := newGraph(t)
	out, err := dataflow.AddSource(g, "late", func(ctx context.Context, p *dataflow.Proc[int]) error {
		if err := p.Push(ctx, 1); err != nil {
			return err
		}

		return p.SetHeader(dataflow.Header{Title: "too late"})
	})
	require.NoError(t, err)
	addCollect(t, g, "collect", out)

	assert.ErrorIs(t, g.Run(context.Background()), dataflow.ErrHeaderLate)
}

func TestHeaderSetTwiceFails(t *testing.T) {
	g := newGraph(t)
	out, err := dataflow.AddSource(g, "twice", func(ctx context.Context, p *dataflow.Proc[int]) error {
		if err := p.SetHeader(dataflow.Header{Title: "first"}); err != nil {
			return err
		}

		return p.SetHeader(dataflow.Header{Title: "second"})
	})
	require.NoError(t, err)
	addCollect(t, g, "collect", out)

	assert.ErrorIs(t, g.Run(context.Background()), dataflow.ErrHeaderSet)
}

func TestUnsetHeaderIsEmpty(t *testing.T) {
	g := newGraph(t)
	src := addRangeSource(t, g, "untitled", 1)
	addCollect(t, g, "collect", src)

	require.NoError(t, g.Run(context.Background()))

	title, err := src.Title(context.Background())
	require.NoError(t, err)
	assert.Empty(t, title)
}

func TestPullAllSkipsEmptyStreams(t *testing.T) {
	g := newGraph(t)
	one := addRangeSource(t, g, "one", 1)
	absent := addAbortedSource(t, g, "absent")
	three := addRangeSource(t, g, "three", 3)

	out, err := dataflow.AddNodeN(g, "gather", []*dataflow.Stream[int]{one, absent, nil, three},
		func(ctx context.Context, p *dataflow.Proc[int], ins []*dataflow.Stream[int]) error {
			items, err := dataflow.PullAll(ctx, ins...)
			if err != nil {
				return err
			}
			for _, item := range items {
				if err := p.Push(ctx, item); err != nil {
					return err
				}
			}

			return nil
		})
	require.NoError(t, err)
	got := addCollect(t, g, "collect", out)

	require.NoError(t, g.Run(context.Background()))
	assert.Equal(t, []int{1, 3}, *got)
}
