package dataflow

import (
	"log/slog"

	"github.com/rovlab/go-dataflow/pkg/dataflow/measure"
)

type Option func(g *Graph) error

// WithLogger sets the structured logger node invocations log through. The
// default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(g *Graph) error {
		g.log = log

		return nil
	}
}

// WithArtifactDir roots MakeFile allocations at dir. Without it, MakeFile
// fails with ErrNoArtifactDir.
func WithArtifactDir(dir string) Option {
	return func(g *Graph) error {
		g.store = newArtifactStore(dir)

		return nil
	}
}

// WithMeasure collects per-invocation diagnostics into m.
func WithMeasure(m *measure.Measure) Option {
	return func(g *Graph) error {
		g.measure = m

		return nil
	}
}

// WithDrawer writes a DOT rendering of the node graph to path after a
// successful run.
func WithDrawer(path string) Option {
	return func(g *Graph) error {
		g.drawPath = path

		return nil
	}
}
